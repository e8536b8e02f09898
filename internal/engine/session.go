package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"battler-server/internal/catalog"
	"battler-server/internal/domain"
	"battler-server/internal/infrastructure/storage"
	"battler-server/internal/network"
	"battler-server/internal/systems"
	"battler-server/pkg/api"
	"battler-server/pkg/logger"
)

// TickInterval — шаг цикла боя. Подвешивание происходит между тиками,
// никогда посреди вычисления.
const TickInterval = 60 * time.Millisecond

type sessionCommand int

const (
	cmdRetry sessionCommand = iota
	cmdContinue
	cmdPauseToggle
)

// Session — один изолированный забег одного клиента: цикл тиков,
// очередь ввода и жизненный цикл боёв внутри забега.
//
// Всё игровое состояние принадлежит горутине Run; снаружи в сессию
// попадают только сообщения через каналы.
type Session struct {
	ID   string
	Mode domain.GameMode

	cat    *catalog.Catalog
	engine *Engine
	store  *storage.Service
	hub    *network.Broadcaster
	rng    *rand.Rand

	state   GameState
	stats   BattleStats
	history domain.PlayHistory
	tick    int64

	// awaiting — забег окончен, ждём RETRY/CONTINUE.
	awaiting bool

	// inputs — очередь ввода. Быстрые нажатия внутри одного кадра
	// сериализуются: вычитывается ровно один элемент за тик.
	inputs   chan domain.GameInput
	commands chan sessionCommand
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewSession собирает сессию и первый бой забега.
func NewSession(cat *catalog.Catalog, store *storage.Service, hub *network.Broadcaster, mode domain.GameMode, seed int64) (*Session, error) {
	rng := rand.New(rand.NewSource(seed))

	s := &Session{
		ID:       uuid.NewString(),
		Mode:     mode,
		cat:      cat,
		engine:   New(rng),
		store:    store,
		hub:      hub,
		rng:      rng,
		inputs:   make(chan domain.GameInput, 64),
		commands: make(chan sessionCommand, 8),
		stopCh:   make(chan struct{}),
	}

	if err := s.beginRun(0, 0); err != nil {
		return nil, err
	}
	return s, nil
}

// beginRun создает свежую историю забега и бой с указанного индекса.
func (s *Session) beginRun(monsterIndex, carryScore int) error {
	now := time.Now()
	state, err := NewBattle(s.cat, s.Mode, monsterIndex, carryScore, now)
	if err != nil {
		return err
	}

	s.state = state
	s.stats = BattleStats{}
	s.tick = 0
	s.awaiting = false
	s.history = domain.PlayHistory{
		ID:        uuid.NewString(),
		Mode:      s.Mode,
		StartedAt: now.UnixMilli(),
		Battles:   []domain.BattleResult{},
	}
	return nil
}

// --- Внешний интерфейс (вызывается с горутины клиента) ---

// QueueInput ставит ввод тика в очередь. Переполненная очередь роняет
// самый свежий ввод, а не блокирует читателя соединения.
func (s *Session) QueueInput(in domain.GameInput) {
	select {
	case s.inputs <- in:
	default:
	}
}

func (s *Session) Retry()       { s.sendCommand(cmdRetry) }
func (s *Session) Continue()    { s.sendCommand(cmdContinue) }
func (s *Session) TogglePause() { s.sendCommand(cmdPauseToggle) }

func (s *Session) sendCommand(cmd sessionCommand) {
	select {
	case s.commands <- cmd:
	default:
	}
}

// Stop завершает цикл сессии. Повторные вызовы безопасны.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// --- Цикл ---

// Run крутит цикл тиков до остановки. Запускается на своей горутине.
func (s *Session) Run() {
	logger.Log.WithFields(logrus.Fields{
		"session": s.ID,
		"mode":    s.Mode,
	}).Info("Battle session started")

	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	defer s.engine.Stop()

	for {
		select {
		case <-s.stopCh:
			logger.Log.WithField("session", s.ID).Info("Battle session stopped")
			return

		case cmd := <-s.commands:
			s.handleCommand(cmd)

		case <-s.engine.DecayEvents():
			s.state = ApplyComboDecay(s.state)

		case <-ticker.C:
			s.tickOnce(float64(TickInterval.Milliseconds()))
		}
	}
}

func (s *Session) tickOnce(deltaMS float64) {
	if s.awaiting || s.state.IsPaused {
		s.publish("UPDATE", nil, nil)
		return
	}

	// 1. Один элемент очереди ввода за тик.
	var input domain.GameInput
	select {
	case input = <-s.inputs:
	default:
	}

	// 2. Герой.
	s.state = s.engine.ProcessInput(s.state, input, deltaMS, &s.stats)

	// 3. Фаза/кулдаун монстра.
	s.state.Monster = systems.UpdateMonster(s.state.Monster, s.state.MonsterConfig, deltaMS, s.state.Hero.Stats.CurrentHealth)

	// 4. Атака монстра, если ИИ дал добро.
	if systems.ShouldAttack(s.state.Monster, s.state.MonsterConfig, s.state.Hero.IsBlocking, s.state.Hero.IsDodging, s.rng) {
		s.state = s.engine.ProcessMonsterAI(s.state, deltaMS, &s.stats)
	}

	// 5. Терминальные условия.
	s.state = s.engine.CheckGameOver(s.state)
	s.tick++

	if s.state.IsVictory || s.state.IsGameOver {
		s.finalizeBattle()
		return
	}

	s.publish("UPDATE", nil, nil)
}

// finalizeBattle закрывает текущий бой: сводка, счет, переход к
// следующему монстру либо завершение забега.
func (s *Session) finalizeBattle() {
	result, err := s.engine.CalculateBattleResult(s.state, s.stats)
	if err != nil {
		// Бой без конфига — баг последовательности, в проде его не чиним на лету.
		logger.Log.WithField("session", s.ID).WithError(err).Error("Cannot finalize battle")
		s.awaiting = true
		return
	}

	s.history.Battles = append(s.history.Battles, result)

	if s.state.IsVictory {
		s.history.MonstersDefeated++
		s.state.Score += s.state.Monster.MaxHealth + s.stats.LongestCombo*10
	}

	if s.state.IsVictory && !s.state.IsGameOver {
		// Переход к следующему монстру: состояние заменяется целиком,
		// вперед переносится только счет.
		s.publish("BATTLE_END", &result, nil)

		next, err := NewBattle(s.cat, s.Mode, s.state.CurrentMonsterIndex+1, s.state.Score, time.Now())
		if err != nil {
			logger.Log.WithField("session", s.ID).WithError(err).Error("Cannot load next monster")
			s.awaiting = true
			return
		}
		s.state = next
		s.stats = BattleStats{}
		return
	}

	s.finalizeRun(result)
}

// finalizeRun замораживает историю забега и сохраняет её вместе с
// записью таблицы лидеров. Ошибки персистентности логируются, но бой
// игрока они не ломают.
func (s *Session) finalizeRun(result domain.BattleResult) {
	now := time.Now()
	s.history.EndedAt = now.UnixMilli()
	s.history.TotalScore = s.state.Score
	completion := s.history.EndedAt - s.history.StartedAt
	s.history.CompletionTimeMS = &completion

	if err := s.store.AddPlayHistory(s.history); err != nil {
		logger.Log.WithField("session", s.ID).WithError(err).Error("Failed to persist play history")
	}

	entry := domain.ScoreboardEntry{
		ID:               uuid.NewString(),
		Mode:             s.Mode,
		Score:            s.state.Score,
		MonstersDefeated: s.history.MonstersDefeated,
		CompletionTimeMS: completion,
		Timestamp:        now.UnixMilli(),
		History:          s.history,
	}
	if err := s.store.AddScoreboardEntry(context.Background(), entry); err != nil {
		logger.Log.WithField("session", s.ID).WithError(err).Error("Failed to persist scoreboard entry")
	}

	logger.Log.WithFields(logrus.Fields{
		"session":  s.ID,
		"score":    s.state.Score,
		"defeated": s.history.MonstersDefeated,
		"victory":  s.state.IsVictory,
	}).Info("Run finished")

	s.awaiting = true
	s.publish("RUN_END", &result, &s.history)
}

func (s *Session) handleCommand(cmd sessionCommand) {
	switch cmd {
	case cmdRetry:
		// Новый забег с нуля в том же режиме.
		if err := s.beginRun(0, 0); err != nil {
			logger.Log.WithField("session", s.ID).WithError(err).Error("Retry failed")
			return
		}
		s.publish("UPDATE", nil, nil)

	case cmdContinue:
		// Продолжение после финального монстра: следующий индекс
		// (каталог зацикливается), счет переносится.
		if !s.awaiting {
			return
		}
		idx := s.state.CurrentMonsterIndex + 1
		score := s.state.Score
		if err := s.beginRun(idx, score); err != nil {
			logger.Log.WithField("session", s.ID).WithError(err).Error("Continue failed")
			return
		}
		s.publish("UPDATE", nil, nil)

	case cmdPauseToggle:
		s.state.IsPaused = !s.state.IsPaused
	}
}

// publish собирает снимок и отдает его подписчику сессии.
func (s *Session) publish(msgType string, result *domain.BattleResult, history *domain.PlayHistory) {
	if !s.hub.HasSubscriber(s.ID) {
		return
	}

	resp := api.ServerResponse{
		Type:    msgType,
		Tick:    s.tick,
		Hero:    s.heroView(),
		Monster: s.monsterView(),
		Battle: &api.BattleMeta{
			Mode:         string(s.Mode),
			MonsterIndex: s.state.CurrentMonsterIndex,
			Score:        s.state.Score,
			IsPaused:     s.state.IsPaused,
			IsGameOver:   s.state.IsGameOver,
			IsVictory:    s.state.IsVictory,
		},
		Result:  result,
		History: history,
	}
	s.hub.SendTo(s.ID, resp)
}

func (s *Session) heroView() *api.HeroView {
	h := s.state.Hero
	return &api.HeroView{
		Health:     h.Stats.CurrentHealth,
		MaxHealth:  h.Stats.MaxHealth,
		Stamina:    h.Stats.CurrentStamina,
		MaxStamina: h.Stats.MaxStamina,
		Focus:      h.Stats.CurrentFocus,
		MaxFocus:   h.Stats.MaxFocus,

		ComboCount:      h.ComboCount,
		ComboMultiplier: h.ComboMultiplier,

		IsBlocking:     h.IsBlocking,
		IsDodging:      h.IsDodging,
		DodgeDirection: string(h.DodgeDirection),
		LastAction:     h.LastAction,

		CounterWindowActive: s.state.CounterActive(time.Now()),
	}
}

func (s *Session) monsterView() *api.MonsterView {
	if s.state.MonsterConfig == nil {
		return nil
	}
	m := s.state.Monster
	cfg := s.state.MonsterConfig
	return &api.MonsterView{
		ID:          cfg.ID,
		Name:        cfg.Name,
		SpriteIndex: cfg.SpriteIndex,
		ColorTag:    cfg.ColorTag,
		Health:      m.CurrentHealth,
		MaxHealth:   m.MaxHealth,
		Phase:       string(m.Phase),
		TelegraphMS: systems.TelegraphDuration(m, cfg),
	}
}
