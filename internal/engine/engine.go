package engine

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"battler-server/internal/domain"
	"battler-server/internal/systems"
	"battler-server/pkg/logger"
)

// ErrNoMonsterConfig возвращается CalculateBattleResult, если бой
// финализируется без загруженного конфига монстра. Это баг
// последовательности вызовов, а не восстановимая ситуация.
var ErrNoMonsterConfig = errors.New("engine: battle result without monster config")

// Engine — боевой резолвер. Внутреннего игрового состояния не держит:
// GameState приходит значением и возвращается новым значением.
// Rng и часы инжектируются для детерминированных тестов.
type Engine struct {
	rng   *rand.Rand
	now   func() time.Time
	decay *decayScheduler
}

// New создает движок с указанным генератором случайностей.
func New(rng *rand.Rand) *Engine {
	return &Engine{
		rng:   rng,
		now:   time.Now,
		decay: newDecayScheduler(),
	}
}

// DecayEvents возвращает канал отложенных событий спада комбо.
// Владелец боя обязан вычитывать его и применять ApplyComboDecay
// на своей горутине цикла.
func (e *Engine) DecayEvents() <-chan struct{} {
	return e.decay.events
}

// Stop отменяет ожидающий спад комбо (вызывается при завершении боя).
func (e *Engine) Stop() {
	e.decay.cancel()
}

// ProcessInput — единственная точка мутации геройской части состояния.
// Вызывается раз в тик с накопленным вводом этого тика.
// Порядок шагов фиксирован и значим.
func (e *Engine) ProcessInput(state GameState, input domain.GameInput, deltaMS float64, stats *BattleStats) GameState {
	now := e.now()
	s := state

	// 1. Реген выносливости.
	s.Hero.Stats.CurrentStamina += domain.StaminaRegenRate * (deltaMS / 1000.0)
	s.Hero.Stats.Clamp()

	attacked := false

	// 2. Обычная атака. При нехватке выносливости молча отбрасывается:
	// никакого урона и изменений, кроме уже применённого регена.
	if input.Attack != nil {
		kind := *input.Attack
		cost := kind.StaminaCost()
		if s.Hero.Stats.CurrentStamina >= cost {
			dmg := HeroDamage(s.Hero.Stats.AttackPower, kind.Multiplier(), s.Hero.ComboMultiplier, s.CounterActive(now))
			s.Hero.Stats.CurrentStamina -= cost
			s.Hero.LastAction = string(kind)

			applied := applyDamageToMonster(&s.Monster, dmg)
			e.registerHit(&s, stats, applied)
			attacked = true
		}
	}

	// 3. Блок. Присутствие поля (даже false) — явное переключение стойки.
	// Цена в 5 выносливости списывается только если она есть: блокировать
	// можно и на пустой шкале (принятая особенность, не баг).
	if input.Block != nil {
		blocking := *input.Block
		s.Hero.IsBlocking = blocking
		if blocking {
			s.Hero.LastAction = "block"
			if s.Hero.Stats.CurrentStamina >= domain.StaminaCostBlock {
				s.Hero.Stats.CurrentStamina -= domain.StaminaCostBlock
			}
			if stats != nil {
				stats.Blocks++
			}
		} else {
			s.Hero.LastAction = ""
		}
	}

	// 4. Уклонение. Без ввода в этот тик состояние уклонения сбрасывается:
	// оно не переживает тик без продолжающегося ввода.
	if input.Dodge != domain.DodgeNone {
		if s.Hero.Stats.CurrentStamina >= domain.StaminaCostDodge {
			s.Hero.IsDodging = true
			s.Hero.DodgeDirection = input.Dodge
			s.Hero.Stats.CurrentStamina -= domain.StaminaCostDodge
			s.Hero.LastAction = "dodge"
			s.Hero.Stats.CurrentFocus += domain.FocusGainPerDodge
			s.Hero.Stats.Clamp()
			if stats != nil {
				stats.Dodges++
			}
			if e.checkDodgeSuccess(s.Monster) {
				s.openCounterWindow(now)
			}
		}
	} else {
		s.Hero.IsDodging = false
		s.Hero.DodgeDirection = domain.DodgeNone
	}

	// 5. Спецатака: требует полной шкалы фокуса, выносливость не тратит.
	specialed := false
	if input.Special && s.Hero.Stats.CurrentFocus >= s.Hero.Stats.MaxFocus {
		dmg := HeroDamage(s.Hero.Stats.AttackPower, domain.SpecialAttackMultiplier, s.Hero.ComboMultiplier, s.CounterActive(now))
		s.Hero.Stats.CurrentFocus = 0
		s.Hero.LastAction = "special"

		applied := applyDamageToMonster(&s.Monster, dmg)
		e.registerHit(&s, stats, applied)
		if stats != nil {
			stats.SpecialsUsed++
		}
		specialed = true
	}

	// 6. Спад комбо. Атака снимает ожидающую задачу, первый тик без
	// атаки взводит её; последующие пустые тики дедлайн не трогают —
	// отсчет идет от последнего действия.
	if attacked || specialed {
		e.decay.cancel()
	} else {
		e.decay.schedule(domain.ComboDecayTime)
	}

	// 7. Истечение контр-окна.
	if s.CounterWindowActive && now.After(s.CounterWindowExpires) {
		s.CounterWindowActive = false
	}

	// 8. Бонус удачного блока: блок в фазе атаки монстра открывает
	// контр-окно и даёт фокус.
	if s.Hero.IsBlocking && checkBlockSuccess(s.Monster) {
		s.openCounterWindow(now)
		s.Hero.Stats.CurrentFocus += domain.FocusGainPerBlock
		s.Hero.Stats.Clamp()
	}

	return s
}

// registerHit — общая часть шага атаки и спецатаки: счётчики урона,
// комбо и фокус за попадание.
func (e *Engine) registerHit(s *GameState, stats *BattleStats, applied int) {
	s.Hero.ComboCount++
	s.Hero.ComboMultiplier = math.Min(
		domain.MaxComboMultiplier,
		domain.BaseComboMultiplier+float64(s.Hero.ComboCount)*domain.ComboMultiplierStep,
	)
	s.Hero.Stats.CurrentFocus += domain.FocusGainPerHit
	s.Hero.Stats.Clamp()

	if stats != nil {
		stats.DamageDealt += applied
		if s.Hero.ComboCount > stats.LongestCombo {
			stats.LongestCombo = s.Hero.ComboCount
		}
	}
}

func (s *GameState) openCounterWindow(now time.Time) {
	s.CounterWindowActive = true
	s.CounterWindowExpires = now.Add(domain.CounterWindowDuration)
}

// checkDodgeSuccess: уклонение оценивается только если монстр в фазе
// атаки; вне её успеха нет. Успех — 70%.
func (e *Engine) checkDodgeSuccess(m domain.MonsterStats) bool {
	if m.Phase != domain.PhaseAttack {
		return false
	}
	return e.rng.Float64() < domain.DodgeSuccessChance
}

// checkBlockSuccess: блок успешен всегда, когда монстр в фазе атаки.
func checkBlockSuccess(m domain.MonsterStats) bool {
	return m.Phase == domain.PhaseAttack
}

// ApplyComboDecay применяет один отложенный спад комбо.
func ApplyComboDecay(state GameState) GameState {
	s := state
	if s.Hero.ComboCount > 0 {
		s.Hero.ComboCount--
	}
	s.Hero.ComboMultiplier -= domain.ComboMultiplierStep
	if s.Hero.ComboMultiplier < domain.BaseComboMultiplier {
		s.Hero.ComboMultiplier = domain.BaseComboMultiplier
	}
	return s
}

// ProcessMonsterAI — отдельная точка входа для хода монстра. Вызывается
// циклом, когда ShouldAttack дал добро. Продвигает таймеры (дублируя
// часть UpdateMonster — оба вызова за тик допустимы) и, если монстр в
// фазе атаки с готовым кулдауном, применяет урон по герою.
func (e *Engine) ProcessMonsterAI(state GameState, deltaMS float64, stats *BattleStats) GameState {
	s := state
	if s.MonsterConfig == nil {
		return s
	}

	s.Monster = systems.UpdateMonster(s.Monster, s.MonsterConfig, deltaMS, s.Hero.Stats.CurrentHealth)

	if s.Monster.Phase != domain.PhaseAttack || s.Monster.AttackCooldown > 0 {
		return s
	}

	ph, ok := s.MonsterConfig.PhaseConfig(s.Monster.Phase)
	if !ok || e.rng.Float64() >= ph.AttackFrequency {
		return s
	}

	pattern, ok := s.MonsterConfig.PatternForPhase(s.Monster.Phase)
	if !ok {
		return s
	}

	damage := MonsterDamage(pattern.Damage, s.Hero.Stats.Defense)

	// Блок и уклонение полностью гасят урон монстра — частичного
	// смягчения в этой модели нет.
	if !s.Hero.IsBlocking && !s.Hero.IsDodging {
		s.Hero.Stats.CurrentHealth -= damage
		s.Hero.Stats.Clamp()
		if stats != nil {
			stats.DamageTaken += damage
		}

		logger.Component("engine").WithFields(logrus.Fields{
			"monster":   s.MonsterConfig.ID,
			"pattern":   pattern.ID,
			"damage":    damage,
			"hero_hp":   s.Hero.Stats.CurrentHealth,
		}).Debug("Monster attack landed")
	}

	s.Monster.AttackCooldown = pattern.RecoveryTime
	return s
}

// --- Формулы урона (точные, закреплены числовыми тестами) ---

// HeroDamage: base = attackPower * typeMultiplier * comboMultiplier,
// удвоение в контр-окне, пол до целого.
func HeroDamage(attackPower int, typeMultiplier, comboMultiplier float64, counterActive bool) int {
	base := float64(attackPower) * typeMultiplier
	base *= comboMultiplier
	if counterActive {
		base *= domain.CounterDamageBonus
	}
	return int(math.Floor(base))
}

// MonsterDamage: max(1, floor(base - heroDefense)).
func MonsterDamage(patternDamage, heroDefense int) int {
	d := patternDamage - heroDefense
	if d < 1 {
		return 1
	}
	return d
}

// applyDamageToMonster списывает урон с учётом защиты, минимум 1.
// Возвращает фактически применённый урон.
func applyDamageToMonster(m *domain.MonsterStats, damage int) int {
	applied := damage - m.Defense
	if applied < 1 {
		applied = 1
	}
	m.CurrentHealth -= applied
	m.ClampHealth()
	return applied
}

// CheckGameOver выставляет терминальные флаги. Смерть героя проверяется
// первой: при одновременной смерти приоритет у поражения.
func (e *Engine) CheckGameOver(state GameState) GameState {
	s := state

	if s.Hero.Stats.CurrentHealth <= 0 {
		s.IsGameOver = true
		s.IsVictory = false
		return s
	}

	if s.Monster.CurrentHealth <= 0 {
		s.IsVictory = true
		if s.CurrentMonsterIndex >= domain.FinalMonsterIndex {
			s.IsGameOver = true
		}
	}

	return s
}

// CalculateBattleResult собирает неизменяемую сводку боя.
func (e *Engine) CalculateBattleResult(state GameState, stats BattleStats) (domain.BattleResult, error) {
	if state.MonsterConfig == nil {
		return domain.BattleResult{}, ErrNoMonsterConfig
	}

	duration := e.now().Sub(state.StartTime).Milliseconds()

	// Точность: урон на действие. При нулевом знаменателе — 0, не NaN.
	accuracy := 0
	denom := stats.Dodges + stats.Blocks + stats.SpecialsUsed
	if denom > 0 {
		accuracy = int(math.Round(float64(stats.DamageDealt) / float64(denom) * 100.0))
	}

	return domain.BattleResult{
		MonsterID:    state.MonsterConfig.ID,
		MonsterName:  state.MonsterConfig.Name,
		Victory:      state.IsVictory,
		DamageDealt:  stats.DamageDealt,
		DamageTaken:  stats.DamageTaken,
		Dodges:       stats.Dodges,
		Blocks:       stats.Blocks,
		LongestCombo: stats.LongestCombo,
		SpecialsUsed: stats.SpecialsUsed,
		Accuracy:     accuracy,
		DurationMS:   duration,
	}, nil
}
