package agent

import (
	"log"

	"battler-server/internal/domain"
	"battler-server/internal/engine"
	"battler-server/pkg/api"
)

// Bot — "игрок-компьютер" (Headless Agent).
// Это пример ВНЕШНЕГО клиента: он заводит себе сессию, подписывается на
// обновления, как обычный игрок, и по каждому снимку боя решает, какой
// ввод отправить обратно.
//
// Жизненный цикл:
//  1. NewBot -> создание сессии и подписка на её канал (Inbox).
//  2. Run -> запуск в отдельной горутине, слушает свой Inbox.
//  3. На каждом UPDATE вызывается makeMove: читает фазу монстра и
//     ресурсы героя, отправляет ввод тика.
//  4. На RUN_END бот жмет Retry и играет заново.
type Bot struct {
	Session *engine.Session
	Service *engine.GameService // Прямая ссылка на движок (для простоты в этом проекте)
	Inbox   chan api.ServerResponse
}

// NewBot заводит сессию в указанном режиме и подписывает бота на неё.
func NewBot(service *engine.GameService, mode domain.GameMode) (*Bot, error) {
	session, err := service.StartSession(mode)
	if err != nil {
		return nil, err
	}
	log.Printf("[BOT] Created agent session %s", session.ID)

	return &Bot{
		Session: session,
		Service: service,
		Inbox:   service.Hub.Register(session.ID),
	}, nil
}

// Run запускает цикл жизни бота. Должен быть запущен в горутине.
func (b *Bot) Run() {
	defer func() {
		b.Service.Hub.Unregister(b.Session.ID)
		b.Service.EndSession(b.Session.ID)
	}()

	for event := range b.Inbox {
		switch event.Type {
		case "UPDATE":
			b.makeMove(event)
		case "RUN_END":
			log.Printf("[BOT %s] Run finished, retrying", b.Session.ID)
			b.Session.Retry()
		}
	}
	log.Printf("[BOT] Agent for %s shut down.", b.Session.ID)
}

// makeMove — мозг бота. Решение принимается только по снимку, который
// прислал сервер, без подглядывания во внутреннее состояние движка.
func (b *Bot) makeMove(state api.ServerResponse) {
	if state.Hero == nil || state.Monster == nil {
		return
	}
	if state.Battle != nil && (state.Battle.IsPaused || state.Battle.IsGameOver) {
		return
	}

	hero := state.Hero
	var in domain.GameInput

	switch domain.Phase(state.Monster.Phase) {
	case domain.PhaseTelegraph:
		// Подсказка пошла — уворачиваемся заранее.
		in.Dodge = domain.DodgeLeft

	case domain.PhaseAttack, domain.PhaseEnrage:
		// Под атакой держим блок, если есть чем его оплатить.
		if hero.Stamina >= domain.StaminaCostBlock {
			block := true
			in.Block = &block
		} else {
			in.Dodge = domain.DodgeRight
		}

	case domain.PhaseVulnerable:
		// Окно уязвимости: спецатака при полном фокусе, иначе тяжелая.
		if hero.Focus >= hero.MaxFocus {
			in.Special = true
		} else if hero.Stamina >= domain.StaminaCostHeavy {
			heavy := domain.AttackHeavy
			in.Attack = &heavy
		}

	default:
		// В простое тычем легкими ударами, копим комбо.
		if hero.Stamina >= domain.StaminaCostLight {
			light := domain.AttackLight
			in.Attack = &light
		}
	}

	if in.Empty() {
		return
	}

	// Снятие блока: предыдущий тик мог оставить блок включенным.
	if in.Block == nil && hero.IsBlocking {
		off := false
		in.Block = &off
	}

	b.Session.QueueInput(in)
}
