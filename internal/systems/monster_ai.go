package systems

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"battler-server/internal/catalog"
	"battler-server/internal/domain"
	"battler-server/pkg/logger"
)

// Система ИИ монстра. Функции без внутреннего состояния: всё, что нужно,
// приходит аргументами, результат возвращается новым значением.

// UpdateMonster продвигает фазовую машину и кулдаун атаки на deltaMS.
// Аргумент не мутируется: возвращается новая копия статов.
//
// heroHealth принимается для симметрии контракта ИИ, но в текущем решении
// перехода не участвует (переходы зависят только от здоровья монстра).
func UpdateMonster(m domain.MonsterStats, cfg *catalog.MonsterConfig, deltaMS float64, heroHealth int) domain.MonsterStats {
	_ = heroHealth

	next := m
	next.PhaseTimer -= deltaMS

	if next.PhaseTimer <= 0 {
		from := next.Phase
		next.Phase = nextPhase(next)
		next.PhaseTimer = phaseDuration(cfg, next.Phase)

		if from != next.Phase {
			logger.Component("monster_ai").WithFields(logrus.Fields{
				"monster":   cfg.ID,
				"from":      from,
				"to":        next.Phase,
				"hp_frac":   next.HealthFraction(),
			}).Debug("Phase transition")
		}
	}

	next.AttackCooldown -= deltaMS
	if next.AttackCooldown < 0 {
		next.AttackCooldown = 0
	}

	return next
}

// nextPhase выбирает следующую фазу.
//
// Номинальный цикл: idle -> telegraph -> attack -> vulnerable -> idle.
// Из любого состояния кроме enrage низкое здоровье (< 30%) принудительно
// ведет в enrage. Из enrage следующая фаза всегда attack — запроектированного
// выхода обратно в обычный цикл внутри одного боя нет.
func nextPhase(m domain.MonsterStats) domain.Phase {
	low := m.HealthFraction() < domain.EnrageHealthThreshold

	if m.Phase != domain.PhaseEnrage && low {
		return domain.PhaseEnrage
	}

	switch m.Phase {
	case domain.PhaseIdle:
		return domain.PhaseTelegraph
	case domain.PhaseTelegraph:
		return domain.PhaseAttack
	case domain.PhaseAttack:
		return domain.PhaseVulnerable
	case domain.PhaseVulnerable:
		return domain.PhaseIdle
	case domain.PhaseEnrage:
		return domain.PhaseAttack
	default:
		return domain.PhaseIdle
	}
}

// phaseDuration возвращает длительность фазы из конфига либо запасные 2000 мс.
func phaseDuration(cfg *catalog.MonsterConfig, p domain.Phase) float64 {
	if ph, ok := cfg.PhaseConfig(p); ok {
		return ph.Duration
	}
	return domain.DefaultPhaseDuration
}

// ShouldAttack решает, бьет ли монстр в этот тик.
//
// heroBlocking/heroDodging принимаются, но в вероятность не входят: стойка
// героя учитывается ниже по конвейеру, при применении урона.
func ShouldAttack(m domain.MonsterStats, cfg *catalog.MonsterConfig, heroBlocking, heroDodging bool, rng *rand.Rand) bool {
	_, _ = heroBlocking, heroDodging

	if m.Phase != domain.PhaseAttack && m.Phase != domain.PhaseEnrage {
		return false
	}
	if m.AttackCooldown > 0 {
		return false
	}

	ph, ok := cfg.PhaseConfig(m.Phase)
	if !ok {
		return false
	}
	return rng.Float64() < ph.AttackFrequency
}

// TelegraphDuration возвращает длительность подсказки перед атакой.
// В каталоге у каждого монстра ровно одна подсказка, поэтому берется
// первая запись списка, без поиска по telegraph_id паттерна.
func TelegraphDuration(m domain.MonsterStats, cfg *catalog.MonsterConfig) float64 {
	if m.Phase != domain.PhaseTelegraph {
		return 0
	}
	if len(cfg.Tells) == 0 {
		return 0
	}
	return cfg.Tells[0].Duration
}

// ScaleStats возвращает копию конфига с базовыми статами, умноженными
// на 1.2^index и обрезанными до целых. Индекс 0 — тождество.
// Единственный механизм усложнения по прогрессии; применяется один раз
// при загрузке монстра в бой.
func ScaleStats(cfg *catalog.MonsterConfig, monsterIndex int) catalog.MonsterConfig {
	factor := math.Pow(domain.StatScalePerIndex, float64(monsterIndex))

	scaled := *cfg
	scaled.BaseStats = catalog.BaseStats{
		MaxHealth:   int(math.Floor(float64(cfg.BaseStats.MaxHealth) * factor)),
		AttackPower: int(math.Floor(float64(cfg.BaseStats.AttackPower) * factor)),
		Defense:     int(math.Floor(float64(cfg.BaseStats.Defense) * factor)),
		Speed:       int(math.Floor(float64(cfg.BaseStats.Speed) * factor)),
	}
	return scaled
}
