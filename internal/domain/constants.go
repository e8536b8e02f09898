package domain

import "time"

// --- Экономика ресурсов героя ---

const (
	// StaminaRegenRate — восстановление выносливости в единицах за секунду.
	StaminaRegenRate = 15.0

	StaminaCostLight = 10.0
	StaminaCostHeavy = 25.0
	StaminaCostDodge = 15.0
	StaminaCostBlock = 5.0

	FocusGainPerHit   = 10.0
	FocusGainPerDodge = 15.0
	FocusGainPerBlock = 10.0
)

// --- Комбо ---

const (
	BaseComboMultiplier = 1.0
	MaxComboMultiplier  = 3.0
	ComboMultiplierStep = 0.1

	// ComboDecayTime — пауза бездействия, после которой комбо начинает спадать.
	ComboDecayTime = 2 * time.Second
)

// --- Контр-окно и уклонение ---

const (
	CounterWindowDuration = 1500 * time.Millisecond

	// CounterDamageBonus — множитель урона внутри активного контр-окна.
	CounterDamageBonus = 2.0

	// DodgeSuccessChance — шанс, что удачное уклонение откроет контр-окно.
	DodgeSuccessChance = 0.7
)

// --- Множители типов атак ---

const (
	LightAttackMultiplier   = 1.0
	HeavyAttackMultiplier   = 2.0
	SpecialAttackMultiplier = 4.0
)

// --- Монстры и прогрессия ---

const (
	// EnrageHealthThreshold — доля здоровья, ниже которой монстр впадает в ярость.
	EnrageHealthThreshold = 0.3

	// DefaultPhaseDuration — запасная длительность фазы (мс), если фаза
	// не описана в конфиге монстра.
	DefaultPhaseDuration = 2000.0

	// StatScalePerIndex — основание экспоненты масштабирования статов.
	// Монстр с индексом i получает base * 1.2^i.
	StatScalePerIndex = 1.2

	// FinalMonsterIndex — индекс последнего монстра в каталоге.
	FinalMonsterIndex = 11
)

// --- Границы хранилища ---

const (
	MaxScoreboardEntries = 100
	MaxPlayHistories     = 50
)
