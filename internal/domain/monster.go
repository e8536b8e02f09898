package domain

// Phase — тег состояния монстра в фазовой машине.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseTelegraph  Phase = "telegraph"
	PhaseAttack     Phase = "attack"
	PhaseVulnerable Phase = "vulnerable"
	PhaseEnrage     Phase = "enrage"
)

// Valid сообщает, является ли тег одним из пяти определенных состояний.
func (p Phase) Valid() bool {
	switch p {
	case PhaseIdle, PhaseTelegraph, PhaseAttack, PhaseVulnerable, PhaseEnrage:
		return true
	}
	return false
}

// MonsterStats — runtime-состояние монстра в бою.
// Создается копированием базовых статов конфига (с масштабированием)
// и выбрасывается при завершении боя или рестарте.
type MonsterStats struct {
	CurrentHealth int `json:"currentHealth"`
	MaxHealth     int `json:"maxHealth"`
	AttackPower   int `json:"attackPower"`
	Defense       int `json:"defense"`
	Speed         int `json:"speed"`

	Phase Phase `json:"phase"`

	// PhaseTimer — отсчет до перехода фазы в миллисекундах.
	// Может уйти в минус: любое значение <= 0 считается истекшим.
	PhaseTimer float64 `json:"phaseTimer"`

	// AttackCooldown — отсчет до следующей разрешенной атаки (мс), не ниже 0.
	AttackCooldown float64 `json:"attackCooldown"`
}

// ClampHealth прижимает здоровье к диапазону [0, max].
func (m *MonsterStats) ClampHealth() {
	if m.CurrentHealth < 0 {
		m.CurrentHealth = 0
	}
	if m.CurrentHealth > m.MaxHealth {
		m.CurrentHealth = m.MaxHealth
	}
}

// HealthFraction возвращает долю оставшегося здоровья в [0, 1].
func (m MonsterStats) HealthFraction() float64 {
	if m.MaxHealth <= 0 {
		return 0
	}
	return float64(m.CurrentHealth) / float64(m.MaxHealth)
}
