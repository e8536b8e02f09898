package domain

// HeroStats — числовые характеристики героя.
// Инвариант: текущие значения всегда в пределах [0, max].
// После каждой мутации нужно вызывать Clamp.
type HeroStats struct {
	MaxHealth     int `json:"maxHealth"`
	CurrentHealth int `json:"currentHealth"`

	MaxStamina     float64 `json:"maxStamina"`
	CurrentStamina float64 `json:"currentStamina"`

	MaxFocus     float64 `json:"maxFocus"`
	CurrentFocus float64 `json:"currentFocus"`

	AttackPower int `json:"attackPower"`
	Defense     int `json:"defense"`
	Speed       int `json:"speed"`
}

// Clamp прижимает текущие значения к диапазону [0, max].
func (s *HeroStats) Clamp() {
	if s.CurrentHealth < 0 {
		s.CurrentHealth = 0
	}
	if s.CurrentHealth > s.MaxHealth {
		s.CurrentHealth = s.MaxHealth
	}
	if s.CurrentStamina < 0 {
		s.CurrentStamina = 0
	}
	if s.CurrentStamina > s.MaxStamina {
		s.CurrentStamina = s.MaxStamina
	}
	if s.CurrentFocus < 0 {
		s.CurrentFocus = 0
	}
	if s.CurrentFocus > s.MaxFocus {
		s.CurrentFocus = s.MaxFocus
	}
}

// DodgeDirection — направление уклонения. Пустая строка означает "нет".
type DodgeDirection string

const (
	DodgeNone  DodgeDirection = ""
	DodgeLeft  DodgeDirection = "left"
	DodgeRight DodgeDirection = "right"
	DodgeUp    DodgeDirection = "up"
	DodgeDown  DodgeDirection = "down"
)

// HeroState — полное состояние героя в рамках одного боя.
// Мутируется исключительно движком в ответ на GameInput.
type HeroState struct {
	Stats HeroStats `json:"stats"`

	ComboCount      int     `json:"comboCount"`
	ComboMultiplier float64 `json:"comboMultiplier"`

	IsBlocking     bool           `json:"isBlocking"`
	IsDodging      bool           `json:"isDodging"`
	DodgeDirection DodgeDirection `json:"dodgeDirection,omitempty"`

	// LastAction — тег последнего действия для HUD/телеметрии.
	// Пустая строка = действий ещё не было (или последним был снятый блок).
	LastAction string `json:"lastAction,omitempty"`

	// Upgrades — полученные улучшения. Текущая логика их не расходует,
	// но форма состояния их переносит.
	Upgrades []string `json:"upgrades,omitempty"`
}

// NewHeroState создает героя со стартовыми характеристиками.
func NewHeroState() HeroState {
	return HeroState{
		Stats: HeroStats{
			MaxHealth: 100, CurrentHealth: 100,
			MaxStamina: 100, CurrentStamina: 100,
			MaxFocus: 100, CurrentFocus: 0,
			AttackPower: 10, Defense: 5, Speed: 10,
		},
		ComboMultiplier: BaseComboMultiplier,
	}
}
