package domain

// AttackKind — тип атаки героя.
type AttackKind string

const (
	AttackLight AttackKind = "light"
	AttackHeavy AttackKind = "heavy"
)

// StaminaCost возвращает цену атаки в выносливости.
func (a AttackKind) StaminaCost() float64 {
	if a == AttackHeavy {
		return StaminaCostHeavy
	}
	return StaminaCostLight
}

// Multiplier возвращает множитель урона типа атаки.
func (a AttackKind) Multiplier() float64 {
	if a == AttackHeavy {
		return HeavyAttackMultiplier
	}
	return LightAttackMultiplier
}

// GameInput — накопленный ввод одного тика. Все поля опциональны:
// nil/пустое значение означает, что действие в этот тик не запрашивалось.
//
// Block — трёхзначный флаг: nil = ввода не было, иначе явное вкл/выкл.
type GameInput struct {
	Attack  *AttackKind    `json:"attack,omitempty"`
	Block   *bool          `json:"block,omitempty"`
	Dodge   DodgeDirection `json:"dodge,omitempty"`
	Special bool           `json:"special,omitempty"`
}

// Empty сообщает, что тик прошел без какого-либо ввода.
func (in GameInput) Empty() bool {
	return in.Attack == nil && in.Block == nil && in.Dodge == DodgeNone && !in.Special
}
