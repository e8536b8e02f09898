package domain

import "testing"

func TestHeroStatsClamp(t *testing.T) {
	s := HeroStats{
		MaxHealth: 100, CurrentHealth: -10,
		MaxStamina: 100, CurrentStamina: 140,
		MaxFocus: 100, CurrentFocus: -5,
	}

	s.Clamp()

	if s.CurrentHealth != 0 {
		t.Errorf("Expected health clamped to 0, got %d", s.CurrentHealth)
	}
	if s.CurrentStamina != 100 {
		t.Errorf("Expected stamina clamped to 100, got %f", s.CurrentStamina)
	}
	if s.CurrentFocus != 0 {
		t.Errorf("Expected focus clamped to 0, got %f", s.CurrentFocus)
	}
}

func TestMonsterHealthFraction(t *testing.T) {
	m := MonsterStats{CurrentHealth: 20, MaxHealth: 80}
	if got := m.HealthFraction(); got != 0.25 {
		t.Errorf("Expected 0.25, got %f", got)
	}

	// Zero max health must not divide by zero.
	broken := MonsterStats{}
	if got := broken.HealthFraction(); got != 0 {
		t.Errorf("Expected 0 for zero max health, got %f", got)
	}
}

func TestPhaseValid(t *testing.T) {
	for _, p := range []Phase{PhaseIdle, PhaseTelegraph, PhaseAttack, PhaseVulnerable, PhaseEnrage} {
		if !p.Valid() {
			t.Errorf("Expected %s to be valid", p)
		}
	}
	if Phase("sleeping").Valid() {
		t.Error("Unknown tag must not validate")
	}
}

func TestAttackKindEconomy(t *testing.T) {
	if AttackLight.StaminaCost() != StaminaCostLight || AttackHeavy.StaminaCost() != StaminaCostHeavy {
		t.Error("Unexpected attack stamina costs")
	}
	if AttackLight.Multiplier() != LightAttackMultiplier || AttackHeavy.Multiplier() != HeavyAttackMultiplier {
		t.Error("Unexpected attack multipliers")
	}
}

func TestGameInputEmpty(t *testing.T) {
	if !(GameInput{}).Empty() {
		t.Error("Zero input must be empty")
	}

	block := false
	// Even an explicit "block off" counts as input for the tick.
	if (GameInput{Block: &block}).Empty() {
		t.Error("Explicit block toggle must not be empty")
	}
	if (GameInput{Dodge: DodgeLeft}).Empty() {
		t.Error("Dodge must not be empty")
	}
}
