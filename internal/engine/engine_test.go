package engine

import (
	"battler-server/internal/catalog"
	"battler-server/internal/domain"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"
)

func testConfig() *catalog.MonsterConfig {
	return &catalog.MonsterConfig{
		ID:   "test_dummy",
		Name: "Test Dummy",
		BaseStats: catalog.BaseStats{
			MaxHealth: 80, AttackPower: 8, Defense: 3, Speed: 12,
		},
		Phases: []catalog.PhaseConfig{
			{Phase: domain.PhaseIdle, Duration: 2000},
			{Phase: domain.PhaseTelegraph, Duration: 800},
			{Phase: domain.PhaseAttack, Duration: 1500, AttackFrequency: 1.0},
			{Phase: domain.PhaseVulnerable, Duration: 1200},
			{Phase: domain.PhaseEnrage, Duration: 2500, AttackFrequency: 1.0},
		},
		Patterns: []catalog.AttackPattern{
			{ID: "dummy_claw", Phase: domain.PhaseAttack, Damage: 12, WindupTime: 400, RecoveryTime: 900},
		},
	}
}

// testEngine returns an engine with a fixed clock and deterministic rng.
func testEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(rand.New(rand.NewSource(1)))
	e.now = func() time.Time { return time.Unix(1000, 0) }
	t.Cleanup(e.Stop)
	return e
}

func testState(cfg *catalog.MonsterConfig) GameState {
	return GameState{
		Mode:          domain.ModeGauntlet,
		Hero:          domain.NewHeroState(),
		Monster:       catalog.NewMonsterStats(cfg),
		MonsterConfig: cfg,
		StartTime:     time.Unix(999, 0),
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// --- Damage formulas ---

func TestHeroDamage(t *testing.T) {
	cases := []struct {
		name       string
		power      int
		typeMult   float64
		comboMult  float64
		counter    bool
		expected   int
	}{
		{"light base", 10, 1.0, 1.0, false, 10},
		{"heavy with combo", 10, 2.0, 1.5, false, 30},
		{"counter doubles", 10, 1.0, 1.0, true, 20},
		{"fraction floors", 7, 1.0, 1.5, false, 10},
		{"special", 10, 4.0, 1.0, false, 40},
	}

	for _, c := range cases {
		got := HeroDamage(c.power, c.typeMult, c.comboMult, c.counter)
		if got != c.expected {
			t.Errorf("%s: expected %d, got %d", c.name, c.expected, got)
		}
	}
}

func TestMonsterDamage(t *testing.T) {
	if got := MonsterDamage(12, 3); got != 9 {
		t.Errorf("Expected 9, got %d", got)
	}
	// Defense above damage still chips at least 1.
	if got := MonsterDamage(2, 5); got != 1 {
		t.Errorf("Expected minimum 1, got %d", got)
	}
}

// --- Hero input pipeline ---

func TestLightAttackHitsMonster(t *testing.T) {
	e := testEngine(t)
	s := testState(testConfig())
	var stats BattleStats

	light := domain.AttackLight
	s = e.ProcessInput(s, domain.GameInput{Attack: &light}, 60, &stats)

	// 10 damage minus monster defense 3 = 7 applied.
	if s.Monster.CurrentHealth != 73 {
		t.Errorf("Expected monster health 73, got %d", s.Monster.CurrentHealth)
	}
	// Stamina was full (regen absorbed by clamp), then light cost 10.
	if !almostEqual(s.Hero.Stats.CurrentStamina, 90) {
		t.Errorf("Expected stamina 90, got %f", s.Hero.Stats.CurrentStamina)
	}
	if s.Hero.ComboCount != 1 {
		t.Errorf("Expected combo 1, got %d", s.Hero.ComboCount)
	}
	if !almostEqual(s.Hero.ComboMultiplier, 1.1) {
		t.Errorf("Expected multiplier 1.1, got %f", s.Hero.ComboMultiplier)
	}
	if !almostEqual(s.Hero.Stats.CurrentFocus, domain.FocusGainPerHit) {
		t.Errorf("Expected focus %f, got %f", domain.FocusGainPerHit, s.Hero.Stats.CurrentFocus)
	}
	if stats.DamageDealt != 7 || stats.LongestCombo != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
	if s.Hero.LastAction != "light" {
		t.Errorf("Expected last action light, got %q", s.Hero.LastAction)
	}
}

func TestHeavyAttackDroppedWithoutStamina(t *testing.T) {
	e := testEngine(t)
	s := testState(testConfig())
	s.Hero.Stats.CurrentStamina = 5
	var stats BattleStats

	heavy := domain.AttackHeavy
	s = e.ProcessInput(s, domain.GameInput{Attack: &heavy}, 60, &stats)

	// Dropped silently: no damage, no combo, only the tick regen remains.
	if s.Monster.CurrentHealth != 80 {
		t.Errorf("Expected monster untouched, got %d", s.Monster.CurrentHealth)
	}
	if s.Hero.ComboCount != 0 {
		t.Errorf("Expected combo 0, got %d", s.Hero.ComboCount)
	}
	if s.Hero.Stats.CurrentStamina >= 6 {
		t.Errorf("Expected only regen applied, got %f", s.Hero.Stats.CurrentStamina)
	}
	if stats.DamageDealt != 0 {
		t.Errorf("Expected no damage recorded, got %d", stats.DamageDealt)
	}
}

func TestBlockToggle(t *testing.T) {
	e := testEngine(t)
	s := testState(testConfig())
	var stats BattleStats

	on := true
	s = e.ProcessInput(s, domain.GameInput{Block: &on}, 60, &stats)

	if !s.Hero.IsBlocking {
		t.Fatal("Expected blocking stance")
	}
	if !almostEqual(s.Hero.Stats.CurrentStamina, 95) {
		t.Errorf("Expected stamina 95 after block cost, got %f", s.Hero.Stats.CurrentStamina)
	}
	if stats.Blocks != 1 {
		t.Errorf("Expected 1 block recorded, got %d", stats.Blocks)
	}

	off := false
	s = e.ProcessInput(s, domain.GameInput{Block: &off}, 60, &stats)

	if s.Hero.IsBlocking {
		t.Error("Expected stance lifted")
	}
	if s.Hero.LastAction != "" {
		t.Errorf("Expected last action cleared, got %q", s.Hero.LastAction)
	}
}

func TestBlockAllowedOnEmptyStamina(t *testing.T) {
	e := testEngine(t)
	s := testState(testConfig())
	s.Hero.Stats.CurrentStamina = 0

	on := true
	s = e.ProcessInput(s, domain.GameInput{Block: &on}, 60, nil)

	// The stance is entered, the cost is simply not charged.
	if !s.Hero.IsBlocking {
		t.Error("Expected blocking stance on empty stamina")
	}
	if s.Hero.Stats.CurrentStamina >= 1 {
		t.Errorf("Expected no cost charged, got %f", s.Hero.Stats.CurrentStamina)
	}
}

func TestDodgeStateResetsWithoutInput(t *testing.T) {
	e := testEngine(t)
	s := testState(testConfig())
	var stats BattleStats

	s = e.ProcessInput(s, domain.GameInput{Dodge: domain.DodgeLeft}, 60, &stats)

	if !s.Hero.IsDodging || s.Hero.DodgeDirection != domain.DodgeLeft {
		t.Fatalf("Expected active dodge left, got %v %s", s.Hero.IsDodging, s.Hero.DodgeDirection)
	}
	if !almostEqual(s.Hero.Stats.CurrentStamina, 85) {
		t.Errorf("Expected stamina 85, got %f", s.Hero.Stats.CurrentStamina)
	}
	if stats.Dodges != 1 {
		t.Errorf("Expected 1 dodge recorded, got %d", stats.Dodges)
	}

	// Dodge does not survive a tick without continued input.
	s = e.ProcessInput(s, domain.GameInput{}, 60, &stats)

	if s.Hero.IsDodging || s.Hero.DodgeDirection != domain.DodgeNone {
		t.Error("Expected dodge state reset on empty input")
	}
}

func TestDodgeSuccessOpensCounterWindow(t *testing.T) {
	e := testEngine(t)
	s := testState(testConfig())
	s.Monster.Phase = domain.PhaseAttack

	// Seed 1: the first Float64 roll is ~0.60, below the 0.7 success chance.
	s = e.ProcessInput(s, domain.GameInput{Dodge: domain.DodgeLeft}, 60, nil)

	if !s.CounterWindowActive {
		t.Error("Expected counter window after successful dodge in attack phase")
	}
}

func TestDodgeOutsideAttackPhaseNeverCounters(t *testing.T) {
	e := testEngine(t)
	s := testState(testConfig())
	// Monster is idle: dodge costs stamina but cannot open a counter window.
	s = e.ProcessInput(s, domain.GameInput{Dodge: domain.DodgeRight}, 60, nil)

	if s.CounterWindowActive {
		t.Error("Counter window must not open outside the attack phase")
	}
}

func TestSpecialRequiresFullFocus(t *testing.T) {
	e := testEngine(t)
	s := testState(testConfig())
	s.Hero.Stats.CurrentFocus = 50
	var stats BattleStats

	s = e.ProcessInput(s, domain.GameInput{Special: true}, 60, &stats)

	if s.Monster.CurrentHealth != 80 || stats.SpecialsUsed != 0 {
		t.Error("Special must be ignored below full focus")
	}

	s.Hero.Stats.CurrentFocus = s.Hero.Stats.MaxFocus
	s = e.ProcessInput(s, domain.GameInput{Special: true}, 60, &stats)

	// 10 * 4.0 * 1.0 = 40 damage, 37 applied after defense 3.
	if s.Monster.CurrentHealth != 43 {
		t.Errorf("Expected monster health 43, got %d", s.Monster.CurrentHealth)
	}
	if s.Hero.Stats.CurrentFocus != 0 {
		t.Errorf("Expected focus spent, got %f", s.Hero.Stats.CurrentFocus)
	}
	if stats.SpecialsUsed != 1 {
		t.Errorf("Expected 1 special recorded, got %d", stats.SpecialsUsed)
	}
}

func TestBlockInAttackPhaseOpensCounterAndDoublesNextHit(t *testing.T) {
	e := testEngine(t)
	s := testState(testConfig())
	s.Monster.Phase = domain.PhaseAttack
	var stats BattleStats

	on := true
	s = e.ProcessInput(s, domain.GameInput{Block: &on}, 60, &stats)

	if !s.CounterWindowActive {
		t.Fatal("Expected counter window after block in attack phase")
	}
	if !almostEqual(s.Hero.Stats.CurrentFocus, domain.FocusGainPerBlock) {
		t.Errorf("Expected block focus gain, got %f", s.Hero.Stats.CurrentFocus)
	}

	// The clock is frozen, so the window is still open on the next tick.
	light := domain.AttackLight
	s = e.ProcessInput(s, domain.GameInput{Attack: &light}, 60, &stats)

	// 10 * 1.0 * 1.0 * 2 = 20 damage, 17 applied after defense 3.
	if stats.DamageDealt != 17 {
		t.Errorf("Expected 17 damage inside counter window, got %d", stats.DamageDealt)
	}
}

func TestSpecialInsideCounterWindow(t *testing.T) {
	e := testEngine(t)
	s := testState(testConfig())
	s.Hero.Stats.CurrentFocus = s.Hero.Stats.MaxFocus
	s.openCounterWindow(e.now())
	var stats BattleStats

	s = e.ProcessInput(s, domain.GameInput{Special: true}, 60, &stats)

	// 10 * 4.0 * 1.0 * 2 = 80 damage, 77 applied after defense 3.
	if stats.DamageDealt != 77 {
		t.Errorf("Expected 77 damage, got %d", stats.DamageDealt)
	}
	if s.Monster.CurrentHealth != 3 {
		t.Errorf("Expected monster health 3, got %d", s.Monster.CurrentHealth)
	}
}

func TestStaminaRegenClamped(t *testing.T) {
	e := testEngine(t)
	s := testState(testConfig())
	s.Hero.Stats.CurrentStamina = 99.5

	s = e.ProcessInput(s, domain.GameInput{}, 1000, nil)

	if !almostEqual(s.Hero.Stats.CurrentStamina, 100) {
		t.Errorf("Expected stamina clamped to 100, got %f", s.Hero.Stats.CurrentStamina)
	}
}

// --- Combo ---

func TestComboMultiplierCapped(t *testing.T) {
	e := testEngine(t)
	s := testState(testConfig())
	s.Hero.ComboCount = 25
	s.Hero.ComboMultiplier = domain.MaxComboMultiplier

	light := domain.AttackLight
	s = e.ProcessInput(s, domain.GameInput{Attack: &light}, 60, nil)

	if s.Hero.ComboCount != 26 {
		t.Errorf("Expected combo 26, got %d", s.Hero.ComboCount)
	}
	if s.Hero.ComboMultiplier != domain.MaxComboMultiplier {
		t.Errorf("Expected multiplier capped at %f, got %f", domain.MaxComboMultiplier, s.Hero.ComboMultiplier)
	}
}

func TestApplyComboDecayBounds(t *testing.T) {
	s := testState(testConfig())
	s.Hero.ComboCount = 2
	s.Hero.ComboMultiplier = 1.2

	s = ApplyComboDecay(s)
	if s.Hero.ComboCount != 1 || !almostEqual(s.Hero.ComboMultiplier, 1.1) {
		t.Errorf("Expected 1/1.1, got %d/%f", s.Hero.ComboCount, s.Hero.ComboMultiplier)
	}

	// Repeated decay never goes below the floor.
	s = ApplyComboDecay(s)
	s = ApplyComboDecay(s)
	s = ApplyComboDecay(s)
	if s.Hero.ComboCount != 0 {
		t.Errorf("Expected combo floored at 0, got %d", s.Hero.ComboCount)
	}
	if !almostEqual(s.Hero.ComboMultiplier, domain.BaseComboMultiplier) {
		t.Errorf("Expected multiplier floored at 1.0, got %f", s.Hero.ComboMultiplier)
	}
}

// --- Monster turn ---

func TestProcessMonsterAIAppliesDamage(t *testing.T) {
	e := testEngine(t)
	s := testState(testConfig())
	s.Monster.Phase = domain.PhaseAttack
	s.Monster.PhaseTimer = 1500
	s.Monster.AttackCooldown = 0
	var stats BattleStats

	s = e.ProcessMonsterAI(s, 60, &stats)

	// Pattern damage 12 minus hero defense 5 = 7.
	if s.Hero.Stats.CurrentHealth != 93 {
		t.Errorf("Expected hero health 93, got %d", s.Hero.Stats.CurrentHealth)
	}
	if stats.DamageTaken != 7 {
		t.Errorf("Expected 7 damage taken, got %d", stats.DamageTaken)
	}
	if s.Monster.AttackCooldown != 900 {
		t.Errorf("Expected cooldown set to recovery 900, got %f", s.Monster.AttackCooldown)
	}
}

func TestProcessMonsterAIDamageNegatedByBlock(t *testing.T) {
	e := testEngine(t)
	s := testState(testConfig())
	s.Monster.Phase = domain.PhaseAttack
	s.Monster.PhaseTimer = 1500
	s.Hero.IsBlocking = true
	var stats BattleStats

	s = e.ProcessMonsterAI(s, 60, &stats)

	// Block negates the hit entirely, but the attack still went out.
	if s.Hero.Stats.CurrentHealth != 100 {
		t.Errorf("Expected hero untouched behind block, got %d", s.Hero.Stats.CurrentHealth)
	}
	if stats.DamageTaken != 0 {
		t.Errorf("Expected no damage taken, got %d", stats.DamageTaken)
	}
	if s.Monster.AttackCooldown != 900 {
		t.Errorf("Expected cooldown set even on negated hit, got %f", s.Monster.AttackCooldown)
	}
}

// --- Terminal conditions ---

func TestCheckGameOverDefeatWinsTies(t *testing.T) {
	e := testEngine(t)
	s := testState(testConfig())
	s.Hero.Stats.CurrentHealth = 0
	s.Monster.CurrentHealth = 0

	s = e.CheckGameOver(s)

	if !s.IsGameOver || s.IsVictory {
		t.Errorf("Simultaneous death must resolve as defeat, got over=%v victory=%v", s.IsGameOver, s.IsVictory)
	}
}

func TestCheckGameOverVictoryMidRun(t *testing.T) {
	e := testEngine(t)
	s := testState(testConfig())
	s.CurrentMonsterIndex = 3
	s.Monster.CurrentHealth = 0

	s = e.CheckGameOver(s)

	if !s.IsVictory || s.IsGameOver {
		t.Errorf("Mid-run victory must not end the run, got over=%v victory=%v", s.IsGameOver, s.IsVictory)
	}
}

func TestCheckGameOverFinalMonster(t *testing.T) {
	e := testEngine(t)
	s := testState(testConfig())
	s.CurrentMonsterIndex = domain.FinalMonsterIndex
	s.Monster.CurrentHealth = 0

	s = e.CheckGameOver(s)

	if !s.IsVictory || !s.IsGameOver {
		t.Errorf("Final monster victory must end the run, got over=%v victory=%v", s.IsGameOver, s.IsVictory)
	}
}

// --- Battle summary ---

func TestCalculateBattleResultWithoutConfig(t *testing.T) {
	e := testEngine(t)
	s := testState(testConfig())
	s.MonsterConfig = nil

	_, err := e.CalculateBattleResult(s, BattleStats{})
	if !errors.Is(err, ErrNoMonsterConfig) {
		t.Errorf("Expected ErrNoMonsterConfig, got %v", err)
	}
}

func TestCalculateBattleResultAccuracy(t *testing.T) {
	e := testEngine(t)
	s := testState(testConfig())
	s.IsVictory = true

	// Zero denominator: accuracy stays 0, never NaN.
	res, err := e.CalculateBattleResult(s, BattleStats{DamageDealt: 40})
	if err != nil {
		t.Fatal(err)
	}
	if res.Accuracy != 0 {
		t.Errorf("Expected accuracy 0 with no defensive actions, got %d", res.Accuracy)
	}

	res, err = e.CalculateBattleResult(s, BattleStats{
		DamageDealt: 50, Dodges: 2, Blocks: 2, SpecialsUsed: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Accuracy != 1000 {
		t.Errorf("Expected accuracy 1000, got %d", res.Accuracy)
	}
	if res.MonsterID != "test_dummy" || !res.Victory {
		t.Errorf("Unexpected result: %+v", res)
	}
	// Frozen clock: started at 999s, finished at 1000s.
	if res.DurationMS != 1000 {
		t.Errorf("Expected duration 1000ms, got %d", res.DurationMS)
	}
}
