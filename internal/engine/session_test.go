package engine

import (
	"battler-server/internal/catalog"
	"battler-server/internal/domain"
	"battler-server/internal/infrastructure/storage"
	"battler-server/internal/network"
	"testing"
)

func testSession(t *testing.T) *Session {
	t.Helper()

	local, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store := storage.NewService(local, nil, nil)

	s, err := NewSession(catalog.MustLoad(), store, network.NewBroadcaster(), domain.ModeGauntlet, 1)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(s.Stop)
	t.Cleanup(s.engine.Stop)
	return s
}

func TestSessionStartsAtFirstMonster(t *testing.T) {
	s := testSession(t)

	if s.state.CurrentMonsterIndex != 0 {
		t.Errorf("Expected index 0, got %d", s.state.CurrentMonsterIndex)
	}
	if s.state.MonsterConfig == nil || s.state.MonsterConfig.ID != "ember_imp" {
		t.Error("Expected ember_imp as the first monster")
	}
	if s.history.ID == "" || len(s.history.Battles) != 0 {
		t.Errorf("Expected fresh run history, got %+v", s.history)
	}
}

func TestSessionVictoryAdvancesAndCarriesScore(t *testing.T) {
	s := testSession(t)
	s.stats.LongestCombo = 4
	maxHealth := s.state.Monster.MaxHealth

	s.state.Monster.CurrentHealth = 0
	s.state = s.engine.CheckGameOver(s.state)
	s.finalizeBattle()

	if len(s.history.Battles) != 1 {
		t.Fatalf("Expected 1 recorded battle, got %d", len(s.history.Battles))
	}
	if s.history.MonstersDefeated != 1 {
		t.Errorf("Expected 1 monster defeated, got %d", s.history.MonstersDefeated)
	}

	// Score accrual: monster max health plus combo bonus.
	expectedScore := maxHealth + 4*10
	if s.state.Score != expectedScore {
		t.Errorf("Expected score %d carried into next battle, got %d", expectedScore, s.state.Score)
	}

	// The next battle replaces the state wholesale.
	if s.state.CurrentMonsterIndex != 1 {
		t.Errorf("Expected advance to index 1, got %d", s.state.CurrentMonsterIndex)
	}
	if s.state.Monster.CurrentHealth != s.state.Monster.MaxHealth {
		t.Error("Expected fresh monster at full health")
	}
	if s.state.Hero.Stats.CurrentHealth != 100 {
		t.Error("Expected fresh hero for the next battle")
	}
	if s.awaiting {
		t.Error("Mid-run victory must not await a command")
	}
}

func TestSessionNextMonsterIsScaled(t *testing.T) {
	s := testSession(t)

	s.state.Monster.CurrentHealth = 0
	s.state = s.engine.CheckGameOver(s.state)
	s.finalizeBattle()

	// stone_golem base 140 * 1.2 = 168
	if s.state.Monster.MaxHealth != 168 {
		t.Errorf("Expected scaled max health 168 at index 1, got %d", s.state.Monster.MaxHealth)
	}
}

func TestSessionDefeatPersistsRun(t *testing.T) {
	s := testSession(t)
	s.state.Score = 250

	s.state.Hero.Stats.CurrentHealth = 0
	s.state = s.engine.CheckGameOver(s.state)
	s.finalizeBattle()

	if !s.awaiting {
		t.Fatal("Expected session to await a command after defeat")
	}
	if s.history.CompletionTimeMS == nil {
		t.Fatal("Expected completion time fixed on run end")
	}
	if s.history.TotalScore != 250 {
		t.Errorf("Expected total score 250, got %d", s.history.TotalScore)
	}

	data, err := s.store.LoadGameData()
	if err != nil {
		t.Fatal(err)
	}
	if len(data.PlayHistory) != 1 {
		t.Fatalf("Expected persisted run, got %d histories", len(data.PlayHistory))
	}
	if len(data.Scoreboard) != 1 || data.Scoreboard[0].Score != 250 {
		t.Fatalf("Expected scoreboard entry with 250, got %+v", data.Scoreboard)
	}
	if data.BestScore != 250 {
		t.Errorf("Expected best score updated, got %d", data.BestScore)
	}
}

func TestSessionRetryStartsFreshRun(t *testing.T) {
	s := testSession(t)

	s.state.Score = 300
	s.state.Hero.Stats.CurrentHealth = 0
	s.state = s.engine.CheckGameOver(s.state)
	s.finalizeBattle()

	oldHistoryID := s.history.ID
	s.handleCommand(cmdRetry)

	if s.awaiting {
		t.Error("Expected retry to leave the awaiting state")
	}
	if s.state.CurrentMonsterIndex != 0 || s.state.Score != 0 {
		t.Errorf("Expected a fresh run, got index %d score %d", s.state.CurrentMonsterIndex, s.state.Score)
	}
	if s.history.ID == oldHistoryID {
		t.Error("Expected a new run history")
	}
}

func TestSessionContinueWrapsCatalog(t *testing.T) {
	s := testSession(t)

	// Final monster down: the run ends in victory.
	s.state, _ = NewBattle(s.cat, s.Mode, domain.FinalMonsterIndex, 900, s.state.StartTime)
	s.state.Monster.CurrentHealth = 0
	s.state = s.engine.CheckGameOver(s.state)
	s.finalizeBattle()

	if !s.awaiting {
		t.Fatal("Expected run end after the final monster")
	}

	score := s.state.Score
	s.handleCommand(cmdContinue)

	if s.awaiting {
		t.Error("Expected continue to resume play")
	}
	// Index 12 wraps to the first catalog entry, score carries over.
	if s.state.CurrentMonsterIndex != domain.FinalMonsterIndex+1 {
		t.Errorf("Expected index %d, got %d", domain.FinalMonsterIndex+1, s.state.CurrentMonsterIndex)
	}
	if s.state.MonsterConfig.ID != "ember_imp" {
		t.Errorf("Expected catalog wrap to ember_imp, got %s", s.state.MonsterConfig.ID)
	}
	if s.state.Score != score {
		t.Errorf("Expected score %d carried, got %d", score, s.state.Score)
	}
}

func TestSessionQueueInputDropsWhenFull(t *testing.T) {
	s := testSession(t)

	light := domain.AttackLight
	for i := 0; i < 200; i++ {
		s.QueueInput(domain.GameInput{Attack: &light})
	}

	// The queue holds its capacity; extra inputs are dropped, not blocked.
	if len(s.inputs) != cap(s.inputs) {
		t.Errorf("Expected full queue of %d, got %d", cap(s.inputs), len(s.inputs))
	}
}

func TestSessionTickDrainsOneInput(t *testing.T) {
	s := testSession(t)

	light := domain.AttackLight
	s.QueueInput(domain.GameInput{Attack: &light})
	s.QueueInput(domain.GameInput{Attack: &light})

	s.tickOnce(60)

	if len(s.inputs) != 1 {
		t.Errorf("Expected exactly one input consumed per tick, got %d left", len(s.inputs))
	}
	if s.tick != 1 {
		t.Errorf("Expected tick counter 1, got %d", s.tick)
	}
}

func TestSessionPausedTickFreezesSimulation(t *testing.T) {
	s := testSession(t)
	s.state.IsPaused = true
	before := s.state.Monster.PhaseTimer

	s.tickOnce(60)

	if s.state.Monster.PhaseTimer != before {
		t.Error("Paused tick must not advance the monster")
	}
	if s.tick != 0 {
		t.Errorf("Paused tick must not count, got %d", s.tick)
	}
}
