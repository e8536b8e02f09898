package engine

import (
	"fmt"
	"time"

	"battler-server/internal/catalog"
	"battler-server/internal/domain"
	"battler-server/internal/systems"
)

// GameState — агрегат одного боя. Живет ровно один экземпляр на бой;
// при рестарте/продолжении заменяется целиком (вперед переносится
// только накопленный счет).
type GameState struct {
	Mode                domain.GameMode
	CurrentMonsterIndex int

	Hero    domain.HeroState
	Monster domain.MonsterStats

	// MonsterConfig — активный (уже отмасштабированный) конфиг.
	// nil до загрузки первого монстра.
	MonsterConfig *catalog.MonsterConfig

	Score     int
	StartTime time.Time

	IsPaused   bool
	IsGameOver bool
	IsVictory  bool

	CounterWindowActive  bool
	CounterWindowExpires time.Time
}

// CounterActive сообщает, открыто ли контр-окно на момент now.
func (s GameState) CounterActive(now time.Time) bool {
	return s.CounterWindowActive && !now.After(s.CounterWindowExpires)
}

// BattleStats — статистика, накапливаемая по тикам одного боя.
// Из нее и финального GameState считается BattleResult.
type BattleStats struct {
	DamageDealt  int
	DamageTaken  int
	Dodges       int
	Blocks       int
	SpecialsUsed int
	LongestCombo int
}

// NewBattle собирает свежий GameState для монстра с данным индексом.
// Конфиг масштабируется по индексу прогрессии, runtime-статы монстра
// создаются заново, герой — со стартовыми характеристиками.
func NewBattle(cat *catalog.Catalog, mode domain.GameMode, monsterIndex int, carryScore int, now time.Time) (GameState, error) {
	base, ok := cat.ByIndex(monsterIndex)
	if !ok {
		return GameState{}, fmt.Errorf("engine: no monster at index %d", monsterIndex)
	}

	scaled := systems.ScaleStats(base, monsterIndex)
	monster := catalog.NewMonsterStats(&scaled)

	return GameState{
		Mode:                mode,
		CurrentMonsterIndex: monsterIndex,
		Hero:                domain.NewHeroState(),
		Monster:             monster,
		MonsterConfig:       &scaled,
		Score:               carryScore,
		StartTime:           now,
	}, nil
}
