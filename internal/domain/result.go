package domain

// GameMode — режим забега.
type GameMode string

const (
	ModeGauntlet GameMode = "gauntlet"
	ModeBossRush GameMode = "bossRush"
	ModeEndless  GameMode = "endless"
	ModeTutorial GameMode = "tutorial"
)

// BattleResult — неизменяемая сводка одного завершенного боя.
// Считается один раз из GameState и накопленной статистики.
type BattleResult struct {
	MonsterID   string `json:"monsterId"`
	MonsterName string `json:"monsterName"`
	Victory     bool   `json:"victory"`

	DamageDealt int `json:"damageDealt"`
	DamageTaken int `json:"damageTaken"`

	Dodges       int `json:"dodges"`
	Blocks       int `json:"blocks"`
	LongestCombo int `json:"longestCombo"`
	SpecialsUsed int `json:"specialsUsed"`

	// Accuracy — процент, округленный до целого. 0 при нулевом знаменателе.
	Accuracy int `json:"accuracy"`

	DurationMS int64 `json:"durationMs"`
}

// PlayHistory — один полный забег (возможно, много боев).
// Дополняется по ходу забега, замораживается и сохраняется при его завершении.
type PlayHistory struct {
	ID        string         `json:"id"`
	Mode      GameMode       `json:"mode"`
	StartedAt int64          `json:"startedAt"` // unix миллисекунды
	EndedAt   int64          `json:"endedAt"`
	Battles   []BattleResult `json:"battles"`

	TotalScore       int `json:"totalScore"`
	MonstersDefeated int `json:"monstersDefeated"`

	// CompletionTimeMS — nil, пока забег не окончен.
	CompletionTimeMS *int64 `json:"completionTimeMs"`
}

// ScoreboardEntry — строка таблицы лидеров.
// Ключ сортировки — Score по убыванию.
type ScoreboardEntry struct {
	ID string `json:"id"`

	// UserID — nil для анонимных/локальных записей.
	UserID *string `json:"userId"`

	Mode             GameMode `json:"mode"`
	Score            int      `json:"score"`
	MonstersDefeated int      `json:"monstersDefeated"`
	CompletionTimeMS int64    `json:"completionTimeMs"`
	Timestamp        int64    `json:"timestamp"`

	// History — полный забег для реплея/аудита.
	History PlayHistory `json:"history"`
}

// AchievementProgress — прогресс одного достижения.
type AchievementProgress struct {
	ID       string `json:"id"`
	Progress int    `json:"progress"`
	Target   int    `json:"target"`
	Unlocked bool   `json:"unlocked"`
}

// GameStorage — сохраняемый агрегат. Загружается целиком, мутируется
// и атомарно перезаписывается (никаких частичных апдейтов).
type GameStorage struct {
	Scoreboard  []ScoreboardEntry `json:"scoreboard"`
	PlayHistory []PlayHistory     `json:"playHistory"`

	BestScore int `json:"bestScore"`

	// BestTimeMS — nil, пока не зафиксировано ни одного времени
	// (семантика "+бесконечности" из первоначальной модели).
	BestTimeMS *int64 `json:"bestTimeMs"`

	Achievements []AchievementProgress `json:"achievements"`
}

// NewGameStorage возвращает пустое хранилище по умолчанию.
func NewGameStorage() GameStorage {
	return GameStorage{
		Scoreboard:   []ScoreboardEntry{},
		PlayHistory:  []PlayHistory{},
		Achievements: []AchievementProgress{},
	}
}
