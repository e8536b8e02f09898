package api

import (
	"encoding/json"

	"battler-server/internal/domain"
)

// --- СЕРВЕР -> КЛИЕНТ ---

// ServerResponse — корневой объект, который сервер отправляет клиенту.
// Это снимок текущего боя для конкретной сессии; отправляется каждый тик
// и на терминальных событиях (конец боя, конец забега).
type ServerResponse struct {
	// Type тип сообщения: UPDATE, BATTLE_END, RUN_END, SCOREBOARD, ERROR.
	Type string `json:"type"`

	// Tick порядковый номер тика внутри текущего боя.
	Tick int64 `json:"tick"`

	Hero    *HeroView    `json:"hero,omitempty"`
	Monster *MonsterView `json:"monster,omitempty"`
	Battle  *BattleMeta  `json:"battle,omitempty"`

	// Result сводка завершившегося боя (только для BATTLE_END/RUN_END).
	Result *domain.BattleResult `json:"result,omitempty"`

	// History полный забег (только для RUN_END).
	History *domain.PlayHistory `json:"history,omitempty"`

	// Scoreboard объединённая таблица лидеров (ответ на SCOREBOARD).
	Scoreboard []domain.ScoreboardEntry `json:"scoreboard,omitempty"`

	// Error текст ошибки (только для Type=ERROR).
	Error string `json:"error,omitempty"`
}

// HeroView — DTO состояния героя для HUD.
type HeroView struct {
	Health     int     `json:"health"`
	MaxHealth  int     `json:"maxHealth"`
	Stamina    float64 `json:"stamina"`
	MaxStamina float64 `json:"maxStamina"`
	Focus      float64 `json:"focus"`
	MaxFocus   float64 `json:"maxFocus"`

	ComboCount      int     `json:"comboCount"`
	ComboMultiplier float64 `json:"comboMultiplier"`

	IsBlocking     bool   `json:"isBlocking"`
	IsDodging      bool   `json:"isDodging"`
	DodgeDirection string `json:"dodgeDirection,omitempty"`
	LastAction     string `json:"lastAction,omitempty"`

	CounterWindowActive bool `json:"counterWindowActive"`
}

// MonsterView — DTO состояния монстра.
type MonsterView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SpriteIndex int    `json:"spriteIndex"`
	ColorTag    string `json:"colorTag"`

	Health    int `json:"health"`
	MaxHealth int `json:"maxHealth"`

	Phase string `json:"phase"`

	// TelegraphMS длительность активной подсказки (0 вне фазы telegraph).
	TelegraphMS float64 `json:"telegraphMs"`
}

// BattleMeta — метаданные текущего боя/забега.
type BattleMeta struct {
	Mode         string `json:"mode"`
	MonsterIndex int    `json:"monsterIndex"`
	Score        int    `json:"score"`
	IsPaused     bool   `json:"isPaused"`
	IsGameOver   bool   `json:"isGameOver"`
	IsVictory    bool   `json:"isVictory"`
}

// --- КЛИЕНТ -> СЕРВЕР ---

// ClientCommand — корневой объект всех сообщений от клиента.
type ClientCommand struct {
	// Token идентификатор сессии клиента. Выдается при START,
	// обязателен для последующих команд.
	Token string `json:"token,omitempty"`

	// Action название команды: START, INPUT, RETRY, CONTINUE, PAUSE,
	// SCOREBOARD.
	Action string `json:"action"`

	// Payload JSON-объект с данными команды, структура зависит от Action.
	Payload json.RawMessage `json:"payload"`
}

// --- Payloads ---

// StartPayload запускает новый забег.
type StartPayload struct {
	Mode string `json:"mode"` // gauntlet, bossRush, endless, tutorial
}

// InputPayload — накопленный ввод одного тика.
// Все поля опциональны; отсутствие поля означает отсутствие действия.
type InputPayload struct {
	Attack  string `json:"attack,omitempty"` // light | heavy
	Block   *bool  `json:"block,omitempty"`
	Dodge   string `json:"dodge,omitempty"` // left | right | up | down
	Special bool   `json:"special,omitempty"`
}

// ScoreboardPayload запрашивает объединённую таблицу лидеров.
type ScoreboardPayload struct {
	Limit int `json:"limit,omitempty"` // по умолчанию 20
}
