package catalog

import "battler-server/internal/domain"

// BaseStats — базовые характеристики монстра без runtime-полей.
type BaseStats struct {
	MaxHealth   int `yaml:"max_health" json:"maxHealth"`
	AttackPower int `yaml:"attack_power" json:"attackPower"`
	Defense     int `yaml:"defense" json:"defense"`
	Speed       int `yaml:"speed" json:"speed"`
}

// PhaseConfig — одна строка фазового расписания монстра.
type PhaseConfig struct {
	Phase domain.Phase `yaml:"phase" json:"phase"`

	// Duration — номинальная длительность фазы в миллисекундах.
	Duration float64 `yaml:"duration" json:"duration"`

	// AttackFrequency — вероятность атаки за проверку, [0, 1].
	AttackFrequency float64 `yaml:"attack_frequency" json:"attackFrequency"`

	MovementSpeed float64 `yaml:"movement_speed" json:"movementSpeed"`
}

// Hitbox — прямоугольник зоны поражения атаки (в координатах арены).
type Hitbox struct {
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// AttackPattern — описание одной атаки, привязанной к фазе.
type AttackPattern struct {
	ID           string       `yaml:"id" json:"id"`
	Phase        domain.Phase `yaml:"phase" json:"phase"`
	Damage       int          `yaml:"damage" json:"damage"`
	WindupTime   float64      `yaml:"windup_time" json:"windupTime"`
	RecoveryTime float64      `yaml:"recovery_time" json:"recoveryTime"`
	Hitbox       Hitbox       `yaml:"hitbox" json:"hitbox"`
	TelegraphID  string       `yaml:"telegraph_id" json:"telegraphId"`
}

// TelegraphConfig — подсказка-предупреждение перед атакой.
type TelegraphConfig struct {
	ID       string  `yaml:"id" json:"id"`
	Duration float64 `yaml:"duration" json:"duration"`
	Visual   string  `yaml:"visual" json:"visual"`
	Audio    string  `yaml:"audio" json:"audio"`
}

// MonsterConfig — неизменяемая запись каталога.
// Создается один раз при старте из статических данных.
type MonsterConfig struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	SpriteIndex int    `yaml:"sprite_index" json:"spriteIndex"`
	ColorTag    string `yaml:"color_tag" json:"colorTag"`

	BaseStats BaseStats `yaml:"base_stats" json:"baseStats"`

	Phases   []PhaseConfig     `yaml:"phases" json:"phases"`
	Patterns []AttackPattern   `yaml:"patterns" json:"patterns"`
	Tells    []TelegraphConfig `yaml:"tells" json:"tells"`
}

// PhaseConfig возвращает расписание указанной фазы, если оно описано.
func (c *MonsterConfig) PhaseConfig(p domain.Phase) (PhaseConfig, bool) {
	for _, ph := range c.Phases {
		if ph.Phase == p {
			return ph, true
		}
	}
	return PhaseConfig{}, false
}

// PatternForPhase возвращает первую атаку, привязанную к фазе.
func (c *MonsterConfig) PatternForPhase(p domain.Phase) (AttackPattern, bool) {
	for _, pat := range c.Patterns {
		if pat.Phase == p {
			return pat, true
		}
	}
	return AttackPattern{}, false
}
