package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"battler-server/internal/domain"
)

//go:embed monsters.yaml
var embeddedData []byte

// Catalog — загруженный набор конфигов монстров.
// После загрузки не мутируется.
type Catalog struct {
	Monsters []MonsterConfig

	byID map[string]*MonsterConfig
}

type catalogFile struct {
	Monsters []MonsterConfig `yaml:"monsters"`
}

// Load разбирает встроенные данные каталога.
func Load() (*Catalog, error) {
	return parse(embeddedData)
}

// MustLoad — вариант Load для тестов и инициализации, где встроенные
// данные обязаны быть валидными.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic("catalog: embedded data is broken: " + err.Error())
	}
	return c
}

// LoadDir читает каталог из внешней директории (*.yaml, по одному файлу
// на набор). Используется для тюнинга баланса без пересборки.
func LoadDir(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog: read dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("catalog: no yaml files in %s", dir)
	}
	sort.Strings(names)

	var all []MonsterConfig
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("catalog: read %s: %w", name, err)
		}
		var f catalogFile
		if err := yaml.Unmarshal(b, &f); err != nil {
			return nil, fmt.Errorf("catalog: parse %s: %w", name, err)
		}
		all = append(all, f.Monsters...)
	}

	return build(all)
}

func parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	return build(f.Monsters)
}

func build(monsters []MonsterConfig) (*Catalog, error) {
	c := &Catalog{
		Monsters: monsters,
		byID:     make(map[string]*MonsterConfig, len(monsters)),
	}

	for i := range c.Monsters {
		m := &c.Monsters[i]
		if err := validate(m); err != nil {
			return nil, err
		}
		if _, dup := c.byID[m.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate monster id %q", m.ID)
		}
		c.byID[m.ID] = m
	}

	return c, nil
}

// validate проверяет внутреннюю согласованность одной записи.
func validate(m *MonsterConfig) error {
	if m.ID == "" {
		return fmt.Errorf("catalog: monster without id")
	}
	if m.BaseStats.MaxHealth <= 0 {
		return fmt.Errorf("catalog: %s: non-positive max_health", m.ID)
	}

	tells := make(map[string]bool, len(m.Tells))
	for _, t := range m.Tells {
		tells[t.ID] = true
	}

	for _, ph := range m.Phases {
		if !ph.Phase.Valid() {
			return fmt.Errorf("catalog: %s: unknown phase tag %q", m.ID, ph.Phase)
		}
		if ph.Duration <= 0 {
			return fmt.Errorf("catalog: %s: phase %s has non-positive duration", m.ID, ph.Phase)
		}
	}

	for _, pat := range m.Patterns {
		if !pat.Phase.Valid() {
			return fmt.Errorf("catalog: %s: pattern %s bound to unknown phase %q", m.ID, pat.ID, pat.Phase)
		}
		if _, ok := m.PhaseConfig(pat.Phase); !ok {
			return fmt.Errorf("catalog: %s: pattern %s bound to unlisted phase %q", m.ID, pat.ID, pat.Phase)
		}
		if pat.TelegraphID != "" && !tells[pat.TelegraphID] {
			return fmt.Errorf("catalog: %s: pattern %s references unknown tell %q", m.ID, pat.ID, pat.TelegraphID)
		}
	}

	return nil
}

// Count возвращает размер каталога.
func (c *Catalog) Count() int { return len(c.Monsters) }

// ByID ищет конфиг по идентификатору.
func (c *Catalog) ByID(id string) (*MonsterConfig, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// ByIndex возвращает конфиг по индексу прогрессии.
// Для бесконечного режима индекс зацикливается по модулю размера каталога.
func (c *Catalog) ByIndex(i int) (*MonsterConfig, bool) {
	if len(c.Monsters) == 0 || i < 0 {
		return nil, false
	}
	return &c.Monsters[i%len(c.Monsters)], true
}

// NewMonsterStats создает runtime-статы из конфига (без масштабирования).
// Бой всегда начинается в фазе idle с двухсекундным таймером.
func NewMonsterStats(cfg *MonsterConfig) domain.MonsterStats {
	timer := domain.DefaultPhaseDuration
	if ph, ok := cfg.PhaseConfig(domain.PhaseIdle); ok {
		timer = ph.Duration
	}
	return domain.MonsterStats{
		CurrentHealth:  cfg.BaseStats.MaxHealth,
		MaxHealth:      cfg.BaseStats.MaxHealth,
		AttackPower:    cfg.BaseStats.AttackPower,
		Defense:        cfg.BaseStats.Defense,
		Speed:          cfg.BaseStats.Speed,
		Phase:          domain.PhaseIdle,
		PhaseTimer:     timer,
		AttackCooldown: 0,
	}
}
