package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"battler-server/internal/catalog"
	"battler-server/internal/domain"
	"battler-server/internal/infrastructure/storage"
	"battler-server/internal/network"
	"battler-server/pkg/logger"
)

// DefaultScoreboardLimit — сколько строк таблицы лидеров отдается,
// если клиент не задал собственный лимит.
const DefaultScoreboardLimit = 20

// GameService владеет активными сессиями и общими зависимостями:
// каталогом монстров, хранилищем и раздатчиком сообщений.
type GameService struct {
	Hub   *network.Broadcaster
	store *storage.Service

	mu       sync.RWMutex
	catalog  *catalog.Catalog
	sessions map[string]*Session

	seed func() int64
}

func NewGameService(cat *catalog.Catalog, store *storage.Service) *GameService {
	return &GameService{
		Hub:      network.NewBroadcaster(),
		store:    store,
		catalog:  cat,
		sessions: make(map[string]*Session),
		seed:     func() int64 { return time.Now().UnixNano() },
	}
}

// Catalog возвращает актуальный снимок каталога.
func (g *GameService) Catalog() *catalog.Catalog {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.catalog
}

// SetCatalog подменяет каталог на свежий снимок (горячая перезагрузка).
// Активные сессии доигрывают на старом снимке; новые бои берут новый.
func (g *GameService) SetCatalog(cat *catalog.Catalog) {
	g.mu.Lock()
	g.catalog = cat
	g.mu.Unlock()
	logger.Log.WithField("monsters", cat.Count()).Info("Monster catalog replaced")
}

// StartSession создает сессию забега и запускает её цикл.
func (g *GameService) StartSession(mode domain.GameMode) (*Session, error) {
	cat := g.Catalog()

	s, err := NewSession(cat, g.store, g.Hub, mode, g.seed())
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	g.mu.Lock()
	g.sessions[s.ID] = s
	g.mu.Unlock()

	go s.Run()
	return s, nil
}

// Session находит активную сессию по идентификатору.
func (g *GameService) Session(id string) (*Session, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.sessions[id]
	return s, ok
}

// EndSession останавливает сессию и убирает её из реестра.
// Неизвестный идентификатор — no-op.
func (g *GameService) EndSession(id string) {
	g.mu.Lock()
	s, ok := g.sessions[id]
	if ok {
		delete(g.sessions, id)
	}
	g.mu.Unlock()

	if ok {
		s.Stop()
	}
}

// ActiveSessions — количество живых сессий (для health/debug).
func (g *GameService) ActiveSessions() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.sessions)
}

// SessionIDs — идентификаторы живых сессий (для debug-эндпоинта).
func (g *GameService) SessionIDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]string, 0, len(g.sessions))
	for id := range g.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Scoreboard отдает объединённую таблицу лидеров: локальная копия
// плюс то, что удалось получить с сервера. Недоступный сервер не
// считается ошибкой.
func (g *GameService) Scoreboard(ctx context.Context, limit int) ([]domain.ScoreboardEntry, error) {
	if limit <= 0 {
		limit = DefaultScoreboardLimit
	}

	data, err := g.store.LoadGameData()
	if err != nil {
		return nil, fmt.Errorf("load scoreboard: %w", err)
	}

	remote := g.store.LoadServerScoreboard(ctx)
	return storage.MergeScoreboards(data.Scoreboard, remote, limit), nil
}
