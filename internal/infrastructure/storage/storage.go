package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"battler-server/internal/domain"
	"battler-server/pkg/logger"
)

// Логические ключи локального хранилища.
const (
	GameDataKey   = "game_data"
	CurrentRunKey = "current_run"
)

// remoteTimeout — потолок ожидания удалённого хранилища, чтобы рендер
// таблицы лидеров не висел на сетевом вызове.
const remoteTimeout = 3 * time.Second

// Service — слой персистентности игры. Локальное хранилище — источник
// истины; удалённое — зеркало по возможности (может быть nil).
type Service struct {
	Local    KeyValueStore
	Remote   RemoteStore
	Sessions SessionProvider
}

func NewService(local KeyValueStore, remote RemoteStore, sessions SessionProvider) *Service {
	return &Service{Local: local, Remote: remote, Sessions: sessions}
}

// LoadGameData читает агрегат из локального хранилища.
// Отсутствие записи — не ошибка: возвращается пустой агрегат.
// Битые данные — ошибка вызывающему: молча подменять повреждённую
// таблицу дефолтом значит уничтожить данные игрока.
func (s *Service) LoadGameData() (domain.GameStorage, error) {
	raw, ok, err := s.Local.Get(GameDataKey)
	if err != nil {
		return domain.GameStorage{}, err
	}
	if !ok {
		return domain.NewGameStorage(), nil
	}

	var data domain.GameStorage
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return domain.GameStorage{}, fmt.Errorf("storage: corrupted game data: %w", err)
	}
	return data, nil
}

// SaveGameData атомарно перезаписывает весь агрегат.
func (s *Service) SaveGameData(data domain.GameStorage) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("storage: marshal game data: %w", err)
	}
	return s.Local.Set(GameDataKey, string(raw))
}

// AddScoreboardEntry добавляет запись в таблицу лидеров: сортировка по
// убыванию счета, отсечение до топ-100, обновление рекордов, сохранение
// и best-effort зеркалирование на удалённое хранилище. Ошибка зеркала
// логируется и глотается: операция успешна, если локально всё записано.
func (s *Service) AddScoreboardEntry(ctx context.Context, entry domain.ScoreboardEntry) error {
	data, err := s.LoadGameData()
	if err != nil {
		return err
	}

	data.Scoreboard = append(data.Scoreboard, entry)
	sortScoreboard(data.Scoreboard)
	if len(data.Scoreboard) > domain.MaxScoreboardEntries {
		data.Scoreboard = data.Scoreboard[:domain.MaxScoreboardEntries]
	}

	if entry.Score > data.BestScore {
		data.BestScore = entry.Score
	}
	if data.BestTimeMS == nil || entry.CompletionTimeMS < *data.BestTimeMS {
		t := entry.CompletionTimeMS
		data.BestTimeMS = &t
	}

	if err := s.SaveGameData(data); err != nil {
		return err
	}

	s.syncRemote(ctx, entry)
	return nil
}

// syncRemote зеркалирует запись, если есть сессия и настроено зеркало.
func (s *Service) syncRemote(ctx context.Context, entry domain.ScoreboardEntry) {
	if s.Remote == nil || s.Sessions == nil {
		return
	}
	sess := s.Sessions.CurrentSession()
	if sess == nil {
		return
	}

	entry.UserID = &sess.UserID

	syncCtx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	if err := s.Remote.Insert(syncCtx, entry); err != nil {
		logger.Component("game_storage").WithField("entry_id", entry.ID).
			WithError(err).Warn("Remote scoreboard sync failed, keeping local only")
	}
}

// AddPlayHistory добавляет забег в историю, оставляя 50 самых свежих
// (старые выпадают первыми). Удалённое хранилище не участвует.
func (s *Service) AddPlayHistory(history domain.PlayHistory) error {
	data, err := s.LoadGameData()
	if err != nil {
		return err
	}

	data.PlayHistory = append(data.PlayHistory, history)
	if len(data.PlayHistory) > domain.MaxPlayHistories {
		data.PlayHistory = data.PlayHistory[len(data.PlayHistory)-domain.MaxPlayHistories:]
	}

	return s.SaveGameData(data)
}

// LoadServerScoreboard запрашивает у удалённого хранилища топ записей
// текущего пользователя. Без сессии — пустой список сразу (не ошибка).
// Любой сбой — лог и пустой список: удалённая таблица всегда мягкая
// зависимость.
func (s *Service) LoadServerScoreboard(ctx context.Context) []domain.ScoreboardEntry {
	if s.Remote == nil || s.Sessions == nil {
		return nil
	}
	sess := s.Sessions.CurrentSession()
	if sess == nil {
		return nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	entries, err := s.Remote.QueryTop(queryCtx, sess.UserID, domain.MaxScoreboardEntries)
	if err != nil {
		logger.Component("game_storage").
			WithError(err).Warn("Remote scoreboard load failed")
		return nil
	}
	return entries
}

// MergeScoreboards объединяет локальные и удалённые записи для показа:
// дедупликация по id (выигрывает первое вхождение), сортировка по
// убыванию счета, потолок 100, затем срез до запрошенного лимита.
func MergeScoreboards(local, remote []domain.ScoreboardEntry, limit int) []domain.ScoreboardEntry {
	seen := make(map[string]bool, len(local)+len(remote))
	merged := make([]domain.ScoreboardEntry, 0, len(local)+len(remote))

	for _, e := range append(append([]domain.ScoreboardEntry{}, local...), remote...) {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		merged = append(merged, e)
	}

	sortScoreboard(merged)
	if len(merged) > domain.MaxScoreboardEntries {
		merged = merged[:domain.MaxScoreboardEntries]
	}
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// ClearGameData удаляет агрегат и маркер текущего забега.
// Повторный вызов безопасен и оставляет то же дефолтное состояние.
func (s *Service) ClearGameData() error {
	if err := s.Local.Remove(GameDataKey); err != nil {
		return err
	}
	return s.Local.Remove(CurrentRunKey)
}

func sortScoreboard(entries []domain.ScoreboardEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
}
