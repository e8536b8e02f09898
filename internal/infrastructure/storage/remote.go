package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"battler-server/internal/domain"
)

// UserSession — минимум, который ядру нужно знать о залогиненном
// пользователе. Остальные операции идентичности живут вне ядра.
type UserSession struct {
	UserID string
}

// SessionProvider отдаёт текущую сессию пользователя либо nil.
type SessionProvider interface {
	CurrentSession() *UserSession
}

// StaticSessionProvider — провайдер с фиксированным пользователем
// (композиционный корень настраивает его из окружения). Пустой ID
// означает анонимный режим.
type StaticSessionProvider struct {
	UserID string
}

func (p *StaticSessionProvider) CurrentSession() *UserSession {
	if p == nil || p.UserID == "" {
		return nil
	}
	return &UserSession{UserID: p.UserID}
}

// RemoteStore — две операции, которые ядро потребляет у удалённого
// хранилища: вставка записи и выборка топа по пользователю.
type RemoteStore interface {
	Insert(ctx context.Context, entry domain.ScoreboardEntry) error
	QueryTop(ctx context.Context, userID string, limit int) ([]domain.ScoreboardEntry, error)
	Status(ctx context.Context) RemoteStatus
}

// PostgresStore реализует RemoteStore поверх одной таблицы Postgres.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres открывает соединение и проверяет его коротким пингом.
func OpenPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("remote: open: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("remote: ping: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) Insert(ctx context.Context, entry domain.ScoreboardEntry) error {
	historyJSON, err := json.Marshal(entry.History)
	if err != nil {
		return fmt.Errorf("remote: marshal history: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scoreboard_entries
			(id, user_id, mode, score, monsters_defeated, completion_time_ms, created_at, history)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`,
		entry.ID, entry.UserID, string(entry.Mode), entry.Score,
		entry.MonstersDefeated, entry.CompletionTimeMS, entry.Timestamp, historyJSON,
	)
	if err != nil {
		return fmt.Errorf("remote: insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) QueryTop(ctx context.Context, userID string, limit int) ([]domain.ScoreboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, mode, score, monsters_defeated, completion_time_ms, created_at, history
		FROM scoreboard_entries
		WHERE user_id = $1
		ORDER BY score DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("remote: query: %w", err)
	}
	defer rows.Close()

	var entries []domain.ScoreboardEntry
	for rows.Next() {
		var (
			e           domain.ScoreboardEntry
			mode        string
			historyJSON []byte
		)
		if err := rows.Scan(&e.ID, &e.UserID, &mode, &e.Score,
			&e.MonstersDefeated, &e.CompletionTimeMS, &e.Timestamp, &historyJSON); err != nil {
			return nil, fmt.Errorf("remote: scan: %w", err)
		}
		e.Mode = domain.GameMode(mode)
		// Строка с нечитаемой историей всё равно полезна для таблицы.
		_ = json.Unmarshal(historyJSON, &e.History)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("remote: rows: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) Status(ctx context.Context) RemoteStatus {
	err := s.db.PingContext(ctx)
	if err == nil {
		return RemoteStatus{Kind: RemoteAvailable}
	}
	// Приостановленный инстанс отвечает характерными ошибками запуска.
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "starting up") || strings.Contains(msg, "paused") {
		return RemoteStatus{Kind: RemotePaused, Reason: err}
	}
	return RemoteStatus{Kind: RemoteUnavailable, Reason: err}
}
