package session

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore — хранилище истории диалогов в Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore создаёт PGStore поверх готового пула соединений.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Init создаёт схему истории, если её ещё нет.
func (s *PGStore) Init(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS session_turns (
			id         BIGSERIAL PRIMARY KEY,
			session_id TEXT        NOT NULL,
			role       TEXT        NOT NULL,
			content    TEXT        NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS session_turns_session_idx
			ON session_turns (session_id, id);
	`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("init session schema: %w", err)
	}
	return nil
}

// History возвращает последние limit реплик диалога.
func (s *PGStore) History(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	// Выбираем хвост в обратном порядке ради LIMIT, разворачиваем ниже.
	// LIMIT NULL в Postgres означает «без ограничения».
	query := `
		SELECT role, content, created_at
		FROM session_turns
		WHERE session_id = $1
		ORDER BY id DESC
		LIMIT $2
	`
	arg := any(limit)
	if limit <= 0 {
		arg = nil
	}

	rows, err := s.pool.Query(ctx, query, sessionID, arg)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.Role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	return turns, nil
}

// Append дописывает реплики в конец диалога.
func (s *PGStore) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	query := `
		INSERT INTO session_turns (session_id, role, content, created_at)
		VALUES ($1, $2, $3, $4)
	`
	for _, t := range turns {
		createdAt := t.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		if _, err := s.pool.Exec(ctx, query, sessionID, t.Role, t.Content, createdAt); err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
	}
	return nil
}

// Clear удаляет диалог целиком.
func (s *PGStore) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM session_turns WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PruneIdle удаляет диалоги, последняя реплика которых старше olderThan.
func (s *PGStore) PruneIdle(ctx context.Context, olderThan time.Time) (int64, error) {
	query := `
		DELETE FROM session_turns
		WHERE session_id IN (
			SELECT session_id
			FROM session_turns
			GROUP BY session_id
			HAVING max(created_at) < $1
		)
	`
	tag, err := s.pool.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
