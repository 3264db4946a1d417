package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists conversation turns in PostgreSQL behind a bounded
// connection pool. Each call is its own transaction; a connection is checked
// out only for the span of one statement and always returned.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS turns (
			id BIGSERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			role TEXT NOT NULL,
			content JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_turns_user_id ON turns (user_id, id);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, userID, role string, content Content) error {
	payload, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("%w: encode content: %v", ErrPersistence, err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO turns (user_id, role, content) VALUES ($1, $2, $3)`,
		userID, role, payload,
	)
	if err != nil {
		return fmt.Errorf("%w: append turn: %v", ErrPersistence, err)
	}
	return nil
}

func (s *PostgresStore) Window(ctx context.Context, userID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = DefaultWindow
	}

	// The row id carries insertion order; created_at alone could tie.
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, role, content, created_at
		 FROM turns WHERE user_id=$1 ORDER BY id DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query window: %v", ErrPersistence, err)
	}
	defer rows.Close()

	turns := make([]Turn, 0, limit)
	for rows.Next() {
		var (
			t       Turn
			payload []byte
		)
		if err := rows.Scan(&t.UserID, &t.Role, &payload, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan turn: %v", ErrPersistence, err)
		}
		if err := json.Unmarshal(payload, &t.Content); err != nil {
			return nil, fmt.Errorf("%w: decode content: %v", ErrPersistence, err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate window: %v", ErrPersistence, err)
	}

	// Reverse into chronological order for prompt coherence.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	return turns, nil
}

func (s *PostgresStore) Erase(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM turns WHERE user_id=$1`, userID); err != nil {
		return fmt.Errorf("%w: erase history: %v", ErrPersistence, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
