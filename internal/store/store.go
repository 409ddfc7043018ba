package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

// New opens a bounded connection pool and verifies connectivity. The pool
// is process-wide shared state; callers must Close it on shutdown.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 30 * time.Second
	cfg.ConnConfig.ConnectTimeout = 10 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// EnsureSchema creates the three collections and their indexes.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			session_id uuid PRIMARY KEY,
			created_at timestamptz NOT NULL DEFAULT now(),
			metadata   jsonb NOT NULL DEFAULT '{}'
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions (created_at);

		CREATE TABLE IF NOT EXISTS documents (
			id           uuid PRIMARY KEY,
			session_id   uuid NOT NULL,
			filename     text NOT NULL,
			file_size    bigint NOT NULL,
			content_hash text NOT NULL,
			chunk_count  int NOT NULL,
			status       text NOT NULL,
			uploaded_at  timestamptz NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_documents_session ON documents (session_id);
		CREATE INDEX IF NOT EXISTS idx_documents_filename ON documents (filename);

		CREATE TABLE IF NOT EXISTS chat_history (
			id         bigserial PRIMARY KEY,
			session_id uuid NOT NULL,
			role       text NOT NULL,
			content    text NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_chat_history_session_time ON chat_history (session_id, created_at);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
