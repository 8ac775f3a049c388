package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
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

const schema = `
CREATE TABLE IF NOT EXISTS complaints (
	id          uuid PRIMARY KEY,
	report_id   text NOT NULL UNIQUE,
	session_id  text NOT NULL,
	user_id     text NOT NULL,
	status      text NOT NULL,
	document    jsonb NOT NULL,
	created_at  timestamptz NOT NULL DEFAULT now(),
	updated_at  timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS complaints_user_created_idx ON complaints (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS complaints_created_idx ON complaints (created_at DESC);

CREATE TABLE IF NOT EXISTS knowledge_documents (
	kind        text PRIMARY KEY,
	document    jsonb NOT NULL,
	updated_at  timestamptz NOT NULL DEFAULT now()
);`

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// decodeDocument turns a jsonb column plus row metadata into the stored shape.
func decodeDocument(id uuid.UUID, raw []byte, createdAt, updatedAt time.Time) (map[string]any, error) {
	doc := make(map[string]any)
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	doc["_id"] = id.String()
	doc["createdAt"] = createdAt
	doc["updatedAt"] = updatedAt
	return doc, nil
}
