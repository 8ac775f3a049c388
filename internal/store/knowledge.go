package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/knowledge"
)

func (s *Store) GetKnowledge(ctx context.Context, kind knowledge.Kind) (json.RawMessage, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT document FROM knowledge_documents WHERE kind = $1`, string(kind)).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, knowledge.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get knowledge %s: %w", kind, err)
	}
	return json.RawMessage(raw), nil
}

// PutKnowledge replaces the document for kind.
func (s *Store) PutKnowledge(ctx context.Context, kind knowledge.Kind, doc json.RawMessage) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO knowledge_documents (kind, document, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (kind)
		DO UPDATE SET document = EXCLUDED.document, updated_at = now()`,
		string(kind), string(doc),
	)
	if err != nil {
		return fmt.Errorf("put knowledge %s: %w", kind, err)
	}
	return nil
}
