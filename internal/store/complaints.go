package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/complaint"
)

// SaveComplaint writes a finalized complaint and returns its row id.
func (s *Store) SaveComplaint(ctx context.Context, c *complaint.Complaint) (string, error) {
	body, err := json.Marshal(c.Document())
	if err != nil {
		return "", fmt.Errorf("encode complaint: %w", err)
	}

	id := uuid.New()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO complaints (id, report_id, session_id, user_id, status, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, now(), now())`,
		id, c.ReportID, c.SessionID, c.UserID, string(c.Status), string(body),
	)
	if err != nil {
		return "", fmt.Errorf("insert complaint: %w", err)
	}
	return id.String(), nil
}

// GetComplaint fetches a complaint by report ID.
func (s *Store) GetComplaint(ctx context.Context, reportID string) (complaint.Document, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, document, created_at, updated_at
		FROM complaints
		WHERE report_id = $1`,
		reportID,
	)
	return scanComplaint(row)
}

// ListComplaints returns complaints newest first, optionally for one user.
func (s *Store) ListComplaints(ctx context.Context, f complaint.ListFilter) ([]complaint.Document, error) {
	query := `SELECT id, document, created_at, updated_at FROM complaints`
	var args []any
	if f.UserID != "" {
		query += ` WHERE user_id = $1`
		args = append(args, f.UserID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	defer rows.Close()

	out := []complaint.Document{}
	for rows.Next() {
		doc, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// UpdateComplaintStatus merges the update into the stored document and returns the result.
func (s *Store) UpdateComplaintStatus(ctx context.Context, u complaint.StatusUpdate) (complaint.Document, error) {
	fields, err := json.Marshal(u.Fields())
	if err != nil {
		return nil, fmt.Errorf("encode status update: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE complaints
		SET status = $2, document = document || $3::jsonb, updated_at = now()
		WHERE report_id = $1
		RETURNING id, document, created_at, updated_at`,
		u.ReportID, string(u.Status), string(fields),
	)
	return scanComplaint(row)
}

func scanComplaint(row pgx.Row) (complaint.Document, error) {
	var (
		id        uuid.UUID
		raw       []byte
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &raw, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, complaint.ErrNotFound
		}
		return nil, fmt.Errorf("scan complaint: %w", err)
	}
	doc, err := decodeDocument(id, raw, createdAt, updatedAt)
	if err != nil {
		return nil, err
	}
	return complaint.Document(doc), nil
}
