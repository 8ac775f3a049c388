package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/complaint"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/knowledge"
)

// Store is an in-process complaint and knowledge store. Documents are kept
// JSON-encoded so reads hand out fresh copies with the same shapes the
// database-backed stores return.
type Store struct {
	mu         sync.RWMutex
	complaints map[string]*entry // keyed by report ID
	knowledge  map[knowledge.Kind]json.RawMessage
	now        func() time.Time
	seq        uint64
}

type entry struct {
	id        string
	seq       uint64 // insertion order, breaks createdAt ties
	userID    string
	body      []byte
	createdAt time.Time
	updatedAt time.Time
}

func New() *Store {
	return &Store{
		complaints: make(map[string]*entry),
		knowledge:  make(map[knowledge.Kind]json.RawMessage),
		now:        time.Now,
	}
}

func (s *Store) SaveComplaint(_ context.Context, c *complaint.Complaint) (string, error) {
	body, err := json.Marshal(c.Document())
	if err != nil {
		return "", fmt.Errorf("encode complaint: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.complaints[c.ReportID]; exists {
		return "", fmt.Errorf("complaint %s already exists", c.ReportID)
	}
	now := s.now()
	s.seq++
	e := &entry{
		id:        uuid.NewString(),
		seq:       s.seq,
		userID:    c.UserID,
		body:      body,
		createdAt: now,
		updatedAt: now,
	}
	s.complaints[c.ReportID] = e
	return e.id, nil
}

func (s *Store) GetComplaint(_ context.Context, reportID string) (complaint.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.complaints[reportID]
	if !ok {
		return nil, complaint.ErrNotFound
	}
	return e.document()
}

func (s *Store) ListComplaints(_ context.Context, f complaint.ListFilter) ([]complaint.Document, error) {
	s.mu.RLock()
	matched := make([]*entry, 0, len(s.complaints))
	for _, e := range s.complaints {
		if f.UserID != "" && e.userID != f.UserID {
			continue
		}
		matched = append(matched, e)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.createdAt.Equal(b.createdAt) {
			return a.createdAt.After(b.createdAt)
		}
		return a.seq > b.seq
	})

	out := make([]complaint.Document, 0, len(matched))
	for _, e := range matched {
		doc, err := e.document()
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *Store) UpdateComplaintStatus(_ context.Context, u complaint.StatusUpdate) (complaint.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.complaints[u.ReportID]
	if !ok {
		return nil, complaint.ErrNotFound
	}
	doc := make(map[string]any)
	if err := json.Unmarshal(e.body, &doc); err != nil {
		return nil, fmt.Errorf("decode complaint %s: %w", u.ReportID, err)
	}
	for k, v := range u.Fields() {
		doc[k] = v
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode complaint %s: %w", u.ReportID, err)
	}
	e.body = body
	e.updatedAt = s.now()
	return e.document()
}

func (s *Store) GetKnowledge(_ context.Context, kind knowledge.Kind) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.knowledge[kind]
	if !ok {
		return nil, knowledge.ErrNotFound
	}
	return append(json.RawMessage(nil), doc...), nil
}

func (s *Store) PutKnowledge(_ context.Context, kind knowledge.Kind, doc json.RawMessage) error {
	if !json.Valid(doc) {
		return fmt.Errorf("knowledge %s: invalid JSON", kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.knowledge[kind] = append(json.RawMessage(nil), doc...)
	return nil
}

func (e *entry) document() (complaint.Document, error) {
	doc := make(complaint.Document)
	if err := json.Unmarshal(e.body, &doc); err != nil {
		return nil, fmt.Errorf("decode complaint %s: %w", e.id, err)
	}
	doc["_id"] = e.id
	doc["createdAt"] = e.createdAt
	doc["updatedAt"] = e.updatedAt
	return doc, nil
}
