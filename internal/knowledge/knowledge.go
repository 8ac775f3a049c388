package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Kind names one of the three reference documents.
type Kind string

const (
	KindServices         Kind = "services"
	KindComplaintTypes   Kind = "complaint_types"
	KindComplaintProcess Kind = "complaint_process"
)

// Kinds lists every document kind in prompt order.
func Kinds() []Kind {
	return []Kind{KindServices, KindComplaintTypes, KindComplaintProcess}
}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown knowledge kind %q", s)
}

// ErrNotFound is returned by a Source when a document has never been stored.
var ErrNotFound = errors.New("knowledge document not found")

// Source reads reference documents. Documents are opaque JSON.
type Source interface {
	GetKnowledge(ctx context.Context, kind Kind) (json.RawMessage, error)
}

// Writer replaces reference documents.
type Writer interface {
	PutKnowledge(ctx context.Context, kind Kind, doc json.RawMessage) error
}

// Snapshot holds the three documents used to ground one reply.
type Snapshot struct {
	Services         json.RawMessage `json:"services"`
	ComplaintTypes   json.RawMessage `json:"complaint_types"`
	ComplaintProcess json.RawMessage `json:"complaint_process"`
}

// Get returns the document for kind.
func (s *Snapshot) Get(kind Kind) json.RawMessage {
	switch kind {
	case KindServices:
		return s.Services
	case KindComplaintTypes:
		return s.ComplaintTypes
	case KindComplaintProcess:
		return s.ComplaintProcess
	}
	return nil
}

func (s *Snapshot) set(kind Kind, doc json.RawMessage) {
	switch kind {
	case KindServices:
		s.Services = doc
	case KindComplaintTypes:
		s.ComplaintTypes = doc
	case KindComplaintProcess:
		s.ComplaintProcess = doc
	}
}

// Loader fetches a fresh snapshot on every call. Nothing is cached.
type Loader struct {
	src Source
}

func NewLoader(src Source) *Loader {
	return &Loader{src: src}
}

// Load fetches all three documents concurrently. Any missing or failing
// document fails the whole snapshot.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	kinds := Kinds()
	docs := make([]json.RawMessage, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		g.Go(func() error {
			doc, err := l.src.GetKnowledge(gctx, kind)
			if err != nil {
				return fmt.Errorf("load %s: %w", kind, err)
			}
			if len(doc) == 0 {
				return fmt.Errorf("load %s: %w", kind, ErrNotFound)
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &Snapshot{}
	for i, kind := range kinds {
		snap.set(kind, docs[i])
	}
	return snap, nil
}

// SeedFiles maps each kind to its seed file name.
var SeedFiles = map[Kind]string{
	KindServices:         "services.json",
	KindComplaintTypes:   "complaint_types.json",
	KindComplaintProcess: "complaint_process.json",
}

// SeedFromDir reads the three seed files from dir and writes them through w.
// All files are read and validated before anything is written.
func SeedFromDir(ctx context.Context, w Writer, dir string) ([]Kind, error) {
	docs := make(map[Kind]json.RawMessage, len(SeedFiles))
	for _, kind := range Kinds() {
		path := filepath.Join(dir, SeedFiles[kind])
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read seed %s: %w", kind, err)
		}
		if !json.Valid(data) {
			return nil, fmt.Errorf("seed %s: %s is not valid JSON", kind, path)
		}
		docs[kind] = json.RawMessage(data)
	}

	var written []Kind
	for _, kind := range Kinds() {
		if err := w.PutKnowledge(ctx, kind, docs[kind]); err != nil {
			return written, fmt.Errorf("store seed %s: %w", kind, err)
		}
		written = append(written, kind)
	}
	return written, nil
}
