package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Session is a handle on one caller's conversation.
type Session struct {
	ID        string
	CreatedAt time.Time

	reg *Registry
}

// Append records a turn and marks the session active.
func (s *Session) Append(role Role, content string) Turn {
	t := s.reg.history.Append(s.ID, role, content)
	s.reg.touch(s.ID)
	return t
}

// History returns the session's current turns, oldest first.
func (s *Session) History() []Turn {
	return s.reg.history.Get(s.ID)
}

type registryEntry struct {
	session    *Session
	lastActive time.Time
}

// Registry maps session IDs to sessions for the lifetime of the process.
// Nothing is persisted; idle sessions are removed only by Sweep.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*registryEntry
	history  HistoryStore
	now      func() time.Time
}

func NewRegistry(history HistoryStore) *Registry {
	return &Registry{
		sessions: make(map[string]*registryEntry),
		history:  history,
		now:      time.Now,
	}
}

// GetOrCreate returns the session for id, creating it on first use.
// An empty id is replaced by one derived from the current millisecond timestamp.
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if id == "" {
		id = fmt.Sprintf("default_%d", now.UnixMilli())
	}
	if e, ok := r.sessions[id]; ok {
		e.lastActive = now
		return e.session
	}
	s := &Session{ID: id, CreatedAt: now, reg: r}
	r.sessions[id] = &registryEntry{session: s, lastActive: now}
	return s
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes sessions idle for longer than idle, along with their history,
// and returns the removed IDs. History is dropped under the registry lock so a
// session recreated with the same ID never loses its first turns.
func (r *Registry) Sweep(idle time.Duration) []string {
	if idle <= 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-idle)
	var removed []string
	for id, e := range r.sessions {
		if e.lastActive.Before(cutoff) {
			delete(r.sessions, id)
			r.history.Delete(id)
			removed = append(removed, id)
		}
	}
	return removed
}

// RunJanitor sweeps idle sessions every interval until ctx is cancelled.
func (r *Registry) RunJanitor(ctx context.Context, interval, idle time.Duration, logger *slog.Logger) {
	if interval <= 0 || idle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := r.Sweep(idle); len(removed) > 0 {
				logger.Info("swept idle sessions", "count", len(removed), "remaining", r.Len())
			}
		}
	}
}

func (r *Registry) touch(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[id]; ok {
		e.lastActive = r.now()
	}
}
