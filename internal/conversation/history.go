package conversation

import (
	"sync"
	"time"
)

// HistoryStore keeps the bounded turn log for each session.
type HistoryStore interface {
	// Append adds a turn stamped with the current time, creating the session's log if needed.
	Append(sessionID string, role Role, content string) Turn
	// Get returns the session's turns oldest first, or nil.
	Get(sessionID string) []Turn
	// EvictOldest drops turns from the front until at most keep remain.
	EvictOldest(sessionID string, keep int)
	// Delete forgets the session entirely.
	Delete(sessionID string)
}

// MemoryHistory is the in-process HistoryStore. The mutex protects the map only;
// two requests for the same session may still interleave their appends.
type MemoryHistory struct {
	mu    sync.Mutex
	limit int
	turns map[string][]Turn
	now   func() time.Time
}

// NewMemoryHistory returns a store that caps every session at limit turns.
// A non-positive limit falls back to DefaultHistoryLimit.
func NewMemoryHistory(limit int) *MemoryHistory {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &MemoryHistory{
		limit: limit,
		turns: make(map[string][]Turn),
		now:   time.Now,
	}
}

func (h *MemoryHistory) Append(sessionID string, role Role, content string) Turn {
	h.mu.Lock()
	defer h.mu.Unlock()

	t := newTurn(role, content, h.now())
	h.turns[sessionID] = append(h.turns[sessionID], t)
	h.evictLocked(sessionID, h.limit)
	return t
}

func (h *MemoryHistory) Get(sessionID string) []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()

	turns := h.turns[sessionID]
	if len(turns) == 0 {
		return nil
	}
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out
}

func (h *MemoryHistory) EvictOldest(sessionID string, keep int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.evictLocked(sessionID, keep)
}

func (h *MemoryHistory) Delete(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.turns, sessionID)
}

// Sessions returns the number of sessions with at least one turn.
func (h *MemoryHistory) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}

func (h *MemoryHistory) evictLocked(sessionID string, keep int) {
	if keep < 0 {
		keep = 0
	}
	turns, ok := h.turns[sessionID]
	if !ok || len(turns) <= keep {
		return
	}
	// Copy the tail so the dropped turns can be collected.
	h.turns[sessionID] = append([]Turn(nil), turns[len(turns)-keep:]...)
}
