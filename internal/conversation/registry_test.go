package conversation

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestRegistry(clock *fakeClock) (*Registry, *MemoryHistory) {
	h := NewMemoryHistory(10)
	h.now = clock.now
	r := NewRegistry(h)
	r.now = clock.now
	return r, h
}

func TestRegistry_GetOrCreate(t *testing.T) {
	clock := &fakeClock{t: time.UnixMilli(1_700_000_000_123)}
	r, _ := newTestRegistry(clock)

	s1 := r.GetOrCreate("abc")
	s2 := r.GetOrCreate("abc")
	if s1 != s2 {
		t.Error("expected the same session handle for the same id")
	}
	if s1.ID != "abc" {
		t.Errorf("expected id abc, got %q", s1.ID)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 session, got %d", r.Len())
	}
}

func TestRegistry_SynthesizesID(t *testing.T) {
	clock := &fakeClock{t: time.UnixMilli(1_700_000_000_123)}
	r, _ := newTestRegistry(clock)

	s := r.GetOrCreate("")
	if s.ID != "default_1700000000123" {
		t.Errorf("expected timestamp-derived id, got %q", s.ID)
	}
	if !strings.HasPrefix(s.ID, "default_") {
		t.Errorf("expected default_ prefix, got %q", s.ID)
	}
}

func TestSession_AppendAndHistory(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	r, _ := newTestRegistry(clock)

	s := r.GetOrCreate("s1")
	s.Append(RoleUser, "hello")
	s.Append(RoleAssistant, "namaste")

	got := s.History()
	if len(got) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(got))
	}
	if got[1].Content != "namaste" {
		t.Errorf("expected namaste, got %q", got[1].Content)
	}
}

func TestRegistry_SweepRemovesIdleSessions(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	r, h := newTestRegistry(clock)

	old := r.GetOrCreate("old")
	old.Append(RoleUser, "stale")

	clock.t = clock.t.Add(2 * time.Hour)
	fresh := r.GetOrCreate("fresh")
	fresh.Append(RoleUser, "recent")

	removed := r.Sweep(time.Hour)
	if len(removed) != 1 || removed[0] != "old" {
		t.Fatalf("expected [old] removed, got %v", removed)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 remaining session, got %d", r.Len())
	}
	if h.Get("old") != nil {
		t.Error("expected history of swept session to be deleted")
	}
	if len(h.Get("fresh")) != 1 {
		t.Error("fresh session history must survive the sweep")
	}
}

func TestRegistry_AppendKeepsSessionAlive(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	r, _ := newTestRegistry(clock)

	s := r.GetOrCreate("s")
	clock.t = clock.t.Add(50 * time.Minute)
	s.Append(RoleUser, "still here")
	clock.t = clock.t.Add(50 * time.Minute)

	if removed := r.Sweep(time.Hour); len(removed) != 0 {
		t.Errorf("expected no sessions swept, got %v", removed)
	}
}

// lockCheckingHistory fails the test if history is dropped while the
// registry lock is free, which would let a recreated session lose turns.
type lockCheckingHistory struct {
	*MemoryHistory
	t   *testing.T
	reg *Registry
}

func (h *lockCheckingHistory) Delete(sessionID string) {
	if h.reg.mu.TryLock() {
		h.reg.mu.Unlock()
		h.t.Errorf("history for %s deleted outside the registry lock", sessionID)
	}
	h.MemoryHistory.Delete(sessionID)
}

func TestRegistry_SweepDeletesHistoryUnderLock(t *testing.T) {
	clock := &fakeClock{t: time.UnixMilli(1_700_000_000_000)}
	h := &lockCheckingHistory{MemoryHistory: NewMemoryHistory(10), t: t}
	h.now = clock.now
	r := NewRegistry(h)
	r.now = clock.now
	h.reg = r

	r.GetOrCreate("old").Append(RoleUser, "stale")
	clock.t = clock.t.Add(2 * time.Hour)

	if removed := r.Sweep(time.Hour); len(removed) != 1 {
		t.Fatalf("expected 1 swept session, got %v", removed)
	}

	s := r.GetOrCreate("old")
	s.Append(RoleUser, "fresh")
	if hist := s.History(); len(hist) != 1 || hist[0].Content != "fresh" {
		t.Errorf("expected only the new turn, got %+v", hist)
	}
}

func TestRegistry_SweepDisabled(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	r, _ := newTestRegistry(clock)
	r.GetOrCreate("s")
	clock.t = clock.t.Add(1000 * time.Hour)

	if removed := r.Sweep(0); removed != nil {
		t.Errorf("expected zero idle to disable sweeping, got %v", removed)
	}
}

func TestRegistry_RunJanitorStopsOnCancel(t *testing.T) {
	r := NewRegistry(NewMemoryHistory(10))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.RunJanitor(ctx, time.Millisecond, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}
