package triage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/complaint"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/extractor"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/hermes"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/store/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSlack struct {
	ts      string
	err     error
	posted  []string
	threads []string
}

func (f *fakeSlack) PostComplaint(_ context.Context, c *complaint.Complaint) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.posted = append(f.posted, c.ReportID)
	return f.ts, nil
}

func (f *fakeSlack) PostThread(_ context.Context, threadTS, text string) error {
	f.threads = append(f.threads, threadTS+"|"+text)
	return nil
}

type fakeEvents struct {
	changed []hermes.StatusChanged
}

func (f *fakeEvents) StatusChanged(evt hermes.StatusChanged) error {
	f.changed = append(f.changed, evt)
	return nil
}

func seedComplaint(t *testing.T, repo complaint.Repository, reportID string) *complaint.Complaint {
	t.Helper()
	c := &complaint.Complaint{
		ReportID: reportID,
		UserID:   "u1",
		Status:   complaint.InitialStatus,
		Record:   extractor.Record{"complaint_type": "WATER"},
	}
	if _, err := repo.SaveComplaint(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	return c
}

func reactionPayload(ts, reaction string) []byte {
	data, _ := json.Marshal(map[string]any{"metadata": map[string]string{
		"text":       reaction,
		"user_id":    "U42",
		"channel_id": "C1",
		"message_ts": ts,
	}})
	return data
}

func TestHandleReaction_Approves(t *testing.T) {
	repo := memory.New()
	sl := &fakeSlack{ts: "111.222"}
	ev := &fakeEvents{}
	tr := New(repo, sl, ev, discardLogger())

	c := seedComplaint(t, repo, "CMP1")
	tr.ComplaintRegistered(context.Background(), c)
	if tr.Pending() != 1 {
		t.Fatalf("expected 1 pending review, got %d", tr.Pending())
	}

	tr.HandleReaction(hermes.SubjectSlackReaction, reactionPayload("111.222", ":+1:"))

	doc, err := repo.GetComplaint(context.Background(), "CMP1")
	if err != nil {
		t.Fatal(err)
	}
	if doc["status"] != "Approved" {
		t.Errorf("expected Approved, got %v", doc["status"])
	}
	if tr.Pending() != 0 {
		t.Error("expected review to be cleared")
	}
	if len(ev.changed) != 1 || ev.changed[0].Source != SourceSlack || ev.changed[0].AdminID != "U42" {
		t.Errorf("unexpected status events %+v", ev.changed)
	}
	if len(sl.threads) != 1 || !strings.Contains(sl.threads[0], "Approved") {
		t.Errorf("expected confirmation thread, got %v", sl.threads)
	}
}

func TestHandleReaction_Rejects(t *testing.T) {
	repo := memory.New()
	tr := New(repo, &fakeSlack{ts: "1.0"}, nil, discardLogger())
	c := seedComplaint(t, repo, "CMP2")
	tr.ComplaintRegistered(context.Background(), c)

	tr.HandleReaction(hermes.SubjectSlackReaction, reactionPayload("1.0", "-1"))

	doc, _ := repo.GetComplaint(context.Background(), "CMP2")
	if doc["status"] != "Rejected" {
		t.Errorf("expected Rejected, got %v", doc["status"])
	}
}

func TestHandleReaction_IgnoredReactions(t *testing.T) {
	repo := memory.New()
	ev := &fakeEvents{}
	tr := New(repo, &fakeSlack{ts: "1.0"}, ev, discardLogger())
	c := seedComplaint(t, repo, "CMP3")
	tr.ComplaintRegistered(context.Background(), c)

	tr.HandleReaction(hermes.SubjectSlackReaction, reactionPayload("1.0", ":shrug:"))
	tr.HandleReaction(hermes.SubjectSlackReaction, reactionPayload("9.9", ":+1:"))
	tr.HandleReaction(hermes.SubjectSlackReaction, []byte("garbage"))

	doc, _ := repo.GetComplaint(context.Background(), "CMP3")
	if doc["status"] != "Pending Approval" {
		t.Errorf("expected status unchanged, got %v", doc["status"])
	}
	if tr.Pending() != 1 {
		t.Error("shrug must leave the review pending")
	}
	if len(ev.changed) != 0 {
		t.Errorf("expected no events, got %+v", ev.changed)
	}
}

func TestComplaintRegistered_SlackFailure(t *testing.T) {
	tr := New(memory.New(), &fakeSlack{err: errors.New("channel_not_found")}, nil, discardLogger())
	tr.ComplaintRegistered(context.Background(), &complaint.Complaint{ReportID: "CMP4"})
	if tr.Pending() != 0 {
		t.Error("failed posts must not be tracked")
	}
}

func TestComplaintRegistered_NoSlack(t *testing.T) {
	tr := New(memory.New(), nil, nil, discardLogger())
	tr.ComplaintRegistered(context.Background(), &complaint.Complaint{ReportID: "CMP5"})
	if tr.Pending() != 0 {
		t.Error("expected nothing tracked without slack")
	}
}

func TestUpdateStatus(t *testing.T) {
	repo := memory.New()
	ev := &fakeEvents{}
	tr := New(repo, nil, ev, discardLogger())
	tr.now = func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) }
	seedComplaint(t, repo, "CMP6")

	doc, err := tr.UpdateStatus(context.Background(), complaint.StatusUpdate{
		ReportID: "CMP6", Status: complaint.StatusInProgress, AdminID: "a1", AdminEmail: "admin@city.gov",
	}, SourceAPI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc["status"] != "In Progress" {
		t.Errorf("expected In Progress, got %v", doc["status"])
	}
	if len(ev.changed) != 1 || ev.changed[0].Timestamp != "2026-06-01T12:00:00.000Z" {
		t.Errorf("unexpected events %+v", ev.changed)
	}

	_, err = tr.UpdateStatus(context.Background(), complaint.StatusUpdate{ReportID: "missing", Status: complaint.StatusClosed}, SourceAPI)
	if !errors.Is(err, complaint.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSweep_DropsStaleReviews(t *testing.T) {
	repo := memory.New()
	sl := &fakeSlack{ts: "1.0"}
	tr := New(repo, sl, nil, discardLogger())
	clock := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	tr.now = func() time.Time { return clock }

	tr.ComplaintRegistered(context.Background(), seedComplaint(t, repo, "CMP7"))
	clock = clock.Add(48 * time.Hour)
	sl.ts = "2.0"
	tr.ComplaintRegistered(context.Background(), seedComplaint(t, repo, "CMP8"))

	if n := tr.Sweep(24 * time.Hour); n != 1 {
		t.Fatalf("expected 1 stale review dropped, got %d", n)
	}
	if tr.Pending() != 1 {
		t.Errorf("expected the recent review to remain, got %d", tr.Pending())
	}

	// A late reaction on the dropped message is ignored.
	tr.HandleReaction(hermes.SubjectSlackReaction, reactionPayload("1.0", "+1"))
	doc, _ := repo.GetComplaint(context.Background(), "CMP7")
	if doc["status"] != "Pending Approval" {
		t.Errorf("expected status unchanged, got %v", doc["status"])
	}

	if n := tr.Sweep(0); n != 0 {
		t.Errorf("zero max age must disable sweeping, dropped %d", n)
	}
}

func TestRunJanitor_StopsOnCancel(t *testing.T) {
	tr := New(memory.New(), nil, nil, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tr.RunJanitor(ctx, time.Millisecond, time.Hour)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}
