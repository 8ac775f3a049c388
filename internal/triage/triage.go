package triage

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/complaint"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/conversation"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/hermes"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/slack"
)

const (
	SourceAPI   = "api"
	SourceSlack = "slack"
)

// Notifier posts complaints to the staff channel.
type Notifier interface {
	PostComplaint(ctx context.Context, c *complaint.Complaint) (string, error)
	PostThread(ctx context.Context, threadTS, text string) error
}

// EventPublisher announces status changes.
type EventPublisher interface {
	StatusChanged(evt hermes.StatusChanged) error
}

// Triage drives the staff review workflow: new complaints go to Slack, and
// status changes arrive from reactions or the admin API.
type Triage struct {
	repo   complaint.Repository
	slack  Notifier
	events EventPublisher
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	pending map[string]pendingReview // keyed by slack message ts
}

type pendingReview struct {
	reportID string
	postedAt time.Time
}

// New builds a Triage. notifier and events may be nil.
func New(repo complaint.Repository, notifier Notifier, events EventPublisher, logger *slog.Logger) *Triage {
	return &Triage{
		repo:    repo,
		slack:   notifier,
		events:  events,
		logger:  logger,
		now:     time.Now,
		pending: make(map[string]pendingReview),
	}
}

// ComplaintRegistered posts c for review and remembers the message so
// reactions on it can be mapped back.
func (t *Triage) ComplaintRegistered(ctx context.Context, c *complaint.Complaint) {
	if t.slack == nil {
		return
	}
	ts, err := t.slack.PostComplaint(ctx, c)
	if err != nil {
		t.logger.Error("slack post failed", "report_id", c.ReportID, "error", err)
		return
	}
	t.mu.Lock()
	t.pending[ts] = pendingReview{reportID: c.ReportID, postedAt: t.now()}
	t.mu.Unlock()
}

// Pending returns the number of posted complaints still awaiting a reaction.
func (t *Triage) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Sweep forgets posted complaints that have waited longer than maxAge for a
// reaction and returns how many were dropped. Their status is left as is.
func (t *Triage) Sweep(maxAge time.Duration) int {
	if maxAge <= 0 {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-maxAge)
	dropped := 0
	for ts, r := range t.pending {
		if r.postedAt.Before(cutoff) {
			delete(t.pending, ts)
			dropped++
		}
	}
	return dropped
}

// RunJanitor sweeps stale reviews every interval until ctx is cancelled.
func (t *Triage) RunJanitor(ctx context.Context, interval, maxAge time.Duration) {
	if interval <= 0 || maxAge <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := t.Sweep(maxAge); n > 0 {
				t.logger.Info("dropped stale triage reviews", "count", n, "remaining", t.Pending())
			}
		}
	}
}

// UpdateStatus applies u and announces it.
func (t *Triage) UpdateStatus(ctx context.Context, u complaint.StatusUpdate, source string) (complaint.Document, error) {
	if u.At.IsZero() {
		u.At = t.now()
	}
	doc, err := t.repo.UpdateComplaintStatus(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("update status %s: %w", u.ReportID, err)
	}

	t.logger.Info("complaint status changed",
		"report_id", u.ReportID,
		"status", string(u.Status),
		"source", source,
		"admin_id", u.AdminID,
	)

	if t.events != nil {
		evt := hermes.StatusChanged{
			ReportID:   u.ReportID,
			Status:     string(u.Status),
			AdminID:    u.AdminID,
			AdminEmail: u.AdminEmail,
			Reason:     u.Reason,
			Source:     source,
			Timestamp:  u.At.UTC().Format(conversation.TimestampLayout),
		}
		if err := t.events.StatusChanged(evt); err != nil {
			t.logger.Error("failed to publish status change", "report_id", u.ReportID, "error", err)
		}
	}
	return doc, nil
}

// HandleReaction is the NATS handler for relayed Slack reactions.
func (t *Triage) HandleReaction(subject string, data []byte) {
	ctx := context.Background()

	evt, err := slack.ParseReactionEvent(data)
	if err != nil {
		t.logger.Error("failed to parse reaction", "error", err)
		return
	}

	status, ok := slack.ReactionStatus(evt.Reaction)
	if !ok {
		return // not a triage reaction
	}

	t.mu.Lock()
	review, tracked := t.pending[evt.MessageTS]
	reportID := review.reportID
	if tracked {
		delete(t.pending, evt.MessageTS)
	}
	t.mu.Unlock()
	if !tracked {
		return // not a message we posted
	}

	_, err = t.UpdateStatus(ctx, complaint.StatusUpdate{
		ReportID: reportID,
		Status:   status,
		AdminID:  evt.UserID,
	}, SourceSlack)
	if err != nil {
		t.logger.Error("reaction status update failed", "report_id", reportID, "error", err)
		return
	}

	if t.slack != nil {
		text := fmt.Sprintf("%s marked *%s* by <@%s>", reportID, status, evt.UserID)
		if err := t.slack.PostThread(ctx, evt.MessageTS, text); err != nil {
			t.logger.Error("failed to post status thread", "error", err)
		}
	}
}
