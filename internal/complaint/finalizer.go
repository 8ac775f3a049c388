package complaint

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/conversation"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/extractor"
)

// Finalizer turns extracted records into complaints and hands them to the repository.
type Finalizer struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewFinalizer(repo Repository, logger *slog.Logger) *Finalizer {
	return &Finalizer{repo: repo, logger: logger, now: time.Now}
}

// Finalize enriches rec. Caller identity wins over identity embedded in the
// record; placeholders fill whatever is still empty.
func (f *Finalizer) Finalize(rec extractor.Record, sessionID string, caller Caller, history []conversation.Turn) *Complaint {
	now := f.now()
	return &Complaint{
		ReportID:  NewReportID(now),
		SessionID: sessionID,
		UserID:    firstNonEmpty(caller.UserID, UnknownUserID),
		UserName:  firstNonEmpty(caller.UserName, rec.ComplainantName(), UnknownUser),
		UserEmail: firstNonEmpty(caller.UserEmail, rec.ComplainantEmail(), UnknownEmail),
		Timestamp: now.UTC().Format(conversation.TimestampLayout),
		Status:    InitialStatus,
		History:   history,
		Record:    rec,
	}
}

// Submit persists c and returns the repository's identifier. Failures wrap ErrPersistence.
func (f *Finalizer) Submit(ctx context.Context, c *Complaint) (string, error) {
	if missing := c.Record.Missing(); len(missing) > 0 {
		f.logger.Warn("complaint record incomplete", "report_id", c.ReportID, "missing", missing)
	}

	id, err := f.repo.SaveComplaint(ctx, c)
	if err != nil {
		return "", fmt.Errorf("%w %s: %w", ErrPersistence, c.ReportID, err)
	}
	if id == "" {
		return "", fmt.Errorf("%w %s: repository returned no id", ErrPersistence, c.ReportID)
	}

	f.logger.Info("complaint saved",
		"report_id", c.ReportID,
		"session_id", c.SessionID,
		"persisted_id", id,
		"complaint_type", c.Record.ComplaintType(),
	)
	return id, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
