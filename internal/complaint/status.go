package complaint

import (
	"errors"
	"fmt"
	"time"

	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/conversation"
)

// Status is a complaint's position in the review workflow.
type Status string

const (
	StatusPendingApproval Status = "Pending Approval"
	StatusApproved        Status = "Approved"
	StatusRejected        Status = "Rejected"
	StatusInProgress      Status = "In Progress"
	StatusCompleted       Status = "Completed"
	StatusClosed          Status = "Closed"
)

// InitialStatus is assigned to every finalized complaint.
const InitialStatus = StatusPendingApproval

var ErrInvalidStatus = errors.New("invalid status")

func Statuses() []Status {
	return []Status{
		StatusPendingApproval,
		StatusApproved,
		StatusRejected,
		StatusInProgress,
		StatusCompleted,
		StatusClosed,
	}
}

func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// StatusUpdate is an admin decision on a complaint.
type StatusUpdate struct {
	ReportID   string
	Status     Status
	AdminID    string
	AdminEmail string
	Reason     string
	At         time.Time
}

// Fields returns the keys to set on the stored document. The rejection reason is
// only recorded for Rejected.
func (u StatusUpdate) Fields() Document {
	at := u.At
	if at.IsZero() {
		at = time.Now()
	}
	fields := Document{
		"status": string(u.Status),
		"lastUpdatedBy": map[string]any{
			"adminId":    u.AdminID,
			"adminEmail": u.AdminEmail,
			"timestamp":  at.UTC().Format(conversation.TimestampLayout),
		},
	}
	if u.Status == StatusRejected && u.Reason != "" {
		fields["rejectionReason"] = u.Reason
	}
	return fields
}
