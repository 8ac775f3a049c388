package complaint

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/conversation"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/extractor"
)

// Identity placeholders used when neither the caller nor the record supplies a value.
const (
	UnknownUserID = "Unknown"
	UnknownUser   = "Unknown User"
	UnknownEmail  = "Unknown Email"
)

const (
	reportIDPrefix   = "CMP"
	reportTokenLen   = 6
	reportIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

var (
	// ErrNotFound is returned by a Repository when no complaint has the report ID.
	ErrNotFound = errors.New("complaint not found")
	// ErrPersistence wraps any failure to store a finalized complaint.
	ErrPersistence = errors.New("persist complaint")
)

// Document is a stored complaint as the repository returns it.
type Document map[string]any

// Caller is the identity supplied with the chat request. Any field may be empty.
type Caller struct {
	UserID    string
	UserName  string
	UserEmail string
}

// Complaint is a candidate record enriched with identity, status and audit history.
type Complaint struct {
	ReportID  string
	SessionID string
	UserID    string
	UserName  string
	UserEmail string
	Timestamp string
	Status    Status
	History   []conversation.Turn
	Record    extractor.Record
}

// Document flattens the complaint into the stored shape: the record's own keys
// with the finalized metadata written over any same-named keys.
func (c *Complaint) Document() Document {
	doc := make(Document, len(c.Record)+8)
	for k, v := range c.Record {
		doc[k] = v
	}
	history := c.History
	if history == nil {
		history = []conversation.Turn{}
	}
	doc["reportId"] = c.ReportID
	doc["sessionId"] = c.SessionID
	doc["userId"] = c.UserID
	doc["userName"] = c.UserName
	doc["userEmail"] = c.UserEmail
	doc["timestamp"] = c.Timestamp
	doc["status"] = string(c.Status)
	doc["conversationHistory"] = history
	return doc
}

// ListFilter narrows ListComplaints. A zero filter lists everything.
type ListFilter struct {
	UserID string
}

// Repository is the persistence collaborator for complaints.
type Repository interface {
	SaveComplaint(ctx context.Context, c *Complaint) (string, error)
	GetComplaint(ctx context.Context, reportID string) (Document, error)
	// ListComplaints returns matching complaints, newest first.
	ListComplaints(ctx context.Context, f ListFilter) ([]Document, error)
	UpdateComplaintStatus(ctx context.Context, u StatusUpdate) (Document, error)
}

// NewReportID returns "CMP" + the millisecond timestamp + six uppercase
// alphanumerics. Uniqueness is not checked.
func NewReportID(at time.Time) string {
	token := shortuuid.NewWithAlphabet(reportIDAlphabet)
	if len(token) > reportTokenLen {
		token = token[len(token)-reportTokenLen:]
	}
	return fmt.Sprintf("%s%s%s", reportIDPrefix, strconv.FormatInt(at.UnixMilli(), 10), token)
}
