package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"

	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/complaint"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/conversation"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/extractor"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/hermes"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/knowledge"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/prompt"
)

// SaveFailedMessage is reported to the caller when a record was emitted but
// could not be extracted or stored.
const SaveFailedMessage = "failed to save complaint data"

var (
	ErrEmptyMessage         = errors.New("message is required")
	ErrKnowledgeUnavailable = errors.New("knowledge base not available")
	ErrGeneration           = errors.New("text generation failed")
)

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// KnowledgeLoader returns the reference documents for one request.
type KnowledgeLoader interface {
	Load(ctx context.Context) (*knowledge.Snapshot, error)
}

// EventPublisher announces pipeline outcomes.
type EventPublisher interface {
	ComplaintRegistered(evt hermes.ComplaintRegistered) error
	ExtractionFailed(evt hermes.ExtractionFailed) error
}

// Notifier is told about every stored complaint.
type Notifier interface {
	ComplaintRegistered(ctx context.Context, c *complaint.Complaint)
}

// Request is one inbound user utterance.
type Request struct {
	Message   string
	SessionID string
	UserID    string
	UserEmail string
	UserName  string
}

// Response is what the caller sees for one turn.
type Response struct {
	Response    string `json:"response"`
	SessionID   string `json:"sessionId"`
	ReportID    string `json:"reportId,omitempty"`
	PersistedID string `json:"persistedId,omitempty"`
	Saved       bool   `json:"saved"`
	Error       string `json:"error,omitempty"`
}

// Assistant runs one conversational turn: history, prompt, generation,
// record extraction and persistence.
type Assistant struct {
	sessions  *conversation.Registry
	knowledge KnowledgeLoader
	llm       Generator
	finalizer *complaint.Finalizer
	events    EventPublisher
	notifier  Notifier
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// New builds an Assistant. events and notifier may be nil.
func New(sessions *conversation.Registry, kb KnowledgeLoader, llm Generator, fin *complaint.Finalizer, events EventPublisher, notifier Notifier, logger *slog.Logger) *Assistant {
	return &Assistant{
		sessions:  sessions,
		knowledge: kb,
		llm:       llm,
		finalizer: fin,
		events:    events,
		notifier:  notifier,
		logger:    logger,
		tracer:    otel.Tracer("sahayak/assistant"),
		now:       time.Now,
	}
}

// HandleMessage processes req. Errors are returned only for failures that
// prevent any reply: an empty message, missing knowledge, or a failed
// generation. Extraction and persistence failures are reported in Response.
func (a *Assistant) HandleMessage(ctx context.Context, req Request) (*Response, error) {
	msg := strings.TrimSpace(norm.NFC.String(req.Message))
	if msg == "" {
		return nil, ErrEmptyMessage
	}

	ctx, span := a.tracer.Start(ctx, "assistant.HandleMessage")
	defer span.End()

	sess := a.sessions.GetOrCreate(req.SessionID)
	span.SetAttributes(attribute.String("session.id", sess.ID))
	sess.Append(conversation.RoleUser, msg)

	snap, err := a.knowledge.Load(ctx)
	if err != nil {
		a.logger.Error("knowledge load failed", "session_id", sess.ID, "error", err)
		span.SetStatus(codes.Error, "knowledge")
		return nil, fmt.Errorf("%w: %w", ErrKnowledgeUnavailable, err)
	}

	text, err := a.llm.Generate(ctx, prompt.Compose(snap, sess.History(), msg))
	if err == nil && strings.TrimSpace(text) == "" {
		err = errors.New("empty completion")
	}
	if err != nil {
		a.logger.Error("generation failed", "session_id", sess.ID, "error", err)
		span.SetStatus(codes.Error, "generation")
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	// The raw reply, marker included, is what the model sees next turn.
	sess.Append(conversation.RoleAssistant, text)

	resp := &Response{SessionID: sess.ID}

	res, err := extractor.Extract(text)
	if errors.Is(err, extractor.ErrNoRecord) {
		resp.Response = text
		return resp, nil
	}
	if err != nil {
		a.saveFailed(sess.ID, "extract", text, err)
		span.SetAttributes(attribute.Bool("complaint.saved", false))
		resp.Response = extractor.VisibleText(text)
		resp.Error = SaveFailedMessage
		return resp, nil
	}

	caller := complaint.Caller{UserID: req.UserID, UserName: req.UserName, UserEmail: req.UserEmail}
	c := a.finalizer.Finalize(res.Record, sess.ID, caller, sess.History())
	id, err := a.finalizer.Submit(ctx, c)
	if err != nil {
		a.saveFailed(sess.ID, "persist", text, err)
		span.SetAttributes(attribute.Bool("complaint.saved", false))
		resp.Response = res.Visible
		resp.Error = SaveFailedMessage
		return resp, nil
	}

	confirmation := confirmationText(res.Visible, c.ReportID)
	sess.Append(conversation.RoleAssistant, confirmation)

	span.SetAttributes(
		attribute.Bool("complaint.saved", true),
		attribute.String("complaint.report_id", c.ReportID),
	)

	a.publishRegistered(c, id)
	if a.notifier != nil {
		a.notifier.ComplaintRegistered(ctx, c)
	}

	resp.Response = confirmation
	resp.ReportID = c.ReportID
	resp.PersistedID = id
	resp.Saved = true
	return resp, nil
}

func confirmationText(visible, reportID string) string {
	return visible + "\n\n✅ आपकी complaint successfully register हो गई है!\n🆔 Report ID: " +
		reportID + "\n📝 कृपया इस ID को safe रखें।"
}

func (a *Assistant) saveFailed(sessionID, stage, raw string, err error) {
	a.logger.Error("complaint not saved",
		"session_id", sessionID,
		"stage", stage,
		"error", err,
		"raw", raw,
	)
	if a.events == nil {
		return
	}
	evt := hermes.ExtractionFailed{
		SessionID: sessionID,
		Stage:     stage,
		Error:     err.Error(),
		Raw:       raw,
		Timestamp: a.now().UTC().Format(conversation.TimestampLayout),
	}
	if perr := a.events.ExtractionFailed(evt); perr != nil {
		a.logger.Error("failed to publish extraction failure", "error", perr)
	}
}

func (a *Assistant) publishRegistered(c *complaint.Complaint, persistedID string) {
	if a.events == nil {
		return
	}
	loc := c.Record.Location()
	evt := hermes.ComplaintRegistered{
		ReportID:         c.ReportID,
		PersistedID:      persistedID,
		SessionID:        c.SessionID,
		UserID:           c.UserID,
		UserName:         c.UserName,
		ComplaintType:    c.Record.ComplaintType(),
		ComplaintSubtype: c.Record.ComplaintSubtype(),
		Description:      c.Record.Description(),
		Area:             loc.String("area_main"),
		Pincode:          loc.String("pincode"),
		Timestamp:        c.Timestamp,
	}
	if err := a.events.ComplaintRegistered(evt); err != nil {
		a.logger.Error("failed to publish complaint registered", "report_id", c.ReportID, "error", err)
	}
}
