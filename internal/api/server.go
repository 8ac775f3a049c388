package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/assistant"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/complaint"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/knowledge"
)

// ChatHandler runs one conversational turn.
type ChatHandler interface {
	HandleMessage(ctx context.Context, req assistant.Request) (*assistant.Response, error)
}

// StatusUpdater applies staff status changes.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, u complaint.StatusUpdate, source string) (complaint.Document, error)
}

// KnowledgeStore reads and replaces reference documents.
type KnowledgeStore interface {
	knowledge.Source
	knowledge.Writer
}

// SessionCounter reports live sessions.
type SessionCounter interface {
	Len() int
}

// Deps are the collaborators the HTTP surface dispatches to.
type Deps struct {
	Chat         ChatHandler
	Complaints   complaint.Repository
	Status       StatusUpdater
	Knowledge    KnowledgeStore
	Sessions     SessionCounter
	KnowledgeDir string
	Logger       *slog.Logger
}

type Server struct {
	router   *chi.Mux
	port     int
	apiToken string
	deps     Deps
	logger   *slog.Logger
	http     *http.Server
}

func NewServer(port int, apiToken string, d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(RequestLogger(logger))
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     port,
		apiToken: apiToken,
		deps:     d,
		logger:   logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/sahayak/status", s.status)

	router.Post("/api/v1/chat", s.chat)
	router.Get("/api/v1/complaints", s.getComplaints)
	router.Get("/api/v1/knowledge", s.getKnowledge)

	router.Group(func(r chi.Router) {
		r.Use(BearerAuthMiddleware(apiToken))
		r.Put("/api/v1/complaints/status", s.updateStatus)
		r.Put("/api/v1/knowledge/{kind}", s.putKnowledge)
		r.Post("/api/v1/knowledge/init", s.initKnowledge)
	})

	return s
}

// Handler returns the traced root handler.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "sahayak")
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	sessions := 0
	if s.deps.Sessions != nil {
		sessions = s.deps.Sessions.Len()
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agent":    "sahayak",
		"status":   "active",
		"sessions": sessions,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
