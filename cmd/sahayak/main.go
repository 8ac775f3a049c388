package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/anthropic"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/api"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/assistant"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/complaint"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/config"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/conversation"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/gemini"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/hermes"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/knowledge"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/slack"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/store"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/store/memory"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/store/mongodb"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/telemetry"
	"github.com/apniprogrammingyt09/hindi-voice-search--2/internal/triage"
)

// backend is what every store driver provides.
type backend interface {
	complaint.Repository
	knowledge.Source
	knowledge.Writer
}

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}
	cfg := config.Load()
	setupLogging(cfg.LogLevel)
	logger := slog.Default()

	slog.Info("sahayak starting", "port", cfg.Port, "store", cfg.StoreDriver, "llm", cfg.LLMProvider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing
	if cfg.TracingEnabled {
		shutdown, err := telemetry.InitTracer("sahayak", logger)
		if err != nil {
			slog.Error("failed to init tracing", "error", err)
			os.Exit(1)
		}
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			_ = shutdown(sctx)
		}()
	}

	// Storage
	db, closeDB, err := openBackend(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeDB()
	slog.Info("store ready", "driver", cfg.StoreDriver)

	// Text generation
	llm, err := newGenerator(ctx, cfg)
	if err != nil {
		slog.Error("failed to create llm client", "provider", cfg.LLMProvider, "error", err)
		os.Exit(1)
	}

	// NATS/Hermes (optional; events are dropped without it)
	var hermesClient *hermes.Client
	if cfg.NatsURL != "" {
		hermesClient, err = hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer hermesClient.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured, events disabled")
	}

	// Slack triage (optional)
	var notifier triage.Notifier
	if cfg.SlackBotToken != "" && cfg.SlackChannel != "" {
		notifier = slack.NewPoster(cfg.SlackBotToken, cfg.SlackChannel, logger)
		slog.Info("slack poster ready", "channel", cfg.SlackChannel)
	} else {
		slog.Warn("slack not configured, running without triage channel")
	}

	tri := triage.New(db, notifier, hermesClient, logger)
	go tri.RunJanitor(ctx, cfg.SessionSweepInterval, cfg.TriageReviewTTL)
	if hermesClient != nil {
		if err := hermesClient.Subscribe(hermes.SubjectSlackReaction, tri.HandleReaction); err != nil {
			slog.Error("failed to subscribe to slack reactions", "error", err)
			os.Exit(1)
		}
	}

	// Conversation pipeline
	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = conversation.DefaultHistoryLimit
	}
	sessions := conversation.NewRegistry(conversation.NewMemoryHistory(limit))
	go sessions.RunJanitor(ctx, cfg.SessionSweepInterval, cfg.SessionIdleTTL, logger)

	asst := assistant.New(
		sessions,
		knowledge.NewLoader(db),
		llm,
		complaint.NewFinalizer(db, logger),
		hermesClient,
		tri,
		logger,
	)

	// HTTP API
	srv := api.NewServer(cfg.Port, cfg.APIToken, api.Deps{
		Chat:         asst,
		Complaints:   db,
		Status:       tri,
		Knowledge:    db,
		Sessions:     sessions,
		KnowledgeDir: cfg.KnowledgeDir,
		Logger:       logger,
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	slog.Info("sahayak ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	if err := srv.Shutdown(sctx); err != nil {
		slog.Warn("HTTP shutdown", "error", err)
	}
	cancel()
	slog.Info("sahayak stopped")
}

func openBackend(ctx context.Context, cfg config.Config) (backend, func(), error) {
	switch cfg.StoreDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, errors.New("DATABASE_URL is required")
		}
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, db.Close, nil

	case "mongo":
		db, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		if err := db.EnsureIndexes(ctx); err != nil {
			_ = db.Close(context.Background())
			return nil, nil, err
		}
		closeFn := func() {
			cctx, ccancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer ccancel()
			_ = db.Close(cctx)
		}
		return db, closeFn, nil

	case "memory":
		slog.Warn("memory store selected, complaints are lost on restart")
		return memory.New(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

func newGenerator(ctx context.Context, cfg config.Config) (assistant.Generator, error) {
	switch cfg.LLMProvider {
	case "gemini":
		c, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		slog.Info("gemini client ready", "model", cfg.GeminiModel)
		return c, nil
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, errors.New("ANTHROPIC_API_KEY is required")
		}
		slog.Info("anthropic client ready", "model", cfg.AnthropicModel)
		return anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
	}
	return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
