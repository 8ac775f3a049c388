package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	LogLevel string
	APIToken string

	StoreDriver   string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	LLMProvider     string
	GeminiAPIKey    string
	GeminiModel     string
	AnthropicAPIKey string
	AnthropicModel  string

	NatsURL   string
	NatsToken string

	SlackBotToken string
	SlackChannel  string

	HistoryLimit         int
	SessionIdleTTL       time.Duration
	SessionSweepInterval time.Duration
	TriageReviewTTL      time.Duration
	KnowledgeDir         string
	TracingEnabled       bool
}

func Load() Config {
	return Config{
		Port:     envInt("SAHAYAK_PORT", 8760),
		LogLevel: envStr("LOG_LEVEL", "info"),
		APIToken: envStr("SAHAYAK_API_TOKEN", ""),

		StoreDriver:   envStr("STORE_DRIVER", "postgres"),
		DatabaseURL:   envStr("DATABASE_URL", ""),
		MongoURI:      envStr("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDatabase: envStr("MONGODB_DB_NAME", "municipal_services"),

		LLMProvider:     envStr("LLM_PROVIDER", "gemini"),
		GeminiAPIKey:    envStr("GEMINI_API_KEY", ""),
		GeminiModel:     envStr("GEMINI_MODEL", "gemini-2.0-flash-001"),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),

		NatsURL:   envStr("NATS_URL", ""),
		NatsToken: envStr("NATS_TOKEN", ""),

		SlackBotToken: envStr("SLACK_BOT_TOKEN", ""),
		SlackChannel:  envStr("SLACK_TRIAGE_CHANNEL", ""),

		HistoryLimit:         envInt("HISTORY_LIMIT", 10),
		SessionIdleTTL:       envDuration("SESSION_IDLE_TTL", 24*time.Hour),
		SessionSweepInterval: envDuration("SESSION_SWEEP_INTERVAL", 10*time.Minute),
		TriageReviewTTL:      envDuration("TRIAGE_REVIEW_TTL", 7*24*time.Hour),
		KnowledgeDir:         envStr("KNOWLEDGE_DIR", "knowledge"),
		TracingEnabled:       envBool("TRACING_ENABLED", false),
	}
}

// LoadEnvFile copies variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
