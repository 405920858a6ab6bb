package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultNarrativeModel = "gemini-2.5-flash-lite"
	DefaultImageModel     = "gemini-3-pro-image-preview"
	DefaultLoreModel      = "gemini-3-pro-preview"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// Generative API
	GeminiAPIKey   string
	NarrativeModel string
	ImageModel     string
	LoreModel      string

	// Empty RedisURL selects the in-process event bus.
	RedisURL string

	SessionTTL    time.Duration
	ContentRating string

	// HistoryLimit caps how many recent history entries reach the narrative
	// prompt. Zero sends the whole history.
	HistoryLimit int
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "2h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", ttl)
	}

	historyLimit, err := strconv.Atoi(getEnv("HISTORY_LIMIT", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid HISTORY_LIMIT: %w", err)
	}
	if historyLimit < 0 {
		return nil, fmt.Errorf("HISTORY_LIMIT must not be negative, got %d", historyLimit)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       parseLogLevel(getEnv("LOG_LEVEL", "info")),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		NarrativeModel: getEnv("NARRATIVE_MODEL", DefaultNarrativeModel),
		ImageModel:     getEnv("IMAGE_MODEL", DefaultImageModel),
		LoreModel:      getEnv("LORE_MODEL", DefaultLoreModel),
		RedisURL:       os.Getenv("REDIS_URL"),
		SessionTTL:     ttl,
		ContentRating:  strings.ToUpper(strings.TrimSpace(os.Getenv("CONTENT_RATING"))),
		HistoryLimit:   historyLimit,
	}
	return cfg, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
