package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/chronicle/internal/config"
)

const ServiceName = "chronicle"

// Attribute keys whose values never reach the log output.
var secretKeys = map[string]struct{}{
	"api_key":        {},
	"gemini_api_key": {},
	"authorization":  {},
}

// Setup configures the global slog logger based on environment
func Setup(cfg *config.Config) *slog.Logger {
	logger := New(os.Stdout, cfg)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger writing to w: JSON in production, text elsewhere.
func New(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       cfg.LogLevel,
		ReplaceAttr: redactSecrets,
	}

	var handler slog.Handler
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With("service", ServiceName)
}

func redactSecrets(_ []string, a slog.Attr) slog.Attr {
	if _, ok := secretKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, "[REDACTED]")
	}
	return a
}

// WithSession scopes a logger to one adventure operation.
func WithSession(logger *slog.Logger, sessionID uuid.UUID, operation string) *slog.Logger {
	return logger.With("session_id", sessionID.String(), "operation", operation)
}

// WithRequestID adds request ID to logger context
func WithRequestID(logger *slog.Logger, requestID string) *slog.Logger {
	return logger.With("request_id", requestID)
}
