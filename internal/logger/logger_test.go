package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/chronicle/internal/config"
)

func TestNew_ProductionJSONRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, &config.Config{Environment: "production", LogLevel: slog.LevelInfo})

	id := uuid.New()
	WithSession(log, id, "choose").Info("Key selected", "api_key", "AIza-secret")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, ServiceName, entry["service"])
	assert.Equal(t, id.String(), entry["session_id"])
	assert.Equal(t, "choose", entry["operation"])
	assert.Equal(t, "[REDACTED]", entry["api_key"])
	assert.NotContains(t, buf.String(), "AIza-secret")
}

func TestNew_DevelopmentTextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, &config.Config{Environment: "development", LogLevel: slog.LevelWarn})

	log.Info("hidden")
	WithRequestID(log, "req-1").Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "request_id=req-1")
}
