package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(slog.LevelInfo, "text", &buf)

	log.Info("review posted", "pr", 42)
	log.Debug("should be filtered")

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "msg=\"review posted\"")
	assert.Contains(t, out, "pr=42")
	assert.NotContains(t, out, "should be filtered")
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(slog.LevelDebug, "json", &buf)

	log.Debug("queued review job", "repo", "acme/widgets")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "queued review job", entry["msg"])
	assert.Equal(t, "acme/widgets", entry["repo"])
}

func TestNew_UnknownFormatFallsBackToText(t *testing.T) {
	var buf bytes.Buffer
	log := New(slog.LevelWarn, "xml", &buf)

	log.Warn("unusual format")

	assert.Contains(t, buf.String(), "level=WARN")
}
