package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitProductionWritesJSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	log := Init(Options{Development: false, Output: &buf})

	log.Debug("hidden")
	log.Info("user logged in", "user_id", "u1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "user logged in", record["msg"])
	assert.Equal(t, "u1", record["user_id"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestInitDevelopmentWritesText(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	Init(Options{Development: true, Output: &buf})

	slog.Debug("ban check", "user_id", "u2")
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "user_id=u2")
}
