package log_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warden-dev/warden-sdk/log"
)

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := log.NewLogger(log.WithWriter(&buf), log.WithLevel(slog.LevelWarn))

	l.Info("should be filtered")
	l.Warn("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should be filtered")
	assert.Contains(t, out, "should appear")
}

func TestNewLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := log.NewLogger(log.WithWriter(&buf), log.WithJSON(true))

	l.Error("denied", slog.String("host", "evil.example"))

	out := buf.String()
	assert.Contains(t, out, `"msg":"denied"`)
	assert.Contains(t, out, `"host":"evil.example"`)
}

func TestForPlugin_ScopesIdentity(t *testing.T) {
	var buf bytes.Buffer
	base := log.NewLogger(log.WithWriter(&buf))

	log.ForPlugin(base, "weather").Error("network access denied")

	assert.Contains(t, buf.String(), "plugin=weather")
}

func TestForPlugin_NilBaseFallsBack(t *testing.T) {
	l := log.ForPlugin(nil, "weather")
	require.NotNil(t, l)
}
