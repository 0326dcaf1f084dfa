package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/logger"
	"go.trai.ch/zerr"
)

// newTestLogger creates a logger writing uncolored output to a buffer.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New()
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name string
		log  func(*logger.Logger)
		want string
	}{
		{name: "info", log: func(l *logger.Logger) { l.Info("building A") }, want: "building A\n"},
		{name: "warn", log: func(l *logger.Logger) { l.Warn("cycle") }, want: "! cycle\n"},
		{name: "error", log: func(l *logger.Logger) { l.Error(errors.New("boom")) }, want: "✗ Error: boom\n"},
		{name: "nil error", log: func(l *logger.Logger) { l.Error(nil) }, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			tt.log(lg)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestLogger_Error_ZerrChain(t *testing.T) {
	lg, buf := newTestLogger(t)

	err := zerr.With(zerr.Wrap(errors.New("exit status 2"), "unit failed"), "config", "app:debug")
	lg.Error(err)

	assert.Equal(t, "✗ Error: unit failed\n       config: app:debug\n\n  Caused by:\n    → exit status 2\n", buf.String())
}

func TestLogger_Error_JoinedErrors(t *testing.T) {
	lg, buf := newTestLogger(t)

	lg.Error(errors.Join(zerr.New("build failed"), errors.Join(errors.New("a"), errors.New("b"))))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{"✗ Error: build failed", "✗ Error: a", "✗ Error: b"}, lines)
}

func TestLogger_JSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)

	lg.Warn("careful")
	lg.Error(zerr.Wrap(errors.New("cause"), "outer"))

	dec := json.NewDecoder(buf)
	var warn, failure map[string]any
	require.NoError(t, dec.Decode(&warn))
	require.NoError(t, dec.Decode(&failure))

	assert.Equal(t, "WARN", warn["level"])
	assert.Equal(t, "careful", warn["msg"])
	assert.Equal(t, "ERROR", failure["level"])
	assert.Equal(t, "outer: cause", failure["error"])
}

func TestLogger_SetOutputKeepsMode(t *testing.T) {
	lg, _ := newTestLogger(t)
	lg.SetJSON(true)

	buf := &bytes.Buffer{}
	lg.SetOutput(buf)
	lg.Info("hello")

	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestPrettyHandler_Attrs(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	buf := &bytes.Buffer{}
	h := logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	lg := slog.New(h).With("config", "A").WithGroup("unit")
	lg.Info("done", "builder", "0/exec")
	lg.Debug("hidden")

	assert.Equal(t, "done unit.config=A unit.builder=0/exec\n", buf.String())
}
