package logx

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logLine(t *testing.T, log func(*slog.Logger)) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	log(NewWithWriter(&buf, slog.LevelDebug))

	out := map[string]any{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestRedaction(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  string
	}{
		{"password", "hunter2", "[REDACTED]"},
		{"dsn", "postgres://u:p@h/db", "[REDACTED]"},
		{"connectionString", "server=x", "[REDACTED]"},
		{"host", "db.internal", "db.internal"},
		{"category", "db.info", "db.info"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			out := logLine(t, func(l *slog.Logger) { l.Info("msg", tt.key, tt.value) })
			assert.Equal(t, tt.want, out[tt.key])
		})
	}
}

func TestRedaction_ConnectionMap(t *testing.T) {
	out := logLine(t, func(l *slog.Logger) {
		l.Info("msg", "connection", map[string]any{"host": "db", "password": "hunter2"})
	})

	conn, ok := out["connection"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "db", conn["host"])
	assert.Equal(t, "[REDACTED]", conn["password"])
}

func TestRedaction_GroupsAndWith(t *testing.T) {
	out := logLine(t, func(l *slog.Logger) {
		l.With("password", "a").Info("msg", slog.Group("conn", "dsn", "b", "port", 5432))
	})

	assert.Equal(t, "[REDACTED]", out["password"])
	group, ok := out["conn"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "[REDACTED]", group["dsn"])
	assert.Equal(t, float64(5432), group["port"])
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"DEBUG", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_RotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "dbregistry.log")

	logger, closer, err := New(Options{Level: "info", File: path})
	require.NoError(t, err)

	logger.Info("connection registered", "password", "hunter2")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "connection registered")
	assert.NotContains(t, string(data), "hunter2")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}
