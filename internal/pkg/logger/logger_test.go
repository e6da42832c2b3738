package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/gestor-be/internal/pkg/logger"
)

func newJSONLogger(buf *bytes.Buffer, level string) *slog.Logger {
	return logger.NewLogger(&logger.LogConfig{
		Level:       level,
		Format:      "json",
		Writer:      buf,
		ServiceName: "gestor-api",
	})
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_EnrichesFromContext(t *testing.T) {
	var buf bytes.Buffer
	log := newJSONLogger(&buf, "info")

	ctx := logger.WithRequestID(context.Background(), "req-123")
	ctx = logger.WithUserID(ctx, "operator-7")

	log.InfoContext(ctx, "sale completed", slog.Int64("sale_id", 42))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "sale completed", entry["msg"])
	assert.Equal(t, "INFO", entry["severity"])
	assert.Equal(t, "req-123", entry["request_id"])
	assert.Equal(t, "operator-7", entry["user_id"])
	assert.Equal(t, "gestor-api", entry["service"])
	assert.EqualValues(t, 42, entry["sale_id"])
}

func TestLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := newJSONLogger(&buf, "warn")

	log.Info("not written")
	assert.Zero(t, buf.Len())

	log.Warn("written")
	assert.NotZero(t, buf.Len())
}

func TestLogger_RedactsSensitiveValues(t *testing.T) {
	tests := []struct {
		name     string
		log      func(*slog.Logger)
		key      string
		want     string
		notInLog string
	}{
		{
			name: "redacts_by_attribute_key",
			log: func(l *slog.Logger) {
				l.Info("connecting", slog.String("db_password", "hunter2"))
			},
			key:      "db_password",
			want:     "***REDACTED***",
			notInLog: "hunter2",
		},
		{
			name: "redacts_connection_string_password",
			log: func(l *slog.Logger) {
				l.Info("connecting", slog.String("dsn", "postgresql://gestor:hunter2@db:5432/gestor"))
			},
			key:      "dsn",
			want:     "postgresql://gestor:***REDACTED***@db:5432/gestor",
			notInLog: "hunter2",
		},
		{
			name: "redacts_inline_token",
			log: func(l *slog.Logger) {
				l.Info("upstream call", slog.String("detail", "token=abc123 rejected"))
			},
			key:      "detail",
			want:     "token=***REDACTED*** rejected",
			notInLog: "abc123",
		},
		{
			name: "keeps_plain_values",
			log: func(l *slog.Logger) {
				l.Info("movement", slog.String("reason", "Venda #12"))
			},
			key:  "reason",
			want: "Venda #12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(newJSONLogger(&buf, "debug"))

			if tt.notInLog != "" {
				assert.NotContains(t, buf.String(), tt.notInLog)
			}
			entry := decodeLine(t, &buf)
			assert.Equal(t, tt.want, entry[tt.key])
		})
	}
}

func TestLogger_WithAttrsAreSanitized(t *testing.T) {
	var buf bytes.Buffer
	log := newJSONLogger(&buf, "info").With(slog.String("api_key", "k-1"))

	log.Info("configured")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "***REDACTED***", entry["api_key"])
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, logger.RequestIDFromContext(ctx))
	assert.Empty(t, logger.UserIDFromContext(ctx))

	ctx = logger.WithRequestID(ctx, "r-1")
	ctx = logger.WithUserID(ctx, "u-1")
	assert.Equal(t, "r-1", logger.RequestIDFromContext(ctx))
	assert.Equal(t, "u-1", logger.UserIDFromContext(ctx))
}
