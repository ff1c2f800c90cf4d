package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizedEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"sam@roster.example", "s**@******.example"},
		{"a@b.io", "a@*.io"},
		{"ops@localhost", "o**@localhost"},
		{"no-at-sign", "[invalid-email]"},
		{"@roster.example", "[invalid-email]"},
		{"a@b@c", "[invalid-email]"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizedEmail(tt.in), tt.in)
	}
}

func TestSanitizeQueryString(t *testing.T) {
	assert.True(t, SanitizeQueryString("email=a@b.example"))
	assert.True(t, SanitizeQueryString("deviceId=abc"))
	assert.False(t, SanitizeQueryString("role=worker"))
}

func TestRedactedAttr(t *testing.T) {
	assert.Equal(t, "[REDACTED]", RedactedAttr("ip", "1.2.3.4", "production").Value.String())
	assert.Equal(t, "1.2.3.4", RedactedAttr("ip", "1.2.3.4", "development").Value.String())
}

func TestAuditLogger_LogAuthAttempt(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	al.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }

	al.LogAuthAttempt(context.Background(), AuditEvent{
		EventType: "login_failed",
		AccountID: "acc-1",
		Email:     "sam@roster.example",
		IPAddress: "203.0.113.10",
		Outcome:   "invalid_password",
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "auth", entry["audit_type"])
	assert.Equal(t, "login_failed", entry["event_type"])
	assert.Equal(t, false, entry["success"])
	assert.Equal(t, "s**@******.example", entry["email"])
	assert.Equal(t, "invalid_password", entry["outcome"])
	assert.Equal(t, "2026-03-02T09:00:00Z", entry["timestamp"])
}

func TestAuditLogger_LogAccountAction(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogAccountAction(context.Background(), AuditEvent{
		EventType: "account_unlocked",
		AccountID: "acc-1",
		Metadata:  map[string]string{"actor_id": "acc-2"},
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "account", entry["audit_type"])
	assert.Equal(t, "acc-2", entry["actor_id"])
}
