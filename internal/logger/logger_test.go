package logger

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	domainerrors "github.com/mybookshelf/catalog/internal/errors"
)

func TestNew_FormatAutoDetection(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		wantJSON    bool
	}{
		{"production uses json", "production", true},
		{"development uses pretty", "development", false},
		{"empty uses pretty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(Config{Writer: &buf, Environment: tt.environment, Level: slog.LevelInfo})
			l.Info("hello")

			if tt.wantJSON {
				assert.Contains(t, buf.String(), `"msg":"hello"`)
			} else {
				assert.Contains(t, buf.String(), "INF")
				assert.Contains(t, buf.String(), "hello")
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestPrettyHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	l.Info("ebook updated", "id", "ebook-1", "version", 2, "title", "Moby Dick")

	out := buf.String()
	assert.Contains(t, out, "ebook updated")
	assert.Contains(t, out, "id=ebook-1")
	assert.Contains(t, out, "version=2")
	assert.Contains(t, out, `title="Moby Dick"`)
}

func TestPrettyHandler_Enabled(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}

func TestPrettyHandler_GroupsQualifyKeys(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, nil)

	assert.Equal(t, h, h.WithGroup(""))

	l := slog.New(h.WithAttrs([]slog.Attr{slog.String("component", "sync")}).WithGroup("task"))
	l.Info("applied", "id", "author-1")

	out := buf.String()
	assert.Contains(t, out, "component=sync")
	assert.Contains(t, out, "task.id=author-1")
}

func TestPrettyHandler_WithSource(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewPrettyHandler(&buf, &slog.HandlerOptions{AddSource: true}))
	l.Info("with source")

	assert.Contains(t, buf.String(), "logger_test.go:")
}

func TestFormatValue(t *testing.T) {
	now := time.Now()

	assert.Equal(t, "plain", formatValue(slog.StringValue("plain")))
	assert.Equal(t, `"two words"`, formatValue(slog.StringValue("two words")))
	assert.Equal(t, now.Format(time.RFC3339), formatValue(slog.TimeValue(now)))
	assert.Equal(t, "5s", formatValue(slog.DurationValue(5*time.Second)))
	assert.Equal(t, "42", formatValue(slog.IntValue(42)))
}

func TestLogger_Helpers(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Writer: &buf, Format: "json", Level: slog.LevelDebug})

	l.Component("indexsync").
		WithEntity("ebook", "ebook-1").
		WithError(fmt.Errorf("apply: %w", domainerrors.IndexSyncFailure(fmt.Errorf("disk"), "index write"))).
		Warn("retrying")

	out := buf.String()
	assert.Contains(t, out, `"component":"indexsync"`)
	assert.Contains(t, out, `"kind":"ebook"`)
	assert.Contains(t, out, `"id":"ebook-1"`)
	assert.Contains(t, out, `"code":"INDEX_SYNC_FAILURE"`)
	assert.Contains(t, out, "index write: disk")
}

func TestLogger_WithNilError(t *testing.T) {
	l := Discard()
	assert.Same(t, l, l.WithError(nil))
}
