package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	opts := *DefaultOptions
	opts.Level = level
	opts.NoColor = true
	opts.SrcFileMode = Nop
	return slog.New(NewHandler(buf, &opts))
}

func TestHandlerWritesContextIDsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, slog.LevelDebug)

	ctx := ContextWithRequestID(context.Background(), 42)
	ctx = ContextWithConversationID(ctx, "0123456789abcdef")

	log.InfoContext(ctx, "Turn completed", "stage", "responding", Err(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, "42 ")
	assert.Contains(t, out, "[01234567]")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, "| Turn completed")
	assert.Contains(t, out, "stage=responding")
	assert.Contains(t, out, "err=boom")
	assert.NotContains(t, out, "\u001b[")
}

func TestHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, slog.LevelWarn)

	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestHandlerGroupsPrefixAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, slog.LevelDebug).WithGroup("tavily").With("attempt", 2)

	log.Info("Searching")

	require.Contains(t, buf.String(), "tavily.attempt=2")
}

func TestHandlerKeepsAttrsBoundBeforeGroup(t *testing.T) {
	var buf bytes.Buffer
	log := newTestLogger(&buf, slog.LevelDebug).With("chat", 7).WithGroup("groq")

	log.Info("Completing", slog.Group("usage", "tokens", 120), "model", "llama")

	out := buf.String()
	assert.Contains(t, out, " chat=7")
	assert.NotContains(t, out, "groq.chat")
	assert.Contains(t, out, "groq.usage.tokens=120")
	assert.Contains(t, out, "groq.model=llama")
}

func TestHandlerFitsMessageByRunes(t *testing.T) {
	var buf bytes.Buffer
	opts := *DefaultOptions
	opts.NoColor = true
	opts.SrcFileMode = Nop
	opts.MsgLength = 6
	log := slog.New(NewHandler(&buf, &opts))

	log.Info("Moderação concluída", "ok", true)
	log.Info("Oi", "ok", true)
	log.Info("Moderação concluída")

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "| Moder… ok=true")
	assert.Contains(t, lines[1], "| Oi     ok=true")
	assert.Contains(t, lines[2], "| Moderação concluída")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}
