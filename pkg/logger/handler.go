package logger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
)

var (
	timeStyle           = color.New(color.Faint)
	requestIDStyle      = color.New(color.FgMagenta)
	conversationIDStyle = color.New(color.FgBlue)
	keyStyle            = color.New(color.FgCyan)
	errKeyStyle         = color.New(color.FgRed)
)

// badges are ordered from the most severe level down.
var badges = []struct {
	level slog.Level
	text  string
	style *color.Color
}{
	{slog.LevelError, "ERROR", color.New(color.BgRed, color.FgHiWhite)},
	{slog.LevelWarn, "WARN ", color.New(color.BgYellow, color.FgHiWhite)},
	{slog.LevelInfo, "INFO ", color.New(color.BgGreen, color.FgHiWhite)},
}

var debugStyle = color.New(color.BgCyan, color.FgHiWhite)

// Handler is a colored, single line slog.Handler for terminals.
type Handler struct {
	opts Options

	// prefix is the dotted group path applied to attrs added from here on.
	prefix string
	// fields holds the attrs bound with WithAttrs, already rendered.
	fields []byte

	mu  *sync.Mutex
	out io.Writer
}

// NewHandler creates a new Handler with the specified options. If opts is nil, uses [DefaultOptions].
func NewHandler(out io.Writer, opts *Options) *Handler {
	if opts == nil {
		opts = DefaultOptions
	}
	h := &Handler{opts: *opts, out: out, mu: &sync.Mutex{}}
	if h.opts.Level == nil {
		h.opts.Level = slog.LevelInfo
	}
	if h.opts.MsgColor == nil {
		h.opts.MsgColor = color.New()
	}
	return h
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	buf := bufPool.Get().(*bytes.Buffer)
	defer bufPool.Put(buf)
	buf.Reset()

	h.writeHeader(ctx, buf, r)

	hasAttrs := len(h.fields) > 0 || r.NumAttrs() > 0
	buf.WriteString(h.opts.MsgPrefix)
	buf.WriteString(h.opts.MsgColor.Sprint(fitMessage(r.Message, h.opts.MsgLength, hasAttrs)))

	buf.Write(h.fields)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(buf, h.prefix, a)
		return true
	})
	buf.WriteByte('\n')

	if h.opts.NoColor {
		stripANSI(buf)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf.Bytes())
	return err
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	buf := bytes.NewBuffer(append([]byte(nil), h.fields...))
	for _, a := range attrs {
		writeAttr(buf, h.prefix, a)
	}
	h2 := *h
	h2.fields = buf.Bytes()
	return &h2
}

// writeHeader renders time, request and conversation ids, level and source.
func (h *Handler) writeHeader(ctx context.Context, buf *bytes.Buffer, r slog.Record) {
	if !r.Time.IsZero() {
		buf.WriteString(timeStyle.Sprint(r.Time.Format(h.opts.TimeFormat)))
		buf.WriteByte(' ')
	}
	if id, ok := RequestIDFromContext(ctx); ok {
		buf.WriteString(requestIDStyle.Sprint(id))
		buf.WriteByte(' ')
	}
	if id, ok := ConversationIDFromContext(ctx); ok {
		buf.WriteString(conversationIDStyle.Sprintf("[%s]", shortID(id)))
		buf.WriteByte(' ')
	}

	buf.WriteString(badge(r.Level))
	buf.WriteByte(' ')

	if h.opts.SrcFileMode != Nop && r.PC != 0 {
		buf.WriteString(h.source(r.PC))
	}
}

func (h *Handler) source(pc uintptr) string {
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()

	file := frame.File
	if h.opts.SrcFileMode == ShortFile {
		file = filepath.Base(file)
	}
	line := ":" + strconv.Itoa(frame.Line)

	width := h.opts.SrcFileLength
	if width <= 0 {
		return file + line + " "
	}
	if room := width - len(line) - 1; room > 0 && len(file) > room {
		file = file[:room]
	}
	return fmt.Sprintf("%-*s", width, file+line)
}

// writeAttr renders a as " key=value", flattening groups into dotted keys.
func writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, member := range a.Value.Group() {
			writeAttr(buf, prefix, member)
		}
		return
	}

	style := keyStyle
	if strings.Contains(a.Key, "err") {
		style = errKeyStyle
	}
	buf.WriteByte(' ')
	buf.WriteString(style.Sprint(prefix + a.Key + "="))
	buf.WriteString(a.Value.String())
}

// fitMessage pads or truncates msg to width runes when the line carries attrs.
func fitMessage(msg string, width int, hasAttrs bool) string {
	if width <= 0 || !hasAttrs {
		return msg
	}
	runes := []rune(msg)
	if len(runes) > width {
		return string(runes[:width-1]) + "…"
	}
	return msg + strings.Repeat(" ", width-len(runes))
}

func badge(level slog.Level) string {
	for _, b := range badges {
		if level >= b.level {
			return b.style.Sprint(b.text)
		}
	}
	return debugStyle.Sprint("DEBUG")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

var bufPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}
