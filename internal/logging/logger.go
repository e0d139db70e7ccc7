package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// Level is a log severity level.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug, nil
	case "info":
		return Info, nil
	case "warn", "warning":
		return Warn, nil
	case "error":
		return Error, nil
	default:
		return Info, fmt.Errorf("unknown log level %q", s)
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case Debug:
		return slog.LevelDebug
	case Warn:
		return slog.LevelWarn
	case Error:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Format is a log output format.
type Format string

const (
	// Plain renders "LEVEL: message key=value ...".
	Plain  Format = "plain"
	Logfmt Format = "logfmt"
	JSON   Format = "json"
	// Color is Plain-like terminal output with colored levels.
	Color Format = "color"
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plain", "":
		return Plain, nil
	case "logfmt":
		return Logfmt, nil
	case "json":
		return JSON, nil
	case "color":
		return Color, nil
	default:
		return Plain, fmt.Errorf("unknown log format %q", s)
	}
}

// Logger is the handle passed to every pipeline stage. There is no package
// level logger; each run builds its own.
//
// All methods are safe for concurrent use.
type Logger struct {
	sl *slog.Logger
}

func New(out io.Writer, level Level, format Format) *Logger {
	if out == nil {
		out = os.Stderr
	}

	lvl := level.slogLevel()
	var h slog.Handler

	switch format {
	case JSON:
		h = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl})
	case Logfmt:
		h = slog.NewTextHandler(out, &slog.HandlerOptions{Level: lvl})
	case Color:
		h = tint.NewHandler(out, &tint.Options{
			Level:      lvl,
			NoColor:    !isTerminal(out),
			TimeFormat: "15:04:05.000",
		})
	default:
		h = newPlainHandler(out, lvl)
	}

	return &Logger{sl: slog.New(h)}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return &Logger{sl: slog.New(newPlainHandler(io.Discard, slog.LevelError+1))}
}

// With returns a Logger that adds kv to every message.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{sl: l.sl.With(kv...)}
}

func (l *Logger) Debug(msg string, kv ...any) { l.sl.Debug(msg, kv...) }
func (l *Logger) Info(msg string, kv ...any)  { l.sl.Info(msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.sl.Warn(msg, kv...) }
func (l *Logger) Error(msg string, kv ...any) { l.sl.Error(msg, kv...) }

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// plainHandler writes one line per record without a timestamp:
//
//	INFO: loaded lookup table path=lookup.csv rules=12
//	ERROR: parse flow log: flow.log:3: malformed record: ...
type plainHandler struct {
	mu    *sync.Mutex
	out   io.Writer
	level slog.Leveler
	attrs []slog.Attr
}

func newPlainHandler(out io.Writer, level slog.Leveler) *plainHandler {
	return &plainHandler{mu: &sync.Mutex{}, out: out, level: level}
}

func (h *plainHandler) Enabled(_ context.Context, lvl slog.Level) bool {
	return lvl >= h.level.Level()
}

func (h *plainHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &h2
}

// WithGroup is not supported; attributes stay flat.
func (h *plainHandler) WithGroup(string) slog.Handler { return h }

func (h *plainHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.WriteString(r.Level.String())
	sb.WriteString(": ")
	sb.WriteString(r.Message)

	writeAttr := func(a slog.Attr) {
		if a.Equal(slog.Attr{}) {
			return
		}
		sb.WriteString(" ")
		sb.WriteString(a.Key)
		sb.WriteString("=")
		sb.WriteString(escapeLogfmt(a.Value.Resolve().String()))
	}
	for _, a := range h.attrs {
		writeAttr(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(a)
		return true
	})
	sb.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, sb.String())
	return err
}

func escapeLogfmt(s string) string {
	// Quote if contains spaces or special chars; keep it simple.
	if s == "" {
		return `""`
	}
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '"', '=':
			return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
		}
	}
	return s
}
