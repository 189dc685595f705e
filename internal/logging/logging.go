// Package logging provides slog-based structured logging for browserchat.
//
// The terminal belongs to the TUI, so records go to a JSON-lines file when one
// is configured and are discarded otherwise.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"browserchat/internal/apperrors"
)

var (
	defaultLogger atomic.Pointer[slog.Logger]

	logFile   *os.File
	logFileMu sync.Mutex
)

func init() { defaultLogger.Store(slog.New(slog.NewJSONHandler(io.Discard, nil))) }

func getLogger() *slog.Logger { return defaultLogger.Load() }

func storeLogger(l *slog.Logger) {
	defaultLogger.Store(l)
	slog.SetDefault(l)
}

// Options configures Init.
type Options struct {
	Path  string // empty disables file output
	Level string // debug, info, warn, error
}

// ParseLevel maps a level name to an slog.Level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init installs the default logger. Callers should defer Shutdown.
func Init(opts Options) error {
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		storeLogger(slog.New(slog.NewJSONHandler(io.Discard, handlerOpts)))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperrors.Wrap(err, "Logging.Init", "create log dir")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return apperrors.Wrap(err, "Logging.Init", "open log file")
	}
	logFileMu.Lock()
	prev := logFile
	logFile = f
	logFileMu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	storeLogger(slog.New(slog.NewJSONHandler(f, handlerOpts)))
	return nil
}

// InitWriter installs a logger writing JSON lines to w. Used by tests.
func InitWriter(w io.Writer, level string) {
	storeLogger(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})))
}

// Shutdown closes the log file, if any.
func Shutdown() {
	logFileMu.Lock()
	defer logFileMu.Unlock()
	if logFile != nil {
		_ = logFile.Sync()
		_ = logFile.Close()
		logFile = nil
	}
	storeLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

type ctxKey struct{}

// WithContext stores l in ctx.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return getLogger()
}

func Info(msg string, args ...any)  { getLogger().Info(msg, args...) }
func Warn(msg string, args ...any)  { getLogger().Warn(msg, args...) }
func Error(msg string, args ...any) { getLogger().Error(msg, args...) }
func Debug(msg string, args ...any) { getLogger().Debug(msg, args...) }

// With returns the default logger with extra attributes.
func With(args ...any) *slog.Logger { return getLogger().With(args...) }

// Get returns the default logger.
func Get() *slog.Logger { return getLogger() }

// Field names. Use these instead of literal keys.
const (
	FieldSession   = "session_id"
	FieldEndpoint  = "endpoint"
	FieldEventType = "event_type"
	FieldTaskType  = "task_type"
	FieldMessageID = "message_id"
	FieldKind      = "kind"
	FieldRole      = "role"
	FieldError     = "error"
	FieldBytes     = "bytes"
	FieldCount     = "count"
	FieldComponent = "component"
)
