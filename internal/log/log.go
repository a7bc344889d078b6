// Package log provides structured logging for intake.
// Lines carry a timestamp, level, and category followed by key=value pairs.
// Logging is off unless --debug or INTAKE_DEBUG enables it.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/intakehq/intake/internal/pubsub"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string onto a Level. Unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Category groups related log messages.
type Category string

const (
	CatQuery    Category = "query"    // cache lookups and fetches
	CatMutation Category = "mutation" // write executions
	CatAPI      Category = "api"      // backend HTTP calls
	CatConfig   Category = "config"   // configuration loading/saving
	CatUI       Category = "ui"       // screen updates
	CatNav      Category = "nav"      // navigation changes
	CatForm     Category = "form"     // registration form validation
)

// Logger writes formatted entries and republishes them to listeners.
type Logger struct {
	mu       sync.Mutex
	closer   io.Closer
	writer   io.Writer
	enabled  bool
	minLevel Level
	broker   *pubsub.Broker[string]
}

var (
	defaultMu     sync.RWMutex
	defaultLogger *Logger
)

// Init opens path for appending and installs it as the global logger.
// The returned func closes the file.
func Init(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) //nolint:gosec // G304: debug log path comes from the user
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	install(newLogger(f, f))
	return func() { _ = f.Close() }, nil
}

// InitWithTeaLog routes logging through tea.LogToFile so Bubble Tea's own
// debug output lands in the same file.
func InitWithTeaLog(path string, prefix string) (func(), error) {
	f, err := tea.LogToFile(path, prefix)
	if err != nil {
		return nil, err
	}
	install(newLogger(f, f))
	return func() { _ = f.Close() }, nil
}

// InitWithWriter installs a logger writing to w. Used by tests and the CLI
// subcommands that log to stderr.
func InitWithWriter(w io.Writer) {
	install(newLogger(w, nil))
}

func newLogger(w io.Writer, c io.Closer) *Logger {
	return &Logger{
		writer:   w,
		closer:   c,
		enabled:  true,
		minLevel: LevelDebug,
		broker:   pubsub.NewBroker[string](),
	}
}

func install(l *Logger) {
	defaultMu.Lock()
	old := defaultLogger
	defaultLogger = l
	defaultMu.Unlock()

	if old != nil && old.broker != nil {
		old.broker.Close()
	}
}

func current() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetEnabled toggles logging on/off.
func SetEnabled(enabled bool) {
	if l := current(); l != nil {
		l.mu.Lock()
		l.enabled = enabled
		l.mu.Unlock()
	}
}

// SetMinLevel sets the minimum log level.
func SetMinLevel(level Level) {
	if l := current(); l != nil {
		l.mu.Lock()
		l.minLevel = level
		l.mu.Unlock()
	}
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	write(LevelDebug, cat, msg, fields...)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	write(LevelInfo, cat, msg, fields...)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	write(LevelWarn, cat, msg, fields...)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	write(LevelError, cat, msg, fields...)
}

// ErrorErr logs an error with the error value.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	write(LevelError, cat, msg, fields...)
}

// Format: 2026-10-17T10:45:00 [ERROR] [query] message key=value key2=value2
func format(ts time.Time, level Level, cat Category, msg string, fields []any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] [%s] %s", ts.Format("2006-01-02T15:04:05"), level, cat, msg)
	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&b, " %v=%v", fields[i], fields[i+1])
	}
	if len(fields)%2 != 0 {
		fmt.Fprintf(&b, " %v=<missing>", fields[len(fields)-1])
	}
	b.WriteByte('\n')
	return b.String()
}

func write(level Level, cat Category, msg string, fields ...any) {
	l := current()
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled || level < l.minLevel {
		return
	}

	entry := format(time.Now(), level, cat, msg, fields)
	if l.writer != nil {
		_, _ = io.WriteString(l.writer, entry)
	}
	l.broker.Publish(pubsub.LogEvent, entry)
}

// Listener receives formatted log entries.
type Listener = pubsub.ContinuousListener[string]

// NewListener subscribes to log entries until ctx is done.
// Returns nil when logging was never initialised.
func NewListener(ctx context.Context) *Listener {
	l := current()
	if l == nil {
		return nil
	}
	return pubsub.NewContinuousListener[string](ctx, l.broker)
}
