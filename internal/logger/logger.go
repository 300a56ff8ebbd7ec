// Package logger provides a simple logging interface for mcwatch components.
// It allows packages to log debug, info, warn, and error messages without
// being coupled to a specific logging implementation.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DebugEnv enables debug output when set to any non-empty value.
const DebugEnv = "MCWATCH_DEBUG"

// Logger defines the interface for logging operations.
// All methods accept a format string and arguments, similar to fmt.Printf.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Options configures a charm-backed logger.
type Options struct {
	// Prefix is shown before every message (e.g. "monitor").
	Prefix string
	// Debug forces debug output regardless of MCWATCH_DEBUG.
	Debug bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// charmLogger adapts a charmbracelet/log Logger to the Logger interface.
type charmLogger struct {
	l *log.Logger
}

// New creates a logger that writes timestamped, leveled lines.
// Debug messages are printed when opts.Debug is set or MCWATCH_DEBUG is set.
func New(opts Options) Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	l := log.NewWithOptions(out, log.Options{
		Prefix:          opts.Prefix,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})

	if opts.Debug || os.Getenv(DebugEnv) != "" {
		l.SetLevel(log.DebugLevel)
	}

	return &charmLogger{l: l}
}

// NewEnvLogger creates a stderr logger that respects MCWATCH_DEBUG.
func NewEnvLogger(prefix string) Logger {
	return New(Options{Prefix: prefix})
}

func (c *charmLogger) Debug(format string, args ...interface{}) {
	c.l.Debugf(format, args...)
}

func (c *charmLogger) Info(format string, args ...interface{}) {
	c.l.Infof(format, args...)
}

func (c *charmLogger) Warn(format string, args ...interface{}) {
	c.l.Warnf(format, args...)
}

func (c *charmLogger) Error(format string, args ...interface{}) {
	c.l.Errorf(format, args...)
}

// noopLogger implements Logger but discards all messages.
type noopLogger struct{}

// Noop returns a logger that discards all messages.
func Noop() Logger {
	return &noopLogger{}
}

func (l *noopLogger) Debug(format string, args ...interface{}) {}
func (l *noopLogger) Info(format string, args ...interface{})  {}
func (l *noopLogger) Warn(format string, args ...interface{})  {}
func (l *noopLogger) Error(format string, args ...interface{}) {}

// LogMessage represents a captured log message.
type LogMessage struct {
	Level   string
	Message string
}

// BufferLogger captures log messages for testing.
// It is safe for concurrent use.
type BufferLogger struct {
	mu       sync.Mutex
	Messages []LogMessage
}

// NewBufferLogger creates a logger that captures messages for inspection.
func NewBufferLogger() *BufferLogger {
	return &BufferLogger{
		Messages: make([]LogMessage, 0),
	}
}

func (l *BufferLogger) add(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = append(l.Messages, LogMessage{Level: level, Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Debug(format string, args ...interface{}) { l.add("debug", format, args...) }
func (l *BufferLogger) Info(format string, args ...interface{})  { l.add("info", format, args...) }
func (l *BufferLogger) Warn(format string, args ...interface{})  { l.add("warn", format, args...) }
func (l *BufferLogger) Error(format string, args ...interface{}) { l.add("error", format, args...) }

// HasLevel returns true if any message was logged at the given level.
func (l *BufferLogger) HasLevel(level string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.Messages {
		if m.Level == level {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the captured messages.
func (l *BufferLogger) Snapshot() []LogMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LogMessage, len(l.Messages))
	copy(out, l.Messages)
	return out
}

// Clear removes all captured messages.
func (l *BufferLogger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Messages = l.Messages[:0]
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = NewEnvLogger("")
)

// Default returns the default logger for the package.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the default logger for the package.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}
