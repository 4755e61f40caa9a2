// Package logging provides leveled logging for the scripting subsystem.
//
// Log records are (level, message) pairs handed to a Sink. The engine's own
// log sink is one such Sink (see HostSink); WriterSink prints timestamped
// lines for standalone use.
package logging

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Level represents the severity of a log message.
type Level int

const (
	// LevelDebug is for detailed debugging information.
	LevelDebug Level = iota
	// LevelInfo is for general informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
	// LevelFatal is for errors the subsystem cannot continue after.
	LevelFatal
)

// String returns the engine's name for the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ParseLevel parses a level name. Source-level names are accepted and
// renamed (warning -> warn, critical -> fatal). Unknown names yield
// LevelInfo and false.
func ParseLevel(s string) (Level, bool) {
	switch canonical(s) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn":
		return LevelWarn, true
	case "error":
		return LevelError, true
	case "fatal":
		return LevelFatal, true
	default:
		return LevelInfo, false
	}
}

// NormalizeLevel maps a level name onto the engine's vocabulary
// {debug, info, warn, error, fatal}. Matching is case-insensitive and
// names outside that vocabulary become info.
func NormalizeLevel(s string) string {
	if l, ok := ParseLevel(s); ok {
		return l.String()
	}
	return LevelInfo.String()
}

func canonical(s string) string {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "warning":
		return "warn"
	case "critical":
		return "fatal"
	default:
		return name
	}
}

// Sink receives formatted log records.
type Sink interface {
	HandleLog(level, message string)
}

// Logger is a leveled logger with structured fields.
type Logger struct {
	mu       *sync.Mutex
	level    *Level
	sink     Sink
	prefix   string
	fields   map[string]any
	disabled bool
}

// New creates a logger writing records at or above level to sink.
func New(sink Sink, level Level) *Logger {
	if sink == nil {
		sink = NewWriterSink(nil)
	}
	return &Logger{
		mu:     &sync.Mutex{},
		level:  &level,
		sink:   sink,
		fields: make(map[string]any),
	}
}

// NullLogger discards all output.
var NullLogger = &Logger{mu: &sync.Mutex{}, level: new(Level), disabled: true}

// WithField returns a logger with the given field added.
// The derived logger shares the level of its parent.
func (l *Logger) WithField(key string, value any) *Logger {
	return l.WithFields(map[string]any{key: value})
}

// WithFields returns a logger with the given fields added.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	newFields := make(map[string]any, len(l.fields)+len(fields))
	maps.Copy(newFields, l.fields)
	maps.Copy(newFields, fields)

	return &Logger{
		mu:       l.mu,
		level:    l.level,
		sink:     l.sink,
		prefix:   l.prefix,
		fields:   newFields,
		disabled: l.disabled,
	}
}

// WithComponent returns a logger with the component field set.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

// WithPrefix returns a logger that prepends "(prefix) " to messages.
func (l *Logger) WithPrefix(prefix string) *Logger {
	derived := l.WithFields(nil)
	derived.prefix = prefix
	return derived
}

// SetLevel sets the minimum level for this logger and every logger
// derived from the same root.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.level = level
}

// Level returns the current minimum level.
func (l *Logger) Level() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.level
}

// Enabled reports whether records at level would be emitted.
func (l *Logger) Enabled(level Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.disabled && level >= *l.level
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.Log(LevelDebug, msg, args...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	l.Log(LevelInfo, msg, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.Log(LevelWarn, msg, args...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.Log(LevelError, msg, args...)
}

// Fatal logs a fatal message. It does not exit.
func (l *Logger) Fatal(msg string, args ...any) {
	l.Log(LevelFatal, msg, args...)
}

// Log writes a message at level if the level is enabled.
func (l *Logger) Log(level Level, msg string, args ...any) {
	if !l.Enabled(level) {
		return
	}

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	if l.prefix != "" {
		msg = "(" + l.prefix + ") " + msg
	}
	if len(l.fields) > 0 {
		var sb strings.Builder
		sb.WriteString(msg)
		sb.WriteString(" {")
		for i, k := range slices.Sorted(maps.Keys(l.fields)) {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%v", k, l.fields[k])
		}
		sb.WriteString("}")
		msg = sb.String()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sink.HandleLog(level.String(), msg)
}
