package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

var debugEnabled atomic.Bool

// SetDebug toggles Debug output for every logger in the process
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

// Logger provides levelled key/value logging for one component
type Logger struct {
	prefix string
	logger *log.Logger
}

// NewLogger creates a new logger with a prefix
func NewLogger(prefix string) *Logger {
	return NewLoggerTo(os.Stdout, prefix)
}

// NewLoggerTo creates a logger writing to w
func NewLoggerTo(w io.Writer, prefix string) *Logger {
	return &Logger{
		prefix: prefix,
		logger: log.New(w, fmt.Sprintf("[%s] ", prefix), log.LstdFlags),
	}
}

// Discard returns a logger that writes nowhere
func Discard() *Logger {
	return NewLoggerTo(io.Discard, "discard")
}

// With returns a logger for a sub-component sharing the same output
func (l *Logger) With(prefix string) *Logger {
	return NewLoggerTo(l.logger.Writer(), l.prefix+"/"+prefix)
}

// Info logs an informational message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.logWithKV("INFO", msg, keysAndValues...)
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.logWithKV("WARN", msg, keysAndValues...)
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.logWithKV("ERROR", msg, keysAndValues...)
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	if !debugEnabled.Load() {
		return
	}
	l.logWithKV("DEBUG", msg, keysAndValues...)
}

func (l *Logger) logWithKV(level, msg string, keysAndValues ...interface{}) {
	var kv strings.Builder
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&kv, " %v=%v", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&kv, " %v=<missing>", keysAndValues[i])
		}
	}
	l.logger.Printf("[%s] %s%s", level, msg, kv.String())
}
