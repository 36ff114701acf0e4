// logging.go: Pluggable logging interface with debug-mode detection
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package pluginloader

import (
	"strings"
	"sync"
)

// Logger defines the pluggable logging interface for the plugin loader.
//
// Any logging framework can be plugged in through a small adapter; the loader
// itself has no logging dependency. Args are structured key-value pairs.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, args ...any)

	// Info logs an info message with optional key-value pairs
	Info(msg string, args ...any)

	// Warn logs a warning message with optional key-value pairs
	Warn(msg string, args ...any)

	// Error logs an error message with optional key-value pairs
	Error(msg string, args ...any)

	// With returns a new logger with persistent context key-value pairs
	With(args ...any) Logger
}

// DebugReporter is implemented by loggers that know whether debug output is
// enabled. The loader uses it to decide between full failure detail and a
// one-line summary when WithDebug was not set explicitly.
type DebugReporter interface {
	DebugEnabled() bool
}

// NewLogger creates a Logger from supported logger types.
//
// Supported types:
//   - Logger interface: Used directly
//   - nil: Returns NoOpLogger for silent operation
//   - Unsupported types: Panic with descriptive message
func NewLogger(logger any) Logger {
	switch l := logger.(type) {
	case Logger:
		return l
	case nil:
		return NewNoOpLogger()
	default:
		panic("unsupported logger type: expected Logger interface or nil")
	}
}

// isDebugLogger reports whether logger declares debug output as enabled.
func isDebugLogger(logger Logger) bool {
	if dr, ok := logger.(DebugReporter); ok {
		return dr.DebugEnabled()
	}
	return false
}

// NoOpLogger discards all log messages.
type NoOpLogger struct{}

// NewNoOpLogger creates a new no-operation logger.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// Debug implements Logger interface (no-op)
func (n *NoOpLogger) Debug(msg string, args ...any) {}

// Info implements Logger interface (no-op)
func (n *NoOpLogger) Info(msg string, args ...any) {}

// Warn implements Logger interface (no-op)
func (n *NoOpLogger) Warn(msg string, args ...any) {}

// Error implements Logger interface (no-op)
func (n *NoOpLogger) Error(msg string, args ...any) {}

// With implements Logger interface (no-op)
func (n *NoOpLogger) With(args ...any) Logger {
	return n
}

// TestLogger captures log messages for assertions in tests.
type TestLogger struct {
	mu       sync.RWMutex
	Messages []TestLogMessage
	debug    bool
	fields   []any
	parent   *TestLogger
}

// TestLogMessage represents a captured log message for testing.
type TestLogMessage struct {
	Level   string
	Message string
	Args    []any
}

// NewTestLogger creates a new test logger.
func NewTestLogger() *TestLogger {
	return &TestLogger{
		Messages: make([]TestLogMessage, 0),
	}
}

// NewDebugTestLogger creates a test logger that reports debug mode as enabled.
func NewDebugTestLogger() *TestLogger {
	l := NewTestLogger()
	l.debug = true
	return l
}

func (t *TestLogger) record(level, msg string, args []any) {
	root := t
	for root.parent != nil {
		root = root.parent
	}
	all := make([]any, 0, len(t.fields)+len(args))
	all = append(all, t.fields...)
	all = append(all, args...)

	root.mu.Lock()
	defer root.mu.Unlock()
	root.Messages = append(root.Messages, TestLogMessage{
		Level:   level,
		Message: msg,
		Args:    all,
	})
}

// Debug implements Logger interface (captures message)
func (t *TestLogger) Debug(msg string, args ...any) { t.record("DEBUG", msg, args) }

// Info implements Logger interface (captures message)
func (t *TestLogger) Info(msg string, args ...any) { t.record("INFO", msg, args) }

// Warn implements Logger interface (captures message)
func (t *TestLogger) Warn(msg string, args ...any) { t.record("WARN", msg, args) }

// Error implements Logger interface (captures message)
func (t *TestLogger) Error(msg string, args ...any) { t.record("ERROR", msg, args) }

// With returns a child logger that records into the same message list.
func (t *TestLogger) With(args ...any) Logger {
	fields := make([]any, 0, len(t.fields)+len(args))
	fields = append(fields, t.fields...)
	fields = append(fields, args...)
	return &TestLogger{parent: t, fields: fields, debug: t.debug}
}

// DebugEnabled implements DebugReporter.
func (t *TestLogger) DebugEnabled() bool {
	return t.debug
}

// Snapshot returns a copy of the captured messages.
func (t *TestLogger) Snapshot() []TestLogMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]TestLogMessage, len(t.Messages))
	copy(out, t.Messages)
	return out
}

// HasMessage checks if the logger captured a message with the exact text.
func (t *TestLogger) HasMessage(level, message string) bool {
	for _, msg := range t.Snapshot() {
		if msg.Level == level && msg.Message == message {
			return true
		}
	}
	return false
}

// Filter returns captured messages at level whose text contains substr.
func (t *TestLogger) Filter(level, substr string) []TestLogMessage {
	var out []TestLogMessage
	for _, msg := range t.Snapshot() {
		if msg.Level == level && strings.Contains(msg.Message, substr) {
			out = append(out, msg)
		}
	}
	return out
}

// Clear removes all captured messages.
func (t *TestLogger) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Messages = t.Messages[:0]
}

// DefaultLogger returns the silent logger used when none is configured.
func DefaultLogger() Logger {
	return NewNoOpLogger()
}
