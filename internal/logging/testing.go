// pattern: Imperative Shell

package logging

import (
	"log/slog"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// NopLogger returns a logger that discards all output.
// Use in tests or when diagnostics are not enabled.
func NopLogger() *ScopedLogger {
	return &ScopedLogger{
		slog:  nil, // nil slog means all logging is no-op
		zap:   nil,
		scope: "",
	}
}

// nopProvider hands out discard loggers for every scope.
type nopProvider struct{}

func (nopProvider) For(scope string) *ScopedLogger {
	return &ScopedLogger{scope: scope}
}

// NewNop returns a provider whose loggers discard everything. Used when the
// process runs without --diagnostics.
func NewNop() LoggerProvider {
	return nopProvider{}
}

// TestLogManager provides a LoggerProvider suitable for tests.
// It records entries in memory (no file) for easy verification.
type TestLogManager struct {
	observed *observer.ObservedLogs
	baseZap  *zap.Logger
	loggers  map[string]*ScopedLogger
	mu       sync.RWMutex
}

// NewTestLogManager creates a log manager for testing that only records in memory.
func NewTestLogManager() *TestLogManager {
	core, observed := observer.New(zapcore.DebugLevel)
	return &TestLogManager{
		observed: observed,
		baseZap:  zap.New(core),
		loggers:  make(map[string]*ScopedLogger),
	}
}

// For returns a scoped logger for the given scope name.
// Named For() to match the production Manager API.
func (m *TestLogManager) For(scope string) *ScopedLogger {
	m.mu.RLock()
	if logger, ok := m.loggers[scope]; ok {
		m.mu.RUnlock()
		return logger
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if logger, ok := m.loggers[scope]; ok {
		return logger
	}

	zapLogger := m.baseZap.Named(scope)
	slogHandler := &zapSlogHandler{
		zap:   zapLogger,
		level: zapcore.DebugLevel,
	}

	logger := &ScopedLogger{
		slog:  slog.New(slogHandler),
		zap:   zapLogger,
		scope: scope,
	}

	m.loggers[scope] = logger
	return logger
}

// Entries returns everything logged so far.
func (m *TestLogManager) Entries() []observer.LoggedEntry {
	return m.observed.All()
}
