package logger

import (
	"sync"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Output encodings.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	// globalLogger holds the singleton logger instance.
	globalLogger *Logger
	once         sync.Once
)

// Get returns the process-wide logger, initializing it on first use with a
// console encoder at the given level. Later calls ignore level.
func Get(level string) *Logger {
	return GetWithFormat(level, FormatConsole)
}

// GetWithFormat is Get with an explicit encoding (console or json).
func GetWithFormat(level, format string) *Logger {
	once.Do(func() {
		globalLogger = New(level, format)
	})
	return globalLogger
}

// Nop returns a logger that discards everything, for tests and tools.
func Nop() *Logger {
	return newNopLogger()
}
