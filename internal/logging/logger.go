// Package logging provides leveled logging with secret redaction for the
// rotation engine. Output goes to stderr so CloudWatch captures it when
// running under Lambda and terminals see it when running rotatectl.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Logger provides leveled logging with redaction support
type Logger struct {
	debug bool
	out   io.Writer
}

// New creates a new logger instance
func New(debug bool) *Logger {
	return &Logger{
		debug: debug,
		out:   os.Stderr,
	}
}

// NewWithWriter creates a logger writing to a custom writer (for tests)
func NewWithWriter(debug bool, out io.Writer) *Logger {
	return &Logger{
		debug: debug,
		out:   out,
	}
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	fmt.Fprintf(l.out, "INFO %s\n", fmt.Sprintf(format, args...))
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	fmt.Fprintf(l.out, "WARN %s\n", fmt.Sprintf(format, args...))
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	fmt.Fprintf(l.out, "ERROR %s\n", fmt.Sprintf(format, args...))
}

// Debug logs a debug message if debug mode is enabled
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	fmt.Fprintf(l.out, "DEBUG %s\n", fmt.Sprintf(format, args...))
}

// Secret represents a value that must never appear in log output.
// Formatting a Secret with %s or %v yields a redacted marker.
type Secret string

// String implements the Stringer interface, always returning a redacted value
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString implements the GoStringer interface for %#v formatting
func (s Secret) GoString() string {
	return "[REDACTED]"
}

// Redact replaces sensitive values in a string with [REDACTED]
func Redact(s string, secrets []string) string {
	result := s
	for _, secret := range secrets {
		if secret != "" && len(secret) > 3 {
			result = strings.ReplaceAll(result, secret, "[REDACTED]")
		}
	}
	return result
}
