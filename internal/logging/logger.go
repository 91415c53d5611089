// Package logging owns the long-lived engine log at .quill/logs/quill.log.
// It records CLI invocations and wiring failures across runs; per-run step
// detail lives in the logbook package. Both write the same line shape so
// the two files read alike.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/quillforge/quill/internal/config"
)

// Level mirrors the logbook severities.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger appends timestamped, leveled lines to the engine log so users can
// inspect failures after the terminal session is gone.
type Logger struct {
	file *os.File
	now  func() time.Time
}

// Option customizes a Logger.
type Option func(*Logger)

// WithClock overrides entry timestamps (tests).
func WithClock(clock func() time.Time) Option {
	return func(l *Logger) {
		if clock != nil {
			l.now = clock
		}
	}
}

// New creates (or reuses) the log file for the current project directory.
func New(projectDir string, opts ...Option) (*Logger, error) {
	logDir := filepath.Join(projectDir, config.QuillDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, "quill.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open log file: %w", err)
	}
	l := &Logger{file: f, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l, nil
}

// Close releases the file handle.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Append writes a single leveled line to the engine log.
func (l *Logger) Append(level Level, message string) {
	if l == nil || l.file == nil {
		return
	}
	fmt.Fprintf(l.file, "%s %-5s %s\n",
		l.now().UTC().Format(time.RFC3339),
		string(level),
		strings.TrimSpace(message),
	)
}

// Info appends an informational entry.
func (l *Logger) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logger) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logger) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}
