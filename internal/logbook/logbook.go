// Package logbook records the step-by-step progress of a refinement run to
// a plain text file under .quill/runs/, one file per run.
package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/quillforge/quill/internal/pipeline"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logbook persists one run's progress to a simple text file.
type Logbook struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// Option customizes a Logbook.
type Option func(*Logbook)

// WithClock overrides entry timestamps (tests).
func WithClock(clock func() time.Time) Option {
	return func(l *Logbook) {
		if clock != nil {
			l.now = clock
		}
	}
}

// NewRunID derives a filesystem-friendly run identifier from the clock.
func NewRunID(now time.Time) string {
	return now.UTC().Format("20060102-150405")
}

// ForRun creates the logbook file for a run under runsDir.
func ForRun(runsDir, runID string, opts ...Option) (*Logbook, error) {
	if strings.TrimSpace(runID) == "" {
		return nil, fmt.Errorf("logbook: run id is required")
	}
	if err := os.MkdirAll(runsDir, 0o755); err != nil {
		return nil, err
	}
	lb := &Logbook{
		path: filepath.Join(runsDir, runID+".log"),
		now:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(lb)
		}
	}
	return lb, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append writes a single entry to the logbook.
func (l *Logbook) Append(level Level, message string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	line := fmt.Sprintf("%s %-5s %s\n",
		l.now().UTC().Format(time.RFC3339),
		string(level),
		strings.TrimSpace(message),
	)
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.WriteString(line)
}

// Observe returns a pipeline.Observer that records every run event. Wire it
// through pipeline.WithObserver.
func (l *Logbook) Observe() pipeline.Observer {
	return func(ev pipeline.Event) {
		msg := fmt.Sprintf("state=%s iteration=%d", ev.State, ev.Iteration)
		if ev.Verdict != "" {
			msg += fmt.Sprintf(" verdict=%s", ev.Verdict)
		}
		if ev.Message != "" {
			msg += " " + ev.Message
		}
		l.Append(LevelInfo, msg)
	}
}

// Tail returns up to maxLines of the most recent log entries.
func (l *Logbook) Tail(maxLines int) []string {
	if l == nil || maxLines <= 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) == 0 {
		return nil
	}
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}
