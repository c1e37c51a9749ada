// Package logging is a small levelled wrapper around the standard logger.
// Lines look like "merge.go:112: INFO - renumbered 14 nets".
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota + 1
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

var levelNames = map[Level]string{
	LevelDebug:    "DEBUG",
	LevelInfo:     "INFO",
	LevelWarning:  "WARNING",
	LevelError:    "ERROR",
	LevelCritical: "CRITICAL",
}

func (l Level) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel accepts the level names case-insensitively. An empty string
// yields LevelWarning.
func ParseLevel(s string) (Level, error) {
	if s == "" {
		return LevelWarning, nil
	}
	for l, n := range levelNames {
		if strings.EqualFold(s, n) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown log level %q (want DEBUG, INFO, WARNING, ERROR or CRITICAL)", s)
}

// Logger filters messages below its level.
type Logger struct {
	mu     sync.Mutex
	level  Level
	logger *log.Logger
}

// New creates a logger writing to w at the given level.
func New(w io.Writer, level Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	if level == 0 {
		level = LevelWarning
	}
	return &Logger{
		level:  level,
		logger: log.New(w, "", log.Lshortfile),
	}
}

// SetLevel changes the minimum level that gets written.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// SetOutput redirects the logger.
func (l *Logger) SetOutput(w io.Writer) {
	l.logger.SetOutput(w)
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return level >= l.level
}

func (l *Logger) store(depth int, level Level, format string, args []any) {
	if !l.Enabled(level) {
		return
	}
	_ = l.logger.Output(depth+1, level.String()+" - "+fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...any) { l.store(2, LevelDebug, format, args) }
func (l *Logger) Infof(format string, args ...any)  { l.store(2, LevelInfo, format, args) }
func (l *Logger) Warnf(format string, args ...any)  { l.store(2, LevelWarning, format, args) }
func (l *Logger) Errorf(format string, args ...any) { l.store(2, LevelError, format, args) }

var std = New(os.Stderr, LevelWarning)

// SetLevel sets the level of the default logger.
func SetLevel(level Level) { std.SetLevel(level) }

// SetOutput redirects the default logger.
func SetOutput(w io.Writer) { std.SetOutput(w) }

func Debugf(format string, args ...any) { std.store(2, LevelDebug, format, args) }
func Infof(format string, args ...any)  { std.store(2, LevelInfo, format, args) }
func Warnf(format string, args ...any)  { std.store(2, LevelWarning, format, args) }
func Errorf(format string, args ...any) { std.store(2, LevelError, format, args) }
