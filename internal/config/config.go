package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	// DefaultLogLevel is used when OTK_LOG_LEVEL is unset.
	DefaultLogLevel = "WARNING"
	// DefaultIndentWidth is the number of spaces per nesting level in output files.
	DefaultIndentWidth = 2
)

// LogLevel returns the log level from the OTK_LOG_LEVEL env var,
// falling back to DefaultLogLevel.
func LogLevel() string {
	if env := os.Getenv("OTK_LOG_LEVEL"); env != "" {
		return env
	}
	return DefaultLogLevel
}

// Indent returns the indentation unit for printed files. OTK_INDENT may be
// a number of spaces or the word "tab".
func Indent() string {
	env := strings.TrimSpace(os.Getenv("OTK_INDENT"))
	if strings.EqualFold(env, "tab") {
		return "\t"
	}
	if n, err := strconv.Atoi(env); err == nil && n > 0 && n <= 8 {
		return strings.Repeat(" ", n)
	}
	return strings.Repeat(" ", DefaultIndentWidth)
}
