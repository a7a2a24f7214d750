// Package observability provides structured logging for the adapters
// surrounding the placement engine. The engine itself never logs; it is
// a pure function and reports everything through its diagnostics.
package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/term"
)

// Logger provides leveled structured logging with arbitrary fields.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, fields map[string]interface{})
}

// Level defines the logging verbosity level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Format defines the output format for logs.
type Format int

const (
	FormatHuman Format = iota
	FormatJSON
)

// ParseFormat maps a config string to a Format. "auto" (or empty)
// picks human output when stdout is a terminal and JSON otherwise,
// so CI pipelines get machine-parseable logs without configuration.
func ParseFormat(s string) Format {
	switch s {
	case "json":
		return FormatJSON
	case "human":
		return FormatHuman
	default:
		if IsOutputTerminal() {
			return FormatHuman
		}
		return FormatJSON
	}
}

// IsOutputTerminal reports whether stdout is a TTY. Piped or redirected
// output (including CI/CD) returns false.
func IsOutputTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// DefaultLogger writes structured logs via the standard log package.
type DefaultLogger struct {
	level  Level
	format Format
}

// NewDefaultLogger creates a logger with the specified level and format.
func NewDefaultLogger(level Level, format Format) *DefaultLogger {
	return &DefaultLogger{level: level, format: format}
}

func (l *DefaultLogger) Debug(ctx context.Context, msg string, fields map[string]interface{}) {
	l.emit(LevelDebug, "debug", msg, fields)
}

func (l *DefaultLogger) Info(ctx context.Context, msg string, fields map[string]interface{}) {
	l.emit(LevelInfo, "info", msg, fields)
}

func (l *DefaultLogger) Warn(ctx context.Context, msg string, fields map[string]interface{}) {
	l.emit(LevelWarn, "warn", msg, fields)
}

func (l *DefaultLogger) Error(ctx context.Context, msg string, fields map[string]interface{}) {
	l.emit(LevelError, "error", msg, fields)
}

func (l *DefaultLogger) emit(level Level, name, msg string, fields map[string]interface{}) {
	if level < l.level {
		return
	}

	if l.format == FormatJSON {
		entry := map[string]interface{}{
			"level":     name,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"message":   msg,
		}
		for k, v := range fields {
			entry[k] = v
		}
		data, err := json.Marshal(entry)
		if err != nil {
			log.Printf(`{"level":"error","message":"log marshal failed: %v"}`, err)
			return
		}
		log.Print(string(data))
		return
	}

	log.Printf("[%s] %s%s", strings.ToUpper(name), msg, humanFields(fields))
}

// humanFields renders fields as " (k=v, k=v)" with stable key order.
func humanFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return " (" + strings.Join(parts, ", ") + ")"
}
