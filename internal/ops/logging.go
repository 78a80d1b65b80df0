package ops

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/patrickReiis/rap-battle-nostr/internal/config"
)

// Logger is a structured logger wrapper
type Logger struct {
	*slog.Logger
	level  slog.Level
	format string
}

// NewLogger creates a new structured logger based on config
func NewLogger(cfg *config.Logging) *Logger {
	return NewLoggerWithWriter(cfg, os.Stdout)
}

// NewLoggerWithWriter creates a logger with a custom writer
func NewLoggerWithWriter(cfg *config.Logging, w io.Writer) *Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
		level:  level,
		format: cfg.Format,
	}
}

// WithComponent adds a component field to all log messages
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.Logger.With("component", component),
		level:  l.level,
		format: l.format,
	}
}

// IsDebugEnabled returns true if debug logging is enabled
func (l *Logger) IsDebugEnabled() bool {
	return l.level <= slog.LevelDebug
}

// LogQuery logs one relay query
func (l *Logger) LogQuery(view string, events int, duration time.Duration, err error) {
	if err != nil {
		l.Warn("relay query failed",
			"view", view,
			"duration_ms", duration.Milliseconds(),
			"error", err)
	} else {
		l.Debug("relay query completed",
			"view", view,
			"events", events,
			"duration_ms", duration.Milliseconds())
	}
}

// LogPollCycle logs one aggregation cycle of the scheduler
func (l *Logger) LogPollCycle(view string, duration time.Duration, err error) {
	if err != nil {
		l.Warn("poll cycle failed",
			"view", view,
			"duration_ms", duration.Milliseconds(),
			"error", err)
	} else {
		l.Debug("poll cycle completed",
			"view", view,
			"duration_ms", duration.Milliseconds())
	}
}

// LogPublish logs the outcome of publishing an event
func (l *Logger) LogPublish(kind int, eventID string, err error) {
	if err != nil {
		l.Error("publish failed",
			"kind", kind,
			"error", err)
	} else {
		l.Info("event published",
			"kind", kind,
			"event_id", eventID)
	}
}

// LogStartup logs application startup information
func (l *Logger) LogStartup(version, commit string) {
	l.Info("rapbattle starting",
		"version", version,
		"commit", commit)
}

// LogShutdown logs application shutdown
func (l *Logger) LogShutdown(reason string) {
	l.Info("rapbattle shutting down",
		"reason", reason)
}

// Default logger configuration
var defaultLogger *Logger

func init() {
	defaultLogger = NewLogger(&config.Logging{
		Level:  "info",
		Format: "text",
	})
}

// Default returns the default logger
func Default() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger
func SetDefault(l *Logger) {
	defaultLogger = l
}
