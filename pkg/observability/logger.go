// Package observability provides structured logging, metrics collection
// and health checks for cyclist.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LogFormat specifies the output format for logs.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// LogLevel represents logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Redacted replaces the value of a sensitive attribute.
const Redacted = "[redacted]"

// sensitiveKeys name attributes that carry contact details or health notes.
var sensitiveKeys = map[string]bool{
	"to":    true,
	"email": true,
	"body":  true,
	"notes": true,
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  LogLevel
	Format LogFormat
	// Output defaults to os.Stderr.
	Output    io.Writer
	AddSource bool
	// Redact masks contact details and journal notes.
	Redact         bool
	ServiceName    string
	ServiceVersion string
}

// LoggerFor builds the logger for APP_ENV and LOG_LEVEL. Production logs
// redacted JSON to stdout with source locations; every other environment
// logs text to stderr.
func LoggerFor(appEnv, level string) *slog.Logger {
	cfg := LogConfig{
		Level:          LogLevelInfo,
		Format:         LogFormatText,
		Output:         os.Stderr,
		ServiceName:    "cyclist",
		ServiceVersion: "dev",
	}
	if appEnv == "production" {
		cfg.Format = LogFormatJSON
		cfg.Output = os.Stdout
		cfg.AddSource = true
		cfg.Redact = true
		cfg.ServiceVersion = "unknown"
	}
	if level != "" {
		cfg.Level = LogLevel(level)
	}
	if version := os.Getenv("CYCLIST_VERSION"); version != "" {
		cfg.ServiceVersion = version
	}
	return NewLogger(cfg)
}

// NewLogger creates a structured logger. Records also carry the
// correlation, user and rule ids found on the context they are logged with.
func NewLogger(cfg LogConfig) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     parseSlogLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}
	if cfg.Redact {
		opts.ReplaceAttr = redact
	}

	var handler slog.Handler
	if cfg.Format == LogFormatJSON {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}

	var attrs []slog.Attr
	if cfg.ServiceName != "" {
		attrs = append(attrs, slog.String("service", cfg.ServiceName))
	}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, slog.String("version", cfg.ServiceVersion))
	}
	if len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}

	return slog.New(scopeHandler{handler})
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if sensitiveKeys[a.Key] {
		return slog.String(a.Key, Redacted)
	}
	return a
}

func parseSlogLevel(level LogLevel) slog.Level {
	switch level {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// scopeHandler adds the ids carried on the context to every record.
type scopeHandler struct {
	slog.Handler
}

func (h scopeHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(ContextAttrs(ctx)...)
	return h.Handler.Handle(ctx, r)
}

func (h scopeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return scopeHandler{h.Handler.WithAttrs(attrs)}
}

func (h scopeHandler) WithGroup(name string) slog.Handler {
	return scopeHandler{h.Handler.WithGroup(name)}
}

// LogOperation returns a logger tagged with the operation name and attrs.
func LogOperation(logger *slog.Logger, operation string, attrs ...any) *slog.Logger {
	return logger.With(append([]any{OperationKey, operation}, attrs...)...)
}
