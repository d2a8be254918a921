// Package observability holds the logging, metrics and health plumbing shared by
// the freebusy binaries.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LogConfig configures NewLogger.
type LogConfig struct {
	Level slog.Level
	JSON  bool
	// Output defaults to os.Stderr; stdout carries command output.
	Output    io.Writer
	AddSource bool
	Version   string
}

// LogConfigFor picks defaults for an application environment: text at info level
// in development, JSON with source locations in production. Empty or unknown
// level and format keep those defaults.
func LogConfigFor(appEnv, level, format, version string) LogConfig {
	cfg := LogConfig{Level: slog.LevelInfo, Output: os.Stderr, Version: "dev"}
	if appEnv == "production" {
		cfg.JSON, cfg.AddSource = true, true
	}
	var parsed slog.Level
	if level != "" && parsed.UnmarshalText([]byte(level)) == nil {
		cfg.Level = parsed
	}
	switch format {
	case "json":
		cfg.JSON = true
	case "text":
		cfg.JSON = false
	}
	if version != "" {
		cfg.Version = version
	}
	return cfg
}

// LogConfigFromEnv reads FREEBUSY_ENV, FREEBUSY_LOG_LEVEL, FREEBUSY_LOG_FORMAT and
// FREEBUSY_VERSION through getenv.
func LogConfigFromEnv(getenv func(string) string) LogConfig {
	return LogConfigFor(getenv("FREEBUSY_ENV"), getenv("FREEBUSY_LOG_LEVEL"), getenv("FREEBUSY_LOG_FORMAT"), getenv("FREEBUSY_VERSION"))
}

// LoggerFromEnv is the logger used before configuration has loaded.
func LoggerFromEnv() *slog.Logger {
	return NewLogger(LogConfigFromEnv(os.Getenv))
}

// NewLogger builds a logger tagged with the service name and version that also
// records the request identifiers carried by the context.
func NewLogger(cfg LogConfig) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}

	var h slog.Handler = slog.NewTextHandler(out, opts)
	if cfg.JSON {
		h = slog.NewJSONHandler(out, opts)
	}
	logger := slog.New(contextHandler{h}).With("service", "freebusy")
	if cfg.Version != "" {
		logger = logger.With("version", cfg.Version)
	}
	return logger
}

// contextHandler copies correlation, request, member and operation values from
// the record's context onto the record.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, kv := range [...]struct{ key, val string }{
		{CorrelationIDKey, CorrelationIDFromContext(ctx)},
		{RequestIDKey, RequestIDFromContext(ctx)},
		{MemberIDKey, MemberIDFromContext(ctx)},
		{OperationKey, OperationFromContext(ctx)},
	} {
		if kv.val != "" {
			r.AddAttrs(slog.String(kv.key, kv.val))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

// LogOperation tags every record of the returned logger with the operation name.
func LogOperation(logger *slog.Logger, operation string, attrs ...any) *slog.Logger {
	return logger.With(append([]any{OperationKey, operation}, attrs...)...)
}
