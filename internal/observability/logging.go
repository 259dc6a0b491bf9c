package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// TracedLogger is a structured logger with automatic trace correlation.
// It wraps slog.Logger and adds ingestion run context and OpenTelemetry
// trace correlation to every log entry.
type TracedLogger struct {
	logger          *slog.Logger
	runID           string
	component       string
	redactSensitive bool
}

// NewTracedLogger creates a new TracedLogger with the specified handler and context.
// Every log entry carries the run identifier and the component producing the log,
// plus trace_id/span_id whenever the context holds a recording span.
//
// Parameters:
//   - handler: The slog.Handler to use for formatting and outputting logs
//   - runID: The unique identifier for the current ingestion run
//   - component: The name of the component producing logs (e.g. "node-builder")
//
// Returns:
//   - *TracedLogger: A configured logger ready for use
func NewTracedLogger(handler slog.Handler, runID, component string) *TracedLogger {
	return &TracedLogger{
		logger:          slog.New(handler),
		runID:           runID,
		component:       component,
		redactSensitive: true,
	}
}

// Debug logs a debug-level message with automatic trace correlation.
// Debug logs include all fields without redaction.
func (l *TracedLogger) Debug(ctx context.Context, msg string, args ...any) {
	logger := l.WithContext(ctx)
	logger.Debug(msg, args...)
}

// Info logs an info-level message with automatic trace correlation.
// Sensitive data in args is redacted at info level and above.
func (l *TracedLogger) Info(ctx context.Context, msg string, args ...any) {
	logger := l.WithContext(ctx)
	if l.redactSensitive {
		args = redactSensitiveData(args)
	}
	logger.Info(msg, args...)
}

// Warn logs a warning-level message with automatic trace correlation.
// Sensitive data in args is redacted at warn level and above.
func (l *TracedLogger) Warn(ctx context.Context, msg string, args ...any) {
	logger := l.WithContext(ctx)
	if l.redactSensitive {
		args = redactSensitiveData(args)
	}
	logger.Warn(msg, args...)
}

// Error logs an error-level message with automatic trace correlation.
// Sensitive data in args is redacted at error level.
func (l *TracedLogger) Error(ctx context.Context, msg string, args ...any) {
	logger := l.WithContext(ctx)
	if l.redactSensitive {
		args = redactSensitiveData(args)
	}
	logger.Error(msg, args...)
}

// WithContext creates a new slog.Logger with trace correlation fields added.
// Extracts trace_id and span_id from the OpenTelemetry span in the context
// and adds run_id and component to every log entry.
func (l *TracedLogger) WithContext(ctx context.Context) *slog.Logger {
	logger := l.logger

	logger = logger.With(
		slog.String("run_id", l.runID),
		slog.String("component", l.component),
	)

	// Extract trace context from OpenTelemetry
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()
		logger = logger.With(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}

	return logger
}

// NewJSONHandler creates a new JSON log handler with the specified output and level.
// JSON format is ideal for structured logging in production environments.
func NewJSONHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}

// NewTextHandler creates a new text log handler with the specified output and level.
// Text format is human-readable and useful for development and debugging.
func NewTextHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}

// ParseLevel converts a configuration log level string to a slog.Level.
// Unknown levels default to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// BuildHandler constructs a slog.Handler from a LoggingConfig.
// Output "stdout" and "stderr" map to the process streams; any other value is
// treated as a file path opened in append mode. Falls back to stderr when the
// file cannot be opened.
func BuildHandler(cfg LoggingConfig) slog.Handler {
	var w io.Writer
	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			w = os.Stderr
		} else {
			w = f
		}
	}

	level := ParseLevel(cfg.Level)
	if strings.EqualFold(cfg.Format, "text") {
		return NewTextHandler(w, level)
	}
	return NewJSONHandler(w, level)
}

// redactSensitiveData redacts sensitive fields in log arguments.
// Sensitive fields include: password, secret, token, credential, api_key.
// These fields are replaced with "[REDACTED]" to prevent credential leakage,
// notably graph store passwords surfacing through connection errors.
func redactSensitiveData(args []any) []any {
	if len(args)%2 != 0 {
		// Invalid args, return as-is
		return args
	}

	sensitiveFields := map[string]bool{
		"password":   true,
		"secret":     true,
		"token":      true,
		"credential": true,
		"apikey":     true,
		"secretkey":  true,
	}

	redacted := make([]any, len(args))
	copy(redacted, args)

	for i := 0; i < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			normalizedKey := strings.ToLower(strings.ReplaceAll(key, "_", ""))
			if sensitiveFields[normalizedKey] {
				redacted[i+1] = "[REDACTED]"
			}
		}
	}

	return redacted
}
