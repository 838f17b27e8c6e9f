// Package log is the structured logger used across the SDK.
//
// Components receive a Logger explicitly or pull one from a context with
// FromContext. ZapLogger writes console, logfmt or json records; NoopLogger
// drops everything and is what FromContext hands out when nothing was set.
// When the context carries a live OpenTelemetry span, SetContextLogger wraps
// the logger in a SpanLogger so every record also lands on the span.
//
//	lg := log.NewZapLogger(log.Config{Format: "logfmt", Level: log.LevelDebug})
//	ctx = log.SetContextLogger(ctx, lg.WithName("service"))
//	log.FromContext(ctx).Info("fetched block number", "group", 1, "height", h)
package log

// Logger records messages with alternating key/value context.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	// Fatal logs and then terminates the process for the zap implementation.
	Fatal(msg string, keysAndValues ...any)

	// WithKV returns a child logger that attaches key=value to every record.
	WithKV(key string, value any) Logger
	// GetAllKV returns the pairs attached through WithKV.
	GetAllKV() []any
	// WithName returns a child logger whose name is appended with a dot.
	WithName(name string) Logger
	Name() string
	// AddCallerSkip hides skip more frames when reporting the call site.
	AddCallerSkip(skip int) Logger
}

// Level is the minimum severity a ZapLogger emits.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

// SpanEventRecorder receives log records that should also be attached to a
// trace span.
type SpanEventRecorder interface {
	TraceID() string
	SpanID() string
	RecordEvent(name string, keysAndValues ...any)
	RecordError(name string, keysAndValues ...any)
}
