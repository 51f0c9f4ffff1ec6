package observability

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/pathhint/internal/util"
)

// Logger is the structured logger every package receives.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	With(fields ...Field) Logger
	WithContext(ctx context.Context) Logger
	Sync() error
}

// Field is a single structured log field.
type Field = zap.Field

// Field constructors.
var (
	String   = zap.String
	Int      = zap.Int
	Int64    = zap.Int64
	Bool     = zap.Bool
	Error    = zap.Error
	Any      = zap.Any
	Duration = zap.Duration
	Time     = zap.Time
)

// Log formats and outputs accepted by NewLogger.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
	OutputStdout  = "stdout"
	OutputStderr  = "stderr"
)

// LogConfig selects level, encoding and destination. A non-empty Service
// is attached to every entry.
type LogConfig struct {
	Level   string
	Format  string
	Output  string
	Service string
}

// DefaultLogConfig returns info-level JSON on stdout.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: FormatJSON,
		Output: OutputStdout,
	}
}

// NewLogger builds a zap-backed Logger. Empty Format and Output fall back
// to JSON on stdout.
func NewLogger(cfg LogConfig) (Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, err
	}

	encoder, err := newEncoder(cfg.Format)
	if err != nil {
		return nil, err
	}

	sink, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}

	logger := NewLoggerFromCore(zapcore.NewCore(encoder, sink, level))
	if cfg.Service != "" {
		logger = logger.With(String("service", cfg.Service))
	}
	return logger, nil
}

func newEncoder(format string) (zapcore.Encoder, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.MessageKey = "message"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.MillisDurationEncoder

	switch format {
	case "", FormatJSON:
		return zapcore.NewJSONEncoder(encCfg), nil
	case FormatConsole:
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(encCfg), nil
	default:
		return nil, fmt.Errorf("unsupported log format %q", format)
	}
}

func openOutput(output string) (zapcore.WriteSyncer, error) {
	switch output {
	case "", OutputStdout:
		return zapcore.Lock(os.Stdout), nil
	case OutputStderr:
		return zapcore.Lock(os.Stderr), nil
	default:
		return nil, fmt.Errorf("unsupported log output %q", output)
	}
}

// zapAdapter implements Logger. Every level goes through log, so callers
// sit two frames above zap.
type zapAdapter struct {
	z *zap.Logger
}

const adapterCallerSkip = 2

// NewLoggerFromCore wraps an existing zap core. Tests use it with
// zaptest/observer to capture entries.
func NewLoggerFromCore(core zapcore.Core) Logger {
	return &zapAdapter{z: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(adapterCallerSkip))}
}

// NopLogger returns a logger that discards all output.
func NopLogger() Logger {
	return &zapAdapter{z: zap.NewNop()}
}

func (l *zapAdapter) log(level zapcore.Level, msg string, fields []Field) {
	if ce := l.z.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

func (l *zapAdapter) Debug(msg string, fields ...Field) { l.log(zapcore.DebugLevel, msg, fields) }
func (l *zapAdapter) Info(msg string, fields ...Field)  { l.log(zapcore.InfoLevel, msg, fields) }
func (l *zapAdapter) Warn(msg string, fields ...Field)  { l.log(zapcore.WarnLevel, msg, fields) }
func (l *zapAdapter) Error(msg string, fields ...Field) { l.log(zapcore.ErrorLevel, msg, fields) }

// Fatal logs and exits the process.
func (l *zapAdapter) Fatal(msg string, fields ...Field) { l.log(zapcore.FatalLevel, msg, fields) }

func (l *zapAdapter) With(fields ...Field) Logger {
	return &zapAdapter{z: l.z.With(fields...)}
}

// WithContext attaches what ctx carries about the connection (id, start
// time, matched route) and its trace and span ids. It returns l itself
// when ctx carries none.
func (l *zapAdapter) WithContext(ctx context.Context) Logger {
	fields := contextFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}

func (l *zapAdapter) Sync() error {
	return l.z.Sync()
}

// Logr exposes l as a logr.Logger for libraries that log through logr.
// Loggers not built by this package yield a discarding logr.
func Logr(l Logger) logr.Logger {
	if za, ok := l.(*zapAdapter); ok {
		return zapr.NewLogger(za.z.WithOptions(zap.AddCallerSkip(-adapterCallerSkip)))
	}
	return logr.Discard()
}

// logFields holds the trace and span ids StartSpan records on a context.
type logFields struct {
	traceID string
	spanID  string
}

type logFieldsKey struct{}

func logFieldsFrom(ctx context.Context) logFields {
	lf, _ := ctx.Value(logFieldsKey{}).(logFields)
	return lf
}

func withLogFields(ctx context.Context, update func(*logFields)) context.Context {
	lf := logFieldsFrom(ctx)
	update(&lf)
	return context.WithValue(ctx, logFieldsKey{}, lf)
}

func contextFields(ctx context.Context) []Field {
	var fields []Field
	if id := util.ConnectionIDFromContext(ctx); id != "" {
		fields = append(fields, String("connection_id", id))
	}
	if start := util.StartTimeFromContext(ctx); !start.IsZero() {
		fields = append(fields, Time("connection_start", start))
	}
	if route := util.RouteFromContext(ctx); route != "" {
		fields = append(fields, String("route", route))
	}

	lf := logFieldsFrom(ctx)
	if lf.traceID != "" {
		fields = append(fields, String("trace_id", lf.traceID))
	}
	if lf.spanID != "" {
		fields = append(fields, String("span_id", lf.spanID))
	}
	return fields
}

// ContextWithTraceID records the trace id for WithContext.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return withLogFields(ctx, func(lf *logFields) { lf.traceID = traceID })
}

// TraceIDFromContext returns the recorded trace id, if any.
func TraceIDFromContext(ctx context.Context) string {
	return logFieldsFrom(ctx).traceID
}

// ContextWithSpanID records the span id for WithContext.
func ContextWithSpanID(ctx context.Context, spanID string) context.Context {
	return withLogFields(ctx, func(lf *logFields) { lf.spanID = spanID })
}

// SpanIDFromContext returns the recorded span id, if any.
func SpanIDFromContext(ctx context.Context) string {
	return logFieldsFrom(ctx).spanID
}

type loggerBox struct {
	logger Logger
}

var globalLogger atomic.Pointer[loggerBox]

// SetGlobalLogger installs the process-wide logger. nil resets it.
func SetGlobalLogger(logger Logger) {
	if logger == nil {
		globalLogger.Store(nil)
		return
	}
	globalLogger.Store(&loggerBox{logger: logger})
}

// GetGlobalLogger returns the process-wide logger, or a no-op logger
// before SetGlobalLogger.
func GetGlobalLogger() Logger {
	if box := globalLogger.Load(); box != nil {
		return box.logger
	}
	return NopLogger()
}

// L is shorthand for GetGlobalLogger.
func L() Logger {
	return GetGlobalLogger()
}
