package observability

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultLogLevel = "info"

type contextKey string

const loggerContextKey contextKey = "finitefield.org/catalog-web/internal/observability/logger"

var noopLogger = zap.NewNop()

// NewLogger constructs a zap logger emitting structured JSON to stdout.
func NewLogger() (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))))); err != nil {
		_ = level.UnmarshalText([]byte(defaultLogLevel))
	}

	encoderCfg := zapcore.EncoderConfig{
		MessageKey: "message",
		TimeKey:    "timestamp",
		LevelKey:   "severity",
		NameKey:    "logger",
		EncodeTime: zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(strings.ToUpper(level.String()))
		},
		CallerKey:     "caller",
		EncodeCaller:  zapcore.ShortCallerEncoder,
		StacktraceKey: "stacktrace",
	}

	cfg := zap.Config{
		Level:             level,
		Encoding:          "json",
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}
	return cfg.Build()
}

// WithLogger stores the logger on ctx.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = noopLogger
	}
	return context.WithValue(ctx, loggerContextKey, logger)
}

// FromContext retrieves the logger from ctx, defaulting to a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return noopLogger
	}
	if logger, ok := ctx.Value(loggerContextKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return noopLogger
}

// RetryLogger adapts zap to the leveled logger interface of the retrying HTTP client.
type RetryLogger struct {
	logger *zap.SugaredLogger
}

// NewRetryLogger wraps logger; nil yields a no-op.
func NewRetryLogger(logger *zap.Logger) RetryLogger {
	if logger == nil {
		logger = noopLogger
	}
	return RetryLogger{logger: logger.Sugar()}
}

func (l RetryLogger) Error(msg string, keysAndValues ...any) { l.logger.Errorw(msg, keysAndValues...) }
func (l RetryLogger) Info(msg string, keysAndValues ...any)  { l.logger.Debugw(msg, keysAndValues...) }
func (l RetryLogger) Debug(msg string, keysAndValues ...any) { l.logger.Debugw(msg, keysAndValues...) }
func (l RetryLogger) Warn(msg string, keysAndValues ...any)  { l.logger.Warnw(msg, keysAndValues...) }
