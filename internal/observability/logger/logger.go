package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"lgpd-site-api/internal/observability/requestid"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const (
	loggerContextKey    contextKey = "logger"
	rootErrorContextKey contextKey = "root_err"
)

const redactedValue = "[REDACTED]"

// forbiddenKeys lista chaves que nunca devem chegar ao log em claro.
// Dados pessoais de formulários entram aqui por exigência da LGPD.
var forbiddenKeys = map[string]bool{
	// credenciais
	"authorization":    true,
	"token":            true,
	"password":         true,
	"secret":           true,
	"api_key":          true,
	"apikey":           true,
	"service_role_key": true,
	"database_url":     true,
	"bearer":           true,
	"credential":       true,

	// dados pessoais
	"email":       true,
	"phone":       true,
	"telefone":    true,
	"name":        true,
	"nome":        true,
	"full_name":   true,
	"cnpj":        true,
	"message":     true,
	"observacoes": true,
	"address":     true,
	"ip_address":  true,
}

type rootErrorContainer struct {
	err error
}

// Logger wraps zap.Logger to enforce structured logging standards
type Logger struct {
	zap         *zap.Logger
	serviceName string
}

// Field represents a structured log field
type Field = zapcore.Field

// New creates a JSON logger writing to stdout.
// level: "debug", "info", "warn", "error"
func New(serviceName string, level string) (*Logger, error) {
	return NewWithWriter(serviceName, level, os.Stdout)
}

// NewWithWriter creates a JSON logger writing to w.
func NewWithWriter(serviceName string, level string, w io.Writer) (*Logger, error) {
	if serviceName == "" {
		return nil, fmt.Errorf("serviceName is required")
	}
	if w == nil {
		return nil, fmt.Errorf("writer is required")
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(parseLevel(level)),
	)

	z := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2)).
		With(zap.String("service", serviceName))

	return &Logger{
		zap:         z,
		serviceName: serviceName,
	}, nil
}

// NewNop returns a logger that discards everything. Useful in tests.
func NewNop() *Logger {
	return &Logger{zap: zap.NewNop(), serviceName: "nop"}
}

// Module returns a field for the module/component
func Module(name string) Field {
	return zap.String("module", name)
}

// Action returns a field for the action/operation
func Action(name string) Field {
	return zap.String("action", name)
}

// Info logs an info message; module and action default to "unknown"
func (l *Logger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.InfoLevel, msg, fields...)
}

// Warn logs a warning message
func (l *Logger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.WarnLevel, msg, fields...)
}

// Error logs an error message
func (l *Logger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.ErrorLevel, msg, fields...)
}

// Debug logs a debug message
func (l *Logger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, zapcore.DebugLevel, msg, fields...)
}

func (l *Logger) log(ctx context.Context, level zapcore.Level, msg string, fields ...Field) {
	ce := l.zap.Check(level, msg)
	if ce == nil {
		return
	}

	sanitized := sanitizeFields(fields)

	hasModule, hasAction := false, false
	for _, f := range sanitized {
		switch f.Key {
		case "module":
			hasModule = true
		case "action":
			hasAction = true
		}
	}
	if !hasModule {
		sanitized = append(sanitized, zap.String("module", "unknown"))
	}
	if !hasAction {
		sanitized = append(sanitized, zap.String("action", "unknown"))
	}

	all := make([]Field, 0, len(sanitized)+1)
	if ctx != nil {
		if reqID := requestid.GetRequestID(ctx); reqID != "" {
			all = append(all, zap.String("request_id", reqID))
		}
	}
	all = append(all, sanitized...)

	ce.Write(all...)
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// sanitizeFields replaces forbidden keys with a redaction marker.
func sanitizeFields(fields []Field) []Field {
	sanitized := make([]Field, 0, len(fields))
	for _, field := range fields {
		if forbiddenKeys[strings.ToLower(field.Key)] {
			sanitized = append(sanitized, zap.String(field.Key, redactedValue))
			continue
		}
		sanitized = append(sanitized, field)
	}
	return sanitized
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// GetRequestIDFromContext is a shortcut to requestid.GetRequestID.
func GetRequestIDFromContext(ctx context.Context) string {
	return requestid.GetRequestID(ctx)
}

// GetLogger retrieves logger from context or returns a fallback one
func GetLogger(ctx context.Context) *Logger {
	if v := ctx.Value(loggerContextKey); v != nil {
		if logger, ok := v.(*Logger); ok {
			return logger
		}
	}
	logger, err := New("lgpd-site-api", "info")
	if err != nil {
		return NewNop()
	}
	return logger
}

// SetLoggerInContext stores logger in context
func SetLoggerInContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// InitRootErrorContext initializes context with a pointer to hold the root error
func InitRootErrorContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, rootErrorContextKey, &rootErrorContainer{})
}

// SetRootError records the root cause so the request log can report it
func SetRootError(ctx context.Context, err error) {
	if container, ok := ctx.Value(rootErrorContextKey).(*rootErrorContainer); ok {
		container.err = err
	}
}

// GetRootError retrieves the root cause error from the context container
func GetRootError(ctx context.Context) error {
	if container, ok := ctx.Value(rootErrorContextKey).(*rootErrorContainer); ok {
		return container.err
	}
	return nil
}
