package log

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// NewContext returns ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// Middleware stores the logger, enriched with the request ID, in the
// request context and logs the outcome of every request.
func Middleware(logger *Logger, requestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLogger := logger.WithComponent(ComponentHTTP)
			if requestID != nil {
				if id := requestID(r); id != "" {
					reqLogger = reqLogger.With(FieldRequestID, id)
				}
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(NewContext(r.Context(), reqLogger)))

			LogHTTPEnd(r.Context(), reqLogger, r, rec.status, time.Since(start).Milliseconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// LogHTTPEnd logs the completion of an HTTP request at a level matching
// its status.
func LogHTTPEnd(ctx context.Context, logger *Logger, r *http.Request, statusCode int, durationMs int64) {
	level := slog.LevelInfo
	if statusCode >= 400 && statusCode < 500 {
		level = slog.LevelWarn
	} else if statusCode >= 500 {
		level = slog.LevelError
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "").
		WithHTTPResponse(statusCode, durationMs)

	logger.Logger.Log(ctx, level, "HTTP request completed", logger.stamp(fields.ToSlice())...)
}

// LogError logs an error with structured context
func LogError(ctx context.Context, msg string, err error, errorType, operation string) {
	fields := NewFields().
		WithError(err, errorType).
		WithOperation(operation)
	FromContext(ctx).ErrorContext(ctx, msg, fields.ToSlice()...)
}
