// Package logging provides structured logging using Go's slog package.
//
// Logs describe what the checker did (fetches, cache activity, job
// progress). Notices are results, not log records, and are never logged.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// RequestIDKey is the context key for HTTP request IDs.
	RequestIDKey ContextKey = "request_id"
	// SessionIDKey is the context key for check session IDs.
	SessionIDKey ContextKey = "session_id"
)

var (
	// defaultLogger is the global logger instance.
	defaultLogger *slog.Logger
)

func init() {
	InitLogger(LevelInfo, FormatText)
}

// Level represents a log level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Format represents a log output format.
type Format int

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON Format = iota
	// FormatText outputs logs in human-readable text format.
	FormatText
)

// ParseLevel converts "debug", "info", "warn" or "error".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// ParseFormat converts "json" or "text".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "", "text":
		return FormatText, nil
	}
	return FormatText, fmt.Errorf("unknown log format %q", s)
}

// InitLogger initializes the global logger writing to stderr. Stdout is
// reserved for check results.
func InitLogger(level Level, format Format) {
	InitLoggerTo(os.Stderr, level, format)
}

// InitLoggerTo initializes the global logger writing to w.
func InitLoggerTo(w io.Writer, level Level, format Format) {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// NewSessionID returns a fresh identifier for one check run.
func NewSessionID() string {
	return uuid.NewString()
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithSessionID adds a check session ID to the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// GetSessionID retrieves the check session ID from the context.
func GetSessionID(ctx context.Context) string {
	if sessionID, ok := ctx.Value(SessionIDKey).(string); ok {
		return sessionID
	}
	return ""
}

// LoggerFromContext returns a logger with context values attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := defaultLogger
	if ctx == nil {
		return logger
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		logger = logger.With("request_id", requestID)
	}
	if sessionID := GetSessionID(ctx); sessionID != "" {
		logger = logger.With("session_id", sessionID)
	}
	return logger
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

func DebugContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Debug(msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Info(msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Warn(msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Error(msg, args...)
}

// CheckStarted logs the start of a file, repo or book package check.
func CheckStarted(ctx context.Context, kind, target string, args ...any) {
	allArgs := []any{
		"kind", kind,
		"target", target,
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Info("check_started", allArgs...)
}

// CheckFinished logs the outcome of a check.
func CheckFinished(ctx context.Context, kind, target string, notices, files int, elapsed time.Duration, args ...any) {
	allArgs := []any{
		"kind", kind,
		"target", target,
		"notice_count", notices,
		"file_count", files,
		"duration_ms", elapsed.Milliseconds(),
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Info("check_finished", allArgs...)
}

// FetchFailed logs a fetch that degraded into a notice.
func FetchFailed(ctx context.Context, username, repository, path, branch string, err error, args ...any) {
	allArgs := []any{
		"username", username,
		"repository", repository,
		"path", path,
		"branch", branch,
		"error", err.Error(),
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Warn("fetch_failed", allArgs...)
}

// LinkChecked logs one linked-resource resolution. cached is true when
// the "already checked" set short-circuited the fetch.
func LinkChecked(ctx context.Context, target string, cached bool, args ...any) {
	allArgs := []any{
		"target", target,
		"cached", cached,
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Debug("link_checked", allArgs...)
}

// CacheCleared logs a cache reset.
func CacheCleared(ctx context.Context, cache string, entries int, args ...any) {
	allArgs := []any{
		"cache", cache,
		"entries", entries,
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Info("cache_cleared", allArgs...)
}

// HTTPRequest logs an HTTP request with common fields.
func HTTPRequest(method, path, remoteAddr string, statusCode int, duration time.Duration, args ...any) {
	HTTPRequestContext(context.Background(), method, path, remoteAddr, statusCode, duration, args...)
}

// HTTPRequestContext logs an HTTP request with context and common fields.
func HTTPRequestContext(ctx context.Context, method, path, remoteAddr string, statusCode int, duration time.Duration, args ...any) {
	allArgs := []any{
		"method", method,
		"path", path,
		"remote_addr", remoteAddr,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Info("http_request", allArgs...)
}

// WebSocketEvent logs WebSocket events.
func WebSocketEvent(event string, clientCount int, args ...any) {
	allArgs := []any{
		"event", event,
		"client_count", clientCount,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("websocket_event", allArgs...)
}

// ServerStartup logs server startup information.
func ServerStartup(serverType, protocol string, port int, args ...any) {
	allArgs := []any{
		"server_type", serverType,
		"protocol", protocol,
		"port", port,
	}
	allArgs = append(allArgs, args...)
	defaultLogger.Info("server_startup", allArgs...)
}
