// Package logger provides the process-wide structured logger built on log/slog.
//
// WithCtx returns the per-request logger injected by the Logger middleware,
// so every line written from a handler or service carries the request id:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("order created", "order_id", order.ID)
//	// → time=... level=INFO msg="order created" request_id=1f0c... order_id=12
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

var L *slog.Logger

func init() {
	Setup("local", "", os.Stdout)
}

// Setup replaces the base logger. Production environments get JSON output at
// INFO, everything else human-readable text at DEBUG. A non-empty level
// overrides the environment default.
func Setup(env, level string, w io.Writer) {
	prod := false
	switch strings.ToLower(env) {
	case "production", "prod":
		prod = true
	}

	var lvl slog.Level = slog.LevelDebug
	if prod {
		lvl = slog.LevelInfo
	}
	if level != "" {
		_ = lvl.UnmarshalText([]byte(level))
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if prod {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	L = slog.New(handler)
	slog.SetDefault(L)
}

// ctxKey is the unexported key used to store a per-request *slog.Logger.
type ctxKey struct{}

// WithCtx returns the logger stored in ctx, or the base logger.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
// Called by the Logger middleware.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }
