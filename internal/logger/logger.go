// Package logger builds the service's structured JSON logger and carries a
// per-request trace ID through context.Context.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

type ctxKey string

const traceIDKey ctxKey = "trace_id"

var traceSeq atomic.Uint64

// Init creates the process logger for service, writing JSON to stdout, and
// installs it as the slog default.
func Init(service string, level slog.Level) *slog.Logger {
	l := New(os.Stdout, service, level)
	slog.SetDefault(l)
	return l
}

// New creates a JSON logger for service writing to w. It does not touch the
// slog default.
func New(w io.Writer, service string, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("service", service))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// WithTraceID stores a trace ID in the context for downstream propagation.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceID extracts the trace ID from context. Returns "" if not set.
func TraceID(ctx context.Context) string {
	if v, ok := ctx.Value(traceIDKey).(string); ok {
		return v
	}
	return ""
}

// GenerateTraceID creates a trace ID "{prefix}-{unixNano}-{seq}". The
// sequence keeps IDs unique within a process when the clock is coarse.
func GenerateTraceID(prefix string, ts time.Time) string {
	return fmt.Sprintf("%s-%d-%d", prefix, ts.UnixNano(), traceSeq.Add(1))
}

// FromContext returns l annotated with the context's trace ID, if any.
func FromContext(ctx context.Context, l *slog.Logger) *slog.Logger {
	if tid := TraceID(ctx); tid != "" {
		return l.With(slog.String("trace_id", tid))
	}
	return l
}
