package model

import (
	"context"
	"time"
)

// ── Storage Port Interfaces ──
// These decouple the analysis cores from Redis and SQLite.

// AlertSink receives alerts emitted by the market analyzer.
type AlertSink interface {
	// Name identifies the sink in logs and metrics.
	Name() string

	// Deliver hands off a single alert. Implementations must not retain a.Data.
	Deliver(ctx context.Context, a Alert) error
}

// TickRecorder persists raw ticks for later replay.
type TickRecorder interface {
	RecordTick(ctx context.Context, t Tick) error
}

// TickReader reads recorded ticks in timestamp order.
type TickReader interface {
	// ReadTicks returns ticks for symbol (all symbols if empty) in [from, to).
	// A zero to means no upper bound.
	ReadTicks(ctx context.Context, symbol string, from, to time.Time) ([]Tick, error)

	// Close releases underlying resources.
	Close() error
}
