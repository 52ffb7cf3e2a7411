// Package notification delivers market alerts to external channels
// (Telegram, webhooks, the process log).
package notification

import (
	"context"
	"log/slog"

	"github.com/anand121shah/tradingbot/internal/model"
)

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert model.Alert) error
}

// Sink adapts a Notifier to model.AlertSink and drops alerts ranked
// below MinPriority.
type Sink struct {
	name        string
	notifier    Notifier
	minPriority model.Priority
}

// NewSink wraps n. An empty or unknown minPriority forwards everything.
func NewSink(name string, n Notifier, minPriority model.Priority) *Sink {
	return &Sink{name: name, notifier: n, minPriority: minPriority}
}

func (s *Sink) Name() string { return s.name }

// Deliver implements model.AlertSink.
func (s *Sink) Deliver(ctx context.Context, a model.Alert) error {
	if a.Priority.Rank() < s.minPriority.Rank() {
		return nil
	}
	return s.notifier.Send(ctx, a)
}

// LogNotifier is a simple notifier that logs alerts (useful for development).
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-based notifier. A nil logger uses slog.Default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, alert model.Alert) error {
	n.logger.InfoContext(ctx, "alert",
		"symbol", alert.Symbol,
		"alert_type", string(alert.Type),
		"priority", string(alert.Priority),
		"message", alert.Message,
	)
	return nil
}
