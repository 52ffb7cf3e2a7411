package alert

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/anand121shah/tradingbot/internal/model"
)

const defaultDeliverTimeout = 5 * time.Second

// Dispatcher fans alerts out to every registered sink. Each sink has its own
// buffered queue drained by its own goroutine; when a queue is full the alert
// is dropped for that sink only, so one slow sink never blocks the others or
// the caller.
type Dispatcher struct {
	mu      sync.RWMutex
	sinks   []model.AlertSink
	queues  []chan model.Alert
	bufSize int
	started bool

	log *slog.Logger

	// OnDrop is called when an alert is dropped for a full sink queue.
	OnDrop func(sink string)
	// OnDeliver is called after each delivery attempt; err is nil on success.
	OnDeliver func(sink string, err error)
	// DeliverTimeout bounds a single Deliver call. Zero uses 5s.
	DeliverTimeout time.Duration
}

// NewDispatcher creates a dispatcher whose per-sink queues hold bufSize alerts.
func NewDispatcher(bufSize int, logger *slog.Logger) *Dispatcher {
	if bufSize < 1 {
		bufSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{bufSize: bufSize, log: logger}
}

// AddSink registers a sink. Sinks must be added before Run.
func (d *Dispatcher) AddSink(s model.AlertSink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		d.log.Warn("sink added after start, ignoring", slog.String("sink", s.Name()))
		return
	}
	d.sinks = append(d.sinks, s)
	d.queues = append(d.queues, make(chan model.Alert, d.bufSize))
}

// Sinks returns the names of registered sinks.
func (d *Dispatcher) Sinks() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, len(d.sinks))
	for i, s := range d.sinks {
		names[i] = s.Name()
	}
	return names
}

// Submit enqueues alerts for every sink without blocking.
func (d *Dispatcher) Submit(alerts ...model.Alert) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, a := range alerts {
		for i, q := range d.queues {
			select {
			case q <- a.Clone():
			default:
				name := d.sinks[i].Name()
				if d.OnDrop != nil {
					d.OnDrop(name)
				}
				d.log.Warn("alert queue full, dropping",
					slog.String("sink", name),
					slog.String("symbol", a.Symbol),
					slog.String("alert_type", string(a.Type)))
			}
		}
	}
}

// Run starts one worker per sink and blocks until ctx is cancelled and every
// worker has flushed what was queued at that point.
func (d *Dispatcher) Run(ctx context.Context) {
	d.mu.Lock()
	d.started = true
	sinks := append([]model.AlertSink(nil), d.sinks...)
	queues := append([]chan model.Alert(nil), d.queues...)
	d.mu.Unlock()

	var wg sync.WaitGroup
	for i := range sinks {
		wg.Add(1)
		go func(s model.AlertSink, q <-chan model.Alert) {
			defer wg.Done()
			d.drain(ctx, s, q)
		}(sinks[i], queues[i])
	}
	wg.Wait()
}

func (d *Dispatcher) drain(ctx context.Context, s model.AlertSink, q <-chan model.Alert) {
	for {
		select {
		case <-ctx.Done():
			d.flush(s, q)
			return
		case a := <-q:
			d.deliver(s, a)
		}
	}
}

// flush delivers whatever is left in q without waiting for more.
func (d *Dispatcher) flush(s model.AlertSink, q <-chan model.Alert) {
	n := 0
	for {
		select {
		case a := <-q:
			d.deliver(s, a)
			n++
		default:
			if n > 0 {
				d.log.Info("flushed queued alerts", slog.String("sink", s.Name()), slog.Int("count", n))
			}
			return
		}
	}
}

// deliver bounds each call by DeliverTimeout alone, so alerts picked up
// after cancellation still reach the sink.
func (d *Dispatcher) deliver(s model.AlertSink, a model.Alert) {
	timeout := d.DeliverTimeout
	if timeout <= 0 {
		timeout = defaultDeliverTimeout
	}
	dctx, cancel := context.WithTimeout(context.Background(), timeout)
	err := s.Deliver(dctx, a)
	cancel()
	if err != nil {
		d.log.Error("alert delivery failed",
			slog.String("sink", s.Name()),
			slog.String("symbol", a.Symbol),
			slog.Any("error", err))
	}
	if d.OnDeliver != nil {
		d.OnDeliver(s.Name(), err)
	}
}
