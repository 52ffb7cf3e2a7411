// Package market is the MarketAnalyzer façade: it owns per-symbol price and
// volume windows, recomputes indicators on every update and records the
// alerts they trigger.
package market

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/anand121shah/tradingbot/internal/alert"
	"github.com/anand121shah/tradingbot/internal/indicator"
	"github.com/anand121shah/tradingbot/internal/model"
	"github.com/anand121shah/tradingbot/internal/ringbuf"
)

// Config tunes the analyzer.
type Config struct {
	HistorySize     int // per-series cap, oldest evicted first
	MinObservations int // analysis is skipped below this many observations
	MaxAlerts       int // alert log cap, 0 = unbounded
	Params          indicator.Params
	Thresholds      alert.Thresholds
}

// DefaultConfig returns a 1000-observation window, a 20-observation minimum
// and an unbounded alert log.
func DefaultConfig() Config {
	return Config{
		HistorySize:     ringbuf.DefaultCapacity,
		MinObservations: 20,
		Params:          indicator.DefaultParams(),
		Thresholds:      alert.DefaultThresholds(),
	}
}

// Publisher receives newly emitted alerts after they are logged.
// alert.Dispatcher satisfies it.
type Publisher interface {
	Submit(alerts ...model.Alert)
}

// series holds one symbol's windows. mu serialises append, truncate and
// analyze for that symbol.
type series struct {
	mu      sync.Mutex
	prices  *ringbuf.Ring
	volumes *ringbuf.Ring
}

// Analyzer is safe for concurrent use. Updates to different symbols run in
// parallel; updates to the same symbol are serialised.
type Analyzer struct {
	cfg    Config
	engine *indicator.Engine
	rules  *alert.Rules
	alerts *alert.Log
	logger *slog.Logger

	mu     sync.RWMutex
	series map[string]*series

	pub Publisher

	// OnAnalyze, if set, is called after each analysis pass with its
	// duration and the number of alerts emitted.
	OnAnalyze func(symbol string, took time.Duration, emitted int)
}

// NewAnalyzer creates an analyzer. A nil logger uses slog.Default().
func NewAnalyzer(cfg Config, logger *slog.Logger) *Analyzer {
	if cfg.HistorySize < 1 {
		cfg.HistorySize = ringbuf.DefaultCapacity
	}
	if cfg.MinObservations < 1 {
		cfg.MinObservations = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		cfg:    cfg,
		engine: indicator.NewEngine(cfg.Params),
		rules:  alert.NewRules(cfg.Thresholds, nil),
		alerts: alert.NewLog(cfg.MaxAlerts),
		logger: logger.With(slog.String("component", "market")),
		series: make(map[string]*series),
	}
}

// SetPublisher attaches a publisher for emitted alerts. Call before serving.
func (a *Analyzer) SetPublisher(p Publisher) { a.pub = p }

// getOrCreate returns the symbol's series, creating it on first sight.
func (a *Analyzer) getOrCreate(symbol string) *series {
	a.mu.RLock()
	s, ok := a.series[symbol]
	a.mu.RUnlock()
	if ok {
		return s
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if s, ok = a.series[symbol]; ok {
		return s
	}
	s = &series{
		prices:  ringbuf.New(a.cfg.HistorySize),
		volumes: ringbuf.New(a.cfg.HistorySize),
	}
	a.series[symbol] = s
	a.logger.Debug("tracking new symbol", slog.String("symbol", symbol))
	return s
}

func (a *Analyzer) lookup(symbol string) (*series, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.series[symbol]
	return s, ok
}

// UpdateMarketData records one price and one volume observation for symbol
// and, once the window holds at least MinObservations, recomputes indicators
// and evaluates alert rules. Returns the alerts emitted by this update.
func (a *Analyzer) UpdateMarketData(symbol string, price, volume float64, ts time.Time) []model.Alert {
	s := a.getOrCreate(symbol)

	s.mu.Lock()
	s.prices.Push(model.Observation{Value: price, TS: ts})
	s.volumes.Push(model.Observation{Value: volume, TS: ts})

	if s.prices.Len() < a.cfg.MinObservations {
		s.mu.Unlock()
		return nil
	}

	start := time.Now()
	snap := a.engine.Compute(s.prices.Values(), s.volumes.Values())
	emitted := a.rules.Evaluate(symbol, price, snap)
	a.alerts.Append(emitted...)
	s.mu.Unlock()

	if a.OnAnalyze != nil {
		a.OnAnalyze(symbol, time.Since(start), len(emitted))
	}
	if len(emitted) > 0 {
		a.logger.Info("alerts emitted",
			slog.String("symbol", symbol),
			slog.Int("count", len(emitted)),
			slog.Float64("price", price))
		if a.pub != nil {
			a.pub.Submit(emitted...)
		}
	}
	return emitted
}

// Alerts returns the alert log filtered by symbol and priority, in emission
// order. Empty arguments match everything.
func (a *Analyzer) Alerts(symbol string, priority model.Priority) []model.Alert {
	return a.alerts.Filter(alert.Filter{Symbol: symbol, Priority: priority})
}

// AlertCount returns the number of alerts held in the log.
func (a *Analyzer) AlertCount() int { return a.alerts.Len() }

// Symbols returns every tracked symbol, sorted.
func (a *Analyzer) Symbols() []string {
	a.mu.RLock()
	out := make([]string, 0, len(a.series))
	for sym := range a.series {
		out = append(out, sym)
	}
	a.mu.RUnlock()
	sort.Strings(out)
	return out
}

// SeriesLen returns how many observations symbol currently holds.
func (a *Analyzer) SeriesLen(symbol string) int {
	s, ok := a.lookup(symbol)
	if !ok {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prices.Len()
}

// History returns copies of symbol's price and volume windows, oldest first.
func (a *Analyzer) History(symbol string) (prices, volumes []model.Observation, ok bool) {
	s, ok := a.lookup(symbol)
	if !ok {
		return nil, nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prices.Snapshot(), s.volumes.Snapshot(), true
}
