package signal

import (
	"log/slog"
	"sort"
	"sync"
)

// Desk builds validated signals and tracks trades that are currently active,
// one per symbol.
type Desk struct {
	validator *Validator
	logger    *slog.Logger

	mu     sync.RWMutex
	active map[string]TradeSignal
}

// NewDesk creates a desk that validates through v.
func NewDesk(v *Validator, logger *slog.Logger) *Desk {
	if logger == nil {
		logger = slog.Default()
	}
	return &Desk{
		validator: v,
		logger:    logger.With(slog.String("component", "desk")),
		active:    make(map[string]TradeSignal),
	}
}

// GenerateSignal validates sig and returns it with the decision. The returned
// signal is only meaningful when d.Approved is true.
func (d *Desk) GenerateSignal(sig TradeSignal) (TradeSignal, Decision) {
	dec := d.validator.Evaluate(sig)
	if dec.Approved {
		d.logger.Info("valid trade signal generated", slog.String("symbol", sig.Symbol))
	} else {
		d.logger.Warn("invalid trade signal", slog.String("symbol", sig.Symbol))
	}
	return sig, dec
}

// AddActiveTrade records sig as active, replacing any trade for the same symbol.
func (d *Desk) AddActiveTrade(sig TradeSignal) {
	d.mu.Lock()
	d.active[sig.Symbol] = sig
	d.mu.Unlock()
	d.logger.Info("added active trade", slog.String("symbol", sig.Symbol))
}

// RemoveActiveTrade drops the active trade for symbol. Returns false if none.
func (d *Desk) RemoveActiveTrade(symbol string) bool {
	d.mu.Lock()
	_, ok := d.active[symbol]
	delete(d.active, symbol)
	d.mu.Unlock()
	if ok {
		d.logger.Info("removed active trade", slog.String("symbol", symbol))
	}
	return ok
}

// ActiveTrade returns the active trade for symbol.
func (d *Desk) ActiveTrade(symbol string) (TradeSignal, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	sig, ok := d.active[symbol]
	return sig, ok
}

// ActiveTrades returns a copy of all active trades sorted by symbol.
func (d *Desk) ActiveTrades() []TradeSignal {
	d.mu.RLock()
	out := make([]TradeSignal, 0, len(d.active))
	for _, sig := range d.active {
		out = append(out, sig)
	}
	d.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}
