package portfolio

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
)

// Risk gate and input errors.
var (
	ErrPositionRiskExceeded  = errors.New("position risk exceeds maximum allowed")
	ErrPortfolioRiskExceeded = errors.New("portfolio risk would exceed maximum allowed")
	ErrInvalidPosition       = errors.New("invalid position")
)

// RiskLimits defines the risk budgets as fractions of portfolio value.
type RiskLimits struct {
	MaxPositionRisk  float64 `json:"max_position_risk"`
	MaxPortfolioRisk float64 `json:"max_portfolio_risk"`
	RiskFreeRate     float64 `json:"risk_free_rate"`
	VaRConfidence    float64 `json:"var_confidence"`
}

// DefaultRiskLimits returns 1% per position, 2% per portfolio, a 2%
// risk-free rate and 95% VaR.
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		MaxPositionRisk:  0.01,
		MaxPortfolioRisk: 0.02,
		RiskFreeRate:     0.02,
		VaRConfidence:    0.95,
	}
}

// RiskMetrics are derived point-in-time estimates over the open positions.
type RiskMetrics struct {
	PortfolioBeta       float64 `json:"portfolio_beta"`
	PortfolioVolatility float64 `json:"portfolio_volatility"`
	ValueAtRisk         float64 `json:"value_at_risk"`
	MaxDrawdown         float64 `json:"max_drawdown"`
	SharpeRatio         float64 `json:"sharpe_ratio"`
}

// PositionReport is the per-symbol part of a RiskReport.
type PositionReport struct {
	PositionSize   float64 `json:"position_size"`
	RiskAmount     float64 `json:"risk_amount"`
	RiskPercentage float64 `json:"risk_percentage"`
	UnrealizedPnL  float64 `json:"unrealized_pnl"`
}

// RiskReport is a consistent snapshot of the ledger.
type RiskReport struct {
	PortfolioValue    float64                   `json:"portfolio_value"`
	NumberOfPositions int                       `json:"number_of_positions"`
	TotalPositionRisk float64                   `json:"total_position_risk"`
	RiskMetrics       RiskMetrics               `json:"risk_metrics"`
	Positions         map[string]PositionReport `json:"positions"`
}

// Ledger owns the open positions and their risk metrics. All methods are
// safe for concurrent use; each mutation and its recompute happen under one
// write lock.
type Ledger struct {
	mu             sync.RWMutex
	limits         RiskLimits
	portfolioValue float64
	positions      map[string]*PositionRisk
	metrics        RiskMetrics

	logger *slog.Logger

	// OnRecompute, if set, is called (under the write lock) after every
	// recompute with the position count, total risk and fresh metrics.
	OnRecompute func(positions int, totalRisk float64, m RiskMetrics)
}

// NewLedger creates a ledger for a portfolio of the given value.
func NewLedger(limits RiskLimits, portfolioValue float64, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		limits:         limits,
		portfolioValue: portfolioValue,
		positions:      make(map[string]*PositionRisk),
		logger:         logger.With(slog.String("component", "risk")),
	}
}

// CheckPositionRisk reports whether p fits the per-position and portfolio
// risk budgets. It does not modify the ledger.
func (l *Ledger) CheckPositionRisk(p PositionRisk) bool {
	return l.EvaluatePositionRisk(p) == nil
}

// EvaluatePositionRisk is CheckPositionRisk with the rejection reason.
func (l *Ledger) EvaluatePositionRisk(p PositionRisk) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	risk := p.RiskAmount()
	if limit := l.limits.MaxPositionRisk * l.portfolioValue; risk > limit {
		l.logger.Warn("position risk exceeds maximum allowed",
			slog.String("symbol", p.Symbol),
			slog.Float64("position_risk", risk),
			slog.Float64("limit", limit))
		return fmt.Errorf("%w: %.2f > %.2f", ErrPositionRiskExceeded, risk, limit)
	}

	total := l.totalRiskLocked() + risk
	if limit := l.limits.MaxPortfolioRisk * l.portfolioValue; total > limit {
		l.logger.Warn("portfolio risk would exceed maximum allowed",
			slog.String("symbol", p.Symbol),
			slog.Float64("total_risk", total),
			slog.Float64("limit", limit))
		return fmt.Errorf("%w: %.2f > %.2f", ErrPortfolioRiskExceeded, total, limit)
	}
	return nil
}

// AddPosition inserts or replaces the position for p.Symbol and recomputes
// metrics. It does not apply the risk gate; callers run CheckPositionRisk
// first unless they deliberately override it. A non-positive or non-finite
// entry price is refused because every ratio divides by it, and so is a
// non-positive quantity.
func (l *Ledger) AddPosition(p PositionRisk) error {
	if !(p.EntryPrice > 0) || math.IsInf(p.EntryPrice, 0) {
		return fmt.Errorf("%w: %s entry price %v", ErrInvalidPosition, p.Symbol, p.EntryPrice)
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("%w: %s quantity %d", ErrInvalidPosition, p.Symbol, p.Quantity)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, replaced := l.positions[p.Symbol]
	pos := p
	l.positions[p.Symbol] = &pos
	l.recomputeLocked()

	l.logger.Info("position added",
		slog.String("symbol", p.Symbol),
		slog.Bool("replaced", replaced),
		slog.Int("positions", len(l.positions)))
	return nil
}

// RemovePosition deletes the position for symbol. Returns false if absent.
func (l *Ledger) RemovePosition(symbol string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.positions[symbol]; !ok {
		return false
	}
	delete(l.positions, symbol)
	l.recomputeLocked()
	l.logger.Info("position removed", slog.String("symbol", symbol))
	return true
}

// UpdatePosition sets the current price for symbol. Returns false if absent.
func (l *Ledger) UpdatePosition(symbol string, currentPrice float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[symbol]
	if !ok {
		return false
	}
	pos.CurrentPrice = currentPrice
	l.recomputeLocked()
	return true
}

// Position returns a copy of the position for symbol.
func (l *Ledger) Position(symbol string) (PositionRisk, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	pos, ok := l.positions[symbol]
	if !ok {
		return PositionRisk{}, false
	}
	return *pos, true
}

// Positions returns copies of all positions sorted by symbol.
func (l *Ledger) Positions() []PositionRisk {
	l.mu.RLock()
	out := make([]PositionRisk, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	l.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Metrics returns the current risk metrics.
func (l *Ledger) Metrics() RiskMetrics {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.metrics
}

// PortfolioValue returns the configured portfolio value.
func (l *Ledger) PortfolioValue() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.portfolioValue
}

// Report returns a consistent snapshot of the ledger.
func (l *Ledger) Report() RiskReport {
	l.mu.RLock()
	defer l.mu.RUnlock()

	r := RiskReport{
		PortfolioValue:    l.portfolioValue,
		NumberOfPositions: len(l.positions),
		TotalPositionRisk: l.totalRiskLocked(),
		RiskMetrics:       l.metrics,
		Positions:         make(map[string]PositionReport, len(l.positions)),
	}
	for sym, p := range l.positions {
		r.Positions[sym] = PositionReport{
			PositionSize:   p.PositionSize,
			RiskAmount:     p.RiskAmount(),
			RiskPercentage: p.RiskPercentage(),
			UnrealizedPnL:  p.UnrealizedPnL(),
		}
	}
	return r
}

// totalRiskLocked sums risk in symbol order so the result is deterministic.
func (l *Ledger) totalRiskLocked() float64 {
	total := 0.0
	for _, sym := range l.symbolsLocked() {
		total += l.positions[sym].RiskAmount()
	}
	return total
}

func (l *Ledger) symbolsLocked() []string {
	syms := make([]string, 0, len(l.positions))
	for sym := range l.positions {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}

// recomputeLocked rebuilds every metric from the current positions.
func (l *Ledger) recomputeLocked() {
	l.metrics = computeMetrics(l.orderedLocked(), l.portfolioValue, l.limits)
	if l.OnRecompute != nil {
		l.OnRecompute(len(l.positions), l.totalRiskLocked(), l.metrics)
	}
}

func (l *Ledger) orderedLocked() []*PositionRisk {
	syms := l.symbolsLocked()
	out := make([]*PositionRisk, len(syms))
	for i, sym := range syms {
		out[i] = l.positions[sym]
	}
	return out
}

// computeMetrics derives RiskMetrics from a position set. Every metric is
// zero for an empty set; beta is zero when portfolio value is zero.
func computeMetrics(positions []*PositionRisk, portfolioValue float64, limits RiskLimits) RiskMetrics {
	var m RiskMetrics
	if len(positions) == 0 {
		return m
	}

	returns := make([]float64, len(positions))
	deviations := make([]float64, len(positions))
	for i, p := range positions {
		returns[i] = p.Return()
		deviations[i] = math.Abs(returns[i])
		if portfolioValue != 0 {
			m.PortfolioBeta += p.PositionSize / portfolioValue * p.Delta
		}
	}

	m.PortfolioVolatility = popStdDev(deviations)
	m.ValueAtRisk = math.Abs(percentile(returns, (1-limits.VaRConfidence)*100) * portfolioValue)
	m.MaxDrawdown = minOf(returns)
	if m.PortfolioVolatility != 0 {
		m.SharpeRatio = (mean(returns) - limits.RiskFreeRate) / m.PortfolioVolatility
	}
	return m
}
