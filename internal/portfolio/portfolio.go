// Package portfolio is the position risk ledger: it tracks open positions,
// gates new ones against per-position and portfolio risk budgets, and
// recomputes point-in-time portfolio risk metrics after every change.
package portfolio

import (
	"math"

	"github.com/anand121shah/tradingbot/internal/signal"
)

// PositionRisk is one open position as seen by the risk ledger.
// CurrentPrice is updated in place as quotes arrive; Symbol is the identity.
type PositionRisk struct {
	Symbol       string  `json:"symbol"`
	PositionSize float64 `json:"position_size"`
	EntryPrice   float64 `json:"entry_price"`
	CurrentPrice float64 `json:"current_price"`
	StopLoss     float64 `json:"stop_loss"`
	TakeProfit   float64 `json:"take_profit"`
	Quantity     int64   `json:"quantity"`
	IsOption     bool    `json:"is_option"`
	Delta        float64 `json:"delta"`
	Vega         float64 `json:"vega"`
	Theta        float64 `json:"theta"`
}

// NewPositionRisk builds a position priced at entry with delta 1. Position
// size is quantity * entry, times the option multiplier for options.
func NewPositionRisk(symbol string, entry, stop, takeProfit float64, qty int64, isOption bool) PositionRisk {
	size := float64(qty) * entry
	if isOption {
		size *= signal.OptionMultiplier
	}
	return PositionRisk{
		Symbol:       symbol,
		PositionSize: size,
		EntryPrice:   entry,
		CurrentPrice: entry,
		StopLoss:     stop,
		TakeProfit:   takeProfit,
		Quantity:     qty,
		IsOption:     isOption,
		Delta:        1.0,
	}
}

// FromSignal builds the position an approved signal would open.
func FromSignal(sig signal.TradeSignal) PositionRisk {
	return NewPositionRisk(sig.Symbol, sig.EntryPrice, sig.StopLoss, sig.TakeProfit, sig.Quantity, sig.IsOption)
}

// RiskAmount returns |entry - stop| * quantity.
func (p *PositionRisk) RiskAmount() float64 {
	return math.Abs(p.EntryPrice-p.StopLoss) * float64(p.Quantity)
}

// RiskPercentage returns |entry - stop| / entry.
func (p *PositionRisk) RiskPercentage() float64 {
	return math.Abs(p.EntryPrice-p.StopLoss) / p.EntryPrice
}

// Return returns the fractional move (current - entry) / entry.
func (p *PositionRisk) Return() float64 {
	return (p.CurrentPrice - p.EntryPrice) / p.EntryPrice
}

// UnrealizedPnL returns (current - entry) * quantity, scaled for options.
func (p *PositionRisk) UnrealizedPnL() float64 {
	pnl := (p.CurrentPrice - p.EntryPrice) * float64(p.Quantity)
	if p.IsOption {
		pnl *= signal.OptionMultiplier
	}
	return pnl
}
