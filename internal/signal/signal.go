// Package signal validates proposed trades against position-size,
// reward-to-risk and option-parameter rules, and keeps the desk's registry of
// active trades.
package signal

import (
	"errors"
	"math"
)

// Direction is the side of a trade.
type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

// OptionType is call or put.
type OptionType string

const (
	Call OptionType = "C"
	Put  OptionType = "P"
)

// OptionMultiplier is the contract multiplier applied to option position size.
const OptionMultiplier = 100

// Rejection reasons. Callers match them with errors.Is.
var (
	ErrZeroRisk            = errors.New("entry price equals stop loss")
	ErrPositionTooLarge    = errors.New("position size exceeds maximum")
	ErrRiskRewardTooLow    = errors.New("risk:reward ratio below minimum")
	ErrMissingOptionParams = errors.New("missing required options parameters")
	ErrInvalidExpiry       = errors.New("invalid expiry date format")
	ErrInvalidOptionType   = errors.New("invalid option type")
	ErrMalformedSignal     = errors.New("malformed signal")
	ErrValidationFault     = errors.New("unexpected validation fault")
)

// TradeSignal is a proposed trade. Option fields are only consulted when
// IsOption is set; a zero Strike or empty Expiry/OptionType counts as absent.
type TradeSignal struct {
	Symbol     string     `json:"symbol"`
	EntryPrice float64    `json:"entry_price"`
	StopLoss   float64    `json:"stop_loss"`
	TakeProfit float64    `json:"take_profit"`
	Quantity   int64      `json:"quantity"`
	Direction  Direction  `json:"direction"`
	IsOption   bool       `json:"is_option"`
	Strike     float64    `json:"strike,omitempty"`
	Expiry     string     `json:"expiry,omitempty"` // YYYYMMDD
	OptionType OptionType `json:"option_type,omitempty"`
}

// RiskPerUnit returns |entry - stop|.
func (s *TradeSignal) RiskPerUnit() float64 {
	return math.Abs(s.EntryPrice - s.StopLoss)
}

// PositionSize returns quantity * entry, times the option multiplier for options.
func (s *TradeSignal) PositionSize() float64 {
	size := float64(s.Quantity) * s.EntryPrice
	if s.IsOption {
		size *= OptionMultiplier
	}
	return size
}

// RiskReward returns |take profit - entry| / |entry - stop|.
// The caller must rule out zero risk first.
func (s *TradeSignal) RiskReward() float64 {
	return math.Abs(s.TakeProfit-s.EntryPrice) / s.RiskPerUnit()
}

func (s *TradeSignal) finite() bool {
	for _, v := range [...]float64{s.EntryPrice, s.StopLoss, s.TakeProfit, s.Strike} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
