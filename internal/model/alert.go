package model

import (
	"encoding/json"
	"time"
)

// Priority ranks how urgently an alert should be looked at.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Rank orders priorities, high first. Unknown priorities rank lowest.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// AlertType names the condition that fired.
type AlertType string

const (
	AlertRSIOverbought    AlertType = "RSI Overbought"
	AlertRSIOversold      AlertType = "RSI Oversold"
	AlertMACDBullishCross AlertType = "MACD Bullish Crossover"
	AlertMACDBearishCross AlertType = "MACD Bearish Crossover"
	AlertHighVolume       AlertType = "High Volume"
	AlertAboveUpperBand   AlertType = "Price Above Upper Band"
	AlertBelowLowerBand   AlertType = "Price Below Lower Band"
)

// Alert is an immutable record of a technical condition observed on a symbol.
type Alert struct {
	Symbol    string             `json:"symbol"`
	Type      AlertType          `json:"alert_type"`
	Message   string             `json:"message"`
	Timestamp time.Time          `json:"timestamp"`
	Priority  Priority           `json:"priority"`
	Data      map[string]float64 `json:"data"`
}

// Clone returns a deep copy so callers cannot mutate logged alerts.
func (a Alert) Clone() Alert {
	if a.Data != nil {
		data := make(map[string]float64, len(a.Data))
		for k, v := range a.Data {
			data[k] = v
		}
		a.Data = data
	}
	return a
}

// JSON returns the JSON-encoded alert (ignoring errors for hot-path usage).
func (a *Alert) JSON() []byte {
	b, _ := json.Marshal(a)
	return b
}

// PubSubChannel returns the Redis channel alerts for this symbol are published on.
func (a *Alert) PubSubChannel() string {
	return "pub:alert:" + a.Symbol
}
