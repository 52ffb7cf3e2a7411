package model

import "time"

// Tick is a single market data update for one symbol.
type Tick struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Volume float64   `json:"volume"`
	TS     time.Time `json:"ts"`
}

// Observation is one timestamped value in a symbol's price or volume series.
type Observation struct {
	Value float64   `json:"value"`
	TS    time.Time `json:"ts"`
}

// Key returns the Redis-style key suffix for this tick's symbol.
func (t *Tick) Key() string {
	return "tick:" + t.Symbol
}
