// Package indicator computes the technical indicators the market analyzer
// alerts on: RSI, MACD, Bollinger Bands and a volume profile.
//
// Each indicator is a small streaming state machine fed one value at a time.
// Compute replays a whole series through fresh instances, so a batch result is
// identical to the value a long-lived instance would hold after the same input.
package indicator

// Indicator is the interface for all streaming indicators.
type Indicator interface {
	// Name returns the indicator name (e.g., "SMA_20", "RSI_14").
	Name() string

	// Update feeds the next value of the series.
	Update(v float64)

	// Value returns the current value. Returns 0 until Ready.
	Value() float64

	// Ready returns true once enough values have been seen.
	Ready() bool
}
