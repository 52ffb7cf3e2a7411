package market

import (
	"github.com/anand121shah/tradingbot/internal/indicator"
	"github.com/anand121shah/tradingbot/internal/model"
)

// PriceData is the latest price and its move from the previous observation.
type PriceData struct {
	CurrentPrice       float64 `json:"current_price"`
	PriceChange        float64 `json:"price_change"`
	PriceChangePercent float64 `json:"price_change_percent"`
}

// Analysis is a point-in-time view of one symbol.
type Analysis struct {
	Symbol       string                  `json:"symbol"`
	Observations int                     `json:"observations"`
	PriceData    PriceData               `json:"price_data"`
	VolumeData   indicator.VolumeProfile `json:"volume_data"`
	Indicators   indicator.Snapshot      `json:"technical_indicators"`
	RecentAlerts []model.Alert           `json:"recent_alerts"`
}

// MarketAnalysis computes a fresh analysis for symbol. Returns false and a
// zero Analysis for symbols never seen.
//
// With a single observation the change fields are zero. Indicators whose
// window is not yet full report Ready=false.
func (a *Analyzer) MarketAnalysis(symbol string) (Analysis, bool) {
	s, ok := a.lookup(symbol)
	if !ok {
		return Analysis{}, false
	}

	// Alerts for a symbol are appended under s.mu, so reading them here
	// pairs them with exactly the observations that produced them.
	s.mu.Lock()
	prices := s.prices.Values()
	volumes := s.volumes.Values()
	recent := a.Alerts(symbol, "")
	s.mu.Unlock()

	out := Analysis{
		Symbol:       symbol,
		Observations: len(prices),
		Indicators:   a.engine.Compute(prices, volumes),
		RecentAlerts: recent,
	}
	out.VolumeData = out.Indicators.Volume

	if n := len(prices); n > 0 {
		cur := prices[n-1]
		out.PriceData.CurrentPrice = cur
		if n > 1 {
			prev := prices[n-2]
			out.PriceData.PriceChange = cur - prev
			if prev != 0 {
				out.PriceData.PriceChangePercent = (cur - prev) / prev * 100
			}
		}
	}
	return out, true
}
