package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anand121shah/tradingbot/internal/indicator"
	"github.com/anand121shah/tradingbot/internal/model"
)

var fixedNow = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestRules() *Rules {
	return NewRules(DefaultThresholds(), func() time.Time { return fixedNow })
}

// quietSnapshot fires nothing at price 100.
func quietSnapshot() indicator.Snapshot {
	return indicator.Snapshot{
		RSI:       indicator.RSIValue{Value: 50, Ready: true},
		MACD:      indicator.MACDValue{MACD: 1, Signal: 0.5, PrevMACD: 1, PrevSignal: 0.5, HasPrev: true, Ready: true},
		Bollinger: indicator.BandsValue{Upper: 110, Middle: 100, Lower: 90, Ready: true},
		Volume:    indicator.VolumeProfile{Average: 1000, StdDev: 100, Current: 1000, Ready: true},
	}
}

func TestRules_Quiet(t *testing.T) {
	assert.Empty(t, newTestRules().Evaluate("AAPL", 100, quietSnapshot()))
}

func TestRules_RSI(t *testing.T) {
	r := newTestRules()

	snap := quietSnapshot()
	snap.RSI.Value = 75.456
	alerts := r.Evaluate("AAPL", 100, snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertRSIOverbought, alerts[0].Type)
	assert.Equal(t, "RSI (75.46) indicates overbought conditions", alerts[0].Message)
	assert.Equal(t, model.PriorityMedium, alerts[0].Priority)
	assert.Equal(t, 75.456, alerts[0].Data["rsi"])
	assert.Equal(t, fixedNow, alerts[0].Timestamp)
	assert.Equal(t, "AAPL", alerts[0].Symbol)

	snap.RSI.Value = 12
	alerts = r.Evaluate("AAPL", 100, snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertRSIOversold, alerts[0].Type)
	assert.Equal(t, "RSI (12.00) indicates oversold conditions", alerts[0].Message)

	// Boundaries are exclusive.
	snap.RSI.Value = 70
	assert.Empty(t, r.Evaluate("AAPL", 100, snap))
	snap.RSI.Value = 30
	assert.Empty(t, r.Evaluate("AAPL", 100, snap))
}

func TestRules_MACDCrossovers(t *testing.T) {
	r := newTestRules()

	snap := quietSnapshot()
	snap.MACD = indicator.MACDValue{MACD: 0.2, Signal: 0.1, PrevMACD: 0.1, PrevSignal: 0.1, HasPrev: true, Ready: true}
	alerts := r.Evaluate("MSFT", 100, snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertMACDBullishCross, alerts[0].Type)
	assert.Equal(t, "MACD line crossed above signal line", alerts[0].Message)
	assert.Equal(t, map[string]float64{"macd": 0.2, "signal": 0.1}, alerts[0].Data)

	snap.MACD = indicator.MACDValue{MACD: -0.2, Signal: 0.1, PrevMACD: 0.3, PrevSignal: 0.1, HasPrev: true, Ready: true}
	alerts = r.Evaluate("MSFT", 100, snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertMACDBearishCross, alerts[0].Type)

	// No previous pair, no crossover.
	snap.MACD.HasPrev = false
	assert.Empty(t, r.Evaluate("MSFT", 100, snap))
}

func TestRules_HighVolume(t *testing.T) {
	snap := quietSnapshot()
	snap.Volume.Current = 1201 // > 1000 + 2*100
	alerts := newTestRules().Evaluate("TSLA", 100, snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertHighVolume, alerts[0].Type)
	assert.Equal(t, model.PriorityHigh, alerts[0].Priority)
	assert.Equal(t, "Unusually high volume detected: 1201 vs avg 1000", alerts[0].Message)
	assert.Equal(t, 1201.0, alerts[0].Data["current_volume"])
	assert.Equal(t, 1000.0, alerts[0].Data["average_volume"])
	assert.Equal(t, 100.0, alerts[0].Data["volume_std"])

	snap.Volume.Current = 1200
	assert.Empty(t, newTestRules().Evaluate("TSLA", 100, snap))
}

func TestRules_Bollinger(t *testing.T) {
	r := newTestRules()

	alerts := r.Evaluate("SPY", 111, quietSnapshot())
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertAboveUpperBand, alerts[0].Type)
	assert.Equal(t, map[string]float64{"price": 111, "upper_band": 110}, alerts[0].Data)

	alerts = r.Evaluate("SPY", 89, quietSnapshot())
	require.Len(t, alerts, 1)
	assert.Equal(t, model.AlertBelowLowerBand, alerts[0].Type)
	assert.Equal(t, "Price moved below lower Bollinger Band", alerts[0].Message)
}

func TestRules_OrderAndNotReady(t *testing.T) {
	snap := quietSnapshot()
	snap.RSI.Value = 80
	snap.Volume.Current = 5000
	alerts := newTestRules().Evaluate("QQQ", 120, snap)
	require.Len(t, alerts, 3)
	assert.Equal(t, model.AlertRSIOverbought, alerts[0].Type)
	assert.Equal(t, model.AlertHighVolume, alerts[1].Type)
	assert.Equal(t, model.AlertAboveUpperBand, alerts[2].Type)

	assert.Empty(t, newTestRules().Evaluate("QQQ", 120, indicator.Snapshot{}))
}
