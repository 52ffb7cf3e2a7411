package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anand121shah/tradingbot/internal/logger"
	"github.com/anand121shah/tradingbot/internal/market"
	"github.com/anand121shah/tradingbot/internal/model"
)

func TestParseTime(t *testing.T) {
	ts, err := parseTime("")
	require.NoError(t, err)
	assert.True(t, ts.IsZero())

	ts, err = parseTime("1700000000")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), ts.Unix())

	ts, err = parseTime("2024-01-02T03:04:05Z")
	require.NoError(t, err)
	assert.Equal(t, 2024, ts.Year())

	_, err = parseTime("yesterday")
	assert.Error(t, err)
}

func TestRenderReport(t *testing.T) {
	analyzer := market.NewAnalyzer(market.DefaultConfig(), logger.Discard())
	stats := newRunStats()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 25; i++ {
		tick := model.Tick{Symbol: "AAPL", Price: float64(i), Volume: 100, TS: base.Add(time.Duration(i) * time.Minute)}
		stats.observe(tick, analyzer.UpdateMarketData(tick.Symbol, tick.Price, tick.Volume, tick.TS))
	}
	require.Equal(t, 25, stats.bySymbol["AAPL"].ticks)
	require.Positive(t, stats.byType[model.AlertRSIOverbought])

	var buf bytes.Buffer
	renderReport(&buf, analyzer, stats, 25)
	out := buf.String()
	assert.Contains(t, out, "BACKTEST COMPLETE")
	assert.Contains(t, out, "AAPL")
	assert.Contains(t, out, "25.00")
	assert.Contains(t, out, string(model.AlertRSIOverbought))
}
