package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anand121shah/tradingbot/internal/gateway"
	"github.com/anand121shah/tradingbot/internal/logger"
	"github.com/anand121shah/tradingbot/internal/market"
	"github.com/anand121shah/tradingbot/internal/marketdata/feed"
	"github.com/anand121shah/tradingbot/internal/metrics"
	"github.com/anand121shah/tradingbot/internal/model"
	"github.com/anand121shah/tradingbot/internal/portfolio"
)

type stubRecorder struct {
	ticks []model.Tick
	err   error
}

func (r *stubRecorder) RecordTick(_ context.Context, t model.Tick) error {
	r.ticks = append(r.ticks, t)
	return r.err
}

func TestTickSinkAppliesTick(t *testing.T) {
	prom := metrics.NewMetrics(prometheus.NewRegistry())
	ledger := portfolio.NewLedger(portfolio.DefaultRiskLimits(), 100000, logger.Discard())
	require.NoError(t, ledger.AddPosition(portfolio.NewPositionRisk("AAPL", 100, 95, 110, 10, false)))

	ok := &stubRecorder{}
	failing := &stubRecorder{err: errors.New("disk full")}
	sink := &tickSink{
		analyzer:  market.NewAnalyzer(market.DefaultConfig(), logger.Discard()),
		ledger:    ledger,
		recorders: []model.TickRecorder{failing, ok},
		prom:      prom,
		health:    metrics.NewHealthStatus(false, false),
	}

	ts := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	sink.handle(context.Background(), model.Tick{Symbol: "AAPL", Price: 104, Volume: 5, TS: ts})

	assert.Equal(t, 1, sink.analyzer.SeriesLen("AAPL"))
	pos, found := ledger.Position("AAPL")
	require.True(t, found)
	assert.Equal(t, 104.0, pos.CurrentPrice)
	assert.Len(t, failing.ticks, 1)
	assert.Len(t, ok.ticks, 1, "a failing recorder does not stop the rest")
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.TicksTotal))
}

func TestObserveFeedCountsHooks(t *testing.T) {
	prom := metrics.NewMetrics(prometheus.NewRegistry())
	ing, err := feed.New(feed.Config{URL: "ws://localhost:9001/ws"})
	require.NoError(t, err)
	observeFeed(ing, prom)

	ing.OnDrop()
	ing.OnDrop()
	ing.OnReconnect()
	assert.Equal(t, 2.0, testutil.ToFloat64(prom.FeedDropsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.FeedReconnectsTotal))

	hub := gateway.NewHub(0)
	observeHub(hub, prom)
	hub.OnDrop()
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.WSClientDropsTotal))
}
