package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anand121shah/tradingbot/internal/logger"
	"github.com/anand121shah/tradingbot/internal/market"
	"github.com/anand121shah/tradingbot/internal/metrics"
	"github.com/anand121shah/tradingbot/internal/portfolio"
)

type fakePublisher struct {
	mu      sync.Mutex
	reports []portfolio.RiskReport
	err     error
}

func (f *fakePublisher) PublishRiskReport(_ context.Context, r portfolio.RiskReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, r)
	return f.err
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reports)
}

func newRefresher(pub ReportPublisher) (*Refresher, *portfolio.Ledger, *market.Analyzer) {
	l := logger.Discard()
	ledger := portfolio.NewLedger(portfolio.DefaultRiskLimits(), 100000, l)
	analyzer := market.NewAnalyzer(market.DefaultConfig(), l)
	return &Refresher{
		Ledger:    ledger,
		Analyzer:  analyzer,
		Publisher: pub,
		Interval:  10 * time.Millisecond,
		Logger:    l,
	}, ledger, analyzer
}

func TestRefreshPublishesAndObserves(t *testing.T) {
	pub := &fakePublisher{}
	r, ledger, analyzer := newRefresher(pub)
	r.Metrics = metrics.NewMetrics(prometheus.NewRegistry())
	r.Health = metrics.NewHealthStatus(false, false)

	require.NoError(t, ledger.AddPosition(portfolio.NewPositionRisk("AAPL", 100, 98, 106, 100, false)))
	analyzer.UpdateMarketData("AAPL", 100, 1000, time.Now())
	analyzer.UpdateMarketData("MSFT", 400, 1000, time.Now())

	report := r.Refresh(context.Background())
	assert.Equal(t, 1, report.NumberOfPositions)
	require.Equal(t, 1, pub.count())
	assert.InDelta(t, 200, pub.reports[0].TotalPositionRisk, 1e-9)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.OpenPositions))
	assert.Equal(t, 200.0, testutil.ToFloat64(r.Metrics.TotalPositionRisk))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.Metrics.TrackedSymbols))
	assert.Equal(t, 2, r.Health.Symbols)
	assert.Equal(t, 1, r.Health.Positions)
}

func TestRefreshSurvivesPublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("redis down")}
	r, _, _ := newRefresher(pub)

	r.Refresh(context.Background())
	r.Refresh(context.Background())
	assert.Equal(t, 2, pub.count())
}

func TestRunTicksUntilCancelled(t *testing.T) {
	pub := &fakePublisher{}
	r, _, _ := newRefresher(pub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return pub.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
