// Package service holds the background loops that run beside the HTTP API.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/anand121shah/tradingbot/internal/market"
	"github.com/anand121shah/tradingbot/internal/metrics"
	"github.com/anand121shah/tradingbot/internal/portfolio"
)

const defaultInterval = 5 * time.Second

// ReportPublisher receives the periodic risk report. redis.Publisher
// satisfies it.
type ReportPublisher interface {
	PublishRiskReport(ctx context.Context, r portfolio.RiskReport) error
}

// Refresher periodically snapshots the ledger and analyzer, publishes the
// risk report and refreshes gauges and health counts.
type Refresher struct {
	Ledger    *portfolio.Ledger
	Analyzer  *market.Analyzer
	Publisher ReportPublisher       // optional
	Metrics   *metrics.Metrics      // optional
	Health    *metrics.HealthStatus // optional
	Interval  time.Duration
	Logger    *slog.Logger
}

// Run refreshes once immediately and then every Interval until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	interval := r.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	if r.Logger == nil {
		r.Logger = slog.Default()
	}

	r.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

// Refresh performs one pass. Publish failures are logged and retried on
// the next tick.
func (r *Refresher) Refresh(ctx context.Context) portfolio.RiskReport {
	report := r.Ledger.Report()
	symbols := len(r.Analyzer.Symbols())

	if r.Metrics != nil {
		r.Metrics.ObserveRisk(report.NumberOfPositions, report.TotalPositionRisk, report.RiskMetrics)
		r.Metrics.TrackedSymbols.Set(float64(symbols))
		r.Metrics.AlertLogEntries.Set(float64(r.Analyzer.AlertCount()))
	}
	if r.Health != nil {
		r.Health.SetCounts(symbols, report.NumberOfPositions)
	}
	if r.Publisher != nil {
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := r.Publisher.PublishRiskReport(pctx, report)
		cancel()
		if err != nil && r.Logger != nil {
			r.Logger.Warn("publish risk report failed", slog.String("error", err.Error()))
		}
	}
	return report
}
