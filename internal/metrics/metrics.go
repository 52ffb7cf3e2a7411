package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/anand121shah/tradingbot/internal/model"
	"github.com/anand121shah/tradingbot/internal/portfolio"
)

// Metrics holds all Prometheus metrics for the trading core.
type Metrics struct {
	// Signal validation
	SignalsTotal *prometheus.CounterVec // labels: result=approved|rejected

	// Risk ledger
	AdmissionsTotal   *prometheus.CounterVec // labels: result=admitted|rejected
	OpenPositions     prometheus.Gauge
	TotalPositionRisk prometheus.Gauge
	RiskMetric        *prometheus.GaugeVec // labels: metric

	// Market analyzer
	TicksTotal      prometheus.Counter
	AnalysisDur     prometheus.Histogram
	AlertsTotal     *prometheus.CounterVec // labels: type, priority
	TrackedSymbols  prometheus.Gauge
	AlertLogEntries prometheus.Gauge

	// Alert fan-out
	AlertDropsTotal      *prometheus.CounterVec // labels: sink
	AlertDeliveriesTotal *prometheus.CounterVec // labels: sink, result=ok|error

	// WebSocket stream and tick feed
	WSClientDropsTotal  prometheus.Counter
	FeedDropsTotal      prometheus.Counter
	FeedReconnectsTotal prometheus.Counter

	// Redis circuit breaker
	RedisCircuitBreakerState prometheus.Gauge // 0=closed, 1=half-open, 2=open

	// Journal
	SQLiteCommitDur prometheus.Histogram
}

// NewMetrics creates all metrics and registers them with reg. A nil reg
// uses the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradingbot_signals_total",
			Help: "Trade signals validated, by result",
		}, []string{"result"}),

		AdmissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradingbot_position_admissions_total",
			Help: "Position risk checks, by result",
		}, []string{"result"}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradingbot_open_positions",
			Help: "Positions currently held in the risk ledger",
		}),
		TotalPositionRisk: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradingbot_total_position_risk",
			Help: "Sum of |entry-stop|*qty over open positions",
		}),
		RiskMetric: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tradingbot_risk_metric",
			Help: "Portfolio risk metrics (beta, volatility, var, max_drawdown, sharpe)",
		}, []string{"metric"}),

		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradingbot_ticks_total",
			Help: "Market data updates ingested",
		}),
		AnalysisDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradingbot_analysis_duration_seconds",
			Help:    "Indicator recompute and rule evaluation latency per update",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradingbot_alerts_total",
			Help: "Market alerts emitted, by type and priority",
		}, []string{"type", "priority"}),
		TrackedSymbols: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradingbot_tracked_symbols",
			Help: "Symbols with a price series",
		}),
		AlertLogEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradingbot_alert_log_entries",
			Help: "Alerts held in the in-memory log",
		}),

		AlertDropsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradingbot_alert_drops_total",
			Help: "Alerts dropped because a sink queue was full",
		}, []string{"sink"}),
		AlertDeliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradingbot_alert_deliveries_total",
			Help: "Alert delivery attempts, by sink and result",
		}, []string{"sink", "result"}),

		WSClientDropsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradingbot_ws_client_drops_total",
			Help: "Alert envelopes dropped for slow WebSocket clients",
		}),
		FeedDropsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradingbot_feed_drops_total",
			Help: "Feed ticks dropped because the tick channel was full",
		}),
		FeedReconnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradingbot_feed_reconnects_total",
			Help: "Tick feed reconnect attempts",
		}),

		RedisCircuitBreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradingbot_redis_circuit_breaker_state",
			Help: "Redis circuit breaker state (0=closed, 1=half-open, 2=open)",
		}),

		SQLiteCommitDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradingbot_sqlite_commit_duration_seconds",
			Help:    "SQLite journal batch commit latency",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.SignalsTotal,
		m.AdmissionsTotal,
		m.OpenPositions,
		m.TotalPositionRisk,
		m.RiskMetric,
		m.TicksTotal,
		m.AnalysisDur,
		m.AlertsTotal,
		m.TrackedSymbols,
		m.AlertLogEntries,
		m.AlertDropsTotal,
		m.AlertDeliveriesTotal,
		m.WSClientDropsTotal,
		m.FeedDropsTotal,
		m.FeedReconnectsTotal,
		m.RedisCircuitBreakerState,
		m.SQLiteCommitDur,
	)

	return m
}

// ObserveSignal counts one validation decision.
func (m *Metrics) ObserveSignal(approved bool) {
	if approved {
		m.SignalsTotal.WithLabelValues("approved").Inc()
		return
	}
	m.SignalsTotal.WithLabelValues("rejected").Inc()
}

// ObserveAdmission counts one position risk check.
func (m *Metrics) ObserveAdmission(admitted bool) {
	if admitted {
		m.AdmissionsTotal.WithLabelValues("admitted").Inc()
		return
	}
	m.AdmissionsTotal.WithLabelValues("rejected").Inc()
}

// ObserveRisk sets the ledger gauges after a recompute.
func (m *Metrics) ObserveRisk(positions int, totalRisk float64, rm portfolio.RiskMetrics) {
	m.OpenPositions.Set(float64(positions))
	m.TotalPositionRisk.Set(totalRisk)
	m.RiskMetric.WithLabelValues("beta").Set(rm.PortfolioBeta)
	m.RiskMetric.WithLabelValues("volatility").Set(rm.PortfolioVolatility)
	m.RiskMetric.WithLabelValues("var").Set(rm.ValueAtRisk)
	m.RiskMetric.WithLabelValues("max_drawdown").Set(rm.MaxDrawdown)
	m.RiskMetric.WithLabelValues("sharpe").Set(rm.SharpeRatio)
}

// ObserveAlert counts one emitted alert.
func (m *Metrics) ObserveAlert(a model.Alert) {
	m.AlertsTotal.WithLabelValues(string(a.Type), string(a.Priority)).Inc()
}

// ObserveDelivery counts one sink delivery attempt.
func (m *Metrics) ObserveDelivery(sink string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.AlertDeliveriesTotal.WithLabelValues(sink, result).Inc()
}
