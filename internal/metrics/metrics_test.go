package metrics

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anand121shah/tradingbot/internal/model"
	"github.com/anand121shah/tradingbot/internal/portfolio"
)

func TestObserveCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveSignal(true)
	m.ObserveSignal(false)
	m.ObserveSignal(false)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SignalsTotal.WithLabelValues("approved")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SignalsTotal.WithLabelValues("rejected")))

	m.ObserveAdmission(false)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdmissionsTotal.WithLabelValues("rejected")))

	m.ObserveAlert(model.Alert{Type: model.AlertRSIOverbought, Priority: model.PriorityMedium})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertsTotal.WithLabelValues(string(model.AlertRSIOverbought), "medium")))

	m.ObserveDelivery("ws", nil)
	m.ObserveDelivery("ws", errors.New("boom"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertDeliveriesTotal.WithLabelValues("ws", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertDeliveriesTotal.WithLabelValues("ws", "error")))
}

func TestObserveRisk(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ObserveRisk(3, 450, portfolio.RiskMetrics{PortfolioBeta: 0.6, ValueAtRisk: 1200, SharpeRatio: -1})

	assert.Equal(t, 3.0, testutil.ToFloat64(m.OpenPositions))
	assert.Equal(t, 450.0, testutil.ToFloat64(m.TotalPositionRisk))
	assert.Equal(t, 0.6, testutil.ToFloat64(m.RiskMetric.WithLabelValues("beta")))
	assert.Equal(t, 1200.0, testutil.ToFloat64(m.RiskMetric.WithLabelValues("var")))
	assert.Equal(t, -1.0, testutil.ToFloat64(m.RiskMetric.WithLabelValues("sharpe")))
}

func TestHealthStatus(t *testing.T) {
	tests := []struct {
		name           string
		redis, sqlite  bool
		redisOK, dbOK  bool
		wantStatus     string
		wantStatusCode int
	}{
		{"no stores configured", false, false, false, false, "healthy", http.StatusOK},
		{"all up", true, true, true, true, "healthy", http.StatusOK},
		{"redis down", true, true, false, true, "degraded", http.StatusServiceUnavailable},
		{"both down", true, true, false, false, "unhealthy", http.StatusServiceUnavailable},
		{"unconfigured redis ignored", false, true, false, true, "healthy", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthStatus(tt.redis, tt.sqlite)
			h.SetRedisConnected(tt.redisOK)
			h.SetSQLiteOK(tt.dbOK)
			h.SetCounts(2, 1)
			h.SetLastTickTime(time.Now())

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			require.Equal(t, tt.wantStatusCode, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body["status"])
			assert.Equal(t, 2.0, body["symbols"])
			assert.Equal(t, 1.0, body["positions"])
		})
	}
}

func TestServerExposesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.TicksTotal.Add(7)

	srv := NewServer(":0", NewHealthStatus(false, false), reg)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "tradingbot_ticks_total 7"))
}
