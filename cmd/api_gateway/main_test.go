package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anand121shah/tradingbot/internal/gateway"
	"github.com/anand121shah/tradingbot/internal/metrics"
	"github.com/anand121shah/tradingbot/internal/portfolio"
)

type fakeReports struct {
	rep portfolio.RiskReport
	ok  bool
	err error
}

func (f fakeReports) LatestRiskReport(context.Context) (portfolio.RiskReport, bool, error) {
	return f.rep, f.ok, f.err
}

func newTestMux(reports reportSource) http.Handler {
	return newMux(gateway.NewHub(0), reports, metrics.NewHealthStatus(false, false), &systemSampler{start: time.Now()})
}

func TestRiskLatest(t *testing.T) {
	cases := []struct {
		name    string
		reports fakeReports
		code    int
	}{
		{"published", fakeReports{rep: portfolio.RiskReport{PortfolioValue: 1000}, ok: true}, http.StatusOK},
		{"missing", fakeReports{}, http.StatusNotFound},
		{"redis down", fakeReports{err: errors.New("dial tcp: refused")}, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestMux(tc.reports).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/risk/latest", nil))
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestSystemEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestMux(fakeReports{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/system", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var m SystemMetrics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Positive(t, m.Goroutines)
	assert.Positive(t, m.CPUCores)
}

func TestProcParsers(t *testing.T) {
	s := parseCPUSample(strings.NewReader("cpu  10 0 10 80 0 0 0 0 0 0\ncpu0 1 1 1 1\n"))
	assert.Equal(t, cpuSample{idle: 80, total: 100}, s)

	next := cpuSample{idle: 120, total: 200}
	assert.InDelta(t, 60.0, cpuPercent(s, next), 1e-9)
	assert.Zero(t, cpuPercent(cpuSample{}, next))

	var m SystemMetrics
	parseLoadAvg(strings.NewReader("0.50 0.75 1.25 1/100 42\n"), &m)
	assert.Equal(t, 0.5, m.CPULoad1)
	assert.Equal(t, 1.25, m.CPULoad15)

	parseMemInfo(strings.NewReader("MemTotal:       2048 kB\nMemFree: 1 kB\nMemAvailable:   1024 kB\n"), &m)
	assert.Equal(t, 2.0, m.MemTotalMB)
	assert.Equal(t, 50.0, m.MemPercent)
}
