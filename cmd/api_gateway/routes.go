package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/anand121shah/tradingbot/internal/portfolio"
)

// reportSource reads the latest published risk report.
// redis.Publisher satisfies it.
type reportSource interface {
	LatestRiskReport(ctx context.Context) (portfolio.RiskReport, bool, error)
}

func newMux(alerts http.Handler, reports reportSource, health http.Handler, sampler *systemSampler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /ws/alerts", alerts)
	mux.Handle("GET /healthz", health)

	mux.HandleFunc("GET /api/risk/latest", func(w http.ResponseWriter, r *http.Request) {
		setCORS(w)
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		rep, ok, err := reports.LatestRiskReport(ctx)
		switch {
		case err != nil:
			log.Printf("[api_gateway] risk report read: %v", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "risk report unavailable"})
		case !ok:
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no risk report published yet"})
		default:
			writeJSON(w, http.StatusOK, rep)
		}
	})

	mux.HandleFunc("GET /api/system", func(w http.ResponseWriter, _ *http.Request) {
		setCORS(w)
		writeJSON(w, http.StatusOK, sampler.Collect())
	})
	return mux
}

// ---- CORS helper ----

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
