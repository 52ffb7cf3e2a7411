// Package api exposes the signal validator, risk ledger and market analyzer
// over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/anand121shah/tradingbot/internal/logger"
	"github.com/anand121shah/tradingbot/internal/market"
	"github.com/anand121shah/tradingbot/internal/metrics"
	"github.com/anand121shah/tradingbot/internal/model"
	"github.com/anand121shah/tradingbot/internal/portfolio"
	"github.com/anand121shah/tradingbot/internal/signal"
)

// DecisionRecorder persists signal decisions. sqlite.Journal satisfies it.
type DecisionRecorder interface {
	RecordDecision(ctx context.Context, sig signal.TradeSignal, d signal.Decision) error
}

// Deps are the components the handlers drive. Desk, Ledger and Analyzer are
// required; everything else is optional.
type Deps struct {
	Desk     *signal.Desk
	Ledger   *portfolio.Ledger
	Analyzer *market.Analyzer

	Alerts    http.Handler // WebSocket alert stream, mounted at /ws/alerts
	Recorders []model.TickRecorder
	Decisions DecisionRecorder
	Metrics   *metrics.Metrics
	Health    *metrics.HealthStatus
	Logger    *slog.Logger

	// Now stamps ticks that arrive without a timestamp. Defaults to time.Now.
	Now func() time.Time
}

type server struct {
	Deps
}

// NewRouter sets up HTTP routes for the API server.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	s := &server{Deps: d}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /api/signals/validate", s.validateSignal)
	mux.HandleFunc("GET /api/signals/active", s.listActiveTrades)
	mux.HandleFunc("DELETE /api/signals/active/{symbol}", s.closeActiveTrade)

	mux.HandleFunc("GET /api/positions", s.listPositions)
	mux.HandleFunc("POST /api/positions", s.addPosition)
	mux.HandleFunc("DELETE /api/positions/{symbol}", s.removePosition)
	mux.HandleFunc("POST /api/positions/{symbol}/price", s.updatePrice)
	mux.HandleFunc("GET /api/risk", s.riskReport)

	mux.HandleFunc("POST /api/market/ticks", s.ingestTicks)
	mux.HandleFunc("GET /api/market", s.listSymbols)
	mux.HandleFunc("GET /api/market/{symbol}", s.marketAnalysis)
	mux.HandleFunc("GET /api/alerts", s.listAlerts)

	if d.Alerts != nil {
		mux.Handle("GET /ws/alerts", d.Alerts)
	}

	return withTrace(mux)
}

// withTrace tags each request with a trace ID, echoed in X-Trace-ID.
func withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Trace-ID")
		if id == "" {
			id = logger.GenerateTraceID("http", time.Now())
		}
		w.Header().Set("X-Trace-ID", id)
		next.ServeHTTP(w, r.WithContext(logger.WithTraceID(r.Context(), id)))
	})
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Trace-ID")
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	SetCORS(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

const maxBody = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
