package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/anand121shah/tradingbot/internal/logger"
	"github.com/anand121shah/tradingbot/internal/model"
	"github.com/anand121shah/tradingbot/internal/portfolio"
	"github.com/anand121shah/tradingbot/internal/signal"
)

type decisionResponse struct {
	Approved     bool               `json:"approved"`
	Reason       string             `json:"reason,omitempty"`
	PositionSize float64            `json:"position_size"`
	RiskReward   float64            `json:"risk_reward_ratio"`
	Signal       signal.TradeSignal `json:"signal"`
	Tracked      bool               `json:"tracked"`
}

// POST /api/signals/validate[?track=true]
func (s *server) validateSignal(w http.ResponseWriter, r *http.Request) {
	var sig signal.TradeSignal
	if !decodeBody(w, r, &sig) {
		return
	}
	log := logger.FromContext(r.Context(), s.Logger)

	sig, d := s.Desk.GenerateSignal(sig)
	if s.Decisions != nil {
		if err := s.Decisions.RecordDecision(r.Context(), sig, d); err != nil {
			log.Warn("record decision failed", slog.String("error", err.Error()))
		}
	}

	resp := decisionResponse{
		Approved:     d.Approved,
		Reason:       d.Message(),
		PositionSize: d.PositionSize,
		RiskReward:   d.RiskReward,
		Signal:       sig,
	}
	if d.Approved && r.URL.Query().Get("track") == "true" {
		s.Desk.AddActiveTrade(sig)
		resp.Tracked = true
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/signals/active
func (s *server) listActiveTrades(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Desk.ActiveTrades())
}

// DELETE /api/signals/active/{symbol}
func (s *server) closeActiveTrade(w http.ResponseWriter, r *http.Request) {
	if !s.Desk.RemoveActiveTrade(r.PathValue("symbol")) {
		writeError(w, http.StatusNotFound, "no active trade for symbol")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// positionRequest opens a position. Delta defaults to 1; Force skips the
// risk gate.
type positionRequest struct {
	Symbol     string   `json:"symbol"`
	EntryPrice float64  `json:"entry_price"`
	StopLoss   float64  `json:"stop_loss"`
	TakeProfit float64  `json:"take_profit"`
	Quantity   int64    `json:"quantity"`
	IsOption   bool     `json:"is_option"`
	Delta      *float64 `json:"delta,omitempty"`
	Vega       float64  `json:"vega,omitempty"`
	Theta      float64  `json:"theta,omitempty"`
	Force      bool     `json:"force,omitempty"`
}

type admissionResponse struct {
	Admitted bool                    `json:"admitted"`
	Reason   string                  `json:"reason,omitempty"`
	Position *portfolio.PositionRisk `json:"position,omitempty"`
}

// GET /api/positions
func (s *server) listPositions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Ledger.Positions())
}

// POST /api/positions
func (s *server) addPosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Symbol) == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	p := portfolio.NewPositionRisk(req.Symbol, req.EntryPrice, req.StopLoss, req.TakeProfit, req.Quantity, req.IsOption)
	if req.Delta != nil {
		p.Delta = *req.Delta
	}
	p.Vega, p.Theta = req.Vega, req.Theta

	if !req.Force {
		err := s.Ledger.EvaluatePositionRisk(p)
		if s.Metrics != nil {
			s.Metrics.ObserveAdmission(err == nil)
		}
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, admissionResponse{Reason: err.Error()})
			return
		}
	}

	if err := s.Ledger.AddPosition(p); err != nil {
		if errors.Is(err, portfolio.ErrInvalidPosition) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	logger.FromContext(r.Context(), s.Logger).Info("position added",
		slog.String("symbol", p.Symbol),
		slog.Float64("risk", p.RiskAmount()),
		slog.Bool("forced", req.Force))
	writeJSON(w, http.StatusCreated, admissionResponse{Admitted: true, Position: &p})
}

// DELETE /api/positions/{symbol}
func (s *server) removePosition(w http.ResponseWriter, r *http.Request) {
	if !s.Ledger.RemovePosition(r.PathValue("symbol")) {
		writeError(w, http.StatusNotFound, "no position for symbol")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type priceRequest struct {
	Price float64 `json:"price"`
}

// POST /api/positions/{symbol}/price
func (s *server) updatePrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	symbol := r.PathValue("symbol")
	if !s.Ledger.UpdatePosition(symbol, req.Price) {
		writeError(w, http.StatusNotFound, "no position for symbol")
		return
	}
	p, _ := s.Ledger.Position(symbol)
	writeJSON(w, http.StatusOK, p)
}

// GET /api/risk
func (s *server) riskReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Ledger.Report())
}

type ingestResponse struct {
	Accepted int           `json:"accepted"`
	Alerts   []model.Alert `json:"alerts"`
}

// POST /api/market/ticks accepts one tick object or an array of ticks.
// Each tick also marks any open position in the same symbol.
func (s *server) ingestTicks(w http.ResponseWriter, r *http.Request) {
	ticks, err := readTicks(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for i := range ticks {
		if err := checkTick(&ticks[i]); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if ticks[i].TS.IsZero() {
			ticks[i].TS = s.Now()
		}
	}

	log := logger.FromContext(r.Context(), s.Logger)
	resp := ingestResponse{Alerts: []model.Alert{}}
	for _, t := range ticks {
		resp.Alerts = append(resp.Alerts, s.Analyzer.UpdateMarketData(t.Symbol, t.Price, t.Volume, t.TS)...)
		s.Ledger.UpdatePosition(t.Symbol, t.Price)
		for _, rec := range s.Recorders {
			if err := rec.RecordTick(r.Context(), t); err != nil {
				log.Warn("record tick failed", slog.String("symbol", t.Symbol), slog.String("error", err.Error()))
			}
		}
		if s.Metrics != nil {
			s.Metrics.TicksTotal.Inc()
		}
		resp.Accepted++
	}
	if s.Health != nil && len(ticks) > 0 {
		s.Health.SetLastTickTime(ticks[len(ticks)-1].TS)
	}
	writeJSON(w, http.StatusOK, resp)
}

func readTicks(body io.Reader) ([]model.Tick, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.New("read body: " + err.Error())
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("empty body")
	}
	if raw[0] == '[' {
		var ticks []model.Tick
		if err := json.Unmarshal(raw, &ticks); err != nil {
			return nil, errors.New("invalid JSON body: " + err.Error())
		}
		return ticks, nil
	}
	var t model.Tick
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, errors.New("invalid JSON body: " + err.Error())
	}
	return []model.Tick{t}, nil
}

func checkTick(t *model.Tick) error {
	t.Symbol = strings.TrimSpace(t.Symbol)
	switch {
	case t.Symbol == "":
		return errors.New("tick symbol is required")
	case !(t.Price > 0) || math.IsInf(t.Price, 0):
		return errors.New("tick price must be positive: " + t.Symbol)
	case t.Volume < 0 || math.IsInf(t.Volume, 0):
		return errors.New("tick volume must be non-negative: " + t.Symbol)
	}
	return nil
}

// GET /api/market
func (s *server) listSymbols(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Analyzer.Symbols())
}

// GET /api/market/{symbol}
func (s *server) marketAnalysis(w http.ResponseWriter, r *http.Request) {
	a, ok := s.Analyzer.MarketAnalysis(r.PathValue("symbol"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown symbol")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// GET /api/alerts?symbol=AAPL&priority=high&limit=50
func (s *server) listAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	priority := model.Priority(strings.ToLower(q.Get("priority")))
	if priority != "" && !priority.Valid() {
		writeError(w, http.StatusBadRequest, "priority must be high, medium or low")
		return
	}
	alerts := s.Analyzer.Alerts(q.Get("symbol"), priority)
	if limit := q.Get("limit"); limit != "" {
		n, err := parsePositive(limit)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if n < len(alerts) {
			alerts = alerts[len(alerts)-n:]
		}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func parsePositive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("must be positive")
	}
	return n, nil
}
