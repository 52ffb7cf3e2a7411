package main

import (
	"context"
	"database/sql"
	"log"

	goredis "github.com/go-redis/redis/v8"

	"github.com/anand121shah/tradingbot/internal/api"
	"github.com/anand121shah/tradingbot/internal/gateway"
	"github.com/anand121shah/tradingbot/internal/market"
	"github.com/anand121shah/tradingbot/internal/marketdata/feed"
	"github.com/anand121shah/tradingbot/internal/metrics"
	"github.com/anand121shah/tradingbot/internal/model"
	"github.com/anand121shah/tradingbot/internal/portfolio"
	redisstore "github.com/anand121shah/tradingbot/internal/store/redis"
	sqlitestore "github.com/anand121shah/tradingbot/internal/store/sqlite"
)

// The helpers below keep typed nil pointers from turning into non-nil
// interface values.

func publisherClient(p *redisstore.Publisher) *goredis.Client {
	if p == nil {
		return nil
	}
	return p.Client()
}

func journalDB(j *sqlitestore.Journal) *sql.DB {
	if j == nil {
		return nil
	}
	return j.DB()
}

func decisionRecorder(j *sqlitestore.Journal) api.DecisionRecorder {
	if j == nil {
		return nil
	}
	return j
}

// tickSink applies one feed tick to the analyzer, the ledger marks and the
// recorders.
type tickSink struct {
	analyzer  *market.Analyzer
	ledger    *portfolio.Ledger
	recorders []model.TickRecorder
	prom      *metrics.Metrics
	health    *metrics.HealthStatus
}

func (s *tickSink) handle(ctx context.Context, t model.Tick) {
	s.analyzer.UpdateMarketData(t.Symbol, t.Price, t.Volume, t.TS)
	s.ledger.UpdatePosition(t.Symbol, t.Price)
	for _, rec := range s.recorders {
		if err := rec.RecordTick(ctx, t); err != nil {
			log.Printf("[riskcore] record tick %s: %v", t.Symbol, err)
		}
	}
	s.prom.TicksTotal.Inc()
	s.health.SetLastTickTime(t.TS)
}

func observeFeed(ing *feed.Ingest, prom *metrics.Metrics) {
	ing.OnDrop = prom.FeedDropsTotal.Inc
	ing.OnReconnect = prom.FeedReconnectsTotal.Inc
}

func observeHub(hub *gateway.Hub, prom *metrics.Metrics) {
	hub.OnDrop = prom.WSClientDropsTotal.Inc
}
