// cmd/riskcore serves the trade signal validator, position risk ledger and
// market analyzer over HTTP, streams alerts over WebSocket and fans them out
// to Redis, SQLite and the configured notifiers.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sony/gobreaker"

	"github.com/anand121shah/tradingbot/config"
	"github.com/anand121shah/tradingbot/internal/alert"
	"github.com/anand121shah/tradingbot/internal/api"
	"github.com/anand121shah/tradingbot/internal/gateway"
	"github.com/anand121shah/tradingbot/internal/logger"
	"github.com/anand121shah/tradingbot/internal/market"
	"github.com/anand121shah/tradingbot/internal/marketdata/feed"
	"github.com/anand121shah/tradingbot/internal/metrics"
	"github.com/anand121shah/tradingbot/internal/model"
	"github.com/anand121shah/tradingbot/internal/notification"
	"github.com/anand121shah/tradingbot/internal/portfolio"
	"github.com/anand121shah/tradingbot/internal/service"
	sig "github.com/anand121shah/tradingbot/internal/signal"
	redisstore "github.com/anand121shah/tradingbot/internal/store/redis"
	sqlitestore "github.com/anand121shah/tradingbot/internal/store/sqlite"
)

// observingPublisher counts alerts before handing them to the dispatcher.
type observingPublisher struct {
	next market.Publisher
	prom *metrics.Metrics
}

func (p observingPublisher) Submit(alerts ...model.Alert) {
	for _, a := range alerts {
		p.prom.ObserveAlert(a)
	}
	p.next.Submit(alerts...)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[riskcore] starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[riskcore] %v", err)
	}
	slogger := logger.Init("riskcore", cfg.SlogLevel())

	// ---- Setup context for graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Metrics & health ----
	prom := metrics.NewMetrics(nil)
	health := metrics.NewHealthStatus(cfg.RedisAddr != "", cfg.SQLitePath != "")
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health, nil)
	metricsSrv.Start()

	// ---- Cores ----
	validator := sig.NewValidator(sig.Limits{
		MaxPositionSize:    cfg.MaxPositionSize,
		MinRiskRewardRatio: cfg.MinRiskRewardRatio,
	}, slogger)
	validator.OnDecision = func(_ sig.TradeSignal, d sig.Decision) {
		prom.ObserveSignal(d.Approved)
	}
	desk := sig.NewDesk(validator, slogger)

	limits := portfolio.DefaultRiskLimits()
	limits.MaxPositionRisk = cfg.MaxPositionRisk
	limits.MaxPortfolioRisk = cfg.MaxPortfolioRisk
	limits.RiskFreeRate = cfg.RiskFreeRate
	ledger := portfolio.NewLedger(limits, cfg.PortfolioValue, slogger)
	ledger.OnRecompute = prom.ObserveRisk

	mcfg := market.DefaultConfig()
	mcfg.HistorySize = cfg.HistorySize
	mcfg.MinObservations = cfg.MinObservations
	mcfg.MaxAlerts = cfg.MaxAlerts
	analyzer := market.NewAnalyzer(mcfg, slogger)
	analyzer.OnAnalyze = func(_ string, took time.Duration, _ int) {
		prom.AnalysisDur.Observe(took.Seconds())
	}

	// ---- Alert fan-out ----
	dispatcher := alert.NewDispatcher(cfg.AlertBuffer, slogger)
	dispatcher.OnDrop = func(sink string) { prom.AlertDropsTotal.WithLabelValues(sink).Inc() }
	dispatcher.OnDeliver = prom.ObserveDelivery

	hub := gateway.NewHub(0)
	observeHub(hub, prom)
	dispatcher.AddSink(hub)

	minPriority := model.Priority(cfg.NotifyMinPriority)
	dispatcher.AddSink(notification.NewSink("log", notification.NewLogNotifier(slogger), minPriority))
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		dispatcher.AddSink(notification.NewSink("telegram",
			notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID), minPriority))
	}
	if cfg.WebhookURL != "" {
		dispatcher.AddSink(notification.NewSink("webhook", notification.NewWebhookNotifier(cfg.WebhookURL), minPriority))
	}

	var recorders []model.TickRecorder

	// ---- SQLite journal (off hot path) ----
	var journal *sqlitestore.Journal
	if cfg.SQLitePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			log.Fatalf("[riskcore] sqlite data dir: %v", err)
		}
		journal, err = sqlitestore.Open(sqlitestore.Config{DBPath: cfg.SQLitePath})
		if err != nil {
			log.Fatalf("[riskcore] sqlite init failed: %v", err)
		}
		journal.OnCommit = func(_ int, d time.Duration) { prom.SQLiteCommitDur.Observe(d.Seconds()) }
		health.SetSQLiteOK(true)
		dispatcher.AddSink(journal)
		recorders = append(recorders, journal)
	}

	// ---- Redis publisher ----
	var publisher *redisstore.Publisher
	if cfg.RedisAddr != "" {
		publisher, err = redisstore.New(redisstore.Config{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			ReportTTL: cfg.ReportTTL,
		})
		if err != nil {
			log.Printf("[riskcore] WARNING: redis init failed: %v (continuing without redis)", err)
			health.SetRedisConnected(false)
		} else {
			publisher.OnStateChange = func(_, to gobreaker.State) {
				prom.RedisCircuitBreakerState.Set(float64(to))
			}
			health.SetRedisConnected(true)
			dispatcher.AddSink(publisher)
			recorders = append(recorders, publisher)
		}
	}

	analyzer.SetPublisher(observingPublisher{next: dispatcher, prom: prom})
	log.Printf("[riskcore] alert sinks: %v", dispatcher.Sinks())

	// ---- Background loops ----
	// Journal and dispatcher get their own context so they can drain after
	// the HTTP server has stopped accepting ticks.
	drainCtx, drainCancel := context.WithCancel(context.Background())
	dispatchDone := make(chan struct{})
	go func() {
		dispatcher.Run(drainCtx)
		close(dispatchDone)
	}()
	journalDone := make(chan struct{})
	if journal != nil {
		go func() {
			journal.Run(drainCtx)
			close(journalDone)
		}()
	} else {
		close(journalDone)
	}

	var rdbForHealth = publisherClient(publisher)
	var dbForHealth = journalDB(journal)
	health.StartLivenessChecker(ctx, rdbForHealth, dbForHealth, 10*time.Second)

	refresher := &service.Refresher{
		Ledger:   ledger,
		Analyzer: analyzer,
		Metrics:  prom,
		Health:   health,
		Interval: cfg.RefreshInterval,
		Logger:   slogger,
	}
	if publisher != nil {
		refresher.Publisher = publisher
	}
	go refresher.Run(ctx)

	// ---- Optional live tick feed ----
	if cfg.FeedURL != "" {
		startFeed(ctx, cfg.FeedURL, &tickSink{
			analyzer:  analyzer,
			ledger:    ledger,
			recorders: recorders,
			prom:      prom,
			health:    health,
		})
	}

	// ---- HTTP API ----
	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewRouter(api.Deps{
			Desk:      desk,
			Ledger:    ledger,
			Analyzer:  analyzer,
			Alerts:    hub,
			Recorders: recorders,
			Decisions: decisionRecorder(journal),
			Metrics:   prom,
			Health:    health,
			Logger:    slogger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("[riskcore] api listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[riskcore] api server error: %v", err)
			cancel()
		}
	}()

	select {
	case s := <-sigCh:
		log.Printf("[riskcore] received %v, shutting down...", s)
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[riskcore] api shutdown: %v", err)
	}

	// Let queued alerts and ticks flush.
	drainCancel()
	<-dispatchDone
	<-journalDone

	if journal != nil {
		if err := journal.Close(); err != nil {
			log.Printf("[riskcore] sqlite close: %v", err)
		}
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Printf("[riskcore] redis close: %v", err)
		}
	}
	metricsSrv.Stop(shutdownCtx)
	slogger.Info("shutdown complete", slog.Int("alerts", analyzer.AlertCount()))
}

func startFeed(ctx context.Context, url string, sink *tickSink) {
	ingest, err := feed.New(feed.Config{URL: url})
	if err != nil {
		log.Fatalf("[riskcore] feed init failed: %v", err)
	}
	observeFeed(ingest, sink.prom)

	tickCh := make(chan model.Tick, 10000)
	go func() {
		if err := ingest.Start(ctx, tickCh); err != nil {
			log.Printf("[riskcore] feed error: %v", err)
		}
	}()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-tickCh:
				sink.handle(ctx, t)
			}
		}
	}()
	log.Printf("[riskcore] tick feed: %s", url)
}
