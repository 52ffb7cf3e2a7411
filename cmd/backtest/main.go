// cmd/backtest replays journaled ticks from SQLite through the market
// analyzer to check indicator and alert behaviour without a live feed.
//
// Usage:
//
//	go run ./cmd/backtest --db=data/tradingbot.db --symbol=AAPL --speed=0
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/anand121shah/tradingbot/internal/logger"
	"github.com/anand121shah/tradingbot/internal/market"
	"github.com/anand121shah/tradingbot/internal/marketdata/replay"
	"github.com/anand121shah/tradingbot/internal/model"
	sqlitestore "github.com/anand121shah/tradingbot/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	speed := flag.Float64("speed", 0, "Playback speed multiplier (0=max, 1=realtime, 100=100x)")
	symbol := flag.String("symbol", "", "Symbol to replay (empty=all)")
	fromStr := flag.String("from", "", "Start of range, RFC3339 or unix seconds (empty=open)")
	toStr := flag.String("to", "", "End of range, RFC3339 or unix seconds (empty=open)")
	dbPath := flag.String("db", "data/tradingbot.db", "Path to SQLite journal")
	minObs := flag.Int("min-observations", 20, "Observations required before analysis")
	flag.Parse()

	from, err := parseTime(*fromStr)
	if err != nil {
		log.Fatalf("[backtest] bad --from: %v", err)
	}
	to, err := parseTime(*toStr)
	if err != nil {
		log.Fatalf("[backtest] bad --to: %v", err)
	}

	reader, err := sqlitestore.NewReader(*dbPath)
	if err != nil {
		log.Fatalf("[backtest] sqlite open failed: %v", err)
	}
	defer reader.Close()

	cfg := market.DefaultConfig()
	cfg.MinObservations = *minObs
	analyzer := market.NewAnalyzer(cfg, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	stats := newRunStats()
	n, err := replay.New(reader).Run(ctx, replay.Range{Symbol: *symbol, From: from, To: to}, *speed,
		func(t model.Tick) {
			alerts := analyzer.UpdateMarketData(t.Symbol, t.Price, t.Volume, t.TS)
			stats.observe(t, alerts)
			for _, a := range alerts {
				fmt.Printf("  [%s] %-6s %-24s %s\n", a.Timestamp.Format("2006-01-02 15:04:05"), a.Symbol, a.Type, a.Priority)
			}
		})
	if err != nil {
		log.Printf("[backtest] replay error: %v", err)
	}

	fmt.Println()
	renderReport(os.Stdout, analyzer, stats, n)
}

// parseTime accepts RFC3339 or unix seconds. Empty means an open bound.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Parse(time.RFC3339, s)
}
