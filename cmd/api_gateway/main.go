// cmd/api_gateway relays alerts published to Redis by riskcore to WebSocket
// clients, and serves the latest risk report and process metrics. It lets
// the client-facing edge scale separately from the analyzer.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anand121shah/tradingbot/internal/gateway"
	"github.com/anand121shah/tradingbot/internal/metrics"
	redisstore "github.com/anand121shah/tradingbot/internal/store/redis"
)

var processStart = time.Now()

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[api_gateway] starting...")

	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	redisPassword := getEnv("REDIS_PASSWORD", "")
	listenAddr := getEnv("GATEWAY_ADDR", ":9090")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub, err := redisstore.New(redisstore.Config{Addr: redisAddr, Password: redisPassword})
	if err != nil {
		log.Fatalf("[api_gateway] redis connection failed: %v", err)
	}
	defer pub.Close()
	log.Printf("[api_gateway] redis connected at %s", redisAddr)

	health := metrics.NewHealthStatus(true, false)
	health.SetRedisConnected(true)
	health.StartLivenessChecker(ctx, pub.Client(), nil, 10*time.Second)

	hub := gateway.NewHub(0)
	go gateway.NewPubSubRouter(hub, pub.Client()).Run(ctx)

	sampler := &systemSampler{start: processStart}

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           newMux(hub, pub, health, sampler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("[api_gateway] serving at http://localhost%s", listenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[api_gateway] server error: %v", err)
		}
	}()

	<-sigCh
	log.Println("[api_gateway] shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
