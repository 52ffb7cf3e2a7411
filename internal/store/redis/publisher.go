package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker"

	"github.com/anand121shah/tradingbot/internal/model"
	"github.com/anand121shah/tradingbot/internal/portfolio"
)

const (
	// RiskReportKey holds the latest portfolio risk report.
	RiskReportKey = "risk:report:latest"
	// RiskReportChannel carries every published risk report.
	RiskReportChannel = "pub:risk:report"

	defaultLatestTTL    = 30 * time.Minute
	defaultMaxFailures  = 5
	defaultResetTimeout = 10 * time.Second
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = gobreaker.ErrOpenState

// Config configures the Redis publisher.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int

	ReportTTL    time.Duration // expiry of RiskReportKey
	TickTTL      time.Duration // expiry of tick:{symbol}
	MaxFailures  uint32        // consecutive failures before the breaker opens
	ResetTimeout time.Duration // open state duration before a half-open probe
}

func (c *Config) applyDefaults() {
	if c.ReportTTL <= 0 {
		c.ReportTTL = time.Minute
	}
	if c.TickTTL <= 0 {
		c.TickTTL = defaultLatestTTL
	}
	if c.MaxFailures == 0 {
		c.MaxFailures = defaultMaxFailures
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = defaultResetTimeout
	}
}

// Publisher pushes alerts, risk reports and latest ticks to Redis through
// a circuit breaker. It implements model.AlertSink and model.TickRecorder.
type Publisher struct {
	client *goredis.Client
	cb     *gobreaker.CircuitBreaker
	cfg    Config

	// OnStateChange is called on breaker transitions (for metrics).
	OnStateChange func(from, to gobreaker.State)
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// New creates a Publisher and pings the server.
func New(cfg Config) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return NewWithClient(client, cfg), nil
}

// NewWithClient wraps an existing client without pinging it.
func NewWithClient(client *goredis.Client, cfg Config) *Publisher {
	cfg.applyDefaults()
	p := &Publisher{client: client, cfg: cfg}

	maxFailures := cfg.MaxFailures
	p.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "redis",
		Timeout: cfg.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[redis] circuit breaker %s -> %s", from, to)
			if p.OnStateChange != nil {
				p.OnStateChange(from, to)
			}
		},
	})
	return p
}

// State returns the current breaker state.
func (p *Publisher) State() gobreaker.State { return p.cb.State() }

func (p *Publisher) execute(fn func() error) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

func (p *Publisher) Name() string { return "redis" }

// Deliver publishes the alert JSON on pub:alert:{symbol}.
func (p *Publisher) Deliver(ctx context.Context, a model.Alert) error {
	return p.execute(func() error {
		return p.client.Publish(ctx, a.PubSubChannel(), string(a.JSON())).Err()
	})
}

// PublishRiskReport stores the report under RiskReportKey with the
// configured TTL and announces it on RiskReportChannel.
func (p *Publisher) PublishRiskReport(ctx context.Context, r portfolio.RiskReport) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal risk report: %w", err)
	}
	payload := string(data)
	return p.execute(func() error {
		if err := p.client.Set(ctx, RiskReportKey, payload, p.cfg.ReportTTL).Err(); err != nil {
			return fmt.Errorf("redis set %s: %w", RiskReportKey, err)
		}
		return p.client.Publish(ctx, RiskReportChannel, payload).Err()
	})
}

// RecordTick keeps the latest tick per symbol under tick:{symbol}.
func (p *Publisher) RecordTick(ctx context.Context, t model.Tick) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal tick: %w", err)
	}
	return p.execute(func() error {
		return p.client.Set(ctx, t.Key(), string(data), p.cfg.TickTTL).Err()
	})
}

// LatestRiskReport reads back the stored report. ok is false when the key
// has expired or was never written.
func (p *Publisher) LatestRiskReport(ctx context.Context) (r portfolio.RiskReport, ok bool, err error) {
	raw, err := p.client.Get(ctx, RiskReportKey).Result()
	if err == goredis.Nil {
		return r, false, nil
	}
	if err != nil {
		return r, false, fmt.Errorf("redis get %s: %w", RiskReportKey, err)
	}
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return r, false, fmt.Errorf("unmarshal risk report: %w", err)
	}
	return r, true, nil
}

// Close closes the client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
