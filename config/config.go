package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. Values come from struct
// defaults, then an optional YAML file (CONFIG_FILE), then environment
// variables (optionally loaded from a .env file).
type Config struct {
	// Signal validation
	MaxPositionSize    float64 `yaml:"max_position_size" default:"10000" validate:"gt=0"`
	MinRiskRewardRatio float64 `yaml:"min_risk_reward_ratio" default:"2.0" validate:"gte=0"`

	// Risk ledger
	PortfolioValue   float64 `yaml:"portfolio_value" default:"100000" validate:"gte=0"`
	MaxPositionRisk  float64 `yaml:"max_position_risk" default:"0.01" validate:"gt=0,lte=1"`
	MaxPortfolioRisk float64 `yaml:"max_portfolio_risk" default:"0.02" validate:"gt=0,lte=1"`
	RiskFreeRate     float64 `yaml:"risk_free_rate" default:"0.02"`

	// Market analyzer
	HistorySize     int `yaml:"history_size" default:"1000" validate:"gt=0"`
	MinObservations int `yaml:"min_observations" default:"20" validate:"gt=0"`
	MaxAlerts       int `yaml:"max_alerts" default:"0" validate:"gte=0"`
	AlertBuffer     int `yaml:"alert_buffer" default:"256" validate:"gt=0"`

	// Infrastructure
	RedisAddr       string        `yaml:"redis_addr" default:""`
	RedisPassword   string        `yaml:"redis_password" default:""`
	SQLitePath      string        `yaml:"sqlite_path" default:"data/tradingbot.db"`
	HTTPAddr        string        `yaml:"http_addr" default:":8080" validate:"required"`
	MetricsAddr     string        `yaml:"metrics_addr" default:":9090" validate:"required"`
	RefreshInterval time.Duration `yaml:"refresh_interval" default:"5s" validate:"gt=0"`
	ReportTTL       time.Duration `yaml:"report_ttl" default:"1m"`
	FeedURL         string        `yaml:"feed_url" default:"" validate:"omitempty,url"`

	// Notifications
	TelegramBotToken  string `yaml:"telegram_bot_token" default:""`
	TelegramChatID    string `yaml:"telegram_chat_id" default:""`
	WebhookURL        string `yaml:"webhook_url" default:"" validate:"omitempty,url"`
	NotifyMinPriority string `yaml:"notify_min_priority" default:"high" validate:"oneof=high medium low"`

	LogLevel string `yaml:"log_level" default:"INFO" validate:"oneof=DEBUG INFO WARN ERROR"`
}

// Load reads configuration from defaults, CONFIG_FILE, .env and the
// environment, in increasing precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.LogLevel = strings.ToUpper(cfg.LogLevel)
	cfg.NotifyMinPriority = strings.ToLower(cfg.NotifyMinPriority)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config invalid: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	log.Printf("[config] loaded %s", path)
	return nil
}

func (c *Config) applyEnv() {
	c.MaxPositionSize = getEnvFloat("MAX_POSITION_SIZE", c.MaxPositionSize)
	c.MinRiskRewardRatio = getEnvFloat("MIN_RISK_REWARD_RATIO", c.MinRiskRewardRatio)

	c.PortfolioValue = getEnvFloat("PORTFOLIO_VALUE", c.PortfolioValue)
	// RISK_PER_TRADE is the older name for the per-position budget.
	c.MaxPositionRisk = getEnvFloat("RISK_PER_TRADE", c.MaxPositionRisk)
	c.MaxPositionRisk = getEnvFloat("MAX_POSITION_RISK", c.MaxPositionRisk)
	c.MaxPortfolioRisk = getEnvFloat("MAX_PORTFOLIO_RISK", c.MaxPortfolioRisk)
	c.RiskFreeRate = getEnvFloat("RISK_FREE_RATE", c.RiskFreeRate)

	c.HistorySize = getEnvInt("HISTORY_SIZE", c.HistorySize)
	c.MinObservations = getEnvInt("MIN_OBSERVATIONS", c.MinObservations)
	c.MaxAlerts = getEnvInt("MAX_ALERTS", c.MaxAlerts)
	c.AlertBuffer = getEnvInt("ALERT_BUFFER", c.AlertBuffer)

	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.MetricsAddr = getEnv("METRICS_ADDR", c.MetricsAddr)
	c.RefreshInterval = getEnvDuration("REFRESH_INTERVAL", c.RefreshInterval)
	c.ReportTTL = getEnvDuration("REPORT_TTL", c.ReportTTL)
	c.FeedURL = getEnv("FEED_URL", c.FeedURL)

	c.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramBotToken)
	c.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", c.TelegramChatID)
	c.WebhookURL = getEnv("WEBHOOK_URL", c.WebhookURL)
	c.NotifyMinPriority = getEnv("NOTIFY_MIN_PRIORITY", c.NotifyMinPriority)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// SlogLevel maps LogLevel to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] ignoring invalid %s=%q: %v", key, v, err)
		return fallback
	}
	return f
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] ignoring invalid %s=%q: %v", key, v, err)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] ignoring invalid %s=%q: %v", key, v, err)
		return fallback
	}
	return d
}
