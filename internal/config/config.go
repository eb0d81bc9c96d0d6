package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Alias1177/SignalEngine/internal/analyze"
	"github.com/Alias1177/SignalEngine/models"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	TwelveAPIKey   string
	Symbol         string
	Interval       string
	CandleCount    int
	HistoryDays    int
	LogLevel       string
	RequestTimeout int // seconds
	RequestsPerSec int
	MaxRetries     int

	EnableBacktest  bool
	BacktestDays    int
	BacktestHorizon int

	ScanConcurrency int
	FetchTimeout    int // seconds, per symbol
	ProfilePath     string
	Universe        []string
	Scan            models.ScanParams
	Analysis        analyze.Config

	Database DatabaseConfig
	Redis    RedisConfig
	Telegram TelegramConfig

	MetricsAddr string
}

// DatabaseConfig holds the Postgres connection settings. An empty Host
// disables the watchlist store.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds the bar cache settings. An empty Addr disables caching.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// TelegramConfig holds the digest bot settings
type TelegramConfig struct {
	BotToken string
	ChatID   int64
}

// Profile is the YAML scan profile. Fields left out keep their defaults.
type Profile struct {
	Universe []string          `yaml:"universe"`
	Scan     models.ScanParams `yaml:"scan"`
	Analysis analyze.Config    `yaml:"analysis"`
}

// Load initializes configuration from defaults, the optional YAML profile
// named by SCAN_PROFILE, and environment variables, in that order
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := defaults()
	cfg.ProfilePath = os.Getenv("SCAN_PROFILE")
	if cfg.ProfilePath != "" {
		if err := cfg.applyProfile(cfg.ProfilePath); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Symbol:          "AAPL",
		Interval:        "1day",
		CandleCount:     200,
		LogLevel:        "info",
		RequestTimeout:  30,
		RequestsPerSec:  5,
		MaxRetries:      3,
		BacktestDays:    365,
		BacktestHorizon: 5,
		ScanConcurrency: 4,
		FetchTimeout:    15,
		Scan: models.ScanParams{
			MinPrice:  1,
			MinScore:  20,
			RiskLevel: "medium",
			TopN:      20,
		},
		Analysis: analyze.DefaultConfig(),
		Database: DatabaseConfig{
			Port:    5432,
			SSLMode: "disable",
		},
		Redis: RedisConfig{TTL: 5 * time.Minute},
	}
}

// applyProfile overlays the YAML profile at path onto cfg
func (cfg *Config) applyProfile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read profile: %w", err)
	}
	profile := Profile{Universe: cfg.Universe, Scan: cfg.Scan, Analysis: cfg.Analysis}
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return fmt.Errorf("parse profile %s: %w", path, err)
	}
	cfg.Universe = profile.Universe
	cfg.Scan = profile.Scan
	cfg.Analysis = profile.Analysis
	return nil
}

// applyEnv overrides cfg with any environment variables that are set
func (cfg *Config) applyEnv() {
	cfg.TwelveAPIKey = os.Getenv("TWELVE_API_KEY")
	cfg.Symbol = getEnvWithDefault("SYMBOL", cfg.Symbol)
	cfg.Interval = getEnvWithDefault("INTERVAL", cfg.Interval)
	cfg.CandleCount = getEnvIntWithDefault("CANDLE_COUNT", cfg.CandleCount)
	cfg.HistoryDays = getEnvIntWithDefault("HISTORY_DAYS", cfg.HistoryDays)
	if cfg.HistoryDays > 0 {
		if n := models.CandlesForDays(cfg.Interval, cfg.HistoryDays); n > 0 {
			cfg.CandleCount = n
		}
	}
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.RequestsPerSec = getEnvIntWithDefault("REQUESTS_PER_SEC", cfg.RequestsPerSec)
	cfg.MaxRetries = getEnvIntWithDefault("MAX_RETRIES", cfg.MaxRetries)
	cfg.EnableBacktest = getEnvBoolWithDefault("ENABLE_BACKTEST", cfg.EnableBacktest)
	cfg.BacktestDays = getEnvIntWithDefault("BACKTEST_DAYS", cfg.BacktestDays)
	cfg.BacktestHorizon = getEnvIntWithDefault("BACKTEST_HORIZON", cfg.BacktestHorizon)

	cfg.ScanConcurrency = getEnvIntWithDefault("SCAN_CONCURRENCY", cfg.ScanConcurrency)
	cfg.FetchTimeout = getEnvIntWithDefault("FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.Scan.MinScore = getEnvFloatWithDefault("SCAN_MIN_SCORE", cfg.Scan.MinScore)
	cfg.Scan.TopN = getEnvIntWithDefault("SCAN_TOP_N", cfg.Scan.TopN)
	cfg.Scan.MinPrice = getEnvFloatWithDefault("SCAN_MIN_PRICE", cfg.Scan.MinPrice)
	cfg.Scan.MaxPrice = getEnvFloatWithDefault("SCAN_MAX_PRICE", cfg.Scan.MaxPrice)
	cfg.Scan.MinVolume = getEnvFloatWithDefault("SCAN_MIN_VOLUME", cfg.Scan.MinVolume)
	cfg.Scan.AccountSize = getEnvFloatWithDefault("ACCOUNT_SIZE", cfg.Scan.AccountSize)
	cfg.Scan.RiskLevel = getEnvWithDefault("RISK_LEVEL", cfg.Scan.RiskLevel)
	if v := os.Getenv("SCAN_UNIVERSE"); v != "" {
		cfg.Universe = strings.Split(v, ",")
	}

	cfg.Database.Host = getEnvWithDefault("DB_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvIntWithDefault("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnvWithDefault("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnvWithDefault("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnvWithDefault("DB_NAME", cfg.Database.DBName)
	cfg.Database.SSLMode = getEnvWithDefault("DB_SSLMODE", cfg.Database.SSLMode)

	cfg.Redis.Addr = getEnvWithDefault("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnvWithDefault("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvIntWithDefault("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.TTL = time.Duration(getEnvIntWithDefault("REDIS_TTL", int(cfg.Redis.TTL/time.Second))) * time.Second

	cfg.Telegram.BotToken = getEnvWithDefault("TELEGRAM_BOT_TOKEN", cfg.Telegram.BotToken)
	cfg.Telegram.ChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", cfg.Telegram.ChatID)

	cfg.MetricsAddr = getEnvWithDefault("METRICS_ADDR", cfg.MetricsAddr)
}

// Validate checks the settings the binaries cannot run without
func (cfg *Config) Validate() error {
	if cfg.CandleCount <= 0 {
		return fmt.Errorf("CANDLE_COUNT must be positive, got %d", cfg.CandleCount)
	}
	if cfg.ScanConcurrency <= 0 {
		return fmt.Errorf("SCAN_CONCURRENCY must be positive, got %d", cfg.ScanConcurrency)
	}
	if cfg.Scan.TopN < 0 {
		return fmt.Errorf("SCAN_TOP_N must not be negative, got %d", cfg.Scan.TopN)
	}
	if err := cfg.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis profile: %w", err)
	}
	return nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}
