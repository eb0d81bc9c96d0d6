package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Alias1177/SignalEngine/internal/analyze"
	"github.com/Alias1177/SignalEngine/internal/api/twelvedata"
	"github.com/Alias1177/SignalEngine/internal/cache"
	"github.com/Alias1177/SignalEngine/internal/config"
	"github.com/Alias1177/SignalEngine/internal/database"
	"github.com/Alias1177/SignalEngine/internal/metrics"
	"github.com/Alias1177/SignalEngine/internal/notify"
	"github.com/Alias1177/SignalEngine/internal/scanner"
	"github.com/Alias1177/SignalEngine/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The first signal cancels the scan so the partial report still prints
	setupSignalHandling(cancel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogging(cfg.LogLevel)
	log.Info().Msg("Starting Signal Scanner")
	printConfig(cfg)

	// Metrics
	registry := prometheus.NewRegistry()
	scanMetrics := metrics.NewScanMetrics(registry)
	if cfg.MetricsAddr != "" {
		srv := startMetricsServer(cfg.MetricsAddr, registry)
		defer srv.Close()
	}

	// Bar source, optionally behind the Redis cache
	var fetcher models.BarFetcher = twelvedata.NewClient(twelvedata.ClientOptions{
		APIKey:         cfg.TwelveAPIKey,
		Interval:       cfg.Interval,
		CandleCount:    cfg.CandleCount,
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
		RequestsPerSec: cfg.RequestsPerSec,
		MaxRetries:     cfg.MaxRetries,
		Logger:         log.Logger,
	})
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, fetching without cache")
		} else {
			defer rdb.Close()
			fetcher = cache.NewBarCache(fetcher, rdb, cache.Options{
				KeyPrefix: fmt.Sprintf("bars:twelvedata:%s:%d", cfg.Interval, cfg.CandleCount),
				TTL:       cfg.Redis.TTL,
				Logger:    log.Logger,
				Metrics:   scanMetrics,
			})
		}
	}

	scorer, err := analyze.New(cfg.Analysis)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid scorer configuration")
	}

	s := scanner.New(fetcher, scorer, scanner.Options{
		Concurrency:       cfg.ScanConcurrency,
		RequestsPerSecond: float64(cfg.RequestsPerSec),
		FetchTimeout:      time.Duration(cfg.FetchTimeout) * time.Second,
		ATRPeriod:         cfg.Analysis.ATRPeriod,
		Logger:            log.Logger,
		Metrics:           scanMetrics,
	})

	// Universe from the watchlist table when a database is configured
	var db *database.DB
	if cfg.Database.Host != "" {
		db, err = database.New(ctx, database.ConnectionParams{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer db.Close()
	}

	var report models.ScanReport
	if db != nil {
		report, err = s.ScanUniverse(ctx, db, cfg.Scan)
	} else {
		if len(cfg.Universe) == 0 {
			log.Fatal().Msg("No universe configured: set SCAN_UNIVERSE, SCAN_PROFILE or DB_HOST")
		}
		report, err = s.Scan(ctx, cfg.Universe, cfg.Scan)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("Scan failed")
	}
	aborted := err != nil

	printReport(report)

	// Post-scan work gets its own deadline so an interrupted scan still reports
	postCtx, postCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer postCancel()

	if db != nil {
		recordScan(postCtx, db, report)
	}

	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 && !aborted {
		bot, err := notify.NewBot(cfg.Telegram.BotToken)
		if err != nil {
			log.Error().Err(err).Msg("Telegram unavailable")
		} else if err := notify.NewTelegramDigest(bot, cfg.Telegram.ChatID, log.Logger).Send(postCtx, report); err != nil {
			log.Error().Err(err).Msg("Failed to send digest")
		}
	}

	if aborted {
		os.Exit(1)
	}
}

// scanRecorder stores per-symbol scan history
type scanRecorder interface {
	MarkScanned(ctx context.Context, symbol string, at time.Time, score *float64) error
}

// recordScan marks every attempted symbol as scanned. Only ranked symbols
// carry a score. It returns the number of failed writes.
func recordScan(ctx context.Context, rec scanRecorder, report models.ScanReport) int {
	scores := make(map[string]float64, len(report.Results))
	for _, r := range report.Results {
		scores[r.Symbol] = r.Score
	}

	failed := 0
	for _, symbol := range report.Attempted {
		var score *float64
		if v, ok := scores[symbol]; ok {
			score = &v
		}
		if err := rec.MarkScanned(ctx, symbol, report.StartedAt, score); err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to record scan")
			failed++
		}
	}
	return failed
}

// setupSignalHandling cancels ctx on the first signal and exits on the second
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, finishing with partial results...")
		cancel()
		<-c
		os.Exit(1)
	}()
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

func printConfig(cfg *config.Config) {
	log.Info().
		Str("Interval", cfg.Interval).
		Int("CandleCount", cfg.CandleCount).
		Int("Universe", len(cfg.Universe)).
		Str("Profile", cfg.ProfilePath).
		Int("Concurrency", cfg.ScanConcurrency).
		Float64("MinScore", cfg.Scan.MinScore).
		Int("TopN", cfg.Scan.TopN).
		Float64("MinPrice", cfg.Scan.MinPrice).
		Float64("MaxPrice", cfg.Scan.MaxPrice).
		Float64("MinVolume", cfg.Scan.MinVolume).
		Float64("AccountSize", cfg.Scan.AccountSize).
		Str("RiskLevel", cfg.Scan.RiskLevel).
		Bool("Database", cfg.Database.Host != "").
		Bool("Cache", cfg.Redis.Addr != "").
		Msg("Configuration loaded")
}

func startMetricsServer(addr string, g prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("Metrics server stopped")
		}
	}()
	log.Info().Str("addr", addr).Msg("Serving metrics")
	return srv
}

func printReport(report models.ScanReport) {
	fmt.Printf("\n===== SCAN %s =====\n", report.ID)
	fmt.Printf("Started %s | took %s | scanned %d | ranked %d | filtered %d | skipped %d\n",
		report.StartedAt.Format(time.RFC3339), report.Duration.Round(time.Millisecond),
		report.Scanned, len(report.Results), report.Filtered, report.Skipped)

	if len(report.Results) > 0 {
		fmt.Printf("\n%-4s %-10s %8s %-12s %6s %12s %8s %12s\n", "#", "SYMBOL", "SCORE", "SIGNAL", "CONF", "PRICE", "QTY", "STOP")
		for i, r := range report.Results {
			qty, stop := "-", "-"
			if r.Position != nil && r.Position.Quantity > 0 {
				qty = fmt.Sprintf("%d", r.Position.Quantity)
				stop = fmt.Sprintf("%.4f", r.Position.StopLoss)
			}
			fmt.Printf("%-4d %-10s %+8.2f %-12s %5.1f%% %12.4f %8s %12s\n",
				i+1, r.Symbol, r.Score, r.Recommendation, r.Confidence, r.LastPrice, qty, stop)
		}
	}

	if len(report.Errors) > 0 {
		fmt.Println("\nSkipped:")
		for sym, msg := range report.Errors {
			fmt.Printf("- %s: %s\n", sym, strings.TrimSpace(msg))
		}
	}
}
