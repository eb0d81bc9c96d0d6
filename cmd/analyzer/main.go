package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/Alias1177/SignalEngine/internal/analyze"
	"github.com/Alias1177/SignalEngine/internal/api/twelvedata"
	"github.com/Alias1177/SignalEngine/internal/config"
	"github.com/Alias1177/SignalEngine/internal/trading/backtest"
	"github.com/Alias1177/SignalEngine/internal/trading/risk"
	"github.com/Alias1177/SignalEngine/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	setupSignalHandling(cancel)

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if len(os.Args) > 1 {
		cfg.Symbol = strings.ToUpper(os.Args[1])
	}

	// 2. Configure logging
	setupLogging(cfg.LogLevel)
	log.Info().Msg("Starting Signal Analyzer")

	// 3. Print configuration
	printConfig(cfg)

	// 4. Setup API client and scorer
	twClient := twelvedata.NewClient(twelvedata.ClientOptions{
		APIKey:         cfg.TwelveAPIKey,
		Interval:       cfg.Interval,
		CandleCount:    cfg.CandleCount,
		RequestTimeout: time.Duration(cfg.RequestTimeout) * time.Second,
		RequestsPerSec: cfg.RequestsPerSec,
		MaxRetries:     cfg.MaxRetries,
		Logger:         log.Logger,
	})

	scorer, err := analyze.New(cfg.Analysis)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid scorer configuration")
	}

	// 5. Run backtesting if enabled
	if cfg.EnableBacktest {
		runBacktesting(ctx, twClient, scorer, cfg)
	}

	// 6. Run analysis
	if err := runAnalysis(ctx, twClient, scorer, cfg); err != nil {
		log.Fatal().Err(err).Str("symbol", cfg.Symbol).Msg("Analysis failed")
	}
}

// setupSignalHandling configures signal handling for graceful shutdown
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, exiting...")
		cancel()
		os.Exit(0)
	}()
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	// Set log level from config
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// printConfig outputs the current configuration
func printConfig(cfg *config.Config) {
	w := cfg.Analysis.Weights
	log.Info().
		Str("Symbol", cfg.Symbol).
		Str("Interval", cfg.Interval).
		Int("CandleCount", cfg.CandleCount).
		Int("RSIPeriod", cfg.Analysis.RSIPeriod).
		Int("MACDFast", cfg.Analysis.MACDFast).
		Int("MACDSlow", cfg.Analysis.MACDSlow).
		Int("MACDSignal", cfg.Analysis.MACDSignal).
		Int("BollingerPeriod", cfg.Analysis.BollingerPeriod).
		Float64("BollingerStdDev", cfg.Analysis.BollingerStdDev).
		Int("ADXPeriod", cfg.Analysis.ADXPeriod).
		Int("ATRPeriod", cfg.Analysis.ATRPeriod).
		Str("Weights", fmt.Sprintf("%.2f/%.2f/%.2f/%.2f", w.Technical, w.Volume, w.PriceAction, w.Patterns)).
		Float64("AccountSize", cfg.Scan.AccountSize).
		Str("RiskLevel", cfg.Scan.RiskLevel).
		Bool("EnableBacktest", cfg.EnableBacktest).
		Int("BacktestDays", cfg.BacktestDays).
		Msg("Configuration loaded")
}

// runBacktesting validates the scorer's recommendations on history
func runBacktesting(ctx context.Context, client *twelvedata.Client, scorer *analyze.Scorer, cfg *config.Config) {
	log.Info().Msg("Running backtesting...")
	engine := backtest.NewEngine(client, scorer, backtest.Options{
		Window:  cfg.CandleCount,
		Horizon: cfg.BacktestHorizon,
	})

	results, err := engine.Run(ctx, cfg.Symbol, cfg.Interval, cfg.BacktestDays)
	if err != nil {
		log.Error().Err(err).Msg("Backtest failed")
		return
	}

	// Display results
	fmt.Println(backtest.FormatResults(results))
}

// runAnalysis fetches history for one symbol and prints its snapshot and score
func runAnalysis(ctx context.Context, client *twelvedata.Client, scorer *analyze.Scorer, cfg *config.Config) error {
	log.Info().Msg("Fetching latest market data...")
	series, err := client.FetchBars(ctx, cfg.Symbol)
	if err != nil {
		return fmt.Errorf("failed to fetch candles: %w", err)
	}

	snapshot, err := scorer.Snapshot(series)
	if err != nil {
		return err
	}
	score, err := scorer.Score(series)
	if err != nil {
		return err
	}

	printMarketAnalysis(cfg.Symbol, series, snapshot)
	printScore(score)

	if cfg.Scan.AccountSize > 0 {
		level, err := risk.ParseRiskLevel(cfg.Scan.RiskLevel)
		if err != nil {
			return err
		}
		atr, _ := scorer.ATR(series)
		stop := risk.DetermineStopLoss(snapshot.Close, atr, risk.DirectionForScore(score.Score))
		printPosition(risk.CalculatePositionSize(snapshot.Close, stop, cfg.Scan.AccountSize, level.Fraction()))
	}
	return nil
}

func printMarketAnalysis(symbol string, series models.Series, snap analyze.IndicatorSnapshot) {
	last, _ := series.Last()
	fmt.Printf("\n===== MARKET ANALYSIS: %s =====\n", symbol)
	fmt.Printf("Current Price: %.5f (O: %.5f, H: %.5f, L: %.5f, C: %.5f) at %s\n",
		last.Close, last.Open, last.High, last.Low, last.Close, last.Timestamp.Format(time.RFC3339))

	fmt.Printf("\nIndicators:\n")
	names := make([]string, 0, len(snap.Values))
	for name := range snap.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-15s %.5f\n", name, snap.Values[name])
	}

	if len(snap.Patterns) > 0 {
		fmt.Printf("\nDetected Patterns: %v\n", snap.Patterns)
	}
	if len(snap.Levels.Support) > 0 {
		fmt.Printf("\nNearest Support Levels: %s\n", joinLevels(snap.Levels.Support))
	}
	if len(snap.Levels.Resistance) > 0 {
		fmt.Printf("Nearest Resistance Levels: %s\n", joinLevels(snap.Levels.Resistance))
	}
}

func printScore(score models.Score) {
	fmt.Println("\n===== COMPOSITE SCORE =====")
	fmt.Printf("Score: %+.2f | Confidence: %.1f%% | Recommendation: %s\n",
		score.Score, score.Confidence, score.Recommendation)

	c := score.Components
	for _, row := range []struct {
		name string
		comp models.Component
	}{
		{analyze.ComponentTechnical, c.Technical},
		{analyze.ComponentVolume, c.Volume},
		{analyze.ComponentPriceAction, c.PriceAction},
		{analyze.ComponentPatterns, c.Patterns},
	} {
		fmt.Printf("\n%s: %+.1f (weight %.2f)\n", row.name, row.comp.Score, row.comp.Weight)
		for _, s := range row.comp.Signals {
			fmt.Printf("- %s\n", s)
		}
	}
}

func printPosition(p models.PositionSizingResult) {
	fmt.Println("\n===== POSITION =====")
	if p.Quantity == 0 {
		fmt.Println("Account too small for one share at this risk level")
		return
	}
	fmt.Printf("Quantity: %d | Stop: %.4f | Target: %.4f | R:R 1:%.1f\n",
		p.Quantity, p.StopLoss, p.TakeProfit, p.RiskRewardRatio)
	fmt.Printf("Risk: %.2f (%.2f%% of account) | Capital: %.2f\n",
		p.RiskAmount, p.AccountRisk, p.CapitalRequired)
}

func joinLevels(levels []float64) string {
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = fmt.Sprintf("%.5f", l)
	}
	return strings.Join(parts, ", ")
}
