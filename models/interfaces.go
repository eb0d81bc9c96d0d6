package models

import "context"

// BarFetcher supplies OHLCV history for a symbol
type BarFetcher interface {
	FetchBars(ctx context.Context, symbol string) (Series, error)
}

// UniverseSource supplies the list of symbols to scan
type UniverseSource interface {
	Symbols(ctx context.Context) ([]string, error)
}
