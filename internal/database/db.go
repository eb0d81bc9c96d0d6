package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// DB represents a database connection
type DB struct {
	*sqlx.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the lib/pq connection string
func (p ConnectionParams) DSN() string {
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, sslMode,
	)
}

// WatchlistEntry is one row of the watchlist table
type WatchlistEntry struct {
	Symbol        string     `db:"symbol"`
	Active        bool       `db:"active"`
	AddedAt       time.Time  `db:"added_at"`
	LastScannedAt *time.Time `db:"last_scanned_at"`
	LastScore     *float64   `db:"last_score"`
}

// New creates a new database connection
func New(ctx context.Context, params ConnectionParams) (*DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", params.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	// Create tables if they don't exist
	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS watchlist (
			symbol TEXT PRIMARY KEY,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			added_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_scanned_at TIMESTAMPTZ,
			last_score DOUBLE PRECISION
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create watchlist table: %w", err)
	}
	return nil
}

// Symbols returns the active watchlist symbols in insertion order
func (db *DB) Symbols(ctx context.Context) ([]string, error) {
	var symbols []string
	err := db.SelectContext(ctx, &symbols, `
		SELECT symbol FROM watchlist
		WHERE active
		ORDER BY added_at, symbol
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}
	return symbols, nil
}

// Watchlist returns every watchlist row, active or not
func (db *DB) Watchlist(ctx context.Context) ([]WatchlistEntry, error) {
	var entries []WatchlistEntry
	if err := db.SelectContext(ctx, &entries, `SELECT * FROM watchlist ORDER BY added_at, symbol`); err != nil {
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}
	return entries, nil
}

// AddSymbol adds or reactivates a symbol
func (db *DB) AddSymbol(ctx context.Context, symbol string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO watchlist (symbol) VALUES ($1)
		ON CONFLICT (symbol) DO UPDATE SET active = TRUE
	`, normalizeSymbol(symbol))
	return err
}

// RemoveSymbol deactivates a symbol without losing its history
func (db *DB) RemoveSymbol(ctx context.Context, symbol string) error {
	_, err := db.ExecContext(ctx, `UPDATE watchlist SET active = FALSE WHERE symbol = $1`, normalizeSymbol(symbol))
	return err
}

// MarkScanned records when a symbol was last scanned and the score it got.
// A nil score clears last_score for symbols that did not make the ranking.
func (db *DB) MarkScanned(ctx context.Context, symbol string, at time.Time, score *float64) error {
	_, err := db.ExecContext(ctx, `
		UPDATE watchlist
		SET last_scanned_at = $1, last_score = $2
		WHERE symbol = $3
	`, at.UTC(), score, normalizeSymbol(symbol))
	return err
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
