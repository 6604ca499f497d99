package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/amishk599/priceask/internal/model"
)

// Ensure SQLiteCache implements model.PriceCache.
var _ model.PriceCache = (*SQLiteCache)(nil)

// SQLiteCache keeps fetched price days in a SQLite database, one row per
// (region, day) holding the JSON-encoded price points.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens (or creates) a SQLite database at dbPath and ensures the
// price_days table exists.
func NewSQLiteCache(dbPath string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	createTable := `CREATE TABLE IF NOT EXISTS price_days (
		region     TEXT NOT NULL,
		day        TEXT NOT NULL,
		points     TEXT NOT NULL,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (region, day)
	)`
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating price_days table: %w", err)
	}

	return &SQLiteCache{db: db}, nil
}

// Get returns the stored points for the day, or ok=false when absent.
func (s *SQLiteCache) Get(ctx context.Context, date time.Time, region string) ([]model.PricePoint, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT points FROM price_days WHERE region = ? AND day = ?",
		region, model.DateKey(date),
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading prices for %s %s: %w", region, model.DateKey(date), err)
	}

	var points []model.PricePoint
	if err := json.Unmarshal([]byte(raw), &points); err != nil {
		return nil, false, fmt.Errorf("decoding prices for %s %s: %w", region, model.DateKey(date), err)
	}
	return points, true, nil
}

// Put stores the points for the day, replacing any previous row.
func (s *SQLiteCache) Put(ctx context.Context, date time.Time, region string, points []model.PricePoint) error {
	raw, err := json.Marshal(points)
	if err != nil {
		return fmt.Errorf("encoding prices for %s %s: %w", region, model.DateKey(date), err)
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO price_days (region, day, points, fetched_at) VALUES (?, ?, ?, ?)",
		region, model.DateKey(date), string(raw), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("storing prices for %s %s: %w", region, model.DateKey(date), err)
	}
	return nil
}

// Cleanup deletes entries fetched longer ago than olderThan.
func (s *SQLiteCache) Cleanup(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)
	_, err := s.db.ExecContext(ctx, "DELETE FROM price_days WHERE fetched_at < ?", cutoff)
	if err != nil {
		return fmt.Errorf("cleaning up prices older than %v: %w", olderThan, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteCache) Close() error {
	return s.db.Close()
}
