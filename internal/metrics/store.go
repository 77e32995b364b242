package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
)

// OperationMetric records the outcome of one planner operation.
type OperationMetric struct {
	Operation  string
	DurationMS int64
	Shortage   int
	Failed     bool
	Timestamp  time.Time
}

// Store handles persistence of operation metrics to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a metric. Callers treat failures as best-effort.
func (s *Store) Record(ctx context.Context, m OperationMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	query, args, err := sq.Insert("operation_metrics").
		Columns("operation", "duration_ms", "shortage", "failed", "timestamp").
		Values(m.Operation, m.DurationMS, m.Shortage, m.Failed, ts).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to record metric: %w", err)
	}
	return nil
}

// DailyUsage represents operation totals for a single day.
type DailyUsage struct {
	Date          string `db:"date"`
	Operations    int    `db:"operations"`
	TotalShortage int    `db:"total_shortage"`
	Failures      int    `db:"failures"`
}

// GetDailyUsage retrieves per-day operation totals for the last N days.
func (s *Store) GetDailyUsage(ctx context.Context, days int) ([]DailyUsage, error) {
	since := time.Now().AddDate(0, 0, -days).UTC()
	query := `SELECT date(timestamp) AS date,
		COUNT(*) AS operations,
		SUM(shortage) AS total_shortage,
		SUM(failed) AS failures
		FROM operation_metrics
		WHERE timestamp >= ?
		GROUP BY date(timestamp)
		ORDER BY date(timestamp) DESC`

	var usage []DailyUsage
	if err := sqlscan.Select(ctx, s.db, &usage, query, since); err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	return usage, nil
}

// Cleanup deletes metric rows older than the given number of days.
func (s *Store) Cleanup(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days).UTC()
	res, err := s.db.ExecContext(ctx, "DELETE FROM operation_metrics WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up metrics: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
