package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/avollmer/marketpulse/internal/record"
)

// SQLiteConfig controls the embedded database backend.
type SQLiteConfig struct {
	Path      string
	Policy    ConflictPolicy
	BatchSize int
}

// SQLite persists records in an embedded database file. Dates are stored as
// day strings so the file stays portable across legacy tooling.
type SQLite struct {
	db        *sql.DB
	policy    ConflictPolicy
	batchSize int
}

// NewSQLite opens (and creates, when missing) the database file.
func NewSQLite(cfg SQLiteConfig) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("store.path is required")
	}
	policy, err := ParseConflictPolicy(string(cfg.Policy))
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}
	// SQLite serializes writers anyway; one connection sidesteps busy errors
	// and keeps in-memory databases on a single handle.
	db.SetMaxOpenConns(1)
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return &SQLite{db: db, policy: policy, batchSize: batch}, nil
}

// EnsureSchema creates the record tables when missing. Tables created by
// legacy tooling keep their shape; DeduplicateAndCompact exists for those.
func (s *SQLite) EnsureSchema(ctx context.Context) error {
	for _, table := range record.Tables {
		ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	date TEXT NOT NULL,
	category TEXT NOT NULL,
	num INTEGER NOT NULL,
	href TEXT NOT NULL DEFAULT '',
	UNIQUE (date, category)
)`, table)
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
	}
	return nil
}

func (s *SQLite) conflictClause() string {
	if s.policy == ConflictIgnore {
		return "ON CONFLICT (date, category) DO NOTHING"
	}
	return "ON CONFLICT (date, category) DO UPDATE SET num = excluded.num, href = excluded.href"
}

// Upsert writes records in batches of at most batchSize rows, one multi-row
// statement per batch. A failed batch is collected with its record range and
// the remaining batches still run.
func (s *SQLite) Upsert(ctx context.Context, table string, recs []record.Record) (int, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	stored := 0
	var errs []error
	for start := 0; start < len(recs); start += s.batchSize {
		end := start + s.batchSize
		if end > len(recs) {
			end = len(recs)
		}
		batch := recs[start:end]
		placeholders := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*4)
		for _, r := range batch {
			placeholders = append(placeholders, "(?, ?, ?, ?)")
			args = append(args, r.Day(), r.Category, r.Num, r.Href)
		}
		query := fmt.Sprintf("INSERT INTO %s (date, category, num, href) VALUES %s %s",
			table, strings.Join(placeholders, ", "), s.conflictClause())
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			errs = append(errs, fmt.Errorf("batch %d-%d: %w", start, end-1, err))
			continue
		}
		if n, err := res.RowsAffected(); err == nil {
			stored += int(n)
			RowsUpserted.WithLabelValues(table).Add(float64(n))
		}
	}
	return stored, errors.Join(errs...)
}

// CountForDay reports how many rows a day holds.
func (s *SQLite) CountForDay(ctx context.Context, table, day string) (int, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE date = ?", table)
	if err := s.db.QueryRowContext(ctx, query, day).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s for %s: %w", table, day, err)
	}
	return n, nil
}

// Rows returns every row of a table ordered by date then category.
func (s *SQLite) Rows(ctx context.Context, table string) ([]record.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT date, category, num, href FROM %s ORDER BY date, category", table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	return scanRecords(rows)
}

// RowsForDay returns one day's rows ordered by category.
func (s *SQLite) RowsForDay(ctx context.Context, table, day string) ([]record.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT date, category, num, href FROM %s WHERE date = ? ORDER BY category", table)
	rows, err := s.db.QueryContext(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("select %s for %s: %w", table, day, err)
	}
	return scanRecords(rows)
}

// DeduplicateAndCompact keeps the earliest physical row per (date, category),
// drops the rest, and vacuums the file so the space is actually reclaimed.
func (s *SQLite) DeduplicateAndCompact(ctx context.Context, table string) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE rowid NOT IN (
	SELECT MIN(rowid) FROM %s GROUP BY date, category
)`, table, table)
	res, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("deduplicate %s: %w", table, err)
	}
	removed, _ := res.RowsAffected()
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return removed, fmt.Errorf("vacuum after deduplicating %s: %w", table, err)
	}
	return removed, nil
}

// Close releases the database handle.
func (s *SQLite) Close() {
	if s == nil || s.db == nil {
		return
	}
	_ = s.db.Close()
}

func scanRecords(rows *sql.Rows) ([]record.Record, error) {
	defer rows.Close()
	var out []record.Record
	for rows.Next() {
		var day, category, href string
		var num int
		if err := rows.Scan(&day, &category, &num, &href); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		date, err := time.Parse(record.DayFormat, day)
		if err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", day, err)
		}
		out = append(out, record.Record{Date: date, Category: category, Num: num, Href: href})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
