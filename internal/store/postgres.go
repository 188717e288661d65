package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avollmer/marketpulse/internal/record"
)

// PostgresConfig controls the Postgres connection pool.
type PostgresConfig struct {
	DSN             string
	Policy          ConflictPolicy
	BatchSize       int
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Postgres persists records in a shared Postgres database.
type Postgres struct {
	pool      pgxPool
	policy    ConflictPolicy
	batchSize int
}

// NewPostgres creates a Postgres-backed store using the provided config.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	policy, err := ParseConflictPolicy(string(cfg.Policy))
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	return &Postgres{pool: pool, policy: policy, batchSize: batch}, nil
}

// NewPostgresWithPool constructs a store from an existing pool (primarily for
// testing).
func NewPostgresWithPool(pool pgxPool, policy ConflictPolicy, batchSize int) (*Postgres, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	p, err := ParseConflictPolicy(string(policy))
	if err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Postgres{pool: pool, policy: p, batchSize: batchSize}, nil
}

// EnsureSchema creates the record tables when missing.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	for _, table := range record.Tables {
		ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	date TEXT NOT NULL,
	category TEXT NOT NULL,
	num INTEGER NOT NULL,
	href TEXT NOT NULL DEFAULT '',
	UNIQUE (date, category)
)`, table)
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
	}
	return nil
}

func (s *Postgres) conflictClause() string {
	if s.policy == ConflictIgnore {
		return "ON CONFLICT (date, category) DO NOTHING"
	}
	return "ON CONFLICT (date, category) DO UPDATE SET num = EXCLUDED.num, href = EXCLUDED.href"
}

// Upsert writes records in batches of at most batchSize rows, one multi-row
// statement per batch. A failed batch is collected with its record range and
// the remaining batches still run.
func (s *Postgres) Upsert(ctx context.Context, table string, recs []record.Record) (int, error) {
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
		for i, r := range batch {
			placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d, $%d)", i*4+1, i*4+2, i*4+3, i*4+4))
			args = append(args, r.Day(), r.Category, r.Num, r.Href)
		}
		query := fmt.Sprintf("INSERT INTO %s (date, category, num, href) VALUES %s %s",
			table, strings.Join(placeholders, ", "), s.conflictClause())
		tag, err := s.pool.Exec(ctx, query, args...)
		if err != nil {
			errs = append(errs, fmt.Errorf("batch %d-%d: %w", start, end-1, err))
			continue
		}
		stored += int(tag.RowsAffected())
		RowsUpserted.WithLabelValues(table).Add(float64(tag.RowsAffected()))
	}
	return stored, errors.Join(errs...)
}

// CountForDay reports how many rows a day holds.
func (s *Postgres) CountForDay(ctx context.Context, table, day string) (int, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE date = $1", table)
	if err := s.pool.QueryRow(ctx, query, day).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s for %s: %w", table, day, err)
	}
	return n, nil
}

// Rows returns every row of a table ordered by date then category.
func (s *Postgres) Rows(ctx context.Context, table string) ([]record.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT date, category, num, href FROM %s ORDER BY date, category", table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	return scanPgxRecords(rows)
}

// RowsForDay returns one day's rows ordered by category.
func (s *Postgres) RowsForDay(ctx context.Context, table, day string) ([]record.Record, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT date, category, num, href FROM %s WHERE date = $1 ORDER BY category", table)
	rows, err := s.pool.Query(ctx, query, day)
	if err != nil {
		return nil, fmt.Errorf("select %s for %s: %w", table, day, err)
	}
	return scanPgxRecords(rows)
}

// DeduplicateAndCompact keeps the earliest physical row per (date, category),
// drops the rest, and vacuums the table.
func (s *Postgres) DeduplicateAndCompact(ctx context.Context, table string) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`DELETE FROM %s a USING %s b
WHERE a.ctid > b.ctid AND a.date = b.date AND a.category = b.category`, table, table)
	tag, err := s.pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("deduplicate %s: %w", table, err)
	}
	removed := tag.RowsAffected()
	if _, err := s.pool.Exec(ctx, "VACUUM "+table); err != nil {
		return removed, fmt.Errorf("vacuum after deduplicating %s: %w", table, err)
	}
	return removed, nil
}

// Close releases the underlying pool resources.
func (s *Postgres) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func scanPgxRecords(rows pgx.Rows) ([]record.Record, error) {
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
