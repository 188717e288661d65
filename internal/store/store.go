// Package store persists dated category count records. Two backends share the
// same contract: an embedded SQLite file for single-host runs and Postgres for
// shared deployments.
package store

import (
	"context"
	"fmt"
	"regexp"

	"github.com/avollmer/marketpulse/internal/record"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// DefaultBatchSize is how many records one insert statement carries.
const DefaultBatchSize = 1000

// ConflictPolicy decides what an upsert does when a (date, category) row
// already exists.
type ConflictPolicy string

const (
	// ConflictOverwrite replaces the stored count with the incoming one, so
	// re-running a crawl refreshes the day.
	ConflictOverwrite ConflictPolicy = "overwrite"
	// ConflictIgnore keeps the first count written for the day.
	ConflictIgnore ConflictPolicy = "ignore"
)

// ParseConflictPolicy validates a configured policy string.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch ConflictPolicy(s) {
	case ConflictOverwrite, ConflictIgnore:
		return ConflictPolicy(s), nil
	case "":
		return ConflictOverwrite, nil
	default:
		return "", fmt.Errorf("unknown conflict policy %q (want overwrite or ignore)", s)
	}
}

// Store is the persistence contract shared by both backends. Upsert is
// idempotent under its conflict policy: feeding the same records twice leaves
// one row per (date, category).
type Store interface {
	// EnsureSchema creates the record tables when missing.
	EnsureSchema(ctx context.Context) error
	// Upsert writes records in batches and reports how many rows the
	// statements touched. A failed batch is reported but later batches are
	// still attempted.
	Upsert(ctx context.Context, table string, recs []record.Record) (int, error)
	// CountForDay reports how many rows a day holds.
	CountForDay(ctx context.Context, table, day string) (int, error)
	// Rows returns every row of a table ordered by date then category.
	Rows(ctx context.Context, table string) ([]record.Record, error)
	// RowsForDay returns one day's rows ordered by category.
	RowsForDay(ctx context.Context, table, day string) ([]record.Record, error)
	// DeduplicateAndCompact collapses duplicate (date, category) rows left
	// behind by legacy tables without the uniqueness constraint, keeping the
	// earliest physical row, then compacts the storage. It reports how many
	// rows were removed.
	DeduplicateAndCompact(ctx context.Context, table string) (int64, error)
	// Close releases the underlying connections.
	Close()
}

func checkTable(table string) error {
	if !validTableName.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	return nil
}
