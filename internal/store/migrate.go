package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/avollmer/marketpulse/internal/record"
)

// Migrate copies one table from src into dst in batches, logging progress per
// batch. The destination upsert makes the copy idempotent, so a migration
// interrupted halfway can simply be re-run. A failed batch is reported with
// its record range and later batches still run.
func Migrate(ctx context.Context, src, dst Store, table string, batchSize int, logger *zap.Logger) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	recs, err := src.Rows(ctx, table)
	if err != nil {
		return 0, fmt.Errorf("read source table %s: %w", table, err)
	}
	logger.Info("Migrating table",
		zap.String("table", table),
		zap.Int("rows", len(recs)),
		zap.Int("batch_size", batchSize),
	)

	copied := 0
	var errs []error
	for start := 0; start < len(recs); start += batchSize {
		end := start + batchSize
		if end > len(recs) {
			end = len(recs)
		}
		n, err := dst.Upsert(ctx, table, recs[start:end])
		if err != nil {
			errs = append(errs, fmt.Errorf("migrate rows %d-%d: %w", start, end-1, err))
			logger.Warn("Migration batch failed",
				zap.String("table", table),
				zap.Int("from", start),
				zap.Int("to", end-1),
				zap.Error(err),
			)
			continue
		}
		copied += n
		logger.Info("Migration progress",
			zap.String("table", table),
			zap.Int("migrated", end),
			zap.Int("total", len(recs)),
		)
	}
	return copied, errors.Join(errs...)
}

// MigrateAll migrates every record table and sums the copied rows.
func MigrateAll(ctx context.Context, src, dst Store, batchSize int, logger *zap.Logger) (int, error) {
	total := 0
	var errs []error
	for _, table := range record.Tables {
		n, err := Migrate(ctx, src, dst, table, batchSize, logger)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}
