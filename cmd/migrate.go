package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/avollmer/marketpulse/internal/config"
	"github.com/avollmer/marketpulse/internal/store"
)

func newMigrateCmd() *cobra.Command {
	var (
		fromBackend string
		fromPath    string
		fromDSN     string
		batchSize   int
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy all record tables from another backend into the configured one",
		Long: `Reads every row from the source backend and upserts it into the configured
store in batches. The upsert keying makes the migration idempotent: re-running
after a partial failure never creates duplicates.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			srcCfg := config.StoreConfig{
				Backend:        fromBackend,
				Path:           fromPath,
				DSN:            fromDSN,
				ConflictPolicy: app.cfg.Store.ConflictPolicy,
			}
			src, err := openStoreBackend(ctx, srcCfg)
			if err != nil {
				return fmt.Errorf("open source store: %w", err)
			}
			defer src.Close()

			dst, err := openStore(ctx, app.cfg)
			if err != nil {
				return fmt.Errorf("open destination store: %w", err)
			}
			defer dst.Close()

			if batchSize <= 0 {
				batchSize = app.cfg.Store.BatchSize
			}
			copied, err := store.MigrateAll(ctx, src, dst, batchSize, app.logger)
			if err != nil {
				app.logger.Error("Migration finished with failures",
					zap.Int("rows_copied", copied),
					zap.Error(err),
				)
				return err
			}
			app.logger.Info("Migration finished", zap.Int("rows_copied", copied))
			return nil
		},
	}
	cmd.Flags().StringVar(&fromBackend, "from-backend", "sqlite", "source backend (sqlite or postgres)")
	cmd.Flags().StringVar(&fromPath, "from-path", "", "source sqlite database file")
	cmd.Flags().StringVar(&fromDSN, "from-dsn", "", "source postgres DSN")
	cmd.Flags().IntVar(&batchSize, "batch-size", 0, "rows per migration batch (default from config)")
	return cmd
}
