package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/avollmer/marketpulse/internal/record"
)

func newDedupeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dedupe",
		Short: "Collapse duplicate rows left behind by legacy append-only writes",
		Long: `Historical runs wrote rows append-only, so old databases can hold several
rows per (date, category). This collapses each key to its earliest row and
compacts the storage afterwards.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			st, err := openStore(ctx, app.cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			var errs []error
			for _, tbl := range record.Tables {
				removed, err := st.DeduplicateAndCompact(ctx, tbl)
				if err != nil {
					errs = append(errs, fmt.Errorf("dedupe %s: %w", tbl, err))
					continue
				}
				app.logger.Info("Table deduplicated",
					zap.String("table", tbl),
					zap.Int64("rows_removed", removed),
				)
			}
			return errors.Join(errs...)
		},
	}
}
