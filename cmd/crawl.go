package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/avollmer/marketpulse/internal/config"
	"github.com/avollmer/marketpulse/internal/crawler"
	"github.com/avollmer/marketpulse/internal/record"
)

func newCrawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Crawl all configured sources once and store the counts",
		Long: `Walks the category tree of every configured marketplace source, one page
at a time with a politeness delay, extracts (category, count) pairs, and
upserts them into the store keyed by (date, category).`,
		RunE: runCrawlCommand,
	}
}

func runCrawlCommand(cmd *cobra.Command, _ []string) error {
	app, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	if len(app.cfg.Sources) == 0 {
		return errors.New("no sources configured; add a sources section to the config file")
	}
	return runCrawl(cmd.Context(), app.cfg, app.logger)
}

// runCrawl is the full crawl-and-store pass, shared with the scheduler. The
// two data types of each source run as sequential passes over one driver so
// the consent handshake happens once.
func runCrawl(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	driver, err := buildDriver(cfg, logger)
	if err != nil {
		return fmt.Errorf("init page driver: %w", err)
	}
	defer func() {
		if cerr := driver.Close(context.WithoutCancel(ctx)); cerr != nil {
			logger.Warn("Failed to close page driver", zap.Error(cerr))
		}
	}()

	var errs []error
	for _, src := range cfg.CrawlSources() {
		c := crawler.New(driver, logger)
		for _, tgt := range src.Targets {
			recs, summary, err := c.Run(ctx, src, tgt)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				errs = append(errs, fmt.Errorf("source %s %s: %w", src.Name, tgt.DataType, err))
				continue
			}
			if err := storeRun(ctx, st, summary, record.Normalize(recs), logger); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func storeRun(ctx context.Context, st storeWriter, summary crawler.Summary, recs []record.Record, logger *zap.Logger) error {
	stored, err := st.Upsert(ctx, summary.Table, recs)
	if err != nil {
		return fmt.Errorf("store %s records: %w", summary.DataType, err)
	}
	total := -1
	if len(recs) > 0 {
		if n, cerr := st.CountForDay(ctx, summary.Table, recs[0].Day()); cerr == nil {
			total = n
		}
	}
	logger.Info("Run stored",
		zap.String("run_id", summary.RunID),
		zap.String("source", summary.Source),
		zap.String("data_type", summary.DataType),
		zap.String("table", summary.Table),
		zap.Int("records", len(recs)),
		zap.Int("rows_touched", stored),
		zap.Int("rows_for_day", total),
	)
	return nil
}

// storeWriter is the slice of the store contract storeRun needs; it keeps the
// helper testable without a full store.
type storeWriter interface {
	Upsert(ctx context.Context, table string, recs []record.Record) (int, error)
	CountForDay(ctx context.Context, table, day string) (int, error)
}
