package cmd

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the crawl on a recurring cron schedule",
		Long: `Stays in the foreground and runs a full crawl pass on the configured cron
expression (schedule.cron, default daily at 07:00). Overlapping runs are
skipped: a pass that is still crawling when the next tick fires wins.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if len(app.cfg.Sources) == 0 {
				return errors.New("no sources configured; add a sources section to the config file")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			running := make(chan struct{}, 1)
			c := cron.New()
			_, err = c.AddFunc(app.cfg.Schedule.Cron, func() {
				select {
				case running <- struct{}{}:
					defer func() { <-running }()
				default:
					app.logger.Warn("Previous crawl still running, skipping tick")
					return
				}
				app.logger.Info("Scheduled crawl starting", zap.String("cron", app.cfg.Schedule.Cron))
				if err := runCrawl(ctx, app.cfg, app.logger); err != nil {
					app.logger.Error("Scheduled crawl failed", zap.Error(err))
				}
			})
			if err != nil {
				return fmt.Errorf("parse cron %q: %w", app.cfg.Schedule.Cron, err)
			}

			c.Start()
			app.logger.Info("Scheduler started", zap.String("cron", app.cfg.Schedule.Cron))
			<-ctx.Done()
			<-c.Stop().Done()
			app.logger.Info("Scheduler stopped")
			return nil
		},
	}
}
