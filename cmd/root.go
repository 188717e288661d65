// Package cmd defines and implements the CLI commands for the marketpulse
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/avollmer/marketpulse/internal/config"
	"github.com/avollmer/marketpulse/internal/groups"
	"github.com/avollmer/marketpulse/internal/logging"
	"github.com/avollmer/marketpulse/internal/pagedriver"
	"github.com/avollmer/marketpulse/internal/store"
)

var cfgFile string

// appKeyType is the key for storing the app state in the command context.
type appKeyType string

const appKey appKeyType = "app"

// appState bundles the services every subcommand needs. It is built once in
// PersistentPreRunE and injected through the command context so tests can
// substitute their own.
type appState struct {
	cfg    config.Config
	logger *zap.Logger
}

// newAppState is a variable so tests can replace the factory.
var newAppState = func() (*appState, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return &appState{cfg: cfg, logger: logger}, nil
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "marketpulse",
		Short: "Marketplace category trend crawler and analyzer",
		Long: `marketpulse harvests category-level supply and demand counts from
freelance marketplace category trees, stores them as a daily time series,
and derives growth, ratio, and correlation analytics from the result.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newAppState()
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, app))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if app, ok := cmd.Context().Value(appKey).(*appState); ok && app != nil {
				_ = app.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml search skipped; explicit path only)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newDedupeCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newScheduleCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func resolveApp(ctx context.Context) (*appState, error) {
	app, ok := ctx.Value(appKey).(*appState)
	if !ok || app == nil {
		return nil, errors.New("application services not initialized")
	}
	return app, nil
}

// openStore builds the configured persistence backend and ensures the schema
// exists. A connection failure here is fatal for the run.
func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	st, err := openStoreBackend(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return st, nil
}

func openStoreBackend(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		return store.NewSQLite(store.SQLiteConfig{
			Path:      cfg.Path,
			Policy:    store.ConflictPolicy(cfg.ConflictPolicy),
			BatchSize: cfg.BatchSize,
		})
	case "postgres":
		return store.NewPostgres(ctx, store.PostgresConfig{
			DSN:       cfg.DSN,
			Policy:    store.ConflictPolicy(cfg.ConflictPolicy),
			BatchSize: cfg.BatchSize,
			MaxConns:  int32(cfg.MaxConns),
			MinConns:  int32(cfg.MinConns),
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func buildClassifier(cfg config.Config) (*groups.Classifier, error) {
	if cfg.Groups.File == "" {
		return groups.NewClassifier(groups.Default()), nil
	}
	gs, err := groups.Load(cfg.Groups.File)
	if err != nil {
		return nil, err
	}
	return groups.NewClassifier(gs), nil
}

func buildDriver(cfg config.Config, logger *zap.Logger) (pagedriver.Driver, error) {
	switch cfg.Crawler.Mode {
	case "static":
		return pagedriver.NewStatic(pagedriver.StaticConfig{
			UserAgent:      cfg.Crawler.UserAgent,
			RequestTimeout: time.Duration(cfg.Crawler.NavTimeoutSeconds) * time.Second,
		}, logger), nil
	default:
		return pagedriver.NewChromedp(pagedriver.ChromedpConfig{
			UserAgent:  cfg.Crawler.UserAgent,
			NavTimeout: time.Duration(cfg.Crawler.NavTimeoutSeconds) * time.Second,
			Settle:     time.Duration(cfg.Crawler.SettleMillis) * time.Millisecond,
		}, logger)
	}
}
