// Package config loads and validates application configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/avollmer/marketpulse/internal/crawler"
	"github.com/avollmer/marketpulse/internal/store"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Crawler   CrawlerConfig   `mapstructure:"crawler"`
	Store     StoreConfig     `mapstructure:"store"`
	Analytics AnalyticsConfig `mapstructure:"analytics"`
	Server    ServerConfig    `mapstructure:"server"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Groups    GroupsConfig    `mapstructure:"groups"`
	Sources   []SourceConfig  `mapstructure:"sources"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// CrawlerConfig governs the page driver and crawl pacing.
type CrawlerConfig struct {
	// Mode selects the page driver: "headless" renders JavaScript through a
	// browser, "static" fetches plain HTML.
	Mode              string `mapstructure:"mode"`
	UserAgent         string `mapstructure:"user_agent"`
	DelaySeconds      int    `mapstructure:"delay_seconds"`
	NavTimeoutSeconds int    `mapstructure:"nav_timeout_seconds"`
	SettleMillis      int    `mapstructure:"settle_millis"`
	MaxDepthDefault   int    `mapstructure:"max_depth_default"`
}

// StoreConfig selects and tunes the persistence backend.
type StoreConfig struct {
	// Backend is "sqlite" or "postgres".
	Backend        string `mapstructure:"backend"`
	Path           string `mapstructure:"path"`
	DSN            string `mapstructure:"dsn"`
	ConflictPolicy string `mapstructure:"conflict_policy"`
	BatchSize      int    `mapstructure:"batch_size"`
	MaxConns       int    `mapstructure:"max_conns"`
	MinConns       int    `mapstructure:"min_conns"`
}

// AnalyticsConfig tunes derived series computation.
type AnalyticsConfig struct {
	GrowthWindowDays int `mapstructure:"growth_window_days"`
}

// ServerConfig controls the HTTP query surface.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// ScheduleConfig controls the recurring crawl of the schedule command.
type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

// GroupsConfig points at an optional keyword-group override file. When File is
// empty the built-in groups apply.
type GroupsConfig struct {
	File string `mapstructure:"file"`
}

// SourceConfig describes one marketplace to crawl.
type SourceConfig struct {
	Name         string          `mapstructure:"name"`
	BaseURL      string          `mapstructure:"base_url"`
	DelaySeconds int             `mapstructure:"delay_seconds"`
	Selectors    SelectorsConfig `mapstructure:"selectors"`
	Targets      []TargetConfig  `mapstructure:"targets"`
}

// SelectorsConfig names the page structure of a source.
type SelectorsConfig struct {
	ListEntry  string `mapstructure:"list_entry"`
	Anchor     string `mapstructure:"anchor"`
	Count      string `mapstructure:"count"`
	Expand     string `mapstructure:"expand"`
	ExpandStop string `mapstructure:"expand_stop"`
	Consent    string `mapstructure:"consent"`
}

// TargetConfig is one crawl root within a source.
type TargetConfig struct {
	DataType string `mapstructure:"data_type"`
	URL      string `mapstructure:"url"`
	Table    string `mapstructure:"table"`
	MaxDepth int    `mapstructure:"max_depth"`
}

// Load builds a Config from disk and environment. An empty path skips the
// config file and runs on defaults plus MARKETPULSE_* variables.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MARKETPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", false)

	v.SetDefault("crawler.mode", "headless")
	v.SetDefault("crawler.user_agent", "MarketPulse/1.0 (+https://github.com/avollmer/marketpulse)")
	v.SetDefault("crawler.delay_seconds", 2)
	v.SetDefault("crawler.nav_timeout_seconds", 30)
	v.SetDefault("crawler.settle_millis", 1500)
	v.SetDefault("crawler.max_depth_default", 2)

	v.SetDefault("store.backend", "sqlite")
	v.SetDefault("store.path", "marketpulse.db")
	v.SetDefault("store.conflict_policy", "overwrite")
	v.SetDefault("store.batch_size", store.DefaultBatchSize)

	v.SetDefault("analytics.growth_window_days", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("schedule.cron", "0 7 * * *")
}

// Validate rejects configurations the commands cannot run with.
func (c Config) Validate() error {
	switch c.Crawler.Mode {
	case "headless", "static":
	default:
		return fmt.Errorf("crawler.mode must be headless or static, got %q", c.Crawler.Mode)
	}
	switch c.Store.Backend {
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite backend")
		}
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("store.backend must be sqlite or postgres, got %q", c.Store.Backend)
	}
	if _, err := store.ParseConflictPolicy(c.Store.ConflictPolicy); err != nil {
		return err
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Analytics.GrowthWindowDays < 1 {
		return fmt.Errorf("analytics.growth_window_days must be >= 1")
	}
	for _, s := range c.CrawlSources() {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// CrawlSources converts the configured sources into crawler inputs, applying
// the crawler-level defaults for delay and depth.
func (c Config) CrawlSources() []crawler.Source {
	out := make([]crawler.Source, 0, len(c.Sources))
	for _, s := range c.Sources {
		delay := s.DelaySeconds
		if delay <= 0 {
			delay = c.Crawler.DelaySeconds
		}
		src := crawler.Source{
			Name:    s.Name,
			BaseURL: s.BaseURL,
			Delay:   time.Duration(delay) * time.Second,
			Selectors: crawler.Selectors{
				ListEntry:  s.Selectors.ListEntry,
				Anchor:     s.Selectors.Anchor,
				Count:      s.Selectors.Count,
				Expand:     s.Selectors.Expand,
				ExpandStop: s.Selectors.ExpandStop,
				Consent:    s.Selectors.Consent,
			},
		}
		for _, t := range s.Targets {
			depth := t.MaxDepth
			if depth <= 0 {
				depth = c.Crawler.MaxDepthDefault
			}
			src.Targets = append(src.Targets, crawler.Target{
				DataType: t.DataType,
				URL:      t.URL,
				Table:    t.Table,
				MaxDepth: depth,
			})
		}
		out = append(out, src)
	}
	return out
}
