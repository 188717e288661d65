package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/avollmer/marketpulse/internal/analytics"
	"github.com/avollmer/marketpulse/internal/record"
	"github.com/avollmer/marketpulse/internal/store"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		tableName string
		window    int
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Derive trend tables from the stored time series",
		Long: `Reads the stored counts and prints group totals for the latest day,
windowed growth per group, cross-group correlations, and the current
freelancers-per-project ratio.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if window <= 0 {
				window = app.cfg.Analytics.GrowthWindowDays
			}
			return runAnalyze(cmd, tableName, window)
		},
	}
	cmd.Flags().StringVar(&tableName, "table", record.TableProjects, "logical table to analyze (projects or freelances)")
	cmd.Flags().IntVar(&window, "window", 0, "growth window in days (default from config)")
	return cmd
}

func runAnalyze(cmd *cobra.Command, tableName string, window int) error {
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

	classifier, err := buildClassifier(app.cfg)
	if err != nil {
		return err
	}

	recs, err := st.Rows(ctx, tableName)
	if err != nil {
		return fmt.Errorf("read table %s: %w", tableName, err)
	}
	if len(recs) == 0 {
		return errors.New("no data stored yet; run crawl first")
	}

	rolled := analytics.GroupRollup(analytics.Pivot(recs), classifier)
	latest := rolled.Dates[len(rolled.Dates)-1]

	totals := table.NewWriter()
	totals.SetOutputMirror(os.Stdout)
	totals.SetTitle("Group totals for %s (%s)", tableName, latest)
	totals.AppendHeader(table.Row{"Group", "Count", fmt.Sprintf("Growth (%dd)", window)})
	for j, col := range rolled.Columns {
		series, _ := rolled.Column(col)
		g := analytics.GrowthRate(series, window)
		totals.AppendRow(table.Row{col, rolled.Values[len(rolled.Dates)-1][j], g.String()})
	}
	totals.Render()

	correlations := table.NewWriter()
	correlations.SetOutputMirror(os.Stdout)
	correlations.SetTitle("Group correlations")
	correlations.AppendHeader(table.Row{"A", "B", "Pearson"})
	for _, p := range analytics.CorrelationPairs(rolled) {
		coeff := "undefined"
		if p.Defined {
			coeff = fmt.Sprintf("%.2f", p.Coefficient)
		}
		correlations.AppendRow(table.Row{p.A, p.B, coeff})
	}
	correlations.Render()

	return renderRatio(cmd, st, latest)
}

// renderRatio prints freelancers-per-project for the latest day, for the
// categories present on both sides.
func renderRatio(cmd *cobra.Command, st store.Store, latest string) error {
	ctx := cmd.Context()
	demand, err := st.RowsForDay(ctx, record.TableProjects, latest)
	if err != nil {
		return fmt.Errorf("read projects: %w", err)
	}
	supply, err := st.RowsForDay(ctx, record.TableFreelances, latest)
	if err != nil {
		return fmt.Errorf("read freelances: %w", err)
	}
	m := analytics.RatioMatrix(analytics.Pivot(supply), analytics.Pivot(demand))
	if len(m.Dates) == 0 {
		return nil
	}

	ratios := table.NewWriter()
	ratios.SetOutputMirror(os.Stdout)
	ratios.SetTitle("Freelancers per project (%s)", latest)
	ratios.AppendHeader(table.Row{"Category", "Ratio"})
	for j, col := range m.Columns {
		ratios.AppendRow(table.Row{col, m.Values[0][j]})
	}
	ratios.Render()
	return nil
}
