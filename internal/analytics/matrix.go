// Package analytics derives trend series from stored count records. Every
// operation is a pure function of its input, so reports can be recomputed at
// any time, for example after the grouping keywords change.
package analytics

import (
	"math"
	"sort"

	"github.com/avollmer/marketpulse/internal/record"
)

// Matrix is a dense date-by-category grid of counts. Rows follow Dates, cells
// follow Columns. Combinations never observed hold zero, so a category that
// starts late shows as zero before its first appearance and diffs stay
// meaningful.
type Matrix struct {
	Dates   []string
	Columns []string
	Values  [][]float64
}

// Pivot builds the dense matrix from a flat record set. Dates and columns come
// out sorted ascending.
func Pivot(recs []record.Record) Matrix {
	daySet := map[string]struct{}{}
	colSet := map[string]struct{}{}
	counts := map[string]map[string]float64{}
	for _, r := range recs {
		d := r.Day()
		daySet[d] = struct{}{}
		colSet[r.Category] = struct{}{}
		if counts[d] == nil {
			counts[d] = map[string]float64{}
		}
		counts[d][r.Category] = float64(r.Num)
	}

	m := Matrix{
		Dates:   sortedKeys(daySet),
		Columns: sortedKeys(colSet),
	}
	m.Values = make([][]float64, len(m.Dates))
	for i, d := range m.Dates {
		row := make([]float64, len(m.Columns))
		for j, c := range m.Columns {
			row[j] = counts[d][c]
		}
		m.Values[i] = row
	}
	return m
}

// Column returns the series for one category.
func (m Matrix) Column(name string) ([]float64, bool) {
	for j, c := range m.Columns {
		if c != name {
			continue
		}
		series := make([]float64, len(m.Dates))
		for i := range m.Dates {
			series[i] = m.Values[i][j]
		}
		return series, true
	}
	return nil, false
}

// DailyDiff returns the day-over-day change per column. The first date has no
// prior day and diffs to zero.
func (m Matrix) DailyDiff() Matrix {
	out := Matrix{Dates: m.Dates, Columns: m.Columns, Values: make([][]float64, len(m.Dates))}
	for i := range m.Dates {
		row := make([]float64, len(m.Columns))
		if i > 0 {
			for j := range m.Columns {
				row[j] = m.Values[i][j] - m.Values[i-1][j]
			}
		}
		out.Values[i] = row
	}
	return out
}

// Ratio is the supply-per-demand quotient rounded to two decimals. A zero
// demand yields zero rather than an infinity that would poison averages.
func Ratio(supply, demand float64) float64 {
	if demand == 0 {
		return 0
	}
	return round2(supply / demand)
}

// RatioMatrix computes supply-per-demand ratios over the dates and categories
// present in both matrices.
func RatioMatrix(supply, demand Matrix) Matrix {
	dates := intersect(supply.Dates, demand.Dates)
	cols := intersect(supply.Columns, demand.Columns)
	out := Matrix{Dates: dates, Columns: cols, Values: make([][]float64, len(dates))}

	sIdx := indexOf(supply.Dates)
	dIdx := indexOf(demand.Dates)
	sCol := indexOf(supply.Columns)
	dCol := indexOf(demand.Columns)
	for i, date := range dates {
		row := make([]float64, len(cols))
		for j, col := range cols {
			s := supply.Values[sIdx[date]][sCol[col]]
			d := demand.Values[dIdx[date]][dCol[col]]
			row[j] = Ratio(s, d)
		}
		out.Values[i] = row
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func indexOf(items []string) map[string]int {
	idx := make(map[string]int, len(items))
	for i, s := range items {
		idx[s] = i
	}
	return idx
}

func intersect(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, s := range b {
		inB[s] = struct{}{}
	}
	var out []string
	for _, s := range a {
		if _, ok := inB[s]; ok {
			out = append(out, s)
		}
	}
	return out
}
