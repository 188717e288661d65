package analytics

import "github.com/avollmer/marketpulse/internal/groups"

// GroupRollup sums per-category columns into per-group columns using the
// classifier. Group columns follow the classifier's configured order; the
// fallback group, when any category lands in it, comes last.
func GroupRollup(m Matrix, c *groups.Classifier) Matrix {
	assignment := make(map[string]string, len(m.Columns))
	present := map[string]struct{}{}
	for _, col := range m.Columns {
		g := c.Classify(col)
		assignment[col] = g
		present[g] = struct{}{}
	}

	var cols []string
	for _, name := range c.Names() {
		if _, ok := present[name]; ok {
			cols = append(cols, name)
			delete(present, name)
		}
	}
	if _, ok := present[groups.Fallback]; ok {
		cols = append(cols, groups.Fallback)
	}

	colIdx := indexOf(cols)
	out := Matrix{Dates: m.Dates, Columns: cols, Values: make([][]float64, len(m.Dates))}
	for i := range m.Dates {
		row := make([]float64, len(cols))
		for j, col := range m.Columns {
			row[colIdx[assignment[col]]] += m.Values[i][j]
		}
		out.Values[i] = row
	}
	return out
}
