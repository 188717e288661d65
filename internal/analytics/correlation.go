package analytics

import "math"

// Correlation is the Pearson coefficient between two column series. Constant
// or too-short series have no defined coefficient; Defined distinguishes that
// from a genuine zero.
type Correlation struct {
	A           string
	B           string
	Coefficient float64
	Defined     bool
}

// CorrelationPairs computes the Pearson correlation for every unordered pair
// of columns in the matrix. Column order follows the matrix.
func CorrelationPairs(m Matrix) []Correlation {
	var out []Correlation
	for i := 0; i < len(m.Columns); i++ {
		x, _ := m.Column(m.Columns[i])
		for j := i + 1; j < len(m.Columns); j++ {
			y, _ := m.Column(m.Columns[j])
			coeff, ok := pearson(x, y)
			out = append(out, Correlation{
				A:           m.Columns[i],
				B:           m.Columns[j],
				Coefficient: coeff,
				Defined:     ok,
			})
		}
	}
	return out
}

func pearson(x, y []float64) (float64, bool) {
	n := len(x)
	if n != len(y) || n < 2 {
		return 0, false
	}
	mx, my := mean(x), mean(y)
	var cov, vx, vy float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		dy := y[i] - my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0, false
	}
	coeff := cov / math.Sqrt(vx*vy)
	if math.IsNaN(coeff) {
		return 0, false
	}
	return coeff, true
}
