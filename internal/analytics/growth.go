package analytics

import "fmt"

// Growth is the percentage change between the first-window and last-window
// averages of a series. A series that starts at zero and rises has no finite
// percentage; Unbounded marks that case so it is never averaged with real
// numbers.
type Growth struct {
	FirstAvg  float64
	LastAvg   float64
	Percent   float64
	Unbounded bool
}

// GrowthRate computes the windowed growth of a series. The window shrinks to
// fit short series; an empty series grows by zero.
func GrowthRate(series []float64, window int) Growth {
	if len(series) == 0 {
		return Growth{}
	}
	if window <= 0 || window > len(series) {
		window = len(series)
	}
	g := Growth{
		FirstAvg: mean(series[:window]),
		LastAvg:  mean(series[len(series)-window:]),
	}
	switch {
	case g.FirstAvg == 0 && g.LastAvg == 0:
		// flat at zero
	case g.FirstAvg == 0:
		g.Unbounded = true
	default:
		g.Percent = round2((g.LastAvg - g.FirstAvg) / g.FirstAvg * 100)
	}
	return g
}

func (g Growth) String() string {
	if g.Unbounded {
		return "∞"
	}
	return fmt.Sprintf("%.2f%%", g.Percent)
}

func mean(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range series {
		sum += v
	}
	return sum / float64(len(series))
}
