package scenario

import (
	"math"
	"sort"
)

// Stats summarizes the successful samples of one measurement across runs.
type Stats struct {
	N     int     `json:"n"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	MinMs float64 `json:"min_ms"`
	MaxMs float64 `json:"max_ms"`
}

// percentile interpolates linearly between the two nearest ranks. The input
// must be sorted ascending and non-empty.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// summarize computes Stats over the given samples; a zero Stats is returned
// when there are none.
func summarize(samples []float64) Stats {
	if len(samples) == 0 {
		return Stats{}
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return Stats{
		N:     len(sorted),
		AvgMs: round2(sum / float64(len(sorted))),
		P50Ms: round2(percentile(sorted, 50)),
		P95Ms: round2(percentile(sorted, 95)),
		MinMs: round2(sorted[0]),
		MaxMs: round2(sorted[len(sorted)-1]),
	}
}
