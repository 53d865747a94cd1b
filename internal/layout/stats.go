package layout

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/Chr1Z93/SCED-tools/internal/config"
)

// Mean returns the arithmetic mean of xs, or 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// Median returns the middle value of xs, averaging the two middle values for
// an even count, or 0 for an empty slice. xs is not modified.
func Median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Statistic applies the named statistic (config.StatMean or
// config.StatMedian) to xs. Unknown names fall back to the median.
func Statistic(name string, xs []float64) float64 {
	if name == config.StatMean {
		return Mean(xs)
	}
	return Median(xs)
}
