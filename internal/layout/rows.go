package layout

import (
	"math"
	"sort"
)

// Row is a set of points sharing roughly the same vertical position.
type Row []Point

// SortedByX returns a copy of the row ordered left to right.
func (r Row) SortedByX() Row {
	out := append(Row(nil), r...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].X < out[j].X })
	return out
}

// Gaps returns the horizontal distances between adjacent points, left to
// right. A row with fewer than two points has no gaps.
func (r Row) Gaps() []float64 {
	if len(r) < 2 {
		return nil
	}
	sorted := r.SortedByX()
	gaps := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, sorted[i].X-sorted[i-1].X)
	}
	return gaps
}

// Start returns the smallest X in the row.
func (r Row) Start() float64 {
	if len(r) == 0 {
		return 0
	}
	start := r[0].X
	for _, p := range r[1:] {
		if p.X < start {
			start = p.X
		}
	}
	return start
}

// SortByZ orders points top to bottom, breaking ties left to right.
func SortByZ(points []Point) {
	sort.SliceStable(points, func(i, j int) bool {
		if points[i].Z != points[j].Z {
			return points[i].Z < points[j].Z
		}
		return points[i].X < points[j].X
	})
}

// GroupRows partitions points into rows by vertical proximity.
//
// Points are taken top to bottom. A point joins the open row when its Z is
// within threshold of the previous point added to that row; otherwise it
// starts a new row. The tolerance is chained, so a row may drift slowly
// across many points, but any single jump larger than threshold splits it.
//
// The input slice is not modified. Rows are returned top to bottom.
func GroupRows(points []Point, threshold float64) []Row {
	if len(points) == 0 {
		return nil
	}

	sorted := append([]Point(nil), points...)
	SortByZ(sorted)

	rows := make([]Row, 0)
	current := Row{sorted[0]}
	for _, p := range sorted[1:] {
		prev := current[len(current)-1]
		if math.Abs(p.Z-prev.Z) <= threshold {
			current = append(current, p)
			continue
		}
		rows = append(rows, current)
		current = Row{p}
	}
	return append(rows, current)
}

// PooledGaps returns the adjacent gaps of every row in one slice.
func PooledGaps(rows []Row) []float64 {
	var gaps []float64
	for _, r := range rows {
		gaps = append(gaps, r.Gaps()...)
	}
	return gaps
}

// ReferenceSpacing returns the median of all adjacent gaps pooled across
// rows, or 0 when no row has two points.
func ReferenceSpacing(rows []Row) float64 {
	return Median(PooledGaps(rows))
}
