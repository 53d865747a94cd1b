package layout

import (
	"errors"
	"sort"

	"github.com/Chr1Z93/SCED-tools/internal/config"
)

// ErrNoRows is returned by Summarize when no row survived filtering.
var ErrNoRows = errors.New("no checkbox rows survived filtering")

// RowSummary describes one row of checkboxes.
type RowSummary struct {
	// Index is the 1-based row number, top to bottom.
	Index int     `json:"index"`
	PosZ  float64 `json:"posZ"`
	Count int     `json:"count"`

	// XInitial is the leftmost X of the row and Offsets the gaps between
	// adjacent points. Both are informational and not part of the script.
	XInitial float64   `json:"xInitial"`
	Offsets  []float64 `json:"offsets,omitempty"`
}

// Stats holds both candidate statistics for the two global scalars.
type Stats struct {
	XInitialMean   float64 `json:"xInitialMean"`
	XInitialMedian float64 `json:"xInitialMedian"`
	XOffsetMean    float64 `json:"xOffsetMean"`
	XOffsetMedian  float64 `json:"xOffsetMedian"`
}

// Summary is the checkbox layout of one card.
type Summary struct {
	BoxSize  int          `json:"boxSize"`
	XInitial float64      `json:"xInitial"`
	XOffset  float64      `json:"xOffset"`
	Rows     []RowSummary `json:"rows"`
	Stats    Stats        `json:"stats"`
}

// DescribeRow summarizes a single row: median Z, point count, leftmost X and
// adjacent gaps.
func DescribeRow(index int, r Row) RowSummary {
	zs := make([]float64, 0, len(r))
	for _, p := range r {
		zs = append(zs, p.Z)
	}
	return RowSummary{
		Index:    index,
		PosZ:     Median(zs),
		Count:    len(r),
		XInitial: r.Start(),
		Offsets:  r.Gaps(),
	}
}

// Summarize reduces the kept rows to the layout scalars.
//
// # Algorithm
//
//  1. Rows are ordered top to bottom and numbered from 1.
//  2. Row starts (leftmost X) and adjacent gaps of every row are pooled.
//  3. XOffset is cfg.XOffsetStat of the pooled gaps, or 0 when no row has
//     two points.
//  4. XInitial is cfg.XInitialStat of the row starts minus
//     cfg.FirstOffsetFactor × XOffset, because the card script places its
//     first box roughly one offset to the right of xInitial.
//
// Returns ErrNoRows when rows is empty.
func Summarize(rows []IndexedRow, cfg config.LayoutConfig) (Summary, error) {
	ordered := make([]IndexedRow, 0, len(rows))
	for _, r := range rows {
		if len(r.Points) > 0 {
			ordered = append(ordered, r)
		}
	}
	if len(ordered) == 0 {
		return Summary{}, ErrNoRows
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	s := Summary{
		BoxSize: cfg.BoxSize,
		Rows:    make([]RowSummary, 0, len(ordered)),
	}

	var starts, gaps []float64
	for i, r := range ordered {
		row := DescribeRow(i+1, r.Points)
		s.Rows = append(s.Rows, row)
		starts = append(starts, row.XInitial)
		gaps = append(gaps, row.Offsets...)
	}

	s.Stats = Stats{
		XInitialMean:   Mean(starts),
		XInitialMedian: Median(starts),
		XOffsetMean:    Mean(gaps),
		XOffsetMedian:  Median(gaps),
	}

	s.XOffset = Statistic(cfg.XOffsetStat, gaps)
	s.XInitial = Statistic(cfg.XInitialStat, starts) - cfg.FirstOffsetFactor*s.XOffset
	return s, nil
}
