package layout

import (
	"fmt"
	"math"
	"sort"

	"github.com/Chr1Z93/SCED-tools/internal/config"
)

// Reason records which filter discarded a point.
type Reason int

const (
	// ReasonZone marks points outside the horizontal checkbox zone.
	ReasonZone Reason = iota + 1
	// ReasonOffset marks points cut off by the row spacing filter.
	ReasonOffset
	// ReasonInitial marks rows whose start is far from the other rows.
	ReasonInitial
)

// String returns the name used in reports.
func (r Reason) String() string {
	switch r {
	case ReasonZone:
		return "zone"
	case ReasonOffset:
		return "offset"
	case ReasonInitial:
		return "initial"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// MarshalText encodes the reason by name in JSON and YAML reports.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// IndexedRow is a row together with its position in the grouper's output.
type IndexedRow struct {
	Index  int `json:"index"`
	Points Row `json:"points"`
}

// Segment is a set of discarded points. Row is the grouper index the points
// came from, or -1 for points discarded before grouping.
type Segment struct {
	Row    int    `json:"row"`
	Reason Reason `json:"reason"`
	Points Row    `json:"points"`
}

// Partition is the outcome of the row filters. Every grouped point ends up in
// exactly one kept row or one discarded segment.
type Partition struct {
	Kept      []IndexedRow `json:"kept"`
	Discarded []Segment    `json:"discarded"`
}

// KeptCount returns the number of points in kept rows.
func (p Partition) KeptCount() int {
	var n int
	for _, r := range p.Kept {
		n += len(r.Points)
	}
	return n
}

// DiscardedCount returns the number of discarded points.
func (p Partition) DiscardedCount() int {
	var n int
	for _, s := range p.Discarded {
		n += len(s.Points)
	}
	return n
}

// FilterByOffset cuts each row at the first spacing break.
//
// Each row is sorted left to right and its first point is always kept. Walking
// right, the gap to the previous point is divided by reference; once that
// ratio exceeds factor, the point and every point after it are discarded as
// one segment. A reference of zero or less disables the filter.
//
// Kept rows carry their index in rows.
func FilterByOffset(rows []Row, reference, factor float64) ([]IndexedRow, []Segment) {
	kept := make([]IndexedRow, 0, len(rows))
	var discarded []Segment

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		sorted := row.SortedByX()
		cut := len(sorted)
		if reference > 0 {
			for j := 1; j < len(sorted); j++ {
				if (sorted[j].X-sorted[j-1].X)/reference > factor {
					cut = j
					break
				}
			}
		}

		kept = append(kept, IndexedRow{Index: i, Points: sorted[:cut]})
		if cut < len(sorted) {
			discarded = append(discarded, Segment{Row: i, Reason: ReasonOffset, Points: sorted[cut:]})
		}
	}
	return kept, discarded
}

// FilterByInitial discards rows that start far from the others.
//
// The leftmost X of every row is compared with the mean leftmost X over all
// rows; rows deviating by more than threshold are discarded whole.
func FilterByInitial(rows []IndexedRow, threshold float64) ([]IndexedRow, []Segment) {
	starts := make([]float64, 0, len(rows))
	for _, r := range rows {
		if len(r.Points) > 0 {
			starts = append(starts, r.Points.Start())
		}
	}
	mean := Mean(starts)

	kept := make([]IndexedRow, 0, len(rows))
	var discarded []Segment
	for _, r := range rows {
		if len(r.Points) == 0 {
			continue
		}
		if math.Abs(r.Points.Start()-mean) > threshold {
			discarded = append(discarded, Segment{Row: r.Index, Reason: ReasonInitial, Points: r.Points})
			continue
		}
		kept = append(kept, r)
	}
	return kept, discarded
}

// Filter runs the spacing filter and then the row start filter over grouped
// rows. The reference spacing is the median gap pooled over all rows, and
// both thresholds scale with the image height.
//
// Discarded segments are ordered by row index.
func Filter(rows []Row, cfg config.RowConfig, imageHeight int) Partition {
	reference := ReferenceSpacing(rows)
	afterOffset, byOffset := FilterByOffset(rows, reference, cfg.OffsetDeviationFactor)
	kept, byInitial := FilterByInitial(afterOffset, cfg.InitialDeviationFactor*float64(imageHeight))

	discarded := append(byOffset, byInitial...)
	sort.SliceStable(discarded, func(i, j int) bool { return discarded[i].Row < discarded[j].Row })

	return Partition{Kept: kept, Discarded: discarded}
}
