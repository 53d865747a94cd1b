package layout

import (
	"image"
	"math"
)

// Point is a checkbox candidate in card units.
//
// X grows to the right and Z grows downwards, both measured from the centre of
// the card. Index identifies the candidate the point was made from, so a point
// can be traced back to its pixel bounding box after filtering.
type Point struct {
	X     float64 `json:"x"`
	Z     float64 `json:"z"`
	Index int     `json:"index"`
}

// Normalizer converts pixel coordinates of one image into card units.
//
// Both axes use the same scale, derived from the image height: the card's
// height is fixed by convention while scans vary slightly in width.
type Normalizer struct {
	midX  float64
	midZ  float64
	scale float64
}

// NewNormalizer creates a Normalizer for an image of the given pixel size,
// where the full image height spans cardHeight units.
func NewNormalizer(width, height int, cardHeight float64) Normalizer {
	n := Normalizer{
		midX: float64(width) / 2,
		midZ: float64(height) / 2,
	}
	if height > 0 {
		n.scale = cardHeight / float64(height)
	}
	return n
}

// Normalize maps the centre of a pixel bounding box to card units.
func (n Normalizer) Normalize(box image.Rectangle, index int) Point {
	cx := float64(box.Min.X) + float64(box.Dx())/2
	cz := float64(box.Min.Y) + float64(box.Dy())/2
	return Point{
		X:     (cx - n.midX) * n.scale,
		Z:     (cz - n.midZ) * n.scale,
		Index: index,
	}
}

// PixelX maps a horizontal card-unit position back to a pixel column.
func (n Normalizer) PixelX(x float64) int {
	if n.scale == 0 {
		return int(n.midX)
	}
	return int(math.Round(x/n.scale + n.midX))
}

// SplitZone separates points strictly inside left < X < right from the rest.
// Both results keep the input order.
func SplitZone(points []Point, left, right float64) (inside, outside []Point) {
	inside = make([]Point, 0, len(points))
	outside = make([]Point, 0)
	for _, p := range points {
		if left < p.X && p.X < right {
			inside = append(inside, p)
		} else {
			outside = append(outside, p)
		}
	}
	return inside, outside
}
