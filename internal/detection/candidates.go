package detection

import (
	"image"

	"github.com/Chr1Z93/SCED-tools/internal/config"
)

// polyEpsilonFactor scales the contour perimeter into the Douglas–Peucker
// tolerance used for counting corners.
const polyEpsilonFactor = 0.02

// Candidate is a contour whose shape looks like a checkbox.
//
// X, Y, W and H are the bounding box in pixels (W and H count pixels, so a
// single pixel is 1x1). Area is the area enclosed by the contour and Solidity
// is Area divided by the bounding box area.
type Candidate struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`

	Area     float64 `json:"area"`
	Solidity float64 `json:"solidity"`
	Corners  int     `json:"corners"`
}

// Rect returns the bounding box as an image.Rectangle.
func (c Candidate) Rect() image.Rectangle {
	return image.Rect(c.X, c.Y, c.X+c.W, c.Y+c.H)
}

// Measure computes the bounding box and shape metrics of a contour.
func Measure(c Contour) Candidate {
	r := BoundingRect(c)
	cand := Candidate{
		X: r.Min.X,
		Y: r.Min.Y,
		W: r.Dx(),
		H: r.Dy(),
	}
	cand.Area = ContourArea(c)
	if box := cand.W * cand.H; box > 0 {
		cand.Solidity = cand.Area / float64(box)
	}
	cand.Corners = len(ApproxPolyDP(c, polyEpsilonFactor*ArcLength(c)))
	return cand
}

// Accept reports whether a measured contour passes the shape gates for an
// image of the given height. Every comparison is strict except the corner
// band, which is inclusive.
func Accept(cand Candidate, imageHeight int, cfg config.BoxConfig) bool {
	if cand.W <= 0 || cand.H <= 0 || imageHeight <= 0 {
		return false
	}

	ratio := float64(cand.W) / float64(cand.H)
	if ratio <= cfg.MinRatio || ratio >= cfg.MaxRatio {
		return false
	}

	h := float64(imageHeight)
	relW := float64(cand.W) / h
	relH := float64(cand.H) / h
	if relW <= cfg.MinSize || relW >= cfg.MaxSize {
		return false
	}
	if relH <= cfg.MinSize || relH >= cfg.MaxSize {
		return false
	}

	if cand.Solidity <= cfg.MinSolidity {
		return false
	}

	return cand.Corners >= cfg.MinCorners && cand.Corners <= cfg.MaxCorners
}

// FilterCandidates measures every contour and returns the ones that look like
// checkboxes, in contour order. Sizes are relative to the image height only,
// so a slightly wider or narrower scan of the same card gives the same result.
//
// No contours, or none passing, yields an empty slice.
func FilterCandidates(contours []Contour, imageHeight int, cfg config.BoxConfig) []Candidate {
	out := make([]Candidate, 0)
	for _, c := range contours {
		cand := Measure(c)
		if Accept(cand, imageHeight, cfg) {
			out = append(out, cand)
		}
	}
	return out
}
