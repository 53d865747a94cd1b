package detection

import (
	"image"
	"math"
)

// BoundingRect returns the smallest axis-aligned rectangle containing every
// contour point. Max is exclusive, so a single pixel has a 1x1 rectangle.
func BoundingRect(c Contour) image.Rectangle {
	if len(c) == 0 {
		return image.Rectangle{}
	}
	r := image.Rect(c[0].X, c[0].Y, c[0].X+1, c[0].Y+1)
	for _, p := range c[1:] {
		if p.X < r.Min.X {
			r.Min.X = p.X
		}
		if p.Y < r.Min.Y {
			r.Min.Y = p.Y
		}
		if p.X+1 > r.Max.X {
			r.Max.X = p.X + 1
		}
		if p.Y+1 > r.Max.Y {
			r.Max.Y = p.Y + 1
		}
	}
	return r
}

// ContourArea returns the area enclosed by the contour polygon (shoelace
// formula over pixel centres). A filled n×n square therefore measures
// (n-1)², and a hollow outline encloses the same area as a filled one.
func ContourArea(c Contour) float64 {
	n := len(c)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		p, q := c[i], c[(i+1)%n]
		sum += float64(p.X*q.Y - q.X*p.Y)
	}
	return math.Abs(sum) / 2
}

// ArcLength returns the perimeter of the closed contour.
func ArcLength(c Contour) float64 {
	n := len(c)
	if n < 2 {
		return 0
	}
	var length float64
	for i := 0; i < n; i++ {
		length += dist(c[i], c[(i+1)%n])
	}
	return length
}

// ApproxPolyDP simplifies a closed contour with the Douglas–Peucker algorithm:
// every dropped point lies within epsilon of the simplified polygon.
//
// The closed curve is split at the point farthest from the first point and
// both halves are simplified as open chains, so the result does not depend
// on which end of a straight edge the contour happened to start.
func ApproxPolyDP(c Contour, epsilon float64) Contour {
	n := len(c)
	if n < 3 {
		return append(Contour(nil), c...)
	}

	far, best := 0, -1.0
	for i, p := range c {
		if d := dist(c[0], p); d > best {
			far, best = i, d
		}
	}
	if far == 0 {
		return Contour{c[0]}
	}

	first := douglasPeucker(c[:far+1], epsilon)

	second := make(Contour, 0, n-far+1)
	second = append(second, c[far:]...)
	second = append(second, c[0])
	second = douglasPeucker(second, epsilon)

	out := make(Contour, 0, len(first)+len(second))
	out = append(out, first[:len(first)-1]...)
	out = append(out, second[:len(second)-1]...)
	return out
}

// douglasPeucker simplifies an open chain, always keeping both end points.
func douglasPeucker(chain Contour, epsilon float64) Contour {
	if len(chain) < 3 {
		return append(Contour(nil), chain...)
	}

	a, b := chain[0], chain[len(chain)-1]
	idx, maxDist := 0, -1.0
	for i := 1; i < len(chain)-1; i++ {
		if d := segmentDistance(chain[i], a, b); d > maxDist {
			idx, maxDist = i, d
		}
	}

	if maxDist <= epsilon {
		return Contour{a, b}
	}

	left := douglasPeucker(chain[:idx+1], epsilon)
	right := douglasPeucker(chain[idx:], epsilon)
	return append(left[:len(left)-1], right...)
}

// segmentDistance returns the distance from p to the line through a and b,
// or to a itself when a and b coincide.
func segmentDistance(p, a, b image.Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	if dx == 0 && dy == 0 {
		return dist(p, a)
	}
	cross := dx*float64(p.Y-a.Y) - dy*float64(p.X-a.X)
	return math.Abs(cross) / math.Hypot(dx, dy)
}

func dist(p, q image.Point) float64 {
	return math.Hypot(float64(q.X-p.X), float64(q.Y-p.Y))
}
