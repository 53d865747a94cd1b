package detection

import (
	"image"
)

// Contour is the outline of a blob as an ordered, closed sequence of pixel
// coordinates. Straight runs are compressed to their end points.
type Contour []image.Point

// moore lists the 8 neighbour offsets in clockwise screen order, starting east.
var moore = [8]image.Point{
	{X: 1, Y: 0},   // E
	{X: 1, Y: 1},   // SE
	{X: 0, Y: 1},   // S
	{X: -1, Y: 1},  // SW
	{X: -1, Y: 0},  // W
	{X: -1, Y: -1}, // NW
	{X: 0, Y: -1},  // N
	{X: 1, Y: -1},  // NE
}

// FindExternalContours returns the outer boundary of every outermost blob in
// a binary image. A pixel belongs to a blob when its value is non-zero.
//
// # Algorithm
//
//  1. Labeling: 8-connected components of foreground pixels, found with an
//     iterative flood fill in raster order.
//  2. Outside region: background pixels 4-connected to the image border.
//  3. Retrieval: a component is outermost when it touches the border or
//     the outside region. Blobs sitting inside another blob's hole (a tick
//     mark inside a checkbox, say) are skipped.
//  4. Tracing: Moore-neighbour boundary following from the component's first
//     pixel in raster order, stopping when the first move repeats.
//  5. Compression: points in the middle of straight runs are dropped.
//
// Contours are returned in raster order of their first pixel.
func FindExternalContours(bin *image.Gray) []Contour {
	b := bin.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	fg := make([]bool, width*height)
	for y := 0; y < height; y++ {
		row := bin.Pix[y*bin.Stride : y*bin.Stride+width]
		for x, v := range row {
			fg[y*width+x] = v != 0
		}
	}

	labels, starts := labelComponents(fg, width, height)
	outside := outsideBackground(fg, width, height)

	external := make([]bool, len(starts)+1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			id := labels[y*width+x]
			if id == 0 || external[id] {
				continue
			}
			if x == 0 || y == 0 || x == width-1 || y == height-1 ||
				outside[y*width+x-1] || outside[y*width+x+1] ||
				outside[(y-1)*width+x] || outside[(y+1)*width+x] {
				external[id] = true
			}
		}
	}

	contours := make([]Contour, 0)
	for i, start := range starts {
		id := int32(i + 1)
		if !external[id] {
			continue
		}
		inside := func(p image.Point) bool {
			return p.X >= 0 && p.X < width && p.Y >= 0 && p.Y < height && labels[p.Y*width+p.X] == id
		}
		contours = append(contours, compressChain(traceBoundary(start, inside)))
	}
	return contours
}

// labelComponents assigns a 1-based label to every 8-connected foreground
// component. starts[i] is the first pixel (raster order) of label i+1, which
// is always on that component's outer boundary.
func labelComponents(fg []bool, width, height int) ([]int32, []image.Point) {
	labels := make([]int32, width*height)
	starts := make([]image.Point, 0)
	stack := make([]image.Point, 0, 64)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !fg[y*width+x] || labels[y*width+x] != 0 {
				continue
			}
			starts = append(starts, image.Point{X: x, Y: y})
			id := int32(len(starts))

			// Iterative flood fill; recursion would overflow on large blobs.
			labels[y*width+x] = id
			stack = append(stack[:0], image.Point{X: x, Y: y})
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				for _, d := range moore {
					n := p.Add(d)
					if n.X < 0 || n.X >= width || n.Y < 0 || n.Y >= height {
						continue
					}
					i := n.Y*width + n.X
					if fg[i] && labels[i] == 0 {
						labels[i] = id
						stack = append(stack, n)
					}
				}
			}
		}
	}
	return labels, starts
}

// outsideBackground marks the background pixels reachable from the image
// border through 4-connected background. Using 4-connectivity for the
// background and 8 for the foreground keeps closed 8-connected outlines
// watertight.
func outsideBackground(fg []bool, width, height int) []bool {
	outside := make([]bool, width*height)
	queue := make([]int, 0, 2*(width+height))

	seed := func(x, y int) {
		i := y*width + x
		if !fg[i] && !outside[i] {
			outside[i] = true
			queue = append(queue, i)
		}
	}
	for x := 0; x < width; x++ {
		seed(x, 0)
		seed(x, height-1)
	}
	for y := 0; y < height; y++ {
		seed(0, y)
		seed(width-1, y)
	}

	for len(queue) > 0 {
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x, y := i%width, i/width
		if x > 0 {
			seed(x-1, y)
		}
		if x < width-1 {
			seed(x+1, y)
		}
		if y > 0 {
			seed(x, y-1)
		}
		if y < height-1 {
			seed(x, y+1)
		}
	}
	return outside
}

// traceBoundary follows the outer boundary of the component containing start,
// which must be the component's first pixel in raster order (so its west
// neighbour is background).
func traceBoundary(start image.Point, inside func(image.Point) bool) Contour {
	contour := Contour{start}
	cur := start
	back := 4 // direction from cur to the last background pixel examined (W)

	for {
		next := -1
		for i := 1; i < 8; i++ {
			d := (back + i) % 8
			if inside(cur.Add(moore[d])) {
				next = d
				break
			}
		}
		if next < 0 {
			return contour // isolated pixel
		}

		n := cur.Add(moore[next])
		if cur == start && len(contour) > 1 && n == contour[1] {
			break
		}

		// The neighbour examined just before n is background and adjacent
		// to n; it becomes the backtrack point for the next step.
		b := cur.Add(moore[(next+7)%8])
		back = direction(b.Sub(n))
		contour = append(contour, n)
		cur = n
	}

	// The walk re-enters start before detecting the repeat; drop the copy.
	if len(contour) > 1 && contour[len(contour)-1] == start {
		contour = contour[:len(contour)-1]
	}
	return contour
}

// direction returns the index in moore of a unit step.
func direction(d image.Point) int {
	for i, m := range moore {
		if m == d {
			return i
		}
	}
	return 4
}

// compressChain removes points that lie in the middle of a straight run, the
// equivalent of OpenCV's CHAIN_APPROX_SIMPLE.
func compressChain(c Contour) Contour {
	n := len(c)
	if n < 3 {
		return c
	}
	out := make(Contour, 0, n)
	for i := 0; i < n; i++ {
		prev := c[(i+n-1)%n]
		next := c[(i+1)%n]
		if c[i].Sub(prev) != next.Sub(c[i]) {
			out = append(out, c[i])
		}
	}
	if len(out) == 0 {
		// Degenerate: every step identical, which only happens for n points
		// on a line walked out and back. Keep the end points.
		return Contour{c[0], c[n/2]}
	}
	return out
}
