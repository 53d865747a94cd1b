package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Status is the final fate of a checkbox candidate.
type Status int

const (
	// StatusKept marks a candidate that passed every filter.
	StatusKept Status = iota
	// StatusZone marks a candidate outside the horizontal zone.
	StatusZone
	// StatusOffset marks a candidate cut by the row spacing filter.
	StatusOffset
	// StatusInitial marks a candidate whose row starts too far from the others.
	StatusInitial
)

// String returns the name used in reports.
func (s Status) String() string {
	switch s {
	case StatusKept:
		return "kept"
	case StatusZone:
		return "zone"
	case StatusOffset:
		return "offset"
	case StatusInitial:
		return "initial"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// StatusColor returns the outline color for a status: green for kept
// candidates, gray for zone rejects, orange for spacing rejects and red for
// row-start rejects.
func StatusColor(s Status) color.NRGBA {
	var c colorful.Color
	switch s {
	case StatusKept:
		c = colorful.Hsv(120, 0.85, 0.8)
	case StatusZone:
		c = colorful.Hsv(0, 0, 0.55)
	case StatusOffset:
		c = colorful.Hsv(30, 0.9, 0.95)
	default:
		c = colorful.Hsv(0, 0.9, 0.9)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// Mark is one candidate outline to draw on the debug image.
type Mark struct {
	Rect   image.Rectangle
	Status Status

	// Label is drawn to the right of the outline when non-empty.
	Label string
}

// Annotate returns a copy of img with every mark outlined (2 px, colored by
// status) and labeled. guides are pixel columns drawn as dashed vertical
// lines, used to show the horizontal zone boundaries.
//
// Coordinates are relative to the image origin, matching the binarized image
// the candidates were detected on.
func Annotate(img image.Image, marks []Mark, guides []int) *image.NRGBA {
	out := imaging.Clone(img)
	bounds := out.Bounds()

	guideColor := color.NRGBA{R: 0, G: 120, B: 255, A: 255}
	for _, x := range guides {
		if x < bounds.Min.X || x >= bounds.Max.X {
			continue
		}
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			if (y/6)%2 == 0 {
				out.SetNRGBA(x, y, guideColor)
			}
		}
	}

	for _, m := range marks {
		c := StatusColor(m.Status)
		drawOutline(out, m.Rect, c, 2)
		if m.Label != "" {
			drawLabel(out, m.Rect.Max.X+4, m.Rect.Min.Y, m.Label, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, c)
		}
	}

	return out
}

// drawOutline draws a rectangle border of the given thickness, growing
// outwards from r so the candidate itself stays visible.
func drawOutline(img *image.NRGBA, r image.Rectangle, c color.NRGBA, thickness int) {
	src := image.NewUniform(c)
	for t := 0; t < thickness; t++ {
		o := r.Inset(-t)
		edges := []image.Rectangle{
			image.Rect(o.Min.X, o.Min.Y, o.Max.X, o.Min.Y+1), // top
			image.Rect(o.Min.X, o.Max.Y-1, o.Max.X, o.Max.Y), // bottom
			image.Rect(o.Min.X, o.Min.Y, o.Min.X+1, o.Max.Y), // left
			image.Rect(o.Max.X-1, o.Min.Y, o.Max.X, o.Max.Y), // right
		}
		for _, e := range edges {
			draw.Draw(img, e.Intersect(img.Bounds()), src, image.Point{}, draw.Src)
		}
	}
}

// drawLabel draws text on a filled background with its top-left at (x, y).
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
	}
	width := d.MeasureString(text).Ceil()
	height := face.Metrics().Height.Ceil()

	box := image.Rect(x-1, y-1, x+width+1, y+height+1).Intersect(img.Bounds())
	draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Src)

	d.Dot = fixed.P(x, y+face.Metrics().Ascent.Ceil())
	d.DrawString(text)
}

// DebugPath returns "<dir>/<stem>_debug<ext>" for a source image. Formats the
// encoder cannot write (e.g. WebP) fall back to PNG.
func DebugPath(source, dir string) string {
	stem, ext := BaseName(source)
	if _, err := imaging.FormatFromFilename(source); err != nil {
		ext = ".png"
	}
	if dir == "" {
		dir = filepath.Dir(source)
	}
	return filepath.Join(dir, stem+"_debug"+ext)
}

// SaveDebug writes an annotated image, choosing the encoder from the
// extension of path.
func SaveDebug(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save debug image: %w", err)
	}
	return nil
}
