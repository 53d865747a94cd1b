// Package pipeline runs the checkbox detector end to end: it resolves and
// loads a card scan, binarizes it, extracts and gates contours, normalizes and
// groups the candidates, filters outlier rows, and summarizes the layout.
//
// A Runner carries the immutable configuration and the shared image cache; it
// is safe to use from several goroutines, which is how Scan processes a
// folder.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Chr1Z93/SCED-tools/internal/config"
	"github.com/Chr1Z93/SCED-tools/internal/detection"
	"github.com/Chr1Z93/SCED-tools/internal/imaging"
	"github.com/Chr1Z93/SCED-tools/internal/layout"
)

// ErrNoCandidates is returned when no contour passes the checkbox shape gates.
var ErrNoCandidates = errors.New("no checkbox candidates found")

// Runner executes the detector with one configuration.
type Runner struct {
	Config  config.Config
	Cache   *imaging.ImageCache
	Fetcher *imaging.Fetcher

	// BaseDir is tried as a prefix for relative paths that do not exist in
	// the working directory.
	BaseDir string
}

// NewRunner creates a runner with an empty cache and a default fetcher.
func NewRunner(cfg config.Config) *Runner {
	return &Runner{
		Config:  cfg,
		Cache:   imaging.NewImageCache(),
		Fetcher: imaging.NewFetcher(),
	}
}

// Result holds every intermediate product of one detection run, so callers
// can report and draw discarded candidates as well as the final layout.
type Result struct {
	Path   string      `json:"path"`
	Image  image.Image `json:"-" yaml:"-"`
	Width  int         `json:"width"`
	Height int         `json:"height"`

	// Contours is the number of external contours before shape gating.
	Contours int `json:"contours"`

	// Candidates passed the shape gates; Points[i] is Candidates[i] in card
	// units with Index i.
	Candidates []detection.Candidate `json:"candidates"`
	Points     []layout.Point        `json:"points"`

	// Partition assigns every point to a kept row or a discarded segment.
	// Zone rejects are the first segment, with row -1.
	Partition layout.Partition `json:"partition"`
	Summary   layout.Summary   `json:"summary"`

	// Guides are the pixel columns of the horizontal zone boundaries.
	Guides []int `json:"guides,omitempty"`
}

// Resolve turns a command line argument into a readable local file path.
// URLs are downloaded; other arguments are used as given when the file
// exists, and otherwise looked up relative to BaseDir.
func (r *Runner) Resolve(ctx context.Context, arg string) (string, error) {
	if imaging.IsURL(arg) {
		return r.Fetcher.Fetch(ctx, arg)
	}

	if _, err := os.Stat(arg); err == nil {
		return arg, nil
	}
	if r.BaseDir != "" && !filepath.IsAbs(arg) {
		candidate := filepath.Join(r.BaseDir, arg)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("failed to open image: %s: %w", arg, os.ErrNotExist)
}

// Detect loads the image at path and runs the detector on it.
func (r *Runner) Detect(path string) (*Result, error) {
	img, err := r.Cache.Load(path)
	if err != nil {
		return nil, err
	}
	res, err := r.DetectImage(img)
	if res != nil {
		res.Path = path
	}
	return res, err
}

// DetectImage runs the detector on a decoded image.
//
// # Errors
//
//   - ErrNoCandidates when no contour looks like a checkbox
//   - layout.ErrNoRows when no row survives filtering
//
// In both cases the partial Result is returned along with the error, so the
// debug image can still show what was found.
func (r *Runner) DetectImage(img image.Image) (*Result, error) {
	cfg := r.Config
	b := img.Bounds()
	res := &Result{
		Image:  img,
		Width:  b.Dx(),
		Height: b.Dy(),
	}

	bin := imaging.Binarize(img, cfg.Preprocess)
	contours := detection.FindContours(bin)
	res.Contours = len(contours)

	res.Candidates = detection.FilterCandidates(contours, res.Height, cfg.Box)
	slog.Debug("Candidates filtered",
		"backend", detection.Backend, "contours", res.Contours, "candidates", len(res.Candidates))
	if len(res.Candidates) == 0 {
		return res, ErrNoCandidates
	}

	norm := layout.NewNormalizer(res.Width, res.Height, cfg.Layout.CardHeight)
	res.Points = make([]layout.Point, len(res.Candidates))
	for i, c := range res.Candidates {
		res.Points[i] = norm.Normalize(c.Rect(), i)
	}

	inZone := res.Points
	var outZone []layout.Point
	if cfg.Box.ZoneEnabled {
		inZone, outZone = layout.SplitZone(res.Points, cfg.Box.ZoneLeft, cfg.Box.ZoneRight)
		res.Guides = []int{norm.PixelX(cfg.Box.ZoneLeft), norm.PixelX(cfg.Box.ZoneRight)}
	}

	rows := layout.GroupRows(inZone, cfg.Rows.RowGapFactor*float64(res.Height))
	res.Partition = layout.Filter(rows, cfg.Rows, res.Height)
	if len(outZone) > 0 {
		zone := layout.Segment{Row: -1, Reason: layout.ReasonZone, Points: outZone}
		res.Partition.Discarded = append([]layout.Segment{zone}, res.Partition.Discarded...)
	}
	slog.Debug("Rows filtered",
		"grouped", len(rows), "kept", len(res.Partition.Kept), "discarded", res.Partition.DiscardedCount())

	summary, err := layout.Summarize(res.Partition.Kept, cfg.Layout)
	if err != nil {
		return res, err
	}
	res.Summary = summary
	return res, nil
}

// Marks returns one debug outline per candidate, colored by its fate. The
// rightmost point of each kept row is labeled with the row number used in the
// script.
func (res *Result) Marks() []imaging.Mark {
	marks := make([]imaging.Mark, len(res.Candidates))
	for i, c := range res.Candidates {
		marks[i] = imaging.Mark{Rect: c.Rect(), Status: imaging.StatusKept}
	}

	for _, seg := range res.Partition.Discarded {
		status := segmentStatus(seg.Reason)
		for _, p := range seg.Points {
			marks[p.Index].Status = status
		}
	}

	for i, row := range res.Partition.Kept {
		if n := len(row.Points); n > 0 {
			marks[row.Points[n-1].Index].Label = strconv.Itoa(i + 1)
		}
	}
	return marks
}

func segmentStatus(r layout.Reason) imaging.Status {
	switch r {
	case layout.ReasonZone:
		return imaging.StatusZone
	case layout.ReasonOffset:
		return imaging.StatusOffset
	default:
		return imaging.StatusInitial
	}
}

// DebugImage draws the result's candidates and zone guides on a copy of the
// source image.
func (res *Result) DebugImage() *image.NRGBA {
	return imaging.Annotate(res.Image, res.Marks(), res.Guides)
}
