package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/Chr1Z93/SCED-tools/internal/imaging"
)

// DefaultDimensionMargin is the pixel deviation from the folder average above
// which an image is reported as an outlier.
const DefaultDimensionMargin = 25

// FileResult is the outcome of detection on one file of a scan.
type FileResult struct {
	Path    string  `json:"path"`
	Result  *Result `json:"result,omitempty"`
	Outputs Outputs `json:"outputs"`
	Err     error   `json:"-" yaml:"-"`

	// Error mirrors Err for JSON and YAML reports.
	Error string `json:"error,omitempty"`
}

// DimensionOutlier is an image whose size deviates from the folder average.
type DimensionOutlier struct {
	imaging.Dimensions
	DevWidth  int `json:"dev_width"`
	DevHeight int `json:"dev_height"`
}

// DimensionReport summarizes the image sizes found by a scan.
type DimensionReport struct {
	Count     int                `json:"count"`
	AvgWidth  int                `json:"avg_width"`
	AvgHeight int                `json:"avg_height"`
	Margin    int                `json:"margin"`
	Outliers  []DimensionOutlier `json:"outliers"`
}

// ScanReport is the merged outcome of a folder scan. Files keep the order in
// which they were found.
type ScanReport struct {
	Root       string          `json:"root"`
	Files      []FileResult    `json:"files"`
	Dimensions DimensionReport `json:"dimensions"`
}

// Failed returns the number of files that produced no layout.
func (s *ScanReport) Failed() int {
	var n int
	for _, f := range s.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// ScanOptions controls a folder scan.
type ScanOptions struct {
	// Workers bounds the number of images processed at once.
	Workers int

	// Margin is the dimension outlier threshold in pixels.
	Margin int

	// Output, when set, is applied to every file. Its Dir receives the
	// folder structure below the scan root.
	Output *OutputOptions
}

// FindImages walks root and returns every decodable image, sorted by path.
// Debug images written by earlier runs are skipped.
func FindImages(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !imaging.IsSupported(path) {
			return nil
		}
		if stem, _ := imaging.BaseName(path); strings.HasSuffix(stem, "_debug") {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Scan runs the detector over every image below root.
//
// Files are processed by at most opts.Workers goroutines. Each file is owned
// by one worker, which writes its FileResult into a slot reserved for it, so
// no locking is needed; the dimension report is computed once all workers are
// done. A failing file is recorded and never aborts the scan. Cancelling ctx
// stops scheduling new files; unscheduled files are recorded with the context
// error, which Scan also returns.
func (r *Runner) Scan(ctx context.Context, root string, opts ScanOptions) (*ScanReport, error) {
	paths, err := FindImages(root)
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	report := &ScanReport{
		Root:  root,
		Files: make([]FileResult, len(paths)),
	}
	dims := make([]imaging.Dimensions, len(paths))
	dimOK := make([]bool, len(paths))

	slog.Info("Scanning images", "root", root, "files", len(paths), "workers", workers)

	var g errgroup.Group
	g.SetLimit(workers)

	for i, path := range paths {
		if ctx.Err() != nil {
			report.Files[i] = FileResult{Path: path, Err: ctx.Err(), Error: ctx.Err().Error()}
			continue
		}
		g.Go(func() error {
			report.Files[i] = r.scanFile(path, fileOutput(root, path, opts.Output))
			if d, err := imaging.ReadDimensions(path); err == nil {
				dims[i], dimOK[i] = d, true
			}
			return nil
		})
	}
	_ = g.Wait() // workers record their own errors

	var found []imaging.Dimensions
	for i, ok := range dimOK {
		if ok {
			found = append(found, dims[i])
		}
	}
	margin := opts.Margin
	if margin <= 0 {
		margin = DefaultDimensionMargin
	}
	report.Dimensions = AnalyzeDimensions(found, margin)

	slog.Info("Scan finished", "files", len(paths), "failed", report.Failed(),
		"dimension_outliers", len(report.Dimensions.Outliers), "cached", r.Cache.Len())

	return report, ctx.Err()
}

// fileOutput returns the output options for one file of a scan. With an
// output directory, the file's folder relative to root is mirrored below it,
// so equal file names in different folders never share an output path.
func fileOutput(root, path string, output *OutputOptions) *OutputOptions {
	if output == nil || output.Dir == "" {
		return output
	}
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return output
	}
	o := *output
	o.Dir = filepath.Join(output.Dir, rel)
	return &o
}

// scanFile detects and writes the outputs of one file. The decoded image is
// dropped from the result once the outputs are written, so a scan holds at
// most one image per worker.
func (r *Runner) scanFile(path string, output *OutputOptions) FileResult {
	fr := FileResult{Path: path}
	defer r.Cache.Evict(path)

	res, err := r.Detect(path)
	fr.Result = res
	fr.Err = err

	if output != nil && res != nil {
		outputs, werr := r.WriteOutputs(res, *output)
		fr.Outputs = outputs
		if werr != nil && fr.Err == nil {
			fr.Err = werr
		}
	}
	if res != nil {
		res.Image = nil
	}

	if fr.Err != nil {
		fr.Error = fr.Err.Error()
		slog.Warn("Detection failed", "path", path, "error", fr.Err)
	} else {
		slog.Debug("Detection finished", "path", path, "rows", len(res.Summary.Rows))
	}
	return fr
}

// AnalyzeDimensions computes the average image size (rounded half to even)
// and reports every image whose width or height deviates from it by more than
// margin pixels.
func AnalyzeDimensions(dims []imaging.Dimensions, margin int) DimensionReport {
	report := DimensionReport{Count: len(dims), Margin: margin}
	if len(dims) == 0 {
		return report
	}

	widths := make([]float64, len(dims))
	heights := make([]float64, len(dims))
	for i, d := range dims {
		widths[i] = float64(d.Width)
		heights[i] = float64(d.Height)
	}
	report.AvgWidth = int(math.RoundToEven(stat.Mean(widths, nil)))
	report.AvgHeight = int(math.RoundToEven(stat.Mean(heights, nil)))

	for _, d := range dims {
		devW := absInt(d.Width - report.AvgWidth)
		devH := absInt(d.Height - report.AvgHeight)
		if devW > margin || devH > margin {
			report.Outliers = append(report.Outliers, DimensionOutlier{Dimensions: d, DevWidth: devW, DevHeight: devH})
		}
	}
	return report
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
