// Package config holds the tuning thresholds of the checkbox detector.
//
// A Config is a plain value: Default returns the calibrated thresholds, Load
// overlays a YAML file on top of them, and every pipeline stage receives the
// section it needs as an argument. Nothing in the detector reads package-level
// state, so tests can run with any combination of thresholds side by side.
//
// Thresholds that depend on the source scan are expressed per pixel of image
// height (the original calibration was done on 1050 px tall scans, hence the
// "/ 1050" in the defaults) and are multiplied by the height of the image
// being processed.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Statistic names accepted by LayoutConfig.XInitialStat and XOffsetStat.
const (
	StatMean   = "mean"
	StatMedian = "median"
)

// Threshold modes accepted by PreprocessConfig.Mode.
const (
	ModeAdaptive = "adaptive"
	ModeGlobal   = "global"
)

// Config is the complete set of detector thresholds.
type Config struct {
	Preprocess PreprocessConfig `yaml:"preprocess"`
	Box        BoxConfig        `yaml:"box"`
	Rows       RowConfig        `yaml:"rows"`
	Layout     LayoutConfig     `yaml:"layout"`
	OCR        OCRConfig        `yaml:"ocr"`
}

// PreprocessConfig controls the grayscale/blur/threshold stage.
type PreprocessConfig struct {
	// Mode is "adaptive" (local mean threshold) or "global" (fixed level).
	Mode string `yaml:"mode"`

	// BlurRadius is the Gaussian blur radius in whole pixels. bild places
	// taps at -r..r weighted by exp(-x²/4r), so 2 gives a 5x5 kernel with an
	// effective sigma of about 1.3, slightly softer than OpenCV's 5x5 default
	// (about 1.0). 1 gives a 3x3 kernel with sigma about 0.8.
	BlurRadius float64 `yaml:"blur_radius"`

	// BlockRadius is the radius of the local-mean window. 5 gives 11x11.
	BlockRadius float64 `yaml:"block_radius"`

	// Offset is subtracted from the local mean before comparing (OpenCV's C).
	Offset float64 `yaml:"offset"`

	// GlobalLevel is the threshold used in "global" mode.
	GlobalLevel uint8 `yaml:"global_level"`
}

// BoxConfig gates contours into checkbox candidates.
type BoxConfig struct {
	MinRatio    float64 `yaml:"min_ratio"`
	MaxRatio    float64 `yaml:"max_ratio"`
	MinSize     float64 `yaml:"min_size"` // fraction of image height
	MaxSize     float64 `yaml:"max_size"` // fraction of image height
	MinSolidity float64 `yaml:"min_solidity"`
	MinCorners  int     `yaml:"min_corners"`
	MaxCorners  int     `yaml:"max_corners"`

	// ZoneEnabled restricts candidates to ZoneLeft < x < ZoneRight (card units).
	ZoneEnabled bool    `yaml:"zone_enabled"`
	ZoneLeft    float64 `yaml:"zone_left"`
	ZoneRight   float64 `yaml:"zone_right"`
}

// RowConfig controls row grouping and the two outlier passes.
type RowConfig struct {
	// RowGapFactor times image height is the chained vertical tolerance.
	RowGapFactor float64 `yaml:"row_gap_factor"`

	// OffsetDeviationFactor is the largest allowed gap / reference-gap ratio.
	OffsetDeviationFactor float64 `yaml:"offset_deviation_factor"`

	// InitialDeviationFactor times image height bounds a row's start deviation.
	InitialDeviationFactor float64 `yaml:"initial_deviation_factor"`
}

// LayoutConfig controls unit conversion and the summary scalars.
type LayoutConfig struct {
	// CardHeight is the card height in script units.
	CardHeight float64 `yaml:"card_height"`

	// FirstOffsetFactor is how many offsets xInitial is shifted left by.
	FirstOffsetFactor float64 `yaml:"first_offset_factor"`

	BoxSize      int    `yaml:"box_size"`
	XInitialStat string `yaml:"x_initial_stat"`
	XOffsetStat  string `yaml:"x_offset_stat"`

	// Precision is the number of decimals written to the script.
	Precision int `yaml:"precision"`
}

// OCRConfig locates the card title for --ocr-title.
type OCRConfig struct {
	Language string `yaml:"language"`

	// Title region as fractions of the image size.
	TitleX1 float64 `yaml:"title_x1"`
	TitleY1 float64 `yaml:"title_y1"`
	TitleX2 float64 `yaml:"title_x2"`
	TitleY2 float64 `yaml:"title_y2"`
}

// Default returns the thresholds calibrated against real upgrade sheet scans.
func Default() Config {
	return Config{
		Preprocess: PreprocessConfig{
			Mode:        ModeAdaptive,
			BlurRadius:  2,
			BlockRadius: 5,
			Offset:      3,
			GlobalLevel: 128,
		},
		Box: BoxConfig{
			MinRatio:    0.9,
			MaxRatio:    1.1,
			MinSize:     20.0 / 1050,
			MaxSize:     45.0 / 1050,
			MinSolidity: 0.7,
			MinCorners:  3,
			MaxCorners:  10,
			ZoneEnabled: true,
			ZoneLeft:    -0.9,
			ZoneRight:   -0.5,
		},
		Rows: RowConfig{
			RowGapFactor:           0.03 / 1050,
			OffsetDeviationFactor:  1.1,
			InitialDeviationFactor: 0.07 / 1050,
		},
		Layout: LayoutConfig{
			CardHeight:        3.062473,
			FirstOffsetFactor: 0.775,
			BoxSize:           40,
			XInitialStat:      StatMean,
			XOffsetStat:       StatMedian,
			Precision:         3,
		},
		OCR: OCRConfig{
			Language: "eng",
			TitleX1:  0.15,
			TitleY1:  0.02,
			TitleX2:  0.85,
			TitleY2:  0.09,
		},
	}
}

// Load reads a YAML file and overlays it on Default. Keys missing from the
// file keep their default value.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Marshal renders the config as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate reports every inconsistent threshold, joined into one error.
func (c Config) Validate() error {
	var errs []error

	switch c.Preprocess.Mode {
	case ModeAdaptive, ModeGlobal:
	default:
		errs = append(errs, fmt.Errorf("preprocess.mode must be %q or %q, got %q", ModeAdaptive, ModeGlobal, c.Preprocess.Mode))
	}
	if c.Preprocess.BlurRadius < 0 || c.Preprocess.BlockRadius <= 0 {
		errs = append(errs, errors.New("preprocess radii must be positive"))
	}
	if c.Preprocess.BlurRadius != math.Trunc(c.Preprocess.BlurRadius) {
		errs = append(errs, fmt.Errorf("preprocess.blur_radius must be a whole number, got %v", c.Preprocess.BlurRadius))
	}
	if c.Box.MinRatio >= c.Box.MaxRatio {
		errs = append(errs, errors.New("box.min_ratio must be below box.max_ratio"))
	}
	if c.Box.MinSize >= c.Box.MaxSize {
		errs = append(errs, errors.New("box.min_size must be below box.max_size"))
	}
	if c.Box.MinCorners > c.Box.MaxCorners {
		errs = append(errs, errors.New("box.min_corners must not exceed box.max_corners"))
	}
	if c.Box.ZoneEnabled && c.Box.ZoneLeft >= c.Box.ZoneRight {
		errs = append(errs, errors.New("box.zone_left must be below box.zone_right"))
	}
	if c.Rows.RowGapFactor <= 0 || c.Rows.OffsetDeviationFactor <= 0 || c.Rows.InitialDeviationFactor <= 0 {
		errs = append(errs, errors.New("row thresholds must be positive"))
	}
	if c.Layout.CardHeight <= 0 {
		errs = append(errs, errors.New("layout.card_height must be positive"))
	}
	for _, stat := range []string{c.Layout.XInitialStat, c.Layout.XOffsetStat} {
		if stat != StatMean && stat != StatMedian {
			errs = append(errs, fmt.Errorf("unknown statistic %q (want %q or %q)", stat, StatMean, StatMedian))
		}
	}
	if c.Layout.Precision < 0 || c.Layout.Precision > 9 {
		errs = append(errs, errors.New("layout.precision must be between 0 and 9"))
	}
	if c.OCR.TitleX1 >= c.OCR.TitleX2 || c.OCR.TitleY1 >= c.OCR.TitleY2 {
		errs = append(errs, errors.New("ocr title region is empty"))
	}

	return errors.Join(errs...)
}
