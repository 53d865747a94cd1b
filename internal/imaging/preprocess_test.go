package imaging

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/Chr1Z93/SCED-tools/internal/config"
)

// createSquareImage creates a white image with a filled black square.
func createSquareImage(width, height int, square image.Rectangle) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(img, square, image.NewUniform(color.Black), image.Point{}, draw.Src)
	return img
}

func TestBinarize_Adaptive(t *testing.T) {
	img := createSquareImage(60, 60, image.Rect(20, 20, 40, 40))
	bin := Binarize(img, config.Default().Preprocess)

	if bin.Bounds() != image.Rect(0, 0, 60, 60) {
		t.Fatalf("unexpected bounds %v", bin.Bounds())
	}

	// Only the border of a solid area survives local thresholding.
	tests := []struct {
		name string
		x, y int
		want uint8
	}{
		{"paper", 2, 2, Background},
		{"left edge", 20, 30, Foreground},
		{"right edge", 39, 30, Foreground},
		{"top edge", 30, 20, Foreground},
		{"inside edge", 22, 30, Foreground},
		{"interior", 30, 30, Background},
		{"just outside", 19, 30, Background},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bin.GrayAt(tt.x, tt.y).Y; got != tt.want {
				t.Errorf("pixel (%d,%d) = %d, want %d", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestBinarize_Global(t *testing.T) {
	img := createSquareImage(60, 60, image.Rect(20, 20, 40, 40))
	cfg := config.Default().Preprocess
	cfg.Mode = config.ModeGlobal

	bin := Binarize(img, cfg)

	if got := bin.GrayAt(30, 30).Y; got != Foreground {
		t.Errorf("interior = %d, want Foreground", got)
	}
	if got := bin.GrayAt(2, 2).Y; got != Background {
		t.Errorf("paper = %d, want Background", got)
	}
}

func TestBinarize_UniformPaper(t *testing.T) {
	img := createInMemoryImage(40, 40, color.RGBA{200, 190, 170, 255})
	bin := Binarize(img, config.Default().Preprocess)

	for i, v := range bin.Pix {
		if v != Background {
			t.Fatalf("pixel %d is foreground on uniform paper", i)
		}
	}
}

func TestBinarize_SubImage(t *testing.T) {
	full := createSquareImage(100, 100, image.Rect(40, 40, 60, 60))
	sub := full.SubImage(image.Rect(20, 20, 80, 80))

	bin := Binarize(sub, config.Default().Preprocess)

	if bin.Bounds() != image.Rect(0, 0, 60, 60) {
		t.Fatalf("expected origin at (0,0), got %v", bin.Bounds())
	}
	// The square's left edge is at x=40 in the source, x=20 in the result.
	if got := bin.GrayAt(20, 30).Y; got != Foreground {
		t.Errorf("edge pixel = %d, want Foreground", got)
	}
}
