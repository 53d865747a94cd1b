package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Chr1Z93/SCED-tools/internal/config"
	"github.com/Chr1Z93/SCED-tools/internal/imaging"
	"github.com/Chr1Z93/SCED-tools/internal/layout"
	"github.com/Chr1Z93/SCED-tools/internal/script"
)

// createCard creates a white card scan.
func createCard(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	return img
}

// fillRect paints a solid black rectangle.
func fillRect(img *image.RGBA, r image.Rectangle) {
	draw.Draw(img, r, image.NewUniform(color.Black), image.Point{}, draw.Src)
}

// createGridCard draws rows×cols black squares of the given size, with the
// top-left square at (x0, y0).
func createGridCard(width, height, rows, cols, size, x0, y0, dx, dy int) *image.RGBA {
	img := createCard(width, height)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			x := x0 + c*dx
			y := y0 + r*dy
			fillRect(img, image.Rect(x, y, x+size, y+size))
		}
	}
	return img
}

// writePNG saves img as dir/name and returns the path.
func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", path, err)
	}
	return path
}

// A 600x840 card: 24 px squares fit the size band (16..36 px) and column
// centres between x=54 and x=162 fall inside the checkbox zone.
const (
	cardW   = 600
	cardH   = 840
	boxPx   = 24
	stepX   = 36
	stepY   = 100
	firstX  = 58
	firstY  = 100
	gridRow = 3
	gridCol = 3
)

func gridCard() *image.RGBA {
	return createGridCard(cardW, cardH, gridRow, gridCol, boxPx, firstX, firstY, stepX, stepY)
}

func TestDetectImage_Grid(t *testing.T) {
	r := NewRunner(config.Default())

	res, err := r.DetectImage(gridCard())
	if err != nil {
		t.Fatalf("DetectImage failed: %v", err)
	}

	if len(res.Candidates) != gridRow*gridCol {
		t.Fatalf("Expected %d candidates, got %d", gridRow*gridCol, len(res.Candidates))
	}
	if res.Partition.DiscardedCount() != 0 {
		t.Errorf("Expected nothing discarded, got %+v", res.Partition.Discarded)
	}
	if len(res.Summary.Rows) != gridRow {
		t.Fatalf("Expected %d rows, got %d", gridRow, len(res.Summary.Rows))
	}
	for i, row := range res.Summary.Rows {
		if row.Count != gridCol || row.Index != i+1 {
			t.Errorf("Unexpected row %+v", row)
		}
	}

	scale := config.Default().Layout.CardHeight / cardH
	if want := stepX * scale; math.Abs(res.Summary.XOffset-want) > 1e-9 {
		t.Errorf("Expected xOffset %v, got %v", want, res.Summary.XOffset)
	}

	// Rows are evenly spaced, top to bottom.
	for i := 1; i < len(res.Summary.Rows); i++ {
		gap := res.Summary.Rows[i].PosZ - res.Summary.Rows[i-1].PosZ
		if math.Abs(gap-stepY*scale) > 1e-9 {
			t.Errorf("Row %d: expected z gap %v, got %v", i+1, stepY*scale, gap)
		}
	}
}

func TestDetectImage_ForeignRectangle(t *testing.T) {
	r := NewRunner(config.Default())

	clean, err := r.DetectImage(gridCard())
	if err != nil {
		t.Fatalf("DetectImage failed on clean grid: %v", err)
	}

	img := gridCard()
	fillRect(img, image.Rect(300, 500, 500, 620))
	noisy, err := r.DetectImage(img)
	if err != nil {
		t.Fatalf("DetectImage failed with foreign rectangle: %v", err)
	}

	if len(noisy.Candidates) != len(clean.Candidates) {
		t.Errorf("Candidate count changed: %d -> %d", len(clean.Candidates), len(noisy.Candidates))
	}
	if len(noisy.Summary.Rows) != len(clean.Summary.Rows) {
		t.Errorf("Row count changed: %d -> %d", len(clean.Summary.Rows), len(noisy.Summary.Rows))
	}
	if noisy.Summary.XInitial != clean.Summary.XInitial || noisy.Summary.XOffset != clean.Summary.XOffset {
		t.Errorf("Scalars changed: %+v -> %+v", clean.Summary, noisy.Summary)
	}
	if noisy.Contours <= clean.Contours {
		t.Errorf("Expected the rectangle to add a contour (%d -> %d)", clean.Contours, noisy.Contours)
	}
}

func TestDetectImage_SingleColumn(t *testing.T) {
	img := createCard(1000, 1400)
	for _, y := range []int{100, 250, 400, 550, 700} {
		fillRect(img, image.Rect(100, y, 130, y+30))
	}

	res, err := NewRunner(config.Default()).DetectImage(img)
	if err != nil {
		t.Fatalf("DetectImage failed: %v", err)
	}

	if len(res.Summary.Rows) != 5 {
		t.Fatalf("Expected 5 rows, got %d", len(res.Summary.Rows))
	}
	for _, row := range res.Summary.Rows {
		if row.Count != 1 {
			t.Errorf("Row %d: expected count 1, got %d", row.Index, row.Count)
		}
	}
	if res.Summary.XOffset != 0 {
		t.Errorf("Expected xOffset 0 for a single column, got %v", res.Summary.XOffset)
	}
	if res.Summary.XInitial != res.Summary.Stats.XInitialMean {
		t.Errorf("Expected xInitial equal to the column start, got %v", res.Summary.XInitial)
	}
}

func TestDetectImage_ZoneReject(t *testing.T) {
	img := gridCard()
	// Same size, but in the right half of the card.
	fillRect(img, image.Rect(400, 100, 400+boxPx, 100+boxPx))

	res, err := NewRunner(config.Default()).DetectImage(img)
	if err != nil {
		t.Fatalf("DetectImage failed: %v", err)
	}
	if len(res.Candidates) != gridRow*gridCol+1 {
		t.Fatalf("Expected %d candidates, got %d", gridRow*gridCol+1, len(res.Candidates))
	}
	if res.Partition.KeptCount() != gridRow*gridCol {
		t.Errorf("Expected the grid kept, got %d points", res.Partition.KeptCount())
	}
	if len(res.Partition.Discarded) != 1 || res.Partition.Discarded[0].Reason != layout.ReasonZone {
		t.Fatalf("Expected one zone segment, got %+v", res.Partition.Discarded)
	}

	var zone, labeled int
	for _, m := range res.Marks() {
		if m.Status == imaging.StatusZone {
			zone++
		}
		if m.Label != "" {
			labeled++
		}
	}
	if zone != 1 {
		t.Errorf("Expected 1 zone mark, got %d", zone)
	}
	if labeled != gridRow {
		t.Errorf("Expected one label per kept row, got %d", labeled)
	}
	if len(res.Guides) != 2 || res.Guides[0] >= res.Guides[1] {
		t.Errorf("Expected two ordered zone guides, got %v", res.Guides)
	}

	cfg := config.Default()
	cfg.Box.ZoneEnabled = false
	open, err := NewRunner(cfg).DetectImage(img)
	if err != nil {
		t.Fatalf("DetectImage failed without zone: %v", err)
	}
	if open.Partition.KeptCount()+open.Partition.DiscardedCount() != len(open.Candidates) {
		t.Errorf("Partition lost points with the zone disabled")
	}
	if len(open.Guides) != 0 {
		t.Errorf("Expected no guides with the zone disabled, got %v", open.Guides)
	}
}

func TestDetectImage_NoCandidates(t *testing.T) {
	res, err := NewRunner(config.Default()).DetectImage(createCard(300, 420))
	if !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("Expected ErrNoCandidates, got %v", err)
	}
	if res == nil || res.Width != 300 || res.Height != 420 {
		t.Errorf("Expected a partial result, got %+v", res)
	}
}

func TestDetectImage_NoRows(t *testing.T) {
	img := createCard(cardW, cardH)
	fillRect(img, image.Rect(400, 100, 400+boxPx, 100+boxPx))

	res, err := NewRunner(config.Default()).DetectImage(img)
	if !errors.Is(err, layout.ErrNoRows) {
		t.Fatalf("Expected ErrNoRows, got %v", err)
	}
	if len(res.Candidates) != 1 {
		t.Errorf("Expected the candidate to be reported, got %d", len(res.Candidates))
	}
}

func TestDetect_Unreadable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRunner(config.Default())
	if _, err := r.Detect(path); err == nil || !strings.Contains(err.Error(), "failed to decode image") {
		t.Errorf("Expected a decode error, got %v", err)
	}
	if _, err := r.Detect(filepath.Join(dir, "missing.png")); err == nil || !strings.Contains(err.Error(), "failed to open image") {
		t.Errorf("Expected an open error, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "card.png", createCard(10, 10))

	r := NewRunner(config.Default())
	ctx := context.Background()

	if got, err := r.Resolve(ctx, path); err != nil || got != path {
		t.Errorf("Resolve(existing) = %q, %v", got, err)
	}

	if _, err := r.Resolve(ctx, "card.png"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected ErrNotExist without a base dir, got %v", err)
	}

	r.BaseDir = dir
	if got, err := r.Resolve(ctx, "card.png"); err != nil || got != path {
		t.Errorf("Resolve(relative to base) = %q, %v", got, err)
	}
}

func TestResolve_URL(t *testing.T) {
	data, err := os.ReadFile(writePNG(t, t.TempDir(), "src.png", createCard(10, 10)))
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	r := NewRunner(config.Default())
	r.Fetcher.Dir = t.TempDir()

	got, err := r.Resolve(context.Background(), srv.URL+"/cards/Living%20Ink.png")
	if err != nil {
		t.Fatalf("Resolve(url) failed: %v", err)
	}
	if filepath.Base(got) != "Living Ink.png" {
		t.Errorf("Expected download named after the URL, got %q", got)
	}
	if _, err := r.Detect(got); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("Expected the downloaded blank card to load, got %v", err)
	}
}

func TestWriteOutputs(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	path := writePNG(t, src, "Hunter's Armor.png", gridCard())

	r := NewRunner(config.Default())
	res, err := r.Detect(path)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	template := "name = \"" + script.NameMarker + "\"\n" + script.ScriptMarker + "\n"
	outputs, err := r.WriteOutputs(res, OutputOptions{Dir: out, Template: template, Script: true, Debug: true})
	if err != nil {
		t.Fatalf("WriteOutputs failed: %v", err)
	}

	if outputs.Name != "Hunter's Armor" {
		t.Errorf("Expected the file stem as name, got %q", outputs.Name)
	}
	if outputs.ScriptPath != filepath.Join(out, "Hunter's Armor_script.ttslua") {
		t.Errorf("Unexpected script path %q", outputs.ScriptPath)
	}
	if outputs.DebugPath != filepath.Join(out, "Hunter's Armor_debug.png") {
		t.Errorf("Unexpected debug path %q", outputs.DebugPath)
	}

	text, err := os.ReadFile(outputs.ScriptPath)
	if err != nil {
		t.Fatalf("failed to read script: %v", err)
	}
	if !strings.HasPrefix(string(text), "name = \"Hunter's Armor\"\n-- Customizable Cards: Hunter's Armor") {
		t.Errorf("Template not applied:\n%s", text)
	}
	_, parsed, err := script.Parse(string(text))
	if err != nil {
		t.Fatalf("Written script does not parse: %v", err)
	}
	if len(parsed.Rows) != gridRow {
		t.Errorf("Expected %d rows in script, got %d", gridRow, len(parsed.Rows))
	}

	debug, err := imaging.NewImageCache().Load(outputs.DebugPath)
	if err != nil {
		t.Fatalf("failed to load debug image: %v", err)
	}
	if debug.Bounds().Dx() != cardW || debug.Bounds().Dy() != cardH {
		t.Errorf("Debug image has size %v", debug.Bounds())
	}
}

func TestWriteOutputs_NoRows(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "blank.png", createCard(300, 420))

	r := NewRunner(config.Default())
	res, err := r.Detect(path)
	if !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("Expected ErrNoCandidates, got %v", err)
	}

	outputs, err := r.WriteOutputs(res, OutputOptions{Script: true, Debug: true})
	if err != nil {
		t.Fatalf("WriteOutputs failed: %v", err)
	}
	if outputs.ScriptPath != "" {
		t.Errorf("Expected no script without rows, got %q", outputs.ScriptPath)
	}
	if outputs.DebugPath == "" {
		t.Error("Expected a debug image even without rows")
	}
}
