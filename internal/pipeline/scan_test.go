package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Chr1Z93/SCED-tools/internal/config"
	"github.com/Chr1Z93/SCED-tools/internal/imaging"
)

func TestFindImages(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	small := createCard(8, 8)
	writePNG(t, dir, "b.png", small)
	writePNG(t, dir, "a.png", small)
	writePNG(t, sub, "c.png", small)
	writePNG(t, dir, "a_debug.png", small)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	paths, err := FindImages(dir)
	if err != nil {
		t.Fatalf("FindImages failed: %v", err)
	}

	want := []string{
		filepath.Join(dir, "a.png"),
		filepath.Join(dir, "b.png"),
		filepath.Join(sub, "c.png"),
	}
	if len(paths) != len(want) {
		t.Fatalf("Expected %v, got %v", want, paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()

	writePNG(t, dir, "grid1.png", gridCard())
	writePNG(t, dir, "grid2.png", gridCard())
	writePNG(t, dir, "blank.png", createCard(300, 420))
	if err := os.WriteFile(filepath.Join(dir, "corrupt.png"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRunner(config.Default())
	report, err := r.Scan(context.Background(), dir, ScanOptions{
		Workers: 2,
		Output:  &OutputOptions{Dir: out, Script: true},
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(report.Files) != 4 {
		t.Fatalf("Expected 4 files, got %d", len(report.Files))
	}
	if report.Failed() != 2 {
		t.Errorf("Expected 2 failures, got %d", report.Failed())
	}

	byName := make(map[string]FileResult)
	for _, f := range report.Files {
		byName[filepath.Base(f.Path)] = f
	}

	if f := byName["blank.png"]; !errors.Is(f.Err, ErrNoCandidates) || f.Error == "" {
		t.Errorf("blank.png: expected ErrNoCandidates, got %v", f.Err)
	}
	if f := byName["corrupt.png"]; f.Err == nil || f.Result != nil {
		t.Errorf("corrupt.png: expected a load error, got %+v", f)
	}
	for _, name := range []string{"grid1.png", "grid2.png"} {
		f := byName[name]
		if f.Err != nil {
			t.Errorf("%s: unexpected error %v", name, f.Err)
			continue
		}
		if len(f.Result.Summary.Rows) != gridRow {
			t.Errorf("%s: expected %d rows, got %d", name, gridRow, len(f.Result.Summary.Rows))
		}
		if _, err := os.Stat(f.Outputs.ScriptPath); err != nil {
			t.Errorf("%s: script not written: %v", name, err)
		}
		if f.Result.Image != nil {
			t.Errorf("%s: decoded image still held by the report", name)
		}
	}

	// The corrupt file has no readable header.
	if report.Dimensions.Count != 3 {
		t.Errorf("Expected 3 measured images, got %d", report.Dimensions.Count)
	}
	if r.Cache.Len() != 0 {
		t.Errorf("Expected the cache to be drained, %d images left", r.Cache.Len())
	}
}

func TestScan_SameNameInFolders(t *testing.T) {
	dir := t.TempDir()
	out := t.TempDir()
	for _, sub := range []string{"a", "b"} {
		if err := os.Mkdir(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
		writePNG(t, filepath.Join(dir, sub), "card.png", gridCard())
	}

	report, err := NewRunner(config.Default()).Scan(context.Background(), dir, ScanOptions{
		Workers: 2,
		Output:  &OutputOptions{Dir: out, Script: true, Debug: true},
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	seen := make(map[string]string)
	for _, f := range report.Files {
		if f.Err != nil {
			t.Fatalf("%s: unexpected error %v", f.Path, f.Err)
		}
		for _, p := range []string{f.Outputs.ScriptPath, f.Outputs.DebugPath} {
			if p == "" {
				t.Errorf("%s: output not written", f.Path)
				continue
			}
			if other, ok := seen[p]; ok {
				t.Errorf("%s and %s both wrote %s", other, f.Path, p)
			}
			seen[p] = f.Path
			if _, err := os.Stat(p); err != nil {
				t.Errorf("%s: %v", f.Path, err)
			}
		}
	}

	want := filepath.Join(out, "b", "card_script.ttslua")
	if _, ok := seen[want]; !ok {
		t.Errorf("Expected %s among outputs %v", want, seen)
	}
}

func TestFileOutput(t *testing.T) {
	root := "cards"
	base := &OutputOptions{Dir: "out", Script: true}

	tests := []struct {
		name   string
		path   string
		output *OutputOptions
		want   string
	}{
		{"top level", filepath.Join(root, "a.png"), base, "out"},
		{"nested", filepath.Join(root, "x", "y", "a.png"), base, filepath.Join("out", "x", "y")},
		{"next to image", filepath.Join(root, "x", "a.png"), &OutputOptions{Script: true}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fileOutput(root, tt.path, tt.output)
			if got.Dir != tt.want {
				t.Errorf("Dir = %q, want %q", got.Dir, tt.want)
			}
			if !got.Script {
				t.Error("other options were not kept")
			}
		})
	}

	if base.Dir != "out" {
		t.Errorf("shared options were modified: %q", base.Dir)
	}
	if fileOutput(root, filepath.Join(root, "a.png"), nil) != nil {
		t.Error("nil options should stay nil")
	}
}

func TestScan_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", createCard(8, 8))
	writePNG(t, dir, "b.png", createCard(8, 8))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewRunner(config.Default()).Scan(ctx, dir, ScanOptions{Workers: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if report.Failed() != 2 {
		t.Errorf("Expected both files recorded as failed, got %d", report.Failed())
	}
}

func TestAnalyzeDimensions(t *testing.T) {
	dims := []imaging.Dimensions{
		{Path: "a", Width: 750, Height: 1050},
		{Path: "b", Width: 750, Height: 1050},
		{Path: "c", Width: 750, Height: 1050},
		{Path: "d", Width: 790, Height: 1110},
	}

	report := AnalyzeDimensions(dims, 25)

	// 760 and 1065 exactly.
	if report.AvgWidth != 760 || report.AvgHeight != 1065 {
		t.Errorf("Expected average 760x1065, got %dx%d", report.AvgWidth, report.AvgHeight)
	}
	if len(report.Outliers) != 1 {
		t.Fatalf("Expected 1 outlier, got %+v", report.Outliers)
	}
	o := report.Outliers[0]
	if o.Path != "d" || o.DevWidth != 30 || o.DevHeight != 45 {
		t.Errorf("Unexpected outlier %+v", o)
	}

	if loose := AnalyzeDimensions(dims, 50); len(loose.Outliers) != 0 {
		t.Errorf("Expected no outliers with margin 50, got %+v", loose.Outliers)
	}
}

func TestAnalyzeDimensions_RoundHalfEven(t *testing.T) {
	dims := []imaging.Dimensions{
		{Width: 100, Height: 101},
		{Width: 101, Height: 102},
	}
	report := AnalyzeDimensions(dims, 25)
	// 100.5 -> 100, 101.5 -> 102
	if report.AvgWidth != 100 || report.AvgHeight != 102 {
		t.Errorf("Expected 100x102, got %dx%d", report.AvgWidth, report.AvgHeight)
	}
}

func TestAnalyzeDimensions_Empty(t *testing.T) {
	report := AnalyzeDimensions(nil, 25)
	if report.Count != 0 || report.AvgWidth != 0 || len(report.Outliers) != 0 {
		t.Errorf("Unexpected report for no images: %+v", report)
	}
}
