package export

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"doc-annotator/internal/editlog"
	"doc-annotator/internal/overlay"
	"doc-annotator/internal/page"
	"doc-annotator/internal/raster"
	"doc-annotator/internal/stroke"
	"doc-annotator/pkg/colorutil"
)

// stubRasterizer produces synthetic pages so no external tools are needed.
type stubRasterizer struct {
	pages int
	size  int
}

func (s *stubRasterizer) PageCount(ctx context.Context, docPath string) (int, error) {
	return s.pages, nil
}

func (s *stubRasterizer) Rasterize(ctx context.Context, docPath string, pageIndex int, scale float64) (*raster.Raster, error) {
	c := color.RGBA{R: uint8(50 + 40*pageIndex), G: 100, B: 150, A: 255}
	return raster.NewFilled(s.size, s.size, c), nil
}

func newTestPipeline(t *testing.T, pages, size int) (*Pipeline, *editlog.Log, *overlay.Store) {
	t.Helper()
	log := editlog.New()
	boxes := overlay.NewStore()
	ctrl := page.NewController(&stubRasterizer{pages: pages, size: size}, log)
	if _, err := ctrl.OpenDocument(context.Background(), "doc.pdf"); err != nil {
		t.Fatal(err)
	}
	return NewPipeline(ctrl, boxes), log, boxes
}

func TestRunExportsAllPages(t *testing.T) {
	p, log, _ := newTestPipeline(t, 3, 40)
	log.Append(1, stroke.Action{Kind: stroke.KindErase, Strokes: []stroke.Stroke{
		{X: 20, Y: 20, Size: 10},
	}})

	outPath := filepath.Join(t.TempDir(), "annotated.pdf")
	res, err := p.Run(context.Background(), outPath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Degraded {
		t.Fatalf("export degraded unexpectedly: %v", res.AssembleErr)
	}
	if res.Pages != 3 || res.OutputPath != outPath {
		t.Errorf("result = %+v, want 3 pages at %q", res, outPath)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}
	if !bytes.Contains(data, []byte("/Count 3")) {
		t.Error("output does not have 3 pages")
	}
	if !bytes.Contains(data, []byte("/MediaBox [0 0 40 40]")) {
		t.Error("output pages do not keep the raster dimensions")
	}
}

func TestRunRendersLabels(t *testing.T) {
	plain, _, _ := newTestPipeline(t, 1, 80)
	labeled, _, boxes := newTestPipeline(t, 1, 80)
	boxes.Restore(overlay.TextBox{
		ID: "a", Page: 0, X: 10, Y: 10, Text: "DRAFT", FontSize: 24, Color: colorutil.Red,
	})

	dir := t.TempDir()
	plainRes, err := plain.Run(context.Background(), filepath.Join(dir, "plain.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	labeledRes, err := labeled.Run(context.Background(), filepath.Join(dir, "labeled.pdf"))
	if err != nil {
		t.Fatal(err)
	}

	plainData, _ := os.ReadFile(plainRes.OutputPath)
	labeledData, _ := os.ReadFile(labeledRes.OutputPath)
	if bytes.Equal(plainData, labeledData) {
		t.Error("a page with a label exported identically to one without")
	}
}

func TestRunDoesNotBakeLabelsIntoDisplay(t *testing.T) {
	p, _, boxes := newTestPipeline(t, 1, 60)
	boxes.Restore(overlay.TextBox{
		ID: "a", Page: 0, X: 5, Y: 5, Text: "NOTE", FontSize: 20, Color: colorutil.Black,
	})

	if _, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "out.pdf")); err != nil {
		t.Fatal(err)
	}

	// The displayed raster holds replayed strokes only; labels are drawn
	// on export snapshots and at the widget layer, never into the page.
	want, err := (&stubRasterizer{pages: 1, size: 60}).Rasterize(context.Background(), "doc.pdf", 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(p.Controller.Working().Image().Pix, want.Image().Pix) {
		t.Error("export baked label pixels into the displayed raster")
	}
}

func TestRunFallsBackWhenAssemblyFails(t *testing.T) {
	p, _, _ := newTestPipeline(t, 2, 32)
	assembleErr := errors.New("broken assembler")
	p.Assemble = func(rasters []*raster.Raster) ([]byte, error) {
		return nil, assembleErr
	}

	outPath := filepath.Join(t.TempDir(), "annotated.pdf")
	res, err := p.Run(context.Background(), outPath)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !res.Degraded {
		t.Fatal("assembly failure was not reported as degraded")
	}
	if !errors.Is(res.AssembleErr, assembleErr) {
		t.Errorf("AssembleErr = %v, want the assembler's error", res.AssembleErr)
	}
	if res.Pages != 1 {
		t.Errorf("degraded result has %d pages, want 1", res.Pages)
	}
	if filepath.Ext(res.OutputPath) != ".png" {
		t.Errorf("fallback path = %q, want a .png", res.OutputPath)
	}
	if _, err := os.Stat(outPath); !errors.Is(err, os.ErrNotExist) {
		t.Error("failed assembly still wrote the document output")
	}

	// The fallback is the currently displayed page, which after the export
	// walk is the last one.
	f, err := os.Open(res.OutputPath)
	if err != nil {
		t.Fatalf("fallback image missing: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("fallback is not a PNG: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 32 {
		t.Errorf("fallback image is %dx%d, want 32x32", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestRunWithoutDocument(t *testing.T) {
	ctrl := page.NewController(&stubRasterizer{pages: 0, size: 16}, editlog.New())
	p := NewPipeline(ctrl, overlay.NewStore())

	if _, err := p.Run(context.Background(), "out.pdf"); err == nil {
		t.Error("Run succeeded with no document loaded")
	}
}
