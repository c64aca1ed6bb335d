// Package export walks every page of the open document and assembles the
// edited rasters into a new output document.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"doc-annotator/internal/overlay"
	"doc-annotator/internal/page"
	"doc-annotator/internal/pdf"
	"doc-annotator/internal/raster"
)

// Result describes what an export run produced.
type Result struct {
	// OutputPath is the written artifact: the assembled document, or the
	// fallback image when Degraded is set.
	OutputPath string
	// Pages is the number of pages in the written artifact.
	Pages int
	// Degraded is set when assembly failed and only the currently
	// displayed page was written as a still image.
	Degraded bool
	// AssembleErr is the assembly failure that forced the fallback.
	AssembleErr error
}

// Pipeline exports all pages of the controller's document.
type Pipeline struct {
	Controller *page.Controller
	Boxes      *overlay.Store

	// Assemble builds the output document from the per-page rasters.
	// Defaults to pdf.Assemble.
	Assemble func([]*raster.Raster) ([]byte, error)

	// Progress, when set, is called before each page is rendered.
	Progress func(pageIndex, total int)
}

// NewPipeline creates an export pipeline over the given controller and
// text box store.
func NewPipeline(ctrl *page.Controller, boxes *overlay.Store) *Pipeline {
	return &Pipeline{
		Controller: ctrl,
		Boxes:      boxes,
		Assemble:   pdf.Assemble,
	}
}

// Run exports every page to outPath. Each page is freshly rasterized and
// replayed regardless of navigation history, then its text labels are
// rendered on top, in page order. If assembling the collected pages fails,
// Run falls back to writing the currently displayed page as a PNG next to
// outPath and reports the degradation in the result rather than failing.
func (p *Pipeline) Run(ctx context.Context, outPath string) (*Result, error) {
	total := p.Controller.TotalPages()
	if total == 0 {
		return nil, errors.New("no document loaded")
	}

	rasters := make([]*raster.Raster, 0, total)
	for i := 0; i < total; i++ {
		if p.Progress != nil {
			p.Progress(i, total)
		}
		if err := p.Controller.LoadPage(ctx, i); err != nil {
			return nil, fmt.Errorf("failed to load page %d: %w", i, err)
		}
		snap := p.Controller.Snapshot()
		if err := overlay.RenderPage(snap, p.Boxes.BoxesFor(i)); err != nil {
			return nil, fmt.Errorf("failed to render labels on page %d: %w", i, err)
		}
		rasters = append(rasters, snap)
	}

	data, err := p.Assemble(rasters)
	if err != nil {
		fallback := fallbackPath(outPath)
		displayed := rasters[len(rasters)-1]
		if saveErr := imaging.Save(displayed.Image(), fallback); saveErr != nil {
			return nil, fmt.Errorf("assembly failed (%v), fallback image failed: %w", err, saveErr)
		}
		return &Result{
			OutputPath:  fallback,
			Pages:       1,
			Degraded:    true,
			AssembleErr: err,
		}, nil
	}

	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write output: %w", err)
	}
	return &Result{OutputPath: outPath, Pages: total}, nil
}

// fallbackPath swaps the output extension for .png.
func fallbackPath(outPath string) string {
	return strings.TrimSuffix(outPath, filepath.Ext(outPath)) + ".png"
}
