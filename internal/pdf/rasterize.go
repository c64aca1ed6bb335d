// Package pdf renders document pages to rasters and assembles edited rasters
// back into a new document.
//
// Rendering shells out to the poppler utilities (pdftoppm, pdfinfo), which
// handle every PDF the platform viewer can open. Assembly is done in-process:
// the output is a fresh document with one full-page image per page, not an
// edit of the original file's structure.
package pdf

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"doc-annotator/internal/raster"
)

// BaseDPI is the rendering resolution at scale 1.0. One PDF point maps to
// one pixel.
const BaseDPI = 72

// Rasterizer renders single pages of a PDF file to rasters.
type Rasterizer struct {
	// PdftoppmPath and PdfinfoPath override the tool names looked up on
	// PATH. Mostly useful for tests.
	PdftoppmPath string
	PdfinfoPath  string
}

// NewRasterizer creates a rasterizer that finds the poppler tools on PATH.
func NewRasterizer() *Rasterizer {
	return &Rasterizer{PdftoppmPath: "pdftoppm", PdfinfoPath: "pdfinfo"}
}

// PageCount returns the number of pages in the document.
func (r *Rasterizer) PageCount(ctx context.Context, docPath string) (int, error) {
	cmd := exec.CommandContext(ctx, r.PdfinfoPath, docPath)
	output, err := cmd.Output()
	if err != nil {
		return 0, &RasterizeError{Page: -1, Err: fmt.Errorf("pdfinfo failed: %w", err)}
	}

	count, err := parsePageCount(output)
	if err != nil {
		return 0, &RasterizeError{Page: -1, Err: err}
	}
	return count, nil
}

// parsePageCount scans pdfinfo output for the "Pages:" line.
func parsePageCount(output []byte) (int, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "Pages:") {
			parts := strings.Fields(line)
			if len(parts) >= 2 {
				if total, convErr := strconv.Atoi(parts[1]); convErr == nil {
					return total, nil
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, errors.New("no page count in pdfinfo output")
}

// PageSize is the media box of one page in PDF points.
type PageSize struct {
	WidthPts  float64
	HeightPts float64
}

// PageSizes returns the size of every page in the document, in points.
func (r *Rasterizer) PageSizes(ctx context.Context, docPath string) ([]PageSize, error) {
	count, err := r.PageCount(ctx, docPath)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, r.PdfinfoPath,
		"-f", "1", "-l", strconv.Itoa(count), docPath)
	output, err := cmd.Output()
	if err != nil {
		return nil, &RasterizeError{Page: -1, Err: fmt.Errorf("pdfinfo failed: %w", err)}
	}

	sizes, err := parsePageSizes(output, count)
	if err != nil {
		return nil, &RasterizeError{Page: -1, Err: err}
	}
	return sizes, nil
}

// parsePageSizes scans pdfinfo -f/-l output for "Page N size: W x H pts"
// lines.
func parsePageSizes(output []byte, count int) ([]PageSize, error) {
	sizes := make([]PageSize, count)
	seen := 0
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 6 || fields[0] != "Page" || fields[2] != "size:" || fields[4] != "x" {
			continue
		}
		page, err := strconv.Atoi(fields[1])
		if err != nil || page < 1 || page > count {
			continue
		}
		w, werr := strconv.ParseFloat(fields[3], 64)
		h, herr := strconv.ParseFloat(fields[5], 64)
		if werr != nil || herr != nil {
			continue
		}
		sizes[page-1] = PageSize{WidthPts: w, HeightPts: h}
		seen++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if seen < count {
		return nil, fmt.Errorf("page sizes missing: got %d of %d", seen, count)
	}
	return sizes, nil
}

// Rasterize renders one page of the document at the given scale. Page
// indices are zero-based. A scale of 1.0 renders at 72 DPI, so one PDF
// point becomes one pixel.
func (r *Rasterizer) Rasterize(ctx context.Context, docPath string, pageIndex int, scale float64) (*raster.Raster, error) {
	if pageIndex < 0 {
		return nil, &RasterizeError{Page: pageIndex, Err: errors.New("negative page index")}
	}
	if scale <= 0 {
		scale = 1
	}
	dpi := int(BaseDPI * scale)
	if dpi < 1 {
		dpi = 1
	}

	workDir, err := os.MkdirTemp("", "annotator-pages-")
	if err != nil {
		return nil, &RasterizeError{Page: pageIndex, Err: err}
	}
	defer os.RemoveAll(workDir)

	// pdftoppm numbers pages from 1.
	page := pageIndex + 1
	prefix := filepath.Join(workDir, "page")
	args := []string{
		"-jpeg",
		"-r", strconv.Itoa(dpi),
		"-f", strconv.Itoa(page),
		"-l", strconv.Itoa(page),
		docPath,
		prefix,
	}
	cmd := exec.CommandContext(ctx, r.PdftoppmPath, args...)
	if err := cmd.Run(); err != nil {
		return nil, &RasterizeError{Page: pageIndex, Err: fmt.Errorf("pdftoppm failed: %w", err)}
	}

	imagePath, err := findRenderedImage(prefix, page)
	if err != nil {
		return nil, &RasterizeError{Page: pageIndex, Err: err}
	}

	rendered, err := raster.FromFile(imagePath)
	if err != nil {
		return nil, &RasterizeError{Page: pageIndex, Err: err}
	}
	return rendered, nil
}

// findRenderedImage locates the page image written by pdftoppm. The tool
// zero-pads page numbers to the width of the document's last page, so the
// exact filename depends on the page count.
func findRenderedImage(prefix string, page int) (string, error) {
	candidates := []string{
		fmt.Sprintf("%s-%d.jpg", prefix, page),
		fmt.Sprintf("%s-%02d.jpg", prefix, page),
		fmt.Sprintf("%s-%03d.jpg", prefix, page),
		fmt.Sprintf("%s-%04d.jpg", prefix, page),
		fmt.Sprintf("%s-%05d.jpg", prefix, page),
		fmt.Sprintf("%s-%06d.jpg", prefix, page),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("rendered image not found for page %d", page)
}
