package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"

	"doc-annotator/internal/raster"
)

const jpegQuality = 90

// Assemble builds a complete PDF document where page i shows rasters[i] as a
// full-page image. Each page's media box matches the raster size with one
// pixel per point, so the output pages keep the rendered proportions of the
// source document.
func Assemble(rasters []*raster.Raster) ([]byte, error) {
	if len(rasters) == 0 {
		return nil, &AssembleError{Err: errors.New("no pages to assemble")}
	}

	w := &docWriter{}
	w.writef("%%PDF-1.4\n%%\x80\x80\x80\x80\n")

	w.beginObj(1)
	w.writef("<<\n/Type /Catalog\n/Pages 2 0 R\n>>\n")
	w.endObj()

	// Object numbering is fixed: every page takes three consecutive
	// objects (page dict, content stream, image) starting at 3.
	w.beginObj(2)
	w.writef("<<\n/Type /Pages\n/Kids [")
	for i := range rasters {
		if i > 0 {
			w.writef(" ")
		}
		w.writef("%d 0 R", 3+i*3)
	}
	w.writef("]\n/Count %d\n>>\n", len(rasters))
	w.endObj()

	for i, page := range rasters {
		if page == nil || page.Width() < 1 || page.Height() < 1 {
			return nil, &AssembleError{Err: fmt.Errorf("page %d has no pixels", i)}
		}
		if err := w.writePage(3+i*3, page); err != nil {
			return nil, &AssembleError{Err: fmt.Errorf("page %d: %w", i, err)}
		}
	}

	xrefPos := w.buf.Len()
	w.writef("xref\n0 %d\n0000000000 65535 f\r\n", len(w.offsets))
	for i := 1; i < len(w.offsets); i++ {
		w.writef("%010d 00000 n\r\n", w.offsets[i])
	}
	w.writef("trailer\n<<\n/Size %d\n/Root 1 0 R\n>>\nstartxref\n%d\n%%%%EOF\n",
		len(w.offsets), xrefPos)

	return w.buf.Bytes(), nil
}

// docWriter accumulates the output document and records the byte offset of
// every indirect object for the cross-reference table.
type docWriter struct {
	buf     bytes.Buffer
	offsets []int
}

func (w *docWriter) writef(format string, args ...interface{}) {
	fmt.Fprintf(&w.buf, format, args...)
}

func (w *docWriter) beginObj(num int) {
	for len(w.offsets) <= num {
		w.offsets = append(w.offsets, 0)
	}
	w.offsets[num] = w.buf.Len()
	w.writef("%d 0 obj\n", num)
}

func (w *docWriter) endObj() {
	w.writef("endobj\n")
}

// writePage emits the three objects for one page: the page dict, a content
// stream that paints the image across the whole media box, and the JPEG
// image XObject itself.
func (w *docWriter) writePage(num int, page *raster.Raster) error {
	width, height := page.Width(), page.Height()

	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, page.Image(), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("encode page image: %w", err)
	}

	w.beginObj(num)
	w.writef("<<\n/Type /Page\n/Parent 2 0 R\n/MediaBox [0 0 %d %d]\n"+
		"/Resources <<\n/XObject << /Im0 %d 0 R >>\n>>\n/Contents %d 0 R\n>>\n",
		width, height, num+2, num+1)
	w.endObj()

	content := fmt.Sprintf("q\n%d 0 0 %d 0 0 cm\n/Im0 Do\nQ\n", width, height)
	w.beginObj(num + 1)
	w.writef("<<\n/Length %d\n>>\nstream\n%sendstream\n", len(content), content)
	w.endObj()

	w.beginObj(num + 2)
	w.writef("<<\n/Type /XObject\n/Subtype /Image\n/Width %d\n/Height %d\n"+
		"/ColorSpace /DeviceRGB\n/BitsPerComponent 8\n/Filter /DCTDecode\n/Length %d\n>>\nstream\n",
		width, height, jpg.Len())
	w.buf.Write(jpg.Bytes())
	w.writef("\nendstream\n")
	w.endObj()

	return nil
}
