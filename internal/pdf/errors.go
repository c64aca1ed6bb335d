package pdf

import "fmt"

// RasterizeError reports a failure to render a document page to pixels.
// Page is the zero-based page index, or -1 when the document as a whole
// could not be read.
type RasterizeError struct {
	Page int
	Err  error
}

func (e *RasterizeError) Error() string {
	if e.Page < 0 {
		return fmt.Sprintf("rasterize document: %v", e.Err)
	}
	return fmt.Sprintf("rasterize page %d: %v", e.Page, e.Err)
}

func (e *RasterizeError) Unwrap() error { return e.Err }

// AssembleError reports a failure to build the output document.
type AssembleError struct {
	Err error
}

func (e *AssembleError) Error() string {
	return fmt.Sprintf("assemble document: %v", e.Err)
}

func (e *AssembleError) Unwrap() error { return e.Err }
