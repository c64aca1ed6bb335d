// Package page orchestrates loading, replaying, and displaying one document
// page at a time.
//
// The controller owns at most one raster pair: the pristine rasterization of
// the current page and the working copy derived from it by replaying the
// page's edit history. Navigating away discards both; only the edit log and
// text boxes persist across navigation, which bounds memory to a single
// page's pixels no matter how large the document is.
package page

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"doc-annotator/internal/editlog"
	"doc-annotator/internal/raster"
	"doc-annotator/internal/stroke"
)

// State is the controller's position in the page-visit lifecycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoading:
		return "Loading"
	case StateReady:
		return "Ready"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// DefaultScale is the rasterization scale used until the user changes it.
// At 2.0 a letter-size page renders around 1200x1600 pixels.
const DefaultScale = 2.0

// ErrSuperseded is returned by LoadPage when a newer load request arrived
// while this one was rasterizing; the newer request wins and this result
// was discarded.
var ErrSuperseded = errors.New("page load superseded")

// Rasterizer renders pages of the source document to pixels.
type Rasterizer interface {
	PageCount(ctx context.Context, docPath string) (int, error)
	Rasterize(ctx context.Context, docPath string, pageIndex int, scale float64) (*raster.Raster, error)
}

// Controller drives the load-replay-display cycle for the current page.
type Controller struct {
	mu         sync.Mutex
	rasterizer Rasterizer
	log        *editlog.Log

	docPath    string
	totalPages int
	scale      float64

	state       State
	currentPage int
	pristine    *raster.Raster
	working     *raster.Raster
	loadErr     error
	generation  uint64
}

// NewController creates a controller over the given rasterizer and edit log.
func NewController(rz Rasterizer, log *editlog.Log) *Controller {
	return &Controller{
		rasterizer:  rz,
		log:         log,
		scale:       DefaultScale,
		currentPage: -1,
	}
}

// OpenDocument points the controller at a new source document and returns
// its page count. Any in-flight page load is superseded and no page is
// displayed until LoadPage is called.
func (c *Controller) OpenDocument(ctx context.Context, path string) (int, error) {
	count, err := c.rasterizer.PageCount(ctx, path)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.docPath = path
	c.totalPages = count
	c.state = StateIdle
	c.currentPage = -1
	c.pristine = nil
	c.working = nil
	c.loadErr = nil
	return count, nil
}

// CloseDocument drops the current document and all page state.
func (c *Controller) CloseDocument() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.docPath = ""
	c.totalPages = 0
	c.state = StateIdle
	c.currentPage = -1
	c.pristine = nil
	c.working = nil
	c.loadErr = nil
}

// LoadPage rasterizes a page and replays its edit history, blocking until
// done. If another load is requested while this one is rasterizing, the
// newer request wins: this call's result is discarded and it returns
// ErrSuperseded. On rasterizer failure the previously displayed page, if
// any, is left fully intact.
func (c *Controller) LoadPage(ctx context.Context, pageIndex int) error {
	c.mu.Lock()
	if c.docPath == "" {
		c.mu.Unlock()
		return errors.New("no document loaded")
	}
	if pageIndex < 0 || pageIndex >= c.totalPages {
		c.mu.Unlock()
		return fmt.Errorf("page %d out of range (document has %d pages)", pageIndex, c.totalPages)
	}
	c.generation++
	gen := c.generation
	c.state = StateLoading
	docPath, scale := c.docPath, c.scale
	c.mu.Unlock()

	pristine, err := c.rasterizer.Rasterize(ctx, docPath, pageIndex, scale)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return ErrSuperseded
	}
	if err != nil {
		c.state = StateFailed
		c.loadErr = err
		return err
	}

	c.pristine = pristine
	c.working = editlog.Replay(pristine, c.log.ActionsFor(pageIndex))
	c.currentPage = pageIndex
	c.state = StateReady
	c.loadErr = nil
	return nil
}

// Reload re-runs the load cycle for the current page, re-rasterizing and
// replaying from scratch. Used after the page's history is cleared.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	current := c.currentPage
	c.mu.Unlock()

	if current < 0 {
		return errors.New("no page loaded")
	}
	return c.LoadPage(ctx, current)
}

// ApplyLive applies one stroke of an in-progress gesture directly to the
// displayed raster. The stroke is not recorded; the caller commits the whole
// gesture to the edit log on gesture end, after which the displayed pixels
// already match what a replay would produce.
func (c *Controller) ApplyLive(kind stroke.Kind, s stroke.Stroke) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateReady {
		return fmt.Errorf("no page displayed (state %s)", c.state)
	}
	switch kind {
	case stroke.KindBlur:
		stroke.ApplyBlur(c.working, c.pristine, s)
	case stroke.KindErase:
		stroke.ApplyErase(c.working, s)
	default:
		return fmt.Errorf("unknown stroke kind %q", kind)
	}
	return nil
}

// Working returns the displayed raster, or nil when no page is loaded. The
// canvas shares this buffer; it is only mutated from ApplyLive and replaced
// wholesale on page load.
func (c *Controller) Working() *raster.Raster {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.working
}

// Snapshot returns an independent copy of the displayed raster, or nil when
// no page is loaded.
func (c *Controller) Snapshot() *raster.Raster {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.working == nil {
		return nil
	}
	return c.working.Clone()
}

// State returns the controller's current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentPage returns the zero-based index of the displayed page, or -1.
func (c *Controller) CurrentPage() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentPage
}

// TotalPages returns the page count of the open document.
func (c *Controller) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalPages
}

// Document returns the path of the open document, or "".
func (c *Controller) Document() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.docPath
}

// LastError returns the most recent load failure, or nil.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

// Scale returns the rasterization scale.
func (c *Controller) Scale() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scale
}

// SetScale changes the rasterization scale for subsequent loads. The
// displayed page keeps its current scale until reloaded.
func (c *Controller) SetScale(scale float64) {
	if scale <= 0 {
		scale = DefaultScale
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scale = scale
}
