// Package canvas provides the page canvas with pan, zoom, and annotation tools.
package canvas

import (
	"image"
	"image/color"

	"doc-annotator/internal/overlay"
	"doc-annotator/internal/raster"
	"doc-annotator/pkg/geometry"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

const (
	minZoom  = 0.1
	maxZoom  = 10.0
	zoomStep = 1.25
)

// Tool represents the current interaction tool.
type Tool int

const (
	ToolPan Tool = iota
	ToolBlur
	ToolErase
	ToolText
	ToolSelect
)

var (
	selectionColor    = color.RGBA{R: 255, G: 213, B: 0, A: 255}
	editingFrameColor = color.RGBA{R: 21, G: 101, B: 192, A: 255}
	brushRingColor    = color.RGBA{R: 64, G: 64, B: 64, A: 255}
)

// PageCanvas displays the current page raster and routes pointer gestures to
// the annotation tools. It draws the page, a text label preview layer, label
// frames, and the brush cursor; the actual mutation of page pixels and label
// state happens in the callbacks.
type PageCanvas struct {
	widget.BaseWidget

	// Displayed page and its label previews
	page       *raster.Raster
	labels     []overlay.TextBox
	labelLayer *raster.Raster
	outlines   []labelOutline
	selectedID string

	// Display state
	raster *fynecanvas.Raster
	zoom   float64

	// Interaction state
	tool      Tool
	brushSize int
	stroking  bool
	hoverX    float64
	hoverY    float64
	hovering  bool

	// Container
	scroll  *zoomScroll
	content *draggableContent
	imgSize fyne.Size

	// Fit to window
	fitToWindow    bool
	lastScrollSize fyne.Size

	// Callbacks
	onZoomChange   func(zoom float64)
	onStroke       func(x, y float64)
	onStrokeEnd    func()
	onPlaceText    func(x, y float64)
	onSelectAt     func(x, y float64)
	onDragLabel    func(x, y float64)
	onDragLabelEnd func()
	onEditLabel    func(x, y float64)
}

// zoomScroll is a widget that wraps a scroll container but intercepts wheel for zoom.
type zoomScroll struct {
	widget.BaseWidget
	scroll *container.Scroll
	canvas *PageCanvas
}

func newZoomScroll(content fyne.CanvasObject, canvas *PageCanvas) *zoomScroll {
	scroll := container.NewScroll(content)
	scroll.Direction = container.ScrollBoth
	zs := &zoomScroll{scroll: scroll, canvas: canvas}
	zs.ExtendBaseWidget(zs)
	return zs
}

func (zs *zoomScroll) Scrolled(ev *fyne.ScrollEvent) {
	// Use wheel for zoom, not scroll
	if ev.Scrolled.DY > 0 {
		zs.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		zs.canvas.ZoomOut()
	}
}

func (zs *zoomScroll) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(zs.scroll)
}

// Offset returns the scroll container's current offset.
func (zs *zoomScroll) Offset() fyne.Position {
	return zs.scroll.Offset
}

// ScrollTo pans the scroll container to the given offset.
func (zs *zoomScroll) ScrollTo(pos fyne.Position) {
	zs.scroll.Offset = pos
	zs.scroll.Refresh()
}

// Size returns the scroll container's size.
func (zs *zoomScroll) Size() fyne.Size {
	return zs.scroll.Size()
}

// Refresh refreshes the scroll container.
func (zs *zoomScroll) Refresh() {
	zs.scroll.Refresh()
	zs.BaseWidget.Refresh()
}

// Resize sets the size of the scroll container.
func (zs *zoomScroll) Resize(size fyne.Size) {
	zs.scroll.Resize(size)
	zs.BaseWidget.Resize(size)
}

// draggableContent wraps the raster to handle mouse events.
type draggableContent struct {
	widget.BaseWidget
	canvas *PageCanvas
	raster *fynecanvas.Raster
}

func newDraggableContent(pc *PageCanvas, raster *fynecanvas.Raster) *draggableContent {
	dc := &draggableContent{
		canvas: pc,
		raster: raster,
	}
	dc.ExtendBaseWidget(dc)
	return dc
}

func (dc *draggableContent) CreateRenderer() fyne.WidgetRenderer {
	return &draggableContentRenderer{content: dc}
}

func (dc *draggableContent) MinSize() fyne.Size {
	return dc.raster.MinSize()
}

func (dc *draggableContent) Dragged(ev *fyne.DragEvent) {
	c := dc.canvas
	switch c.tool {
	case ToolPan:
		off := c.scroll.Offset()
		c.scroll.ScrollTo(fyne.NewPos(off.X-ev.Dragged.DX, off.Y-ev.Dragged.DY))

	case ToolBlur, ToolErase:
		if c.onStroke == nil {
			return
		}
		c.stroking = true
		x, y := c.eventImagePos(ev.Position)
		c.onStroke(x, y)

	case ToolSelect:
		if c.onDragLabel == nil {
			return
		}
		x, y := c.eventImagePos(ev.Position)
		c.onDragLabel(x, y)
	}
}

func (dc *draggableContent) DragEnd() {
	c := dc.canvas
	switch c.tool {
	case ToolBlur, ToolErase:
		if c.stroking {
			c.stroking = false
			if c.onStrokeEnd != nil {
				c.onStrokeEnd()
			}
		}
	case ToolSelect:
		if c.onDragLabelEnd != nil {
			c.onDragLabelEnd()
		}
	}
}

func (dc *draggableContent) Scrolled(ev *fyne.ScrollEvent) {
	// Use mouse wheel for zooming
	if ev.Scrolled.DY > 0 {
		dc.canvas.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		dc.canvas.ZoomOut()
	}
}

// Tapped handles left-click events.
func (dc *draggableContent) Tapped(ev *fyne.PointEvent) {
	c := dc.canvas

	// Workaround for Fyne bug: reject clicks outside widget bounds
	size := dc.Size()
	if ev.Position.X < 0 || ev.Position.Y < 0 ||
		ev.Position.X > size.Width || ev.Position.Y > size.Height {
		return
	}

	x, y := c.eventImagePos(ev.Position)
	switch c.tool {
	case ToolText:
		if c.onPlaceText != nil {
			c.onPlaceText(x, y)
		}
	case ToolSelect:
		if c.onSelectAt != nil {
			c.onSelectAt(x, y)
		}
	}
}

// DoubleTapped opens the label under the pointer for editing.
func (dc *draggableContent) DoubleTapped(ev *fyne.PointEvent) {
	c := dc.canvas
	if c.tool != ToolSelect || c.onEditLabel == nil {
		return
	}
	x, y := c.eventImagePos(ev.Position)
	c.onEditLabel(x, y)
}

func (dc *draggableContent) MouseIn(ev *desktop.MouseEvent) {
	dc.canvas.hovering = true
	dc.updateHover(ev)
}

func (dc *draggableContent) MouseMoved(ev *desktop.MouseEvent) {
	dc.updateHover(ev)
}

func (dc *draggableContent) MouseOut() {
	dc.canvas.hovering = false
	dc.canvas.Refresh()
}

func (dc *draggableContent) updateHover(ev *desktop.MouseEvent) {
	c := dc.canvas
	if c.tool != ToolBlur && c.tool != ToolErase {
		return
	}
	off := c.scroll.Offset()
	c.hoverX = float64(ev.Position.X + off.X)
	c.hoverY = float64(ev.Position.Y + off.Y)
	c.Refresh()
}

type draggableContentRenderer struct {
	content *draggableContent
}

func (r *draggableContentRenderer) Layout(size fyne.Size) {
	r.content.raster.Resize(size)
}

func (r *draggableContentRenderer) MinSize() fyne.Size {
	return r.content.raster.MinSize()
}

func (r *draggableContentRenderer) Refresh() {
	r.content.raster.Refresh()
}

func (r *draggableContentRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.content.raster}
}

func (r *draggableContentRenderer) Destroy() {}

// NewPageCanvas creates a new page canvas.
func NewPageCanvas() *PageCanvas {
	pc := &PageCanvas{
		zoom:      1.0,
		tool:      ToolPan,
		brushSize: 30,
		imgSize:   fyne.NewSize(400, 300),
	}

	// Create the raster for drawing
	pc.raster = fynecanvas.NewRaster(pc.draw)
	pc.raster.ScaleMode = fynecanvas.ImageScalePixels
	pc.raster.SetMinSize(pc.imgSize)

	// Wrap raster in draggable content for mouse events
	pc.content = newDraggableContent(pc, pc.raster)

	// Create zoomable scroll container (wheel = zoom, drag = pan)
	pc.scroll = newZoomScroll(pc.content, pc)

	pc.ExtendBaseWidget(pc)
	return pc
}

// Container returns the canvas container for embedding in layouts.
func (pc *PageCanvas) Container() fyne.CanvasObject {
	return pc.scroll
}

// SetPage sets the page raster to display. The canvas keeps the reference
// and repaints from it, so live strokes that mutate the raster in place show
// up on the next Refresh.
func (pc *PageCanvas) SetPage(page *raster.Raster) {
	pc.page = page
	pc.rebuildLabelLayer()
	pc.updateContentSize()
}

// SetLabels replaces the label previews for the displayed page. The selected
// box gets a solid frame; boxes being edited get a dashed one.
func (pc *PageCanvas) SetLabels(boxes []overlay.TextBox, selectedID string) {
	pc.labels = boxes
	pc.selectedID = selectedID
	pc.rebuildLabelLayer()
	pc.Refresh()
}

// rebuildLabelLayer re-renders label text onto a transparent layer the size
// of the page, composited over the page raster when drawing.
func (pc *PageCanvas) rebuildLabelLayer() {
	pc.outlines = computeOutlines(pc.labels, pc.selectedID)

	if pc.page == nil || len(pc.labels) == 0 {
		pc.labelLayer = nil
		return
	}
	layer := raster.New(pc.page.Width(), pc.page.Height())
	if err := overlay.RenderPage(layer, pc.labels); err != nil {
		pc.labelLayer = nil
		return
	}
	pc.labelLayer = layer
}

// LabelAt returns the id of the topmost label whose frame contains the
// image-space point, or "".
func (pc *PageCanvas) LabelAt(x, y float64) string {
	p := geometry.PointInt{X: int(x), Y: int(y)}
	for i := len(pc.outlines) - 1; i >= 0; i-- {
		if pc.outlines[i].rect.Contains(p) {
			return pc.labels[i].ID
		}
	}
	return ""
}

// SetTool sets the current interaction tool.
func (pc *PageCanvas) SetTool(tool Tool) {
	pc.tool = tool
	pc.Refresh()
}

// SetBrushSize sets the stroke diameter used for the cursor ring.
func (pc *PageCanvas) SetBrushSize(size int) {
	pc.brushSize = size
}

// SetZoom sets the zoom level.
func (pc *PageCanvas) SetZoom(zoom float64) {
	if zoom < minZoom {
		zoom = minZoom
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	pc.zoom = zoom
	pc.updateContentSize()

	if pc.onZoomChange != nil {
		pc.onZoomChange(zoom)
	}
}

// GetZoom returns the current zoom level.
func (pc *PageCanvas) GetZoom() float64 {
	return pc.zoom
}

// ZoomIn increases the zoom level.
func (pc *PageCanvas) ZoomIn() {
	pc.SetZoom(pc.zoom * zoomStep)
}

// ZoomOut decreases the zoom level.
func (pc *PageCanvas) ZoomOut() {
	pc.SetZoom(pc.zoom / zoomStep)
}

// FitToWindow adjusts zoom to fit the page in the visible area.
func (pc *PageCanvas) FitToWindow() {
	pw, ph := pc.pageSize()
	if pw == 0 || ph == 0 {
		return
	}

	viewSize := pc.scroll.Size()
	if viewSize.Width <= 0 || viewSize.Height <= 0 {
		return
	}

	zoomX := float64(viewSize.Width) / float64(pw)
	zoomY := float64(viewSize.Height) / float64(ph)

	zoom := zoomX
	if zoomY < zoomX {
		zoom = zoomY
	}

	pc.SetZoom(zoom * 0.95) // Leave a small margin
}

// SetFitToWindow enables or disables auto-fit on resize.
func (pc *PageCanvas) SetFitToWindow(fit bool) {
	pc.fitToWindow = fit
	if fit {
		pc.FitToWindow()
	}
}

// GetFitToWindow returns the current fit-to-window state.
func (pc *PageCanvas) GetFitToWindow() bool {
	return pc.fitToWindow
}

// CheckResize checks if scroll container was resized and auto-fits if enabled.
func (pc *PageCanvas) CheckResize(size fyne.Size) {
	if !pc.fitToWindow {
		return
	}
	if size.Width > 0 && size.Height > 0 && size != pc.lastScrollSize {
		pc.lastScrollSize = size
		pc.FitToWindow()
	}
}

// OnZoomChange sets a callback for zoom changes.
func (pc *PageCanvas) OnZoomChange(callback func(zoom float64)) {
	pc.onZoomChange = callback
}

// OnStroke sets a callback for blur/erase drag samples.
// Coordinates are in image space (not zoomed).
func (pc *PageCanvas) OnStroke(callback func(x, y float64)) {
	pc.onStroke = callback
}

// OnStrokeEnd sets a callback for the end of a blur/erase gesture.
func (pc *PageCanvas) OnStrokeEnd(callback func()) {
	pc.onStrokeEnd = callback
}

// OnPlaceText sets a callback for text tool clicks.
// Coordinates are in image space (not zoomed).
func (pc *PageCanvas) OnPlaceText(callback func(x, y float64)) {
	pc.onPlaceText = callback
}

// OnSelectAt sets a callback for select tool clicks.
// Coordinates are in image space (not zoomed).
func (pc *PageCanvas) OnSelectAt(callback func(x, y float64)) {
	pc.onSelectAt = callback
}

// OnDragLabel sets a callback for select tool drag samples.
// Coordinates are in image space (not zoomed).
func (pc *PageCanvas) OnDragLabel(callback func(x, y float64)) {
	pc.onDragLabel = callback
}

// OnDragLabelEnd sets a callback for the end of a label drag.
func (pc *PageCanvas) OnDragLabelEnd(callback func()) {
	pc.onDragLabelEnd = callback
}

// OnEditLabel sets a callback for double-clicks with the select tool.
// Coordinates are in image space (not zoomed).
func (pc *PageCanvas) OnEditLabel(callback func(x, y float64)) {
	pc.onEditLabel = callback
}

// Refresh refreshes the canvas display.
func (pc *PageCanvas) Refresh() {
	pc.raster.Refresh()
}

// eventImagePos converts a viewport event position to image coordinates.
func (pc *PageCanvas) eventImagePos(pos fyne.Position) (float64, float64) {
	off := pc.scroll.Offset()
	return pc.CanvasToImage(float64(pos.X+off.X), float64(pos.Y+off.Y))
}

// ImageToCanvas converts image coordinates to canvas coordinates.
func (pc *PageCanvas) ImageToCanvas(imgX, imgY float64) (canvasX, canvasY float64) {
	canvasX = imgX * pc.zoom
	canvasY = imgY * pc.zoom
	return
}

// CanvasToImage converts canvas coordinates to image coordinates.
func (pc *PageCanvas) CanvasToImage(canvasX, canvasY float64) (imgX, imgY float64) {
	imgX = canvasX / pc.zoom
	imgY = canvasY / pc.zoom
	return
}

func (pc *PageCanvas) pageSize() (int, int) {
	if pc.page == nil {
		return 0, 0
	}
	return pc.page.Width(), pc.page.Height()
}

// updateContentSize updates the content size based on the page and zoom.
func (pc *PageCanvas) updateContentSize() {
	pw, ph := pc.pageSize()
	if pw == 0 || ph == 0 {
		pc.imgSize = fyne.NewSize(400, 300)
	} else {
		width := float32(float64(pw) * pc.zoom)
		height := float32(float64(ph) * pc.zoom)
		pc.imgSize = fyne.NewSize(width, height)
	}

	pc.raster.SetMinSize(pc.imgSize)
	pc.raster.Resize(pc.imgSize)
	if pc.content != nil {
		pc.content.Resize(pc.imgSize)
		pc.content.Refresh()
	}
	pc.raster.Refresh()
	if pc.scroll != nil {
		pc.scroll.Refresh()
	}
}

// draw is the raster drawing function.
func (pc *PageCanvas) draw(w, h int) image.Image {
	// Check for size change and auto-fit if enabled
	currentSize := fyne.NewSize(float32(w), float32(h))
	if pc.fitToWindow && currentSize != pc.lastScrollSize && w > 0 && h > 0 {
		pc.lastScrollSize = currentSize
		// Schedule fit after this draw completes
		go func() {
			pc.FitToWindow()
		}()
	}

	output := image.NewRGBA(image.Rect(0, 0, w, h))

	// Neutral dark background around the page
	for i := 0; i < len(output.Pix); i += 4 {
		output.Pix[i] = 0x2b
		output.Pix[i+1] = 0x2b
		output.Pix[i+2] = 0x2b
		output.Pix[i+3] = 0xff
	}

	if pc.page == nil {
		return output
	}

	img := pc.page.Image()
	var labels *image.RGBA
	if pc.labelLayer != nil {
		labels = pc.labelLayer.Image()
	}
	pw, ph := pc.pageSize()

	// Scale the page (and the label layer over it) by the zoom
	for y := 0; y < h; y++ {
		srcY := int(float64(y) / pc.zoom)
		if srcY >= ph {
			break
		}
		for x := 0; x < w; x++ {
			srcX := int(float64(x) / pc.zoom)
			if srcX >= pw {
				break
			}
			output.SetRGBA(x, y, img.RGBAAt(srcX, srcY))
			if labels != nil {
				blendPixel(output, x, y, labels.RGBAAt(srcX, srcY))
			}
		}
	}

	// Label frames
	for _, outline := range pc.outlines {
		r := outline.rect
		x1 := int(float64(r.X) * pc.zoom)
		y1 := int(float64(r.Y) * pc.zoom)
		x2 := int(float64(r.X+r.Width) * pc.zoom)
		y2 := int(float64(r.Y+r.Height) * pc.zoom)
		switch {
		case outline.dashed:
			drawDashedRect(output, x1, y1, x2, y2, editingFrameColor)
		case outline.selected:
			drawRectOutline(output, x1, y1, x2, y2, selectionColor, 2)
		}
	}

	// Brush cursor ring
	if pc.hovering && (pc.tool == ToolBlur || pc.tool == ToolErase) {
		radius := float64(pc.brushSize) / 2 * pc.zoom
		drawCircleOutline(output, pc.hoverX, pc.hoverY, radius, brushRingColor)
	}

	return output
}

// CreateRenderer implements fyne.Widget.
func (pc *PageCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &pageCanvasRenderer{canvas: pc}
}

type pageCanvasRenderer struct {
	canvas *PageCanvas
}

func (r *pageCanvasRenderer) Layout(size fyne.Size) {
	if r.canvas.scroll != nil {
		r.canvas.scroll.Resize(size)
	} else if r.canvas.content != nil {
		r.canvas.content.Resize(size)
	}
	// Check for resize and auto-fit if enabled
	r.canvas.CheckResize(size)
}

func (r *pageCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *pageCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *pageCanvasRenderer) Objects() []fyne.CanvasObject {
	if r.canvas.scroll != nil {
		return []fyne.CanvasObject{r.canvas.scroll}
	}
	return []fyne.CanvasObject{r.canvas.content}
}

func (r *pageCanvasRenderer) Destroy() {}
