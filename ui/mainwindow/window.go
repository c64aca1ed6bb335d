// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"doc-annotator/internal/app"
	"doc-annotator/internal/export"
	"doc-annotator/internal/stroke"
	"doc-annotator/internal/version"
	"doc-annotator/ui/canvas"
	"doc-annotator/ui/dialogs"
	"doc-annotator/ui/panels"
	"doc-annotator/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const appTitle = "Document Annotator"

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	prefs     *prefs.Prefs
	canvas    *canvas.PageCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label
	pageLabel *widget.Label

	// Toolbar and menu items that need state tracking
	tool            canvas.Tool
	toolButtons     map[canvas.Tool]*widget.Button
	fitToWindowItem *fyne.MenuItem

	// In-progress blur/erase gesture
	pending stroke.Action

	// In-progress label drag
	dragID   string
	dragDX   float64
	dragDY   float64
	dragMiss bool
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, appPrefs *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		prefs:  appPrefs,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupEventHandlers()
	mw.setupCanvasHandlers()
	mw.restoreLastDocument()

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	// Create the page canvas
	mw.canvas = canvas.NewPageCanvas()

	// Create the side panel
	mw.sidePanel = panels.NewSidePanel(mw.state, mw.canvas, mw.prefs)

	// Create status bar
	mw.statusBar = widget.NewLabel("Ready")

	// Create toolbar with tools, page navigation, and zoom controls
	toolbar := mw.createToolbar()

	// Apply the preferred render scale before any document is opened
	if scale := mw.prefs.Float(prefs.KeyRenderScale); scale > 0 {
		mw.state.Controller.SetScale(scale)
	}

	// Canvas area with toolbar on top
	canvasArea := container.NewBorder(
		toolbar,               // top
		nil,                   // bottom
		nil,                   // left
		nil,                   // right
		mw.canvas.Container(), // center
	)

	// Create main layout: side panel | canvas area
	split := container.NewHSplit(
		mw.sidePanel.Container(),
		canvasArea,
	)
	split.SetOffset(0.25) // Side panel takes 25% of width

	// Main container with status bar at bottom
	content := container.NewBorder(
		nil,                               // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		split,                             // center
	)

	mw.SetContent(content)
	mw.selectTool(canvas.ToolPan)

	mw.SetCloseIntercept(func() {
		mw.prefs.SetFloat(prefs.KeyRenderScale, mw.state.Controller.Scale())
		mw.prefs.Save()
		if mw.state.Modified {
			dialog.ShowConfirm("Unsaved Changes",
				"Discard unsaved changes and quit?",
				func(ok bool) {
					if ok {
						mw.Close()
					}
				}, mw.Window)
			return
		}
		mw.Close()
	})
}

// createToolbar creates the toolbar with tool, page, and zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	mw.toolButtons = make(map[canvas.Tool]*widget.Button)
	tools := []struct {
		tool  canvas.Tool
		label string
	}{
		{canvas.ToolPan, "Pan"},
		{canvas.ToolBlur, "Blur"},
		{canvas.ToolErase, "Erase"},
		{canvas.ToolText, "Text"},
		{canvas.ToolSelect, "Select"},
	}

	bar := container.NewHBox()
	for _, t := range tools {
		tool := t.tool
		btn := widget.NewButton(t.label, func() {
			mw.selectTool(tool)
		})
		mw.toolButtons[tool] = btn
		bar.Add(btn)
	}

	prevBtn := widget.NewButton("◀", mw.onPrevPage)
	nextBtn := widget.NewButton("▶", mw.onNextPage)
	mw.pageLabel = widget.NewLabel("Page -/-")

	zoomOutBtn := widget.NewButton("-", mw.onZoomOut)
	zoomInBtn := widget.NewButton("+", mw.onZoomIn)
	fitBtn := widget.NewButton("Fit", mw.onToggleFitToWindow)
	actualBtn := widget.NewButton("1:1", mw.onActualSize)

	bar.Add(widget.NewSeparator())
	bar.Add(prevBtn)
	bar.Add(mw.pageLabel)
	bar.Add(nextBtn)
	bar.Add(widget.NewSeparator())
	bar.Add(widget.NewLabel("Zoom:"))
	bar.Add(zoomOutBtn)
	bar.Add(zoomInBtn)
	bar.Add(fitBtn)
	bar.Add(actualBtn)

	return bar
}

// selectTool switches the active tool and highlights its button.
func (mw *MainWindow) selectTool(tool canvas.Tool) {
	mw.tool = tool
	mw.canvas.SetTool(tool)
	for t, btn := range mw.toolButtons {
		if t == tool {
			btn.Importance = widget.HighImportance
		} else {
			btn.Importance = widget.MediumImportance
		}
		btn.Refresh()
	}
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	// File menu
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Document...", mw.onOpenDocument),
		fyne.NewMenuItem("Open Project...", mw.onOpenProject),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Project", mw.onSaveProject),
		fyne.NewMenuItem("Save Project As...", mw.onSaveProjectAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export PDF...", mw.onExportPDF),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	// Edit menu
	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Clear Page", mw.onClearPage),
		fyne.NewMenuItem("Remove Label", mw.onRemoveLabel),
	)

	// View menu
	mw.fitToWindowItem = fyne.NewMenuItem("  Fit to Window", mw.onToggleFitToWindow)
	if mw.prefs.Bool(prefs.KeyFitWindow, false) {
		mw.canvas.SetFitToWindow(true)
		mw.fitToWindowItem.Label = "✓ Fit to Window"
	}

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.onZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.onZoomOut),
		mw.fitToWindowItem,
		fyne.NewMenuItem("Actual Size", mw.onActualSize),
	)

	// Help menu
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mainMenu := fyne.NewMainMenu(fileMenu, editMenu, viewMenu, helpMenu)
	mw.SetMainMenu(mainMenu)
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventDocumentLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.prefs.SetString(prefs.KeyLastDocument, path)
			mw.SetTitle(appTitle + " - " + filepath.Base(path))
			mw.updateStatus(fmt.Sprintf("Opened %s (%d pages)",
				filepath.Base(path), mw.state.Controller.TotalPages()))
		}
		mw.sidePanel.RefreshDocument()
	})

	mw.state.On(app.EventPageReady, func(data interface{}) {
		mw.canvas.SetPage(mw.state.Controller.Working())
		mw.refreshLabelLayer()
		mw.sidePanel.RefreshLabels()
		mw.updatePageLabel()
		if mw.canvas.GetFitToWindow() {
			mw.canvas.FitToWindow()
		}
		mw.canvas.Refresh()
		if idx, ok := data.(int); ok {
			mw.updateStatus(fmt.Sprintf("Page %d/%d", idx+1, mw.state.Controller.TotalPages()))
		}
	})

	mw.state.On(app.EventPageLoadFailed, func(data interface{}) {
		if err, ok := data.(error); ok {
			mw.updateStatus("Page load failed: " + err.Error())
		}
	})

	mw.state.On(app.EventEditsChanged, func(data interface{}) {
		mw.canvas.Refresh()
	})

	mw.state.On(app.EventLabelsChanged, func(data interface{}) {
		mw.sidePanel.RefreshLabels()
		mw.refreshLabelLayer()
	})

	mw.state.On(app.EventPageCleared, func(data interface{}) {
		mw.sidePanel.RefreshLabels()
		mw.updateStatus("Page cleared")
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		if modified, ok := data.(bool); ok && modified {
			title := mw.Title()
			if len(title) > 0 && title[len(title)-1] != '*' {
				mw.SetTitle(title + " *")
			}
		}
	})

	mw.state.On(app.EventProjectLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle(appTitle + " - " + filepath.Base(path))
			mw.updateStatus("Project loaded: " + path)
		}
		mw.sidePanel.RefreshDocument()
		mw.sidePanel.RefreshLabels()
		mw.refreshLabelLayer()
		mw.updatePageLabel()
	})

	mw.state.On(app.EventProjectSaved, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle(appTitle + " - " + filepath.Base(path))
			mw.updateStatus("Project saved: " + path)
		}
	})

	mw.state.On(app.EventExportFinished, func(data interface{}) {
		res, ok := data.(*export.Result)
		if !ok {
			return
		}
		var msg string
		if res.Degraded {
			msg = fmt.Sprintf("Export degraded: wrote preview image %s (%v)",
				filepath.Base(res.OutputPath), res.AssembleErr)
		} else {
			msg = fmt.Sprintf("Exported %d pages to %s", res.Pages, filepath.Base(res.OutputPath))
		}
		mw.sidePanel.SetExportStatus(msg)
		mw.updateStatus(msg)
	})
}

// setupCanvasHandlers wires pointer gestures and panel actions.
func (mw *MainWindow) setupCanvasHandlers() {
	mw.canvas.OnZoomChange(func(zoom float64) {
		mw.updateStatus(fmt.Sprintf("Zoom: %.0f%%", zoom*100))
	})

	mw.canvas.OnStroke(mw.onStrokeSample)
	mw.canvas.OnStrokeEnd(mw.onStrokeEnd)
	mw.canvas.OnPlaceText(mw.onPlaceText)
	mw.canvas.OnSelectAt(mw.onSelectAt)
	mw.canvas.OnDragLabel(mw.onDragLabel)
	mw.canvas.OnDragLabelEnd(mw.onDragLabelEnd)
	mw.canvas.OnEditLabel(mw.onEditLabelAt)

	mw.sidePanel.OnSelectLabel(func(id string) {
		mw.refreshLabelLayer()
	})
	mw.sidePanel.OnEditLabel(mw.openLabelDialog)
	mw.sidePanel.OnExport(mw.onExportPDF)
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// updatePageLabel refreshes the "Page x/y" toolbar label.
func (mw *MainWindow) updatePageLabel() {
	page := mw.state.Controller.CurrentPage()
	total := mw.state.Controller.TotalPages()
	if page < 0 || total == 0 {
		mw.pageLabel.SetText("Page -/-")
		return
	}
	mw.pageLabel.SetText(fmt.Sprintf("Page %d/%d", page+1, total))
}

// refreshLabelLayer pushes the current page's labels to the canvas.
func (mw *MainWindow) refreshLabelLayer() {
	pageIndex := mw.state.Controller.CurrentPage()
	if pageIndex < 0 {
		mw.canvas.SetLabels(nil, "")
		return
	}
	mw.canvas.SetLabels(mw.state.Boxes.BoxesFor(pageIndex), mw.sidePanel.SelectedLabel())
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastDirectory)
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefs.KeyLastDirectory, filepath.Dir(filePath))
}

// restoreLastDocument reopens the document from the previous session.
func (mw *MainWindow) restoreLastDocument() {
	path := mw.prefs.String(prefs.KeyLastDocument)
	if path == "" {
		return
	}
	if err := mw.state.OpenDocument(context.Background(), path); err != nil {
		mw.updateStatus(fmt.Sprintf("Could not reopen %s: %v", filepath.Base(path), err))
		return
	}
	mw.state.SetModified(false) // Don't mark as modified on restore
}

// Gesture handlers

func (mw *MainWindow) onStrokeSample(x, y float64) {
	if mw.state.Controller.CurrentPage() < 0 {
		return
	}
	kind := stroke.KindBlur
	if mw.tool == canvas.ToolErase {
		kind = stroke.KindErase
	}
	if mw.pending.Empty() {
		mw.pending = stroke.Action{Kind: kind}
	}

	s := stroke.Stroke{
		X:         int(x),
		Y:         int(y),
		Size:      mw.sidePanel.BrushSize(),
		Intensity: mw.sidePanel.Intensity(),
	}
	if err := mw.state.Controller.ApplyLive(kind, s); err != nil {
		return
	}
	mw.pending.Strokes = append(mw.pending.Strokes, s)
	mw.canvas.Refresh()
}

func (mw *MainWindow) onStrokeEnd() {
	page := mw.state.Controller.CurrentPage()
	if page >= 0 && !mw.pending.Empty() {
		mw.state.CommitAction(page, mw.pending)
	}
	mw.pending = stroke.Action{}
}

func (mw *MainWindow) onPlaceText(x, y float64) {
	page := mw.state.Controller.CurrentPage()
	if page < 0 {
		return
	}
	id := mw.state.CreateLabel(page, x, y, mw.sidePanel.FontSize(), mw.sidePanel.LabelColor())
	mw.sidePanel.SetSelected(id)
	mw.openLabelDialog(id)
}

func (mw *MainWindow) onSelectAt(x, y float64) {
	mw.sidePanel.SetSelected(mw.canvas.LabelAt(x, y))
	mw.refreshLabelLayer()
}

func (mw *MainWindow) onDragLabel(x, y float64) {
	if mw.dragMiss {
		return
	}
	if mw.dragID == "" {
		// First sample grabs the label under the pointer
		id := mw.canvas.LabelAt(x, y)
		if id == "" {
			mw.dragMiss = true
			return
		}
		box, ok := mw.state.Boxes.Get(id)
		if !ok {
			mw.dragMiss = true
			return
		}
		mw.dragID = id
		mw.dragDX = x - box.X
		mw.dragDY = y - box.Y
		mw.sidePanel.SetSelected(id)
		return
	}
	mw.state.MoveLabel(mw.dragID, x-mw.dragDX, y-mw.dragDY)
}

func (mw *MainWindow) onDragLabelEnd() {
	mw.dragID = ""
	mw.dragMiss = false
}

func (mw *MainWindow) onEditLabelAt(x, y float64) {
	id := mw.canvas.LabelAt(x, y)
	if id == "" {
		return
	}
	mw.sidePanel.SetSelected(id)
	mw.openLabelDialog(id)
}

// openLabelDialog shows the edit dialog for a label. A label that was just
// placed and is still empty gets removed when the dialog is cancelled.
func (mw *MainWindow) openLabelDialog(id string) {
	box, ok := mw.state.Boxes.Get(id)
	if !ok {
		return
	}
	created := box.Text == ""
	mw.state.SetLabelEditing(id, true)

	dlg := dialogs.NewLabelDialog(box, mw.Window,
		func(text string, fontSize float64, c color.RGBA) {
			mw.state.SetLabelEditing(id, false)
			if text == "" && created {
				mw.state.DeleteLabel(id)
				return
			}
			mw.state.SetLabelText(id, text)
			mw.state.SetLabelStyle(id, fontSize, c)
		},
		func() {
			mw.state.SetLabelEditing(id, false)
			if created {
				mw.state.DeleteLabel(id)
			}
		})
	dlg.Show()
}

// Menu action handlers

func (mw *MainWindow) onOpenDocument() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		mw.updateStatus("Opening " + filepath.Base(path) + "...")
		go func() {
			if err := mw.state.OpenDocument(context.Background(), path); err != nil {
				dialog.ShowError(err, mw.Window)
			}
		}()
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".pdf"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onOpenProject() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		mw.updateStatus("Opening project...")
		go func() {
			if err := mw.state.LoadProject(context.Background(), path); err != nil {
				dialog.ShowError(err, mw.Window)
			}
		}()
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".annproj"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveProject() {
	if mw.state.ProjectPath == "" {
		mw.onSaveProjectAs()
		return
	}
	if err := mw.state.SaveProject(mw.state.ProjectPath); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onSaveProjectAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".annproj" {
			path += ".annproj"
		}
		mw.saveLastDir(path)
		if err := mw.state.SaveProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFileName(mw.defaultProjectName())
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

// defaultProjectName derives a project file name from the open document.
func (mw *MainWindow) defaultProjectName() string {
	if mw.state.DocumentPath == "" {
		return "untitled.annproj"
	}
	base := filepath.Base(mw.state.DocumentPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".annproj"
}

func (mw *MainWindow) onExportPDF() {
	if mw.state.DocumentPath == "" {
		mw.updateStatus("Nothing to export")
		return
	}
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".pdf" {
			path += ".pdf"
		}
		mw.saveLastDir(path)
		mw.updateStatus("Exporting...")
		go func() {
			if _, err := mw.state.Export(context.Background(), path); err != nil {
				dialog.ShowError(err, mw.Window)
			}
		}()
	}, mw.Window)

	base := filepath.Base(mw.state.DocumentPath)
	fd.SetFileName(strings.TrimSuffix(base, filepath.Ext(base)) + "-annotated.pdf")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onClearPage() {
	if mw.state.Controller.CurrentPage() < 0 {
		return
	}
	go func() {
		if err := mw.state.ClearPage(context.Background()); err != nil {
			mw.updateStatus("Clear failed: " + err.Error())
		}
	}()
}

func (mw *MainWindow) onRemoveLabel() {
	id := mw.sidePanel.SelectedLabel()
	if id == "" {
		mw.updateStatus("No label selected")
		return
	}
	mw.state.DeleteLabel(id)
}

func (mw *MainWindow) onPrevPage() {
	mw.gotoPage(mw.state.Controller.CurrentPage() - 1)
}

func (mw *MainWindow) onNextPage() {
	mw.gotoPage(mw.state.Controller.CurrentPage() + 1)
}

// gotoPage loads the given page in the background. Rapid navigation is fine:
// an older load that finishes after a newer request is dropped.
func (mw *MainWindow) gotoPage(pageIndex int) {
	if pageIndex < 0 || pageIndex >= mw.state.Controller.TotalPages() {
		return
	}
	mw.updateStatus(fmt.Sprintf("Loading page %d...", pageIndex+1))
	go mw.state.LoadPage(context.Background(), pageIndex)
}

func (mw *MainWindow) onZoomIn() {
	mw.disableFitToWindow()
	mw.canvas.ZoomIn()
}

func (mw *MainWindow) onZoomOut() {
	mw.disableFitToWindow()
	mw.canvas.ZoomOut()
}

func (mw *MainWindow) onToggleFitToWindow() {
	// Toggle state
	enabled := !mw.canvas.GetFitToWindow()
	mw.canvas.SetFitToWindow(enabled)
	mw.prefs.SetBool(prefs.KeyFitWindow, enabled)

	// Update menu label to show state
	if enabled {
		mw.fitToWindowItem.Label = "✓ Fit to Window"
	} else {
		mw.fitToWindowItem.Label = "  Fit to Window"
	}
}

func (mw *MainWindow) onActualSize() {
	mw.disableFitToWindow()
	mw.canvas.SetZoom(1.0)
}

func (mw *MainWindow) disableFitToWindow() {
	if mw.canvas.GetFitToWindow() {
		mw.canvas.SetFitToWindow(false)
		mw.prefs.SetBool(prefs.KeyFitWindow, false)
		mw.fitToWindowItem.Label = "  Fit to Window"
	}
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s %s\n\n"+
			"Blur, erase, and label PDF pages, then export the result.\n\n"+
			"Page rendering uses pdftoppm (poppler-utils).",
			appTitle, version.String()),
		mw.Window)
}
