// Package panels provides UI panels for the application.
package panels

import (
	"fmt"
	"image/color"
	"path/filepath"

	"doc-annotator/internal/app"
	"doc-annotator/internal/overlay"
	"doc-annotator/pkg/colorutil"
	"doc-annotator/ui/canvas"
	"doc-annotator/ui/dialogs"
	"doc-annotator/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// SidePanel shows document info, the labels on the current page, and the
// tool options for the annotation tools.
type SidePanel struct {
	state     *app.State
	canvas    *canvas.PageCanvas
	prefs     *prefs.Prefs
	container fyne.CanvasObject

	// Document info
	docLabel   *widget.Label
	pagesLabel *widget.Label
	scaleLabel *widget.Label

	// Labels list
	labelList      *widget.List
	pageBoxes      []overlay.TextBox
	selectedID     string
	suppressSelect bool
	editBtn        *widget.Button
	deleteBtn      *widget.Button

	// Tool options
	brushLabel      *widget.Label
	brushSlider     *widget.Slider
	intensityLabel  *widget.Label
	intensitySlider *widget.Slider
	fontSizeLabel   *widget.Label
	fontSizeSlider  *widget.Slider
	colorSelect     *widget.Select

	// Export
	exportStatus *widget.Label

	onSelectLabel func(id string)
	onEditLabel   func(id string)
	onExport      func()
}

// NewSidePanel creates a new side panel.
func NewSidePanel(state *app.State, cvs *canvas.PageCanvas, appPrefs *prefs.Prefs) *SidePanel {
	sp := &SidePanel{
		state:  state,
		canvas: cvs,
		prefs:  appPrefs,
	}

	// Document info
	sp.docLabel = widget.NewLabel("No document")
	sp.docLabel.Wrapping = fyne.TextWrapWord
	sp.pagesLabel = widget.NewLabel("Pages: 0")
	sp.scaleLabel = widget.NewLabel("")

	// Labels list
	sp.labelList = widget.NewList(
		func() int {
			return len(sp.pageBoxes)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("Label")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < len(sp.pageBoxes) {
				text := sp.pageBoxes[id].Text
				if text == "" {
					text = "(empty)"
				}
				obj.(*widget.Label).SetText(fmt.Sprintf("%d. %s", id+1, text))
			}
		},
	)
	sp.labelList.OnSelected = func(id widget.ListItemID) {
		if id >= len(sp.pageBoxes) {
			return
		}
		sp.selectedID = sp.pageBoxes[id].ID
		sp.editBtn.Enable()
		sp.deleteBtn.Enable()
		if sp.suppressSelect {
			return
		}
		if sp.onSelectLabel != nil {
			sp.onSelectLabel(sp.selectedID)
		}
	}
	sp.labelList.OnUnselected = func(id widget.ListItemID) {
		sp.selectedID = ""
		sp.editBtn.Disable()
		sp.deleteBtn.Disable()
	}

	sp.editBtn = widget.NewButton("Edit", func() {
		if sp.selectedID != "" && sp.onEditLabel != nil {
			sp.onEditLabel(sp.selectedID)
		}
	})
	sp.editBtn.Disable()

	sp.deleteBtn = widget.NewButton("Delete", func() {
		if sp.selectedID != "" {
			state.DeleteLabel(sp.selectedID)
		}
	})
	sp.deleteBtn.Disable()

	// Tool options, seeded from preferences
	brush := appPrefs.IntWithFallback(prefs.KeyBrushSize, 30)
	intensity := appPrefs.FloatWithFallback(prefs.KeyIntensity, 8)
	fontSize := appPrefs.FloatWithFallback(prefs.KeyFontSize, 18)

	sp.brushLabel = widget.NewLabel("")
	sp.brushSlider = widget.NewSlider(4, 200)
	sp.brushSlider.OnChanged = func(val float64) {
		sp.brushLabel.SetText(fmt.Sprintf("Stroke size: %d px", int(val)))
		sp.canvas.SetBrushSize(int(val))
		sp.prefs.SetInt(prefs.KeyBrushSize, int(val))
	}
	sp.brushSlider.SetValue(float64(brush))
	sp.brushLabel.SetText(fmt.Sprintf("Stroke size: %d px", brush))
	cvs.SetBrushSize(brush)

	sp.intensityLabel = widget.NewLabel("")
	sp.intensitySlider = widget.NewSlider(1, 20)
	sp.intensitySlider.OnChanged = func(val float64) {
		sp.intensityLabel.SetText(fmt.Sprintf("Blur strength: %.0f", val))
		sp.prefs.SetFloat(prefs.KeyIntensity, val)
	}
	sp.intensitySlider.SetValue(intensity)
	sp.intensityLabel.SetText(fmt.Sprintf("Blur strength: %.0f", intensity))

	sp.fontSizeLabel = widget.NewLabel("")
	sp.fontSizeSlider = widget.NewSlider(8, 72)
	sp.fontSizeSlider.OnChanged = func(val float64) {
		sp.fontSizeLabel.SetText(fmt.Sprintf("Font size: %.0f pt", val))
		sp.prefs.SetFloat(prefs.KeyFontSize, val)
	}
	sp.fontSizeSlider.SetValue(fontSize)
	sp.fontSizeLabel.SetText(fmt.Sprintf("Font size: %.0f pt", fontSize))

	sp.colorSelect = widget.NewSelect(dialogs.PaletteNames(), func(selected string) {
		sp.prefs.SetString(prefs.KeyLabelColor, colorutil.Hex(dialogs.PaletteColor(selected)))
	})
	sp.colorSelect.SetSelected(sp.initialColorName())

	// Export
	exportBtn := widget.NewButton("Export PDF…", func() {
		if sp.onExport != nil {
			sp.onExport()
		}
	})
	sp.exportStatus = widget.NewLabel("")
	sp.exportStatus.Wrapping = fyne.TextWrapWord

	// Layout
	docCard := widget.NewCard("Document", "", container.NewVBox(
		sp.docLabel,
		sp.pagesLabel,
		sp.scaleLabel,
	))

	labelsCard := widget.NewCard("Labels", "", container.NewBorder(
		nil,
		container.NewGridWithColumns(2, sp.editBtn, sp.deleteBtn),
		nil, nil,
		sp.labelList,
	))

	toolsCard := widget.NewCard("Tool Options", "", container.NewVBox(
		sp.brushLabel,
		sp.brushSlider,
		sp.intensityLabel,
		sp.intensitySlider,
		sp.fontSizeLabel,
		sp.fontSizeSlider,
		widget.NewLabel("Label color:"),
		sp.colorSelect,
	))

	exportCard := widget.NewCard("Export", "", container.NewVBox(
		exportBtn,
		sp.exportStatus,
	))

	sp.container = container.NewBorder(
		docCard,
		container.NewVBox(toolsCard, exportCard),
		nil, nil,
		labelsCard,
	)

	return sp
}

// initialColorName maps the stored preference back to a palette name.
func (sp *SidePanel) initialColorName() string {
	hex := sp.prefs.StringWithFallback(prefs.KeyLabelColor, colorutil.Hex(colorutil.Red))
	if c, err := colorutil.ParseHex(hex); err == nil {
		return dialogs.PaletteName(c)
	}
	return dialogs.Palette[0].Name
}

// Container returns the panel container.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// OnSelectLabel sets a callback fired when a label is picked from the list.
func (sp *SidePanel) OnSelectLabel(callback func(id string)) {
	sp.onSelectLabel = callback
}

// OnEditLabel sets a callback fired by the Edit button.
func (sp *SidePanel) OnEditLabel(callback func(id string)) {
	sp.onEditLabel = callback
}

// OnExport sets a callback fired by the export button.
func (sp *SidePanel) OnExport(callback func()) {
	sp.onExport = callback
}

// BrushSize returns the configured stroke diameter in pixels.
func (sp *SidePanel) BrushSize() int {
	return int(sp.brushSlider.Value)
}

// Intensity returns the configured blur strength.
func (sp *SidePanel) Intensity() float64 {
	return sp.intensitySlider.Value
}

// FontSize returns the configured label font size.
func (sp *SidePanel) FontSize() float64 {
	return sp.fontSizeSlider.Value
}

// LabelColor returns the configured label color.
func (sp *SidePanel) LabelColor() color.RGBA {
	return dialogs.PaletteColor(sp.colorSelect.Selected)
}

// RefreshDocument updates the document info card from state.
func (sp *SidePanel) RefreshDocument() {
	if sp.state.DocumentPath == "" {
		sp.docLabel.SetText("No document")
		sp.pagesLabel.SetText("Pages: 0")
		sp.scaleLabel.SetText("")
		return
	}
	sp.docLabel.SetText(filepath.Base(sp.state.DocumentPath))
	sp.pagesLabel.SetText(fmt.Sprintf("Pages: %d", sp.state.Controller.TotalPages()))
	sp.scaleLabel.SetText(fmt.Sprintf("Render scale: %.1fx", sp.state.Controller.Scale()))
}

// RefreshLabels reloads the label list for the current page, keeping the
// selection when the selected box still exists.
func (sp *SidePanel) RefreshLabels() {
	page := sp.state.Controller.CurrentPage()
	if page < 0 {
		sp.pageBoxes = nil
	} else {
		sp.pageBoxes = sp.state.Boxes.BoxesFor(page)
	}

	found := false
	for _, box := range sp.pageBoxes {
		if box.ID == sp.selectedID {
			found = true
			break
		}
	}
	if !found {
		sp.selectedID = ""
		sp.editBtn.Disable()
		sp.deleteBtn.Disable()
		sp.labelList.UnselectAll()
	}
	sp.labelList.Refresh()
}

// SetSelected highlights the given label in the list without firing the
// selection callback. An empty id clears the selection.
func (sp *SidePanel) SetSelected(id string) {
	sp.selectedID = id
	if id == "" {
		sp.labelList.UnselectAll()
		sp.editBtn.Disable()
		sp.deleteBtn.Disable()
		return
	}
	for i, box := range sp.pageBoxes {
		if box.ID == id {
			sp.suppressSelect = true
			sp.labelList.Select(i)
			sp.suppressSelect = false
			return
		}
	}
}

// SelectedLabel returns the id of the label selected in the list, or "".
func (sp *SidePanel) SelectedLabel() string {
	return sp.selectedID
}

// SetExportStatus shows the outcome of the last export.
func (sp *SidePanel) SetExportStatus(msg string) {
	sp.exportStatus.SetText(msg)
}
