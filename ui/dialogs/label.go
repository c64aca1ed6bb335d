// Package dialogs provides application dialogs.
package dialogs

import (
	"fmt"
	"image/color"
	"strconv"

	"doc-annotator/internal/overlay"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// LabelDialog edits the text and style of a text label.
type LabelDialog struct {
	box    overlay.TextBox
	window fyne.Window

	textEntry   *widget.Entry
	sizeEntry   *widget.Entry
	colorSelect *widget.Select
	swatch      *fynecanvas.Rectangle

	// Callbacks
	onApply  func(text string, fontSize float64, c color.RGBA)
	onCancel func()
}

// NewLabelDialog creates a dialog editing the given label. onApply receives
// the confirmed values; onCancel fires when the dialog is dismissed.
func NewLabelDialog(box overlay.TextBox, window fyne.Window, onApply func(text string, fontSize float64, c color.RGBA), onCancel func()) *LabelDialog {
	return &LabelDialog{
		box:      box,
		window:   window,
		onApply:  onApply,
		onCancel: onCancel,
	}
}

// Show displays the dialog with the text entry focused.
func (d *LabelDialog) Show() {
	content := d.createContent()

	dlg := dialog.NewCustomConfirm(
		"Edit Label",
		"Apply",
		"Cancel",
		content,
		func(apply bool) {
			if !apply {
				if d.onCancel != nil {
					d.onCancel()
				}
				return
			}
			size := d.box.FontSize
			if v, err := strconv.ParseFloat(d.sizeEntry.Text, 64); err == nil && v > 0 {
				size = v
			}
			if d.onApply != nil {
				d.onApply(d.textEntry.Text, size, PaletteColor(d.colorSelect.Selected))
			}
		},
		d.window,
	)
	dlg.Resize(fyne.NewSize(380, 220))
	dlg.Show()
	d.window.Canvas().Focus(d.textEntry)
}

func (d *LabelDialog) createContent() fyne.CanvasObject {
	d.textEntry = widget.NewEntry()
	d.textEntry.SetText(d.box.Text)
	d.textEntry.SetPlaceHolder("Label text")

	d.sizeEntry = widget.NewEntry()
	d.sizeEntry.SetText(fmt.Sprintf("%.0f", d.box.FontSize))

	d.swatch = fynecanvas.NewRectangle(d.box.Color)
	d.swatch.SetMinSize(fyne.NewSize(40, 24))

	d.colorSelect = widget.NewSelect(PaletteNames(), func(selected string) {
		d.swatch.FillColor = PaletteColor(selected)
		fynecanvas.Refresh(d.swatch)
	})
	d.colorSelect.SetSelected(PaletteName(d.box.Color))

	return widget.NewForm(
		widget.NewFormItem("Text", d.textEntry),
		widget.NewFormItem("Font size (pt)", d.sizeEntry),
		widget.NewFormItem("Color", container.NewHBox(d.colorSelect, d.swatch)),
	)
}
