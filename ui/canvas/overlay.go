package canvas

import (
	"strings"

	"doc-annotator/internal/overlay"
	"doc-annotator/pkg/geometry"
)

// outlinePad is the gap in image pixels between a label's text and its frame.
const outlinePad = 3

// labelOutline is the frame drawn around a text box on the canvas. The
// rectangle is in image coordinates; draw scales it by the zoom.
type labelOutline struct {
	rect     geometry.RectInt
	dashed   bool // box is being edited
	selected bool
}

// computeOutlines measures each box and produces its frame. Frames double as
// the hit-test regions for selecting and dragging labels.
func computeOutlines(boxes []overlay.TextBox, selectedID string) []labelOutline {
	outlines := make([]labelOutline, len(boxes))
	for i, box := range boxes {
		w, h := labelExtent(box)
		outlines[i] = labelOutline{
			rect: geometry.RectInt{
				X:      int(box.X) - outlinePad,
				Y:      int(box.Y) - outlinePad,
				Width:  int(w) + 2*outlinePad,
				Height: int(h) + 2*outlinePad,
			},
			dashed:   box.IsEditing,
			selected: box.ID == selectedID,
		}
	}
	return outlines
}

// labelExtent returns the rendered size of a box's text. A box with no text
// yet gets a placeholder extent so it stays visible and clickable.
func labelExtent(box overlay.TextBox) (float64, float64) {
	text := box.Text
	if strings.TrimSpace(text) == "" {
		text = "Label"
	}
	w, h, err := overlay.Measure(text, box.FontSize)
	if err != nil {
		return box.FontSize * 4, box.FontSize
	}
	return w, h
}
