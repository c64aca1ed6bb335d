package dialogs

import (
	"image/color"

	"doc-annotator/pkg/colorutil"
)

// PaletteEntry pairs a display name with a label color.
type PaletteEntry struct {
	Name  string
	Color color.RGBA
}

// Palette lists the colors offered for text labels.
var Palette = []PaletteEntry{
	{"Red", colorutil.Red},
	{"Black", colorutil.Black},
	{"Blue", colorutil.Blue},
	{"Green", color.RGBA{G: 160, A: 255}},
	{"White", colorutil.White},
}

// PaletteNames returns the palette display names in order.
func PaletteNames() []string {
	names := make([]string, len(Palette))
	for i, entry := range Palette {
		names[i] = entry.Name
	}
	return names
}

// PaletteName returns the display name for c, or the first entry's name when
// c is not in the palette.
func PaletteName(c color.RGBA) string {
	for _, entry := range Palette {
		if entry.Color == c {
			return entry.Name
		}
	}
	return Palette[0].Name
}

// PaletteColor returns the color for a display name, or the first entry's
// color when the name is unknown.
func PaletteColor(name string) color.RGBA {
	for _, entry := range Palette {
		if entry.Name == name {
			return entry.Color
		}
	}
	return Palette[0].Color
}
