package overlay

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"doc-annotator/internal/raster"
)

var (
	fontOnce sync.Once
	labelTTF *truetype.Font
	fontErr  error
)

func labelFont() (*truetype.Font, error) {
	fontOnce.Do(func() {
		labelTTF, fontErr = truetype.Parse(goregular.TTF)
	})
	return labelTTF, fontErr
}

// RenderPage draws the given boxes onto the working raster in slice order,
// so later boxes paint over earlier ones. Boxes whose text is empty after
// trimming whitespace are skipped.
func RenderPage(working *raster.Raster, boxes []TextBox) error {
	ttf, err := labelFont()
	if err != nil {
		return fmt.Errorf("failed to load label font: %w", err)
	}

	dc := gg.NewContextForRGBA(working.Image())
	for _, box := range boxes {
		if strings.TrimSpace(box.Text) == "" {
			continue
		}
		face := truetype.NewFace(ttf, &truetype.Options{
			Size:    box.FontSize,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		dc.SetFontFace(face)
		dc.SetColor(box.Color)
		dc.DrawStringAnchored(box.Text, box.X, box.Y, 0, 0)
	}
	return nil
}

// Measure returns the rendered size of a label in pixels, used for placing
// and hit-testing boxes on the canvas.
func Measure(text string, fontSize float64) (w, h float64, err error) {
	ttf, err := labelFont()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load label font: %w", err)
	}

	face := truetype.NewFace(ttf, &truetype.Options{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	dc := gg.NewContext(1, 1)
	dc.SetFontFace(face)
	w, h = dc.MeasureString(text)
	return w, h, nil
}
