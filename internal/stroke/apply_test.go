package stroke

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"

	"doc-annotator/internal/raster"
	"doc-annotator/pkg/geometry"
)

// checkerboard builds a high-contrast raster so any blur visibly moves pixel
// values.
func checkerboard(width, height int) *raster.Raster {
	r := raster.New(width, height)
	black := color.RGBA{A: 255}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x+y)%2 == 0 {
				r.Image().SetRGBA(x, y, white)
			} else {
				r.Image().SetRGBA(x, y, black)
			}
		}
	}
	return r
}

func pixelsEqual(a, b *raster.Raster) bool {
	return bytes.Equal(a.Image().Pix, b.Image().Pix)
}

func TestBlurReadsPristineOnly(t *testing.T) {
	pristine := checkerboard(60, 60)
	working := pristine.Clone()

	// Wipe the middle of the working raster, then blur over the wiped area.
	// The blur must be computed from the pristine pixels underneath, not
	// from the white circle.
	ApplyErase(working, Stroke{X: 30, Y: 30, Size: 30})
	blur := Stroke{X: 30, Y: 30, Size: 20, Intensity: 2}
	ApplyBlur(working, pristine, blur)

	region := blur.Region().ClampTo(pristine.Width(), pristine.Height())
	want := raster.FromImage(imaging.Blur(pristine.CopyRegion(region).Image(), blur.Intensity))
	got := working.CopyRegion(region)

	if !pixelsEqual(got, want) {
		t.Error("blurred region does not match a blur of the pristine pixels")
	}
}

func TestBlurSameStrokeTwiceEqualsOnce(t *testing.T) {
	pristine := checkerboard(60, 60)
	s := Stroke{X: 30, Y: 30, Size: 20, Intensity: 2}

	once := pristine.Clone()
	ApplyBlur(once, pristine, s)

	twice := pristine.Clone()
	ApplyBlur(twice, pristine, s)
	ApplyBlur(twice, pristine, s)

	if !pixelsEqual(once, twice) {
		t.Error("repeating a blur stroke compounded the blur")
	}
}

func TestDisjointBlursCommute(t *testing.T) {
	pristine := checkerboard(80, 80)
	a := Stroke{X: 15, Y: 15, Size: 10, Intensity: 2}
	b := Stroke{X: 60, Y: 60, Size: 10, Intensity: 2}

	ab := pristine.Clone()
	ApplyBlur(ab, pristine, a)
	ApplyBlur(ab, pristine, b)

	ba := pristine.Clone()
	ApplyBlur(ba, pristine, b)
	ApplyBlur(ba, pristine, a)

	if !pixelsEqual(ab, ba) {
		t.Error("disjoint blur strokes do not commute")
	}
}

func TestEraseIsIdempotent(t *testing.T) {
	pristine := checkerboard(60, 60)
	s := Stroke{X: 30, Y: 30, Size: 20}

	once := pristine.Clone()
	ApplyErase(once, s)

	twice := pristine.Clone()
	ApplyErase(twice, s)
	ApplyErase(twice, s)

	if !pixelsEqual(once, twice) {
		t.Error("repeating an erase stroke changed pixels")
	}

	center := once.Image().RGBAAt(30, 30)
	if center != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("erased center = %v, want opaque white", center)
	}
}

func TestStrokeOutsideRasterIsNoOp(t *testing.T) {
	pristine := checkerboard(50, 50)

	for _, s := range []Stroke{
		{X: -100, Y: 25, Size: 10, Intensity: 2},
		{X: 25, Y: 200, Size: 10, Intensity: 2},
	} {
		working := pristine.Clone()
		ApplyBlur(working, pristine, s)
		if !pixelsEqual(working, pristine) {
			t.Errorf("blur stroke %+v outside the raster modified pixels", s)
		}

		working = pristine.Clone()
		ApplyErase(working, s)
		if !pixelsEqual(working, pristine) {
			t.Errorf("erase stroke %+v outside the raster modified pixels", s)
		}
	}
}

func TestBlurClampedAtCornerStaysInRegion(t *testing.T) {
	pristine := checkerboard(100, 100)
	working := pristine.Clone()

	// Brush center (2,2) with size 10 overhangs the corner; only the
	// overlapping 7x7 region may change.
	ApplyBlur(working, pristine, Stroke{X: 2, Y: 2, Size: 10, Intensity: 3})

	changed := false
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			same := working.Image().RGBAAt(x, y) == pristine.Image().RGBAAt(x, y)
			inside := x < 7 && y < 7
			if !inside && !same {
				t.Fatalf("pixel (%d,%d) outside the clamped region changed", x, y)
			}
			if inside && !same {
				changed = true
			}
		}
	}
	if !changed {
		t.Error("no pixel inside the clamped region changed")
	}
}

func TestActionAppliesStrokesInOrder(t *testing.T) {
	pristine := checkerboard(60, 60)

	action := Action{Kind: KindErase, Strokes: []Stroke{
		{X: 20, Y: 20, Size: 12},
		{X: 26, Y: 20, Size: 12},
		{X: 32, Y: 20, Size: 12},
	}}

	viaAction := pristine.Clone()
	action.Apply(viaAction, pristine)

	manual := pristine.Clone()
	for _, s := range action.Strokes {
		ApplyErase(manual, s)
	}

	if !pixelsEqual(viaAction, manual) {
		t.Error("Action.Apply differs from applying its strokes directly")
	}
}

func TestActionEmpty(t *testing.T) {
	if !(Action{Kind: KindBlur}).Empty() {
		t.Error("action with no strokes is not Empty")
	}
	a := Action{Kind: KindBlur, Strokes: []Stroke{{X: 1, Y: 1, Size: 4}}}
	if a.Empty() {
		t.Error("action with strokes reports Empty")
	}
}

func TestStrokeRegion(t *testing.T) {
	s := Stroke{X: 50, Y: 40, Size: 10}
	want := geometry.RectInt{X: 45, Y: 35, Width: 10, Height: 10}
	if got := s.Region(); got != want {
		t.Errorf("Region = %+v, want %+v", got, want)
	}

	// Odd sizes floor the half-offset.
	s = Stroke{X: 50, Y: 40, Size: 9}
	want = geometry.RectInt{X: 46, Y: 36, Width: 9, Height: 9}
	if got := s.Region(); got != want {
		t.Errorf("Region = %+v, want %+v", got, want)
	}
}

func TestKindValid(t *testing.T) {
	if !KindBlur.Valid() || !KindErase.Valid() {
		t.Error("known kinds report invalid")
	}
	if Kind("smudge").Valid() {
		t.Error("unknown kind reports valid")
	}
}
