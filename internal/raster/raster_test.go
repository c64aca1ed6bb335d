package raster

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"doc-annotator/pkg/geometry"
)

// gradient fills a raster so every pixel value encodes its position.
func gradient(width, height int) *Raster {
	r := New(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r.Image().SetRGBA(x, y, color.RGBA{
				R: uint8(x % 256),
				G: uint8(y % 256),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	return r
}

func TestCopyRegionInterior(t *testing.T) {
	src := gradient(100, 100)

	got := src.CopyRegion(geometry.RectInt{X: 10, Y: 20, Width: 5, Height: 4})
	if got == nil {
		t.Fatal("CopyRegion returned nil for in-bounds region")
	}
	if got.Width() != 5 || got.Height() != 4 {
		t.Fatalf("CopyRegion size = %dx%d, want 5x4", got.Width(), got.Height())
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			want := src.Image().RGBAAt(10+x, 20+y)
			if got.Image().RGBAAt(x, y) != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got.Image().RGBAAt(x, y), want)
			}
		}
	}
}

func TestCopyRegionClampsAtCorner(t *testing.T) {
	src := gradient(100, 100)

	// A 10x10 region centered near the corner extends past the top-left
	// edge and shrinks to the overlapping part.
	got := src.CopyRegion(geometry.RectInt{X: -3, Y: -3, Width: 10, Height: 10})
	if got == nil {
		t.Fatal("CopyRegion returned nil for partially overlapping region")
	}
	if got.Width() != 7 || got.Height() != 7 {
		t.Fatalf("CopyRegion size = %dx%d, want 7x7", got.Width(), got.Height())
	}
	if got.Image().RGBAAt(0, 0) != src.Image().RGBAAt(0, 0) {
		t.Error("clamped region does not start at the raster origin")
	}
}

func TestCopyRegionClampsAtFarEdge(t *testing.T) {
	src := gradient(100, 100)

	got := src.CopyRegion(geometry.RectInt{X: 93, Y: 95, Width: 10, Height: 10})
	if got == nil {
		t.Fatal("CopyRegion returned nil for partially overlapping region")
	}
	if got.Width() != 7 || got.Height() != 5 {
		t.Fatalf("CopyRegion size = %dx%d, want 7x5", got.Width(), got.Height())
	}
	if got.Image().RGBAAt(0, 0) != src.Image().RGBAAt(93, 95) {
		t.Error("clamped region does not start at the expected source pixel")
	}
}

func TestCopyRegionOutsideIsNil(t *testing.T) {
	src := gradient(100, 100)

	for _, rect := range []geometry.RectInt{
		{X: -155, Y: 45, Width: 10, Height: 10},
		{X: 145, Y: 45, Width: 10, Height: 10},
		{X: 45, Y: -200, Width: 10, Height: 10},
		{X: 45, Y: 300, Width: 10, Height: 10},
		{X: 10, Y: 10, Width: 0, Height: 5},
	} {
		if got := src.CopyRegion(rect); got != nil {
			t.Errorf("CopyRegion(%+v) = %dx%d raster, want nil", rect, got.Width(), got.Height())
		}
	}
}

func TestBlitOverwritesWithoutBlending(t *testing.T) {
	dst := NewFilled(10, 10, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	src := NewFilled(4, 4, color.RGBA{R: 100, G: 0, B: 0, A: 128})

	dst.Blit(src, 2, 3)

	// A half-transparent source pixel must land verbatim, not blended
	// against the white background.
	want := color.RGBA{R: 100, G: 0, B: 0, A: 128}
	if got := dst.Image().RGBAAt(2, 3); got != want {
		t.Errorf("blitted pixel = %v, want %v", got, want)
	}
	if got := dst.Image().RGBAAt(5, 6); got != want {
		t.Errorf("blitted pixel = %v, want %v", got, want)
	}

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	if got := dst.Image().RGBAAt(1, 3); got != white {
		t.Errorf("pixel left of blit = %v, want untouched white", got)
	}
	if got := dst.Image().RGBAAt(6, 6); got != white {
		t.Errorf("pixel right of blit = %v, want untouched white", got)
	}
}

func TestBlitClipsToBounds(t *testing.T) {
	dst := NewFilled(10, 10, color.RGBA{A: 255})
	src := NewFilled(6, 6, color.RGBA{R: 200, A: 255})

	// Partially off the top-left corner.
	dst.Blit(src, -3, -3)

	red := color.RGBA{R: 200, A: 255}
	if got := dst.Image().RGBAAt(0, 0); got != red {
		t.Errorf("pixel (0,0) = %v, want %v", got, red)
	}
	if got := dst.Image().RGBAAt(2, 2); got != red {
		t.Errorf("pixel (2,2) = %v, want %v", got, red)
	}
	if got := dst.Image().RGBAAt(3, 3); got == red {
		t.Error("pixel (3,3) overwritten, blit overran the source size")
	}

	// Fully off the raster: no change anywhere.
	before := append([]byte(nil), dst.Image().Pix...)
	dst.Blit(src, 50, 50)
	if !bytes.Equal(before, dst.Image().Pix) {
		t.Error("blit outside bounds modified pixels")
	}
}

func TestFillCircleHardEdge(t *testing.T) {
	r := NewFilled(50, 50, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	ink := color.RGBA{A: 255}

	r.FillCircle(25, 25, 10, ink)

	if got := r.Image().RGBAAt(25, 25); got != ink {
		t.Errorf("center = %v, want filled", got)
	}
	// Distance exactly r is inside, r+1 outside. No partial coverage in
	// between: the edge must be a hard step.
	if got := r.Image().RGBAAt(35, 25); got != ink {
		t.Errorf("pixel at distance r = %v, want filled", got)
	}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	if got := r.Image().RGBAAt(36, 25); got != white {
		t.Errorf("pixel at distance r+1 = %v, want untouched", got)
	}
}

func TestFillCircleClipsAtCorner(t *testing.T) {
	r := NewFilled(20, 20, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	ink := color.RGBA{A: 255}

	r.FillCircle(0, 0, 5, ink)
	if got := r.Image().RGBAAt(0, 0); got != ink {
		t.Errorf("corner pixel = %v, want filled", got)
	}

	// Center far outside: nothing within reach, nothing changes.
	before := append([]byte(nil), r.Image().Pix...)
	r.FillCircle(-100, 10, 5, ink)
	if !bytes.Equal(before, r.Image().Pix) {
		t.Error("fill with far-out center modified pixels")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := gradient(8, 8)
	clone := orig.Clone()

	if !bytes.Equal(orig.Image().Pix, clone.Image().Pix) {
		t.Fatal("clone differs from original")
	}

	clone.Image().SetRGBA(3, 3, color.RGBA{R: 1, G: 2, B: 3, A: 4})
	if orig.Image().RGBAAt(3, 3) == clone.Image().RGBAAt(3, 3) {
		t.Error("mutating the clone changed the original")
	}
}

func TestFromImageNormalizesOrigin(t *testing.T) {
	base := gradient(20, 20)
	sub := base.Image().SubImage(image.Rect(5, 5, 15, 15))

	r := FromImage(sub)
	if r.Width() != 10 || r.Height() != 10 {
		t.Fatalf("size = %dx%d, want 10x10", r.Width(), r.Height())
	}
	if got, want := r.Image().RGBAAt(0, 0), base.Image().RGBAAt(5, 5); got != want {
		t.Errorf("pixel (0,0) = %v, want %v", got, want)
	}
}
