// Package raster provides the in-memory pixel buffer for rendered document pages.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"doc-annotator/pkg/geometry"

	_ "golang.org/x/image/tiff"
)

// Raster is a mutable RGBA pixel buffer with its origin at (0, 0).
type Raster struct {
	img *image.RGBA
}

// New creates a raster of the given size with all pixels zeroed.
func New(width, height int) *Raster {
	return &Raster{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// NewFilled creates a raster of the given size filled with a single color.
func NewFilled(width, height int, c color.RGBA) *Raster {
	r := New(width, height)
	draw.Draw(r.img, r.img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return r
}

// FromImage copies an image into a new raster, normalizing its origin to (0, 0).
func FromImage(src image.Image) *Raster {
	b := src.Bounds()
	r := New(b.Dx(), b.Dy())
	draw.Draw(r.img, r.img.Bounds(), src, b.Min, draw.Src)
	return r
}

// FromFile loads an image file into a raster.
func FromFile(path string) (*Raster, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img), nil
}

// Width returns the raster width in pixels.
func (r *Raster) Width() int {
	return r.img.Bounds().Dx()
}

// Height returns the raster height in pixels.
func (r *Raster) Height() int {
	return r.img.Bounds().Dy()
}

// Image returns the underlying pixel buffer. Callers that mutate it share the
// raster's storage.
func (r *Raster) Image() *image.RGBA {
	return r.img
}

// Clone returns an independent copy of the raster.
func (r *Raster) Clone() *Raster {
	out := New(r.Width(), r.Height())
	copy(out.img.Pix, r.img.Pix)
	return out
}

// CopyRegion copies a rectangular region into a new raster. The region is
// clamped to the raster bounds first; a region that clamps away to nothing
// returns nil.
func (r *Raster) CopyRegion(rect geometry.RectInt) *Raster {
	c := rect.ClampTo(r.Width(), r.Height())
	if c.Empty() {
		return nil
	}
	out := New(c.Width, c.Height)
	draw.Draw(out.img, out.img.Bounds(), r.img, image.Pt(c.X, c.Y), draw.Src)
	return out
}

// Blit copies src into the raster at (x, y), overwriting destination pixels
// without alpha blending. Pixels falling outside the raster are clipped.
func (r *Raster) Blit(src *Raster, x, y int) {
	dstRect := image.Rect(x, y, x+src.Width(), y+src.Height())
	draw.Draw(r.img, dstRect, src.img, image.Point{}, draw.Src)
}

// FillCircle fills a circle with the given color. Pixels outside the raster
// are skipped, so circles may extend past any edge.
func (r *Raster) FillCircle(cx, cy, radius int, c color.RGBA) {
	bounds := r.img.Bounds()

	for y := cy - radius; y <= cy+radius; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := cx - radius; x <= cx+radius; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				r.img.SetRGBA(x, y, c)
			}
		}
	}
}
