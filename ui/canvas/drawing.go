package canvas

import (
	"image"
	"image/color"
)

// drawRectOutline draws a rectangle outline with the given thickness.
func drawRectOutline(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	bounds := output.Bounds()

	for t := 0; t < thickness; t++ {
		// Top edge
		for x := x1; x <= x2; x++ {
			if x >= bounds.Min.X && x < bounds.Max.X && y1+t >= bounds.Min.Y && y1+t < bounds.Max.Y {
				output.SetRGBA(x, y1+t, col)
			}
		}
		// Bottom edge
		for x := x1; x <= x2; x++ {
			if x >= bounds.Min.X && x < bounds.Max.X && y2-t >= bounds.Min.Y && y2-t < bounds.Max.Y {
				output.SetRGBA(x, y2-t, col)
			}
		}
		// Left edge
		for y := y1; y <= y2; y++ {
			if x1+t >= bounds.Min.X && x1+t < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
				output.SetRGBA(x1+t, y, col)
			}
		}
		// Right edge
		for y := y1; y <= y2; y++ {
			if x2-t >= bounds.Min.X && x2-t < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
				output.SetRGBA(x2-t, y, col)
			}
		}
	}
}

// drawDashedRect draws a dashed rectangle outline (alternate pixel runs).
func drawDashedRect(output *image.RGBA, x1, y1, x2, y2 int, col color.RGBA) {
	bounds := output.Bounds()

	// Top edge
	for x := x1; x <= x2; x++ {
		if (x+y1)%6 < 3 && x >= bounds.Min.X && x < bounds.Max.X && y1 >= bounds.Min.Y && y1 < bounds.Max.Y {
			output.SetRGBA(x, y1, col)
		}
	}
	// Bottom edge
	for x := x1; x <= x2; x++ {
		if (x+y2)%6 < 3 && x >= bounds.Min.X && x < bounds.Max.X && y2 >= bounds.Min.Y && y2 < bounds.Max.Y {
			output.SetRGBA(x, y2, col)
		}
	}
	// Left edge
	for y := y1; y <= y2; y++ {
		if (x1+y)%6 < 3 && x1 >= bounds.Min.X && x1 < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
			output.SetRGBA(x1, y, col)
		}
	}
	// Right edge
	for y := y1; y <= y2; y++ {
		if (x2+y)%6 < 3 && x2 >= bounds.Min.X && x2 < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
			output.SetRGBA(x2, y, col)
		}
	}
}

// drawCircleOutline draws a ring two pixels thick centered at (cx, cy).
func drawCircleOutline(output *image.RGBA, cx, cy, radius float64, col color.RGBA) {
	bounds := output.Bounds()

	minX := int(cx - radius - 1)
	maxX := int(cx + radius + 1)
	minY := int(cy - radius - 1)
	maxY := int(cy + radius + 1)

	r2 := radius * radius
	inner := radius - 2
	if inner < 0 {
		inner = 0
	}
	innerR2 := inner * inner

	for y := minY; y <= maxY; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := minX; x <= maxX; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			dx := float64(x) - cx
			dy := float64(y) - cy
			dist2 := dx*dx + dy*dy
			if dist2 <= r2 && dist2 >= innerR2 {
				output.SetRGBA(x, y, col)
			}
		}
	}
}

// blendPixel source-over composites src onto output at (x, y). src carries
// premultiplied alpha, the image.RGBA convention. Fully opaque and fully
// transparent pixels take the fast path.
func blendPixel(output *image.RGBA, x, y int, src color.RGBA) {
	if src.A == 255 {
		output.SetRGBA(x, y, src)
		return
	}
	if src.A == 0 {
		return
	}

	dst := output.RGBAAt(x, y)
	inv := float64(255-src.A) / 255
	output.SetRGBA(x, y, color.RGBA{
		R: uint8(float64(src.R) + float64(dst.R)*inv),
		G: uint8(float64(src.G) + float64(dst.G)*inv),
		B: uint8(float64(src.B) + float64(dst.B)*inv),
		A: 255,
	})
}
