// Package stroke defines annotation strokes and their pixel operations.
//
// A stroke is a single brush dab on a page raster; an action groups the
// strokes of one continuous drag gesture under a shared kind. Blur strokes
// soften a square region around the brush center; erase strokes paint an
// opaque white circle. Both are value types so they can be persisted and
// replayed.
package stroke

import (
	"doc-annotator/pkg/geometry"
)

// Kind identifies the stroke operation.
type Kind string

const (
	KindBlur  Kind = "blur"
	KindErase Kind = "erase"
)

// Valid reports whether the kind is one of the known stroke operations.
func (k Kind) Valid() bool {
	return k == KindBlur || k == KindErase
}

// Stroke is one brush dab in raster coordinates. X, Y is the brush center
// and Size the brush diameter in pixels. Intensity is the blur strength and
// is ignored for erase strokes.
type Stroke struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Size      int     `json:"size"`
	Intensity float64 `json:"intensity,omitempty"`
}

// Region returns the square brush region in raster coordinates, before any
// clamping to the raster bounds.
func (s Stroke) Region() geometry.RectInt {
	half := s.Size / 2
	return geometry.RectInt{X: s.X - half, Y: s.Y - half, Width: s.Size, Height: s.Size}
}

// Radius returns the brush radius in pixels.
func (s Stroke) Radius() int {
	return s.Size / 2
}

// Action is one committed drag gesture: an ordered run of strokes sharing a
// kind. Actions are immutable once appended to the edit log.
type Action struct {
	Kind    Kind     `json:"kind"`
	Strokes []Stroke `json:"strokes"`
}

// Empty reports whether the action carries no strokes.
func (a Action) Empty() bool {
	return len(a.Strokes) == 0
}
