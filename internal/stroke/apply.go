package stroke

import (
	"github.com/disintegration/imaging"

	"doc-annotator/internal/raster"
	"doc-annotator/pkg/colorutil"
)

// ApplyBlur copies the brush region out of the pristine raster, blurs it,
// and blits the result over the working raster at the clamped region origin.
// Reading from pristine only means overlapping or repeated blurs never
// compound. Strokes whose region misses the raster entirely are no-ops.
func ApplyBlur(working, pristine *raster.Raster, s Stroke) {
	region := s.Region().ClampTo(pristine.Width(), pristine.Height())
	if region.Empty() {
		return
	}

	src := pristine.CopyRegion(region)
	if src == nil {
		return
	}

	blurred := imaging.Blur(src.Image(), s.Intensity)
	working.Blit(raster.FromImage(blurred), region.X, region.Y)
}

// ApplyErase paints an opaque white circle onto the working raster. The fill
// is hard-edged, so repeating the same stroke changes nothing.
func ApplyErase(working *raster.Raster, s Stroke) {
	working.FillCircle(s.X, s.Y, s.Radius(), colorutil.White)
}

// Apply runs every stroke of the action in order against the raster pair.
func (a Action) Apply(working, pristine *raster.Raster) {
	for _, s := range a.Strokes {
		switch a.Kind {
		case KindBlur:
			ApplyBlur(working, pristine, s)
		case KindErase:
			ApplyErase(working, s)
		}
	}
}
