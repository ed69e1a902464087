package edition

import "github.com/gogpu/ggmedia/picture"

// Geometry returns the placement of a layer edited with p.
// scale maps source pixel coordinates to the decoded frame, the
// ResolutionPlan's VideoScale for reduced-resolution video.
func Geometry(p *Parameters, scale float64) picture.Geometry {
	if p == nil {
		return picture.Geometry{}
	}
	if scale <= 0 {
		scale = 1
	}
	g := picture.Geometry{QuarterTurns: p.Orientation.QuarterTurns()}
	if p.CropData != nil && p.CropData.Width > 0 && p.CropData.Height > 0 {
		g.Crop = p.CropData.Rect(scale)
	}
	if active(Roll, p.Roll) {
		g.Roll = Value(Roll, p.Roll)
	}
	return g
}
