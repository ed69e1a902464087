// Package resolution computes the decode resolution of a media source.
//
// Negotiate takes the natural size and rotation of a source plus the
// device's maximum decode resolution and returns a Plan: the size frames
// should be decoded at and the scale between that size and the source.
// The negotiation never upscales.
package resolution

import (
	"errors"
	"fmt"
	"math"
)

// ExportDecoderCap is the largest decode dimension used for export-grade
// decoding, and the upper bound of the preview cap.
const ExportDecoderCap = 1920

// ErrInvalidDimensions is returned when the source has a non-positive
// width or height.
var ErrInvalidDimensions = errors.New("resolution: invalid source dimensions")

// Input describes a negotiation request.
type Input struct {
	SourceWidth  int
	SourceHeight int

	// Rotation in degrees. Any value is accepted and snapped to the
	// nearest quarter turn.
	Rotation float64

	// MaxDecodeResolution caps the larger output dimension.
	// Zero or negative means unconstrained.
	MaxDecodeResolution int

	// DisplayWidth and DisplayHeight are the requested display size in
	// physical pixels. Zero means unknown.
	DisplayWidth  int
	DisplayHeight int
}

// Plan is the outcome of a negotiation.
type Plan struct {
	TargetWidth  int
	TargetHeight int

	// Rotation is one of 0, 90, 180, 270.
	Rotation int

	// VideoScale is clamped / original along the larger dimension, in (0, 1].
	VideoScale float64

	// DisplayScale is the cover factor from the target size to the
	// requested display size, or 0 when no display size was requested.
	DisplayScale float64
}

// Swapped reports whether the plan's rotation swaps width and height.
func (p Plan) Swapped() bool {
	return p.Rotation == 90 || p.Rotation == 270
}

// String implements fmt.Stringer.
func (p Plan) String() string {
	return fmt.Sprintf("%dx%d rot=%d scale=%.4g", p.TargetWidth, p.TargetHeight, p.Rotation, p.VideoScale)
}

// Negotiate computes the decode plan for in.
//
// Width and height are swapped for 90 and 270 degree rotations, then the
// larger dimension is clamped to MaxDecodeResolution with the aspect ratio
// preserved and both dimensions rounded to even integers.
// Negotiate is pure: identical inputs give identical plans.
func Negotiate(in Input) (Plan, error) {
	if in.SourceWidth <= 0 || in.SourceHeight <= 0 {
		return Plan{}, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, in.SourceWidth, in.SourceHeight)
	}

	rot := NormalizeRotation(in.Rotation)
	w, h := in.SourceWidth, in.SourceHeight
	if rot == 90 || rot == 270 {
		w, h = h, w
	}

	plan := Plan{
		TargetWidth:  w,
		TargetHeight: h,
		Rotation:     rot,
		VideoScale:   1,
	}

	larger := max(w, h)
	if in.MaxDecodeResolution > 0 && larger > in.MaxDecodeResolution {
		scale := float64(in.MaxDecodeResolution) / float64(larger)
		plan.TargetWidth = roundEven(float64(w)*scale, in.MaxDecodeResolution)
		plan.TargetHeight = roundEven(float64(h)*scale, in.MaxDecodeResolution)
		plan.VideoScale = float64(max(plan.TargetWidth, plan.TargetHeight)) / float64(larger)
		if plan.VideoScale > 1 {
			plan.VideoScale = 1
		}
	}

	if in.DisplayWidth > 0 && in.DisplayHeight > 0 {
		plan.DisplayScale = math.Max(
			float64(in.DisplayWidth)/float64(plan.TargetWidth),
			float64(in.DisplayHeight)/float64(plan.TargetHeight),
		)
	}
	return plan, nil
}

// NormalizeRotation snaps degrees to the nearest quarter turn in [0, 360).
func NormalizeRotation(degrees float64) int {
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return 0
	}
	q := int(math.Round(degrees/90)) % 4
	if q < 0 {
		q += 4
	}
	return q * 90
}

// DisplayDecoderCap returns the decode cap used for on-screen previews:
// half the window height in physical pixels, bounded by ExportDecoderCap.
func DisplayDecoderCap(windowHeight, pixelRatio float64) int {
	if windowHeight <= 0 || pixelRatio <= 0 {
		return ExportDecoderCap
	}
	c := int(windowHeight / 2 * pixelRatio)
	if c <= 0 {
		return ExportDecoderCap
	}
	return min(c, ExportDecoderCap)
}

// roundEven rounds v to the nearest even integer not above limit,
// never below 2.
func roundEven(v float64, limit int) int {
	n := int(math.Round(v/2)) * 2
	if n > limit {
		n -= 2
	}
	if n < 2 {
		return 2
	}
	return n
}
