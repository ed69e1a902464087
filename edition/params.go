// Package edition models the user's edits of a media item and turns them
// into picture effects and geometry.
//
// Parameters is a value object: every scalar is optional, and an unset
// value or a value equal to its default leaves the image untouched.
package edition

import (
	"image"
	"math"
)

// Orientation is the quarter-turn orientation chosen in the editor.
type Orientation string

const (
	OrientationUp    Orientation = "UP"
	OrientationRight Orientation = "RIGHT"
	OrientationDown  Orientation = "DOWN"
	OrientationLeft  Orientation = "LEFT"
)

// QuarterTurns returns the clockwise quarter turns of o.
// Unknown and empty orientations are upright.
func (o Orientation) QuarterTurns() int {
	switch o {
	case OrientationRight:
		return 1
	case OrientationDown:
		return 2
	case OrientationLeft:
		return 3
	default:
		return 0
	}
}

// CropData is a crop rectangle in source pixel coordinates.
type CropData struct {
	OriginX float64 `json:"originX"`
	OriginY float64 `json:"originY"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// Rect returns the crop scaled by s and rounded to whole pixels.
func (c CropData) Rect(s float64) image.Rectangle {
	return image.Rect(
		int(math.Round(c.OriginX*s)),
		int(math.Round(c.OriginY*s)),
		int(math.Round((c.OriginX+c.Width)*s)),
		int(math.Round((c.OriginY+c.Height)*s)),
	)
}

// Parameters holds the optional adjustments of one media item.
type Parameters struct {
	Brightness  *float64 `json:"brightness,omitempty"`
	Contrast    *float64 `json:"contrast,omitempty"`
	Highlights  *float64 `json:"highlights,omitempty"`
	Saturation  *float64 `json:"saturation,omitempty"`
	Shadow      *float64 `json:"shadow,omitempty"`
	Sharpness   *float64 `json:"sharpness,omitempty"`
	Structure   *float64 `json:"structure,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Tint        *float64 `json:"tint,omitempty"`
	Vibrance    *float64 `json:"vibrance,omitempty"`
	Vignetting  *float64 `json:"vignetting,omitempty"`
	Pitch       *float64 `json:"pitch,omitempty"`
	Roll        *float64 `json:"roll,omitempty"`
	Yaw         *float64 `json:"yaw,omitempty"`

	CropData    *CropData   `json:"cropData,omitempty"`
	Orientation Orientation `json:"orientation,omitempty"`
}

// Float returns a pointer to v, for building Parameters literals.
func Float(v float64) *float64 { return &v }

// Value returns the effective value of a parameter: clamped into its
// range, or the default when unset.
func Value(name Name, v *float64) float64 {
	s := Settings[name]
	if v == nil || math.IsNaN(*v) {
		return s.Default
	}
	return s.Clamp(*v)
}

// active reports whether a parameter changes the image.
func active(name Name, v *float64) bool {
	return v != nil && Value(name, v) != Settings[name].Default
}

// Set assigns the named parameter. Unknown names report false.
func (p *Parameters) Set(name Name, v float64) bool {
	ptr := p.field(name)
	if ptr == nil {
		return false
	}
	*ptr = Float(v)
	return true
}

// Get returns the named parameter, or nil when unset or unknown.
func (p *Parameters) Get(name Name) *float64 {
	if ptr := p.field(name); ptr != nil {
		return *ptr
	}
	return nil
}

func (p *Parameters) field(name Name) **float64 {
	switch name {
	case Brightness:
		return &p.Brightness
	case Contrast:
		return &p.Contrast
	case Highlights:
		return &p.Highlights
	case Saturation:
		return &p.Saturation
	case Shadow:
		return &p.Shadow
	case Sharpness:
		return &p.Sharpness
	case Structure:
		return &p.Structure
	case Temperature:
		return &p.Temperature
	case Tint:
		return &p.Tint
	case Vibrance:
		return &p.Vibrance
	case Vignetting:
		return &p.Vignetting
	case Pitch:
		return &p.Pitch
	case Roll:
		return &p.Roll
	case Yaw:
		return &p.Yaw
	}
	return nil
}

// Clone returns a deep copy of p. A nil receiver returns nil.
func (p *Parameters) Clone() *Parameters {
	if p == nil {
		return nil
	}
	c := &Parameters{Orientation: p.Orientation}
	for _, name := range Names() {
		if v := p.Get(name); v != nil {
			c.Set(name, *v)
		}
	}
	if p.CropData != nil {
		crop := *p.CropData
		c.CropData = &crop
	}
	return c
}

// Empty reports whether p changes nothing.
func (p *Parameters) Empty() bool {
	if p == nil {
		return true
	}
	for _, name := range Names() {
		if active(name, p.Get(name)) {
			return false
		}
	}
	return p.CropData == nil && p.Orientation.QuarterTurns() == 0
}

// Scaled returns a copy of p with the crop rescaled by s, for frames
// decoded at a reduced resolution. Non-positive scales return a plain copy.
func (p *Parameters) Scaled(s float64) *Parameters {
	c := p.Clone()
	if c == nil || c.CropData == nil || s <= 0 {
		return c
	}
	c.CropData.OriginX *= s
	c.CropData.OriginY *= s
	c.CropData.Width *= s
	c.CropData.Height *= s
	return c
}
