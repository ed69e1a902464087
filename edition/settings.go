package edition

import "math"

// Name identifies an adjustable parameter.
type Name string

const (
	Brightness  Name = "brightness"
	Contrast    Name = "contrast"
	Highlights  Name = "highlights"
	Saturation  Name = "saturation"
	Shadow      Name = "shadow"
	Sharpness   Name = "sharpness"
	Structure   Name = "structure"
	Temperature Name = "temperature"
	Tint        Name = "tint"
	Vibrance    Name = "vibrance"
	Vignetting  Name = "vignetting"
	Pitch       Name = "pitch"
	Roll        Name = "roll"
	Yaw         Name = "yaw"
)

// Setting is the editor range of a parameter.
type Setting struct {
	Default float64
	Min     float64
	Max     float64
	Step    float64
}

// Clamp limits v to [Min, Max].
func (s Setting) Clamp(v float64) float64 {
	return math.Max(s.Min, math.Min(s.Max, v))
}

// Settings lists the range of every parameter.
var Settings = map[Name]Setting{
	Brightness:  {Default: 0, Min: -0.5, Max: 0.5, Step: 0.025},
	Contrast:    {Default: 1, Min: 0.5, Max: 1.5, Step: 0.025},
	Highlights:  {Default: 1, Min: 0, Max: 2, Step: 0.025},
	Saturation:  {Default: 1, Min: 0, Max: 2, Step: 0.05},
	Shadow:      {Default: 0, Min: -1, Max: 1, Step: 0.05},
	Sharpness:   {Default: 0, Min: -2, Max: 2, Step: 0.05},
	Structure:   {Default: 0, Min: -2, Max: 2, Step: 0.05},
	Temperature: {Default: 6500, Min: 2000, Max: 11000, Step: 225},
	Tint:        {Default: 0, Min: -150, Max: 150, Step: 5},
	Vibrance:    {Default: 0, Min: -1, Max: 1, Step: 0.05},
	Vignetting:  {Default: 0, Min: 0, Max: 2, Step: 0.05},
	Pitch:       {Default: 0, Min: -45, Max: 45, Step: 1},
	Roll:        {Default: 0, Min: -20, Max: 20, Step: 1},
	Yaw:         {Default: 0, Min: -45, Max: 45, Step: 1},
}

var names = []Name{
	Brightness, Contrast, Highlights, Saturation, Shadow, Sharpness, Structure,
	Temperature, Tint, Vibrance, Vignetting, Pitch, Roll, Yaw,
}

// Names returns every parameter name in a stable order.
func Names() []Name {
	return append([]Name(nil), names...)
}
