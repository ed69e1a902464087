package picture

import "image"

// Recorder captures drawing operations as commands.
// Use FinishRecording to obtain an immutable Picture.
//
// The Recorder is not safe for concurrent use.
type Recorder struct {
	width, height int
	commands      []Command
}

// NewRecorder creates a Recorder for a surface of the given size.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{
		width:    width,
		height:   height,
		commands: make([]Command, 0, 8),
	}
}

// Width returns the surface width.
func (r *Recorder) Width() int { return r.width }

// Height returns the surface height.
func (r *Recorder) Height() int { return r.height }

// DrawPaint records a full-surface fill.
func (r *Recorder) DrawPaint(p Paint) {
	r.commands = append(r.commands, DrawPaintCommand{Paint: p.clone()})
}

// DrawImage records an image draw. A nil image is ignored.
func (r *Recorder) DrawImage(img image.Image, g Geometry, p Paint) {
	if img == nil {
		return
	}
	r.commands = append(r.commands, DrawImageCommand{Image: img, Geometry: g, Paint: p.clone()})
}

// Len returns the number of commands recorded so far.
func (r *Recorder) Len() int { return len(r.commands) }

// FinishRecording returns an immutable Picture of everything recorded.
// The Recorder is reset and may be reused for the next frame.
func (r *Recorder) FinishRecording() *Picture {
	p := &Picture{
		width:    r.width,
		height:   r.height,
		commands: r.commands,
	}
	r.commands = make([]Command, 0, len(p.commands))
	return p
}

// Picture is an immutable recorded frame.
// A Picture is safe for concurrent playback.
type Picture struct {
	width, height int
	commands      []Command
}

// Width returns the surface width of the picture.
func (p *Picture) Width() int { return p.width }

// Height returns the surface height of the picture.
func (p *Picture) Height() int { return p.height }

// Len returns the number of recorded commands.
func (p *Picture) Len() int { return len(p.commands) }

// Empty reports whether nothing was drawn.
func (p *Picture) Empty() bool { return len(p.commands) == 0 }

// Commands returns a copy of the recorded commands.
func (p *Picture) Commands() []Command {
	return append([]Command(nil), p.commands...)
}

// Playback replays the picture onto backend.
func (p *Picture) Playback(backend Backend) error {
	if err := backend.Begin(p.width, p.height); err != nil {
		return err
	}
	for _, cmd := range p.commands {
		switch c := cmd.(type) {
		case DrawPaintCommand:
			backend.DrawPaint(c.Paint)
		case DrawImageCommand:
			backend.DrawImage(c.Image, c.Geometry, c.Paint)
		}
	}
	return backend.End()
}
