package picture

import "image"

// CommandType identifies the type of a command.
type CommandType uint8

const (
	CmdDrawPaint CommandType = iota // Fill the surface with a colour
	CmdDrawImage                    // Draw a laid-out image
)

var commandTypeNames = [...]string{
	CmdDrawPaint: "DrawPaint",
	CmdDrawImage: "DrawImage",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is the interface implemented by all command types.
type Command interface {
	Type() CommandType
}

// DrawPaintCommand fills the whole surface.
type DrawPaintCommand struct {
	Paint Paint
}

// Type implements Command.
func (DrawPaintCommand) Type() CommandType { return CmdDrawPaint }

// DrawImageCommand draws an image covering the surface.
type DrawImageCommand struct {
	Image    image.Image
	Geometry Geometry
	Paint    Paint
}

// Type implements Command.
func (DrawImageCommand) Type() CommandType { return CmdDrawImage }
