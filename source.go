package ggmedia

import (
	"fmt"
	"time"
)

// Kind is the kind of a media source.
type Kind uint8

const (
	// KindImage is a still image.
	KindImage Kind = iota
	// KindVideo is a video played in a loop.
	KindVideo
	// KindVideoFrame is a single frame extracted from a video.
	KindVideoFrame
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVideo:
		return "video"
	case KindVideoFrame:
		return "videoFrame"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Source describes the primary media of a preview. The zero Source is
// no source.
type Source struct {
	URI  string
	Kind Kind

	// Width and Height are the natural size of a video. Images are
	// measured once decoded.
	Width  int
	Height int
	// Rotation of the video track in degrees.
	Rotation float64

	// Time is the position of a video frame.
	Time time.Duration
	// StartTime and Duration trim a video. A zero Duration plays to the end.
	StartTime time.Duration
	Duration  time.Duration
}

// Image returns an image source.
func Image(uri string) Source {
	return Source{URI: uri, Kind: KindImage}
}

// Video returns a video source.
func Video(uri string, width, height int, rotation float64) Source {
	return Source{URI: uri, Kind: KindVideo, Width: width, Height: height, Rotation: rotation}
}

// VideoFrame returns the frame of a video at time at.
func VideoFrame(uri string, width, height int, rotation float64, at time.Duration) Source {
	return Source{URI: uri, Kind: KindVideoFrame, Width: width, Height: height, Rotation: rotation, Time: at}
}

// Trim returns s limited to duration starting at start.
func (s Source) Trim(start, duration time.Duration) Source {
	s.StartTime, s.Duration = start, duration
	return s
}

// IsZero reports whether s is no source.
func (s Source) IsZero() bool { return s.URI == "" }

// Identity returns the key that decides whether two sources can share a
// session. A new trim needs a new extractor, so it is part of the key of
// videos.
func (s Source) Identity() string {
	switch s.Kind {
	case KindVideoFrame:
		return fmt.Sprintf("%v:%s@%d", s.Kind, s.URI, s.Time)
	case KindVideo:
		return fmt.Sprintf("%v:%s[%d+%d]", s.Kind, s.URI, s.StartTime, s.Duration)
	}
	return fmt.Sprintf("%v:%s", s.Kind, s.URI)
}
