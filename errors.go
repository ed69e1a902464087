package ggmedia

import (
	"errors"
	"fmt"
)

// Error kinds. An *Error unwraps to its kind, so callers test the kind
// with errors.Is.
var (
	// ErrAssetLoad means an image or lookup table could not be fetched or
	// decoded. It only reaches the caller for the primary source.
	ErrAssetLoad = errors.New("ggmedia: asset load failed")

	// ErrDecode means the video extractor failed. It ends the session.
	ErrDecode = errors.New("ggmedia: decode failed")

	// ErrResolution means the source has unusable dimensions. Nothing is
	// drawn for such a source.
	ErrResolution = errors.New("ggmedia: invalid source resolution")

	// ErrNoSource means a source kind has no component to decode it, for
	// example a video without an extractor factory.
	ErrNoSource = errors.New("ggmedia: no decoder for source")

	// ErrDisposed is returned by calls on an unmounted preview.
	ErrDisposed = errors.New("ggmedia: preview not mounted")
)

// Error is a failure of one source of a session.
type Error struct {
	Kind error
	URI  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%v: %s", e.Kind, e.URI)
	}
	return fmt.Sprintf("%v: %s: %v", e.Kind, e.URI, e.Err)
}

// Unwrap returns the kind and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, uri string, err error) *Error {
	return &Error{Kind: kind, URI: uri, Err: err}
}
