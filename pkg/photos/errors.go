package photos

import (
	"errors"
	"fmt"
)

// Sentinel errors for photo operations.
var (
	// ErrRateLimited is returned when a capture arrives before the minimum
	// interval since the last accepted capture has elapsed. It is a
	// caller-visible rejection, not a pipeline error state.
	ErrRateLimited = errors.New("photos: capture rate limited")

	// ErrNoFrame is returned when no frame is available to capture.
	ErrNoFrame = errors.New("photos: no frame available")

	// ErrInvalidSide is returned for a side other than left or right.
	ErrInvalidSide = errors.New("photos: invalid side")

	// ErrInvalidName rejects filenames that could escape the photo dirs.
	ErrInvalidName = errors.New("photos: invalid photo name")
)

// CaptureError reports a failed capture attempt with the stage that broke.
type CaptureError struct {
	Stage string // "encode", "write", "fallback"
	Err   error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("photos: capture failed at %s: %v", e.Stage, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether err is a rate-limit rejection.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
