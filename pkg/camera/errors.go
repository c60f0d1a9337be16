package camera

import (
	"errors"
	"fmt"
)

// Sentinel errors for camera operations.
var (
	// ErrAlreadyRunning is returned when Start is called on a running source.
	ErrAlreadyRunning = errors.New("camera: source already running")

	// ErrNotStarted is returned by operations that need a running source.
	ErrNotStarted = errors.New("camera: source not started")

	// ErrNoFrame is returned when no frame is available yet.
	ErrNoFrame = errors.New("camera: no frame available")

	// ErrProcessExited indicates the encoder process stopped on its own.
	ErrProcessExited = errors.New("camera: encoder process exited")

	// ErrStillTimeout indicates a one-shot capture did not produce a file
	// within the deadline.
	ErrStillTimeout = errors.New("camera: still capture timed out")
)

// StartupError reports a pipeline that failed to launch.
type StartupError struct {
	Cmd string
	Err error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("camera: failed to start %s: %v", e.Cmd, e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}

// ParseError reports a malformed span in the encoder stream. The stream
// resynchronizes after a ParseError; it is logged, never fatal.
type ParseError struct {
	Reason string
	Size   int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("camera: malformed frame span (%s, %d bytes)", e.Reason, e.Size)
}

// IsStartup reports whether err wraps a StartupError.
func IsStartup(err error) bool {
	var se *StartupError
	return errors.As(err, &se)
}
