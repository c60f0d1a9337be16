package camera

import "time"

// Format identifies the pixel layout of a frame's payload.
type Format int

const (
	// FormatJPEG means Data holds a complete encoded JPEG image.
	FormatJPEG Format = iota
	// FormatBGR means Data holds raw 8-bit BGR pixels, row-major.
	FormatBGR
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatBGR:
		return "bgr"
	default:
		return "unknown"
	}
}

// Frame is one decoded image unit. Frames are immutable once published:
// the buffer hands out copies, never aliases into live memory.
type Frame struct {
	Data      []byte
	Format    Format
	Width     int
	Height    int
	Seq       uint64
	Timestamp time.Time
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	data := make([]byte, len(f.Data))
	copy(data, f.Data)
	f.Data = data
	return f
}

// Size returns the payload size in bytes.
func (f Frame) Size() int {
	return len(f.Data)
}
