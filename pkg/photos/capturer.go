package photos

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/teslashibe/go-jetbot/internal/log"
	"github.com/teslashibe/go-jetbot/pkg/camera"
)

// Capturer defaults. Training images are normalized to a fixed square
// resolution so the dataset is homogeneous regardless of capture mode.
const (
	DefaultMinInterval = 500 * time.Millisecond
	TrainingWidth      = 224
	TrainingHeight     = 224
	TrainingQuality    = 95
)

// Capturer takes the latest buffered frame, re-encodes it to the training
// resolution, and writes it atomically into the store. Captures are rate
// limited: one request per MinInterval, first caller wins, measured from
// the last successful capture.
type Capturer struct {
	buf   *camera.Buffer
	store *Store

	minInterval time.Duration

	// encode turns a frame into the final JPEG bytes. Overridable so
	// tests run without an OpenCV runtime.
	encode func(camera.Frame) ([]byte, error)

	// Fallback, if set, is used when no buffered frame is available: it
	// must write a JPEG to the given path (the one-shot capture path used
	// when no persistent pipeline runs).
	Fallback func(path string) error

	rateMu       sync.Mutex
	lastAccepted time.Time
}

// NewCapturer creates a capturer reading from buf and writing into store.
func NewCapturer(buf *camera.Buffer, store *Store) *Capturer {
	return &Capturer{
		buf:         buf,
		store:       store,
		minInterval: DefaultMinInterval,
		encode: func(f camera.Frame) ([]byte, error) {
			return encodeTraining(f, TrainingWidth, TrainingHeight, TrainingQuality)
		},
	}
}

// SetMinInterval overrides the rate limit interval.
func (c *Capturer) SetMinInterval(d time.Duration) {
	c.rateMu.Lock()
	c.minInterval = d
	c.rateMu.Unlock()
}

// SetEncoder overrides the frame encoder.
func (c *Capturer) SetEncoder(encode func(camera.Frame) ([]byte, error)) {
	c.encode = encode
}

// Capture persists the current frame as a training photo for side and
// returns the stored filename. Requests inside the rate-limit interval
// are rejected with ErrRateLimited. Concurrent requests admit one at a
// time, but the interval is measured from the last successful capture:
// a failed attempt releases its slot so the next press can retry
// immediately.
func (c *Capturer) Capture(side string) (string, error) {
	if !ValidSide(side) {
		return "", ErrInvalidSide
	}

	c.rateMu.Lock()
	now := time.Now()
	if !c.lastAccepted.IsZero() && now.Sub(c.lastAccepted) < c.minInterval {
		c.rateMu.Unlock()
		return "", ErrRateLimited
	}
	prev := c.lastAccepted
	c.lastAccepted = now
	c.rateMu.Unlock()

	// release returns the slot when the capture fails, so a broken
	// encoder or full disk does not lock out the retry.
	release := func() {
		c.rateMu.Lock()
		if c.lastAccepted.Equal(now) {
			c.lastAccepted = prev
		}
		c.rateMu.Unlock()
	}

	name := c.store.NewName(side, now)
	path, err := c.store.Path(side, name)
	if err != nil {
		release()
		return "", err
	}

	frame, ok := c.buf.Latest()
	if !ok {
		if c.Fallback == nil {
			release()
			return "", ErrNoFrame
		}
		if err := c.Fallback(path); err != nil {
			release()
			return "", &CaptureError{Stage: "fallback", Err: err}
		}
		log.Debug("captured photo via one-shot fallback", "side", side, "name", name)
		return name, nil
	}

	data, err := c.encode(frame)
	if err != nil {
		release()
		return "", &CaptureError{Stage: "encode", Err: err}
	}

	if err := writeAtomic(path, data); err != nil {
		release()
		return "", &CaptureError{Stage: "write", Err: err}
	}

	log.Debug("captured photo", "side", side, "name", name, "bytes", len(data))
	return name, nil
}

// writeAtomic writes data to a temp file in the target directory and
// renames it into place, so concurrent readers of the photo directory
// never observe a partial file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".capture-*.jpg.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
