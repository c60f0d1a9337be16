// Package mjpeg serves the most recent camera frame to each connected
// viewer as a multipart/x-mixed-replace HTTP stream. Every connection
// runs its own loop against the shared frame buffer: latest wins, nothing
// is ever queued per client, so a slow viewer just sees fewer distinct
// frames.
package mjpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-jetbot/internal/log"
	"github.com/teslashibe/go-jetbot/pkg/camera"
)

// Boundary is the multipart boundary token on the wire.
const Boundary = "frame"

// DefaultInterval paces each connection at ~30fps.
const DefaultInterval = 33 * time.Millisecond

// DefaultQuality is the JPEG quality used when raw frames are encoded
// for the stream.
const DefaultQuality = 80

// ErrDisconnected marks a viewer whose socket write failed. It ends that
// connection's loop and nothing else.
var ErrDisconnected = errors.New("mjpeg: client disconnected")

// IsDisconnect reports whether err is a normal client disconnect.
func IsDisconnect(err error) bool {
	return errors.Is(err, ErrDisconnected)
}

// chunkHeader precedes each frame's bytes on the wire.
var chunkHeader = []byte("--" + Boundary + "\r\nContent-Type: image/jpeg\r\n\r\n")

var chunkTrailer = []byte("\r\n")

// flusher is satisfied by bufio.Writer, which fasthttp hands to stream
// body writers.
type flusher interface {
	Flush() error
}

// Publisher streams frames from a buffer to any number of viewers.
type Publisher struct {
	buf      *camera.Buffer
	interval time.Duration

	// encode converts raw BGR frames to JPEG for the wire. JPEG frames
	// pass through untouched.
	encode func(camera.Frame) ([]byte, error)

	viewers atomic.Int64
	logger  *slog.Logger
}

// NewPublisher creates a publisher over buf at the default frame pacing.
func NewPublisher(buf *camera.Buffer) *Publisher {
	return &Publisher{
		buf:      buf,
		interval: DefaultInterval,
		encode: func(f camera.Frame) ([]byte, error) {
			return encodeJPEG(f, DefaultQuality)
		},
		logger: log.With("component", "mjpeg"),
	}
}

// SetInterval overrides the per-connection frame pacing.
func (p *Publisher) SetInterval(d time.Duration) {
	p.interval = d
}

// SetEncoder overrides the raw-frame encoder.
func (p *Publisher) SetEncoder(encode func(camera.Frame) ([]byte, error)) {
	p.encode = encode
}

// ContentType returns the response content type for the stream.
func (p *Publisher) ContentType() string {
	return fmt.Sprintf("multipart/x-mixed-replace; boundary=%s", Boundary)
}

// Viewers returns the number of connections currently streaming.
func (p *Publisher) Viewers() int {
	return int(p.viewers.Load())
}

// Stream runs one viewer's loop: pace, fetch latest, encode if raw,
// write one multipart chunk. It returns nil when ctx is cancelled
// (server shutdown) and ErrDisconnected when the client goes away. A
// missing frame skips the iteration; the viewer simply waits.
func (p *Publisher) Stream(ctx context.Context, w io.Writer) error {
	p.viewers.Add(1)
	defer p.viewers.Add(-1)
	p.logger.Debug("viewer connected", "viewers", p.viewers.Load())
	defer func() { p.logger.Debug("viewer disconnected", "viewers", p.viewers.Load()) }()

	var lastSeq uint64
	next := time.Now()
	for {
		next = next.Add(p.interval)
		if wait := time.Until(next); wait > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
		} else {
			// A stalled write ate our slot; rebase rather than burst.
			next = time.Now()
			select {
			case <-ctx.Done():
				return nil
			default:
			}
		}

		frame, ok := p.buf.Latest()
		if !ok {
			continue
		}

		payload := frame.Data
		if frame.Format == camera.FormatBGR {
			encoded, err := p.encode(frame)
			if err != nil {
				if frame.Seq != lastSeq {
					p.logger.Warn("frame encode failed", "err", err)
				}
				lastSeq = frame.Seq
				continue
			}
			payload = encoded
		}
		lastSeq = frame.Seq

		if err := writeChunk(w, payload); err != nil {
			return fmt.Errorf("%w: %v", ErrDisconnected, err)
		}
	}
}

// writeChunk writes one boundary-delimited frame and flushes it out.
func writeChunk(w io.Writer, payload []byte) error {
	if _, err := w.Write(chunkHeader); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if _, err := w.Write(chunkTrailer); err != nil {
		return err
	}
	if f, ok := w.(flusher); ok {
		return f.Flush()
	}
	return nil
}
