package camera

import (
	"sync"
	"time"
)

// DefaultStaleAfter bounds how long the last known frame is still served
// after the producer stops updating.
const DefaultStaleAfter = 2 * time.Second

// Buffer is a single-slot cache of the most recent frame. One producer
// overwrites the slot; any number of readers take copies. The lock covers
// only the swap and the copy, never I/O or encoding.
type Buffer struct {
	mu         sync.RWMutex
	frame      Frame
	hasFrame   bool
	published  time.Time
	seq        uint64
	staleAfter time.Duration
}

// NewBuffer creates a frame buffer with the default staleness window.
func NewBuffer() *Buffer {
	return &Buffer{staleAfter: DefaultStaleAfter}
}

// NewBufferWithStaleness creates a frame buffer that stops serving frames
// older than staleAfter. Zero disables the staleness check.
func NewBufferWithStaleness(staleAfter time.Duration) *Buffer {
	return &Buffer{staleAfter: staleAfter}
}

// Publish stores frame as the latest, overwriting any previous frame.
// Never blocks on readers beyond the swap itself.
func (b *Buffer) Publish(frame Frame) {
	now := time.Now()
	b.mu.Lock()
	b.seq++
	frame.Seq = b.seq
	if frame.Timestamp.IsZero() {
		frame.Timestamp = now
	}
	b.frame = frame
	b.hasFrame = true
	b.published = now
	b.mu.Unlock()
}

// Latest returns a copy of the most recent frame. The second return is
// false when nothing has been published yet or the newest frame has aged
// past the staleness window.
func (b *Buffer) Latest() (Frame, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.hasFrame {
		return Frame{}, false
	}
	if b.staleAfter > 0 && time.Since(b.published) > b.staleAfter {
		return Frame{}, false
	}
	return b.frame.Clone(), true
}

// Seq returns the sequence number of the most recent publish.
func (b *Buffer) Seq() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.seq
}

// WaitForFrame polls until a frame is available or the timeout elapses.
func (b *Buffer) WaitForFrame(timeout time.Duration) (Frame, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if frame, ok := b.Latest(); ok {
			return frame, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return Frame{}, ErrNoFrame
}
