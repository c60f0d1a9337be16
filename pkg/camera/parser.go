package camera

import (
	"bufio"
	"bytes"
	"io"
)

// In-band JPEG framing markers.
var (
	soiMarker = []byte{0xFF, 0xD8} // start of image
	eoiMarker = []byte{0xFF, 0xD9} // end of image
)

// Scanner buffer sizing. 720p JPEG frames stay well under 1MB; the max
// leaves headroom for quality spikes before the scanner errors out.
const (
	scanBufInitial = 512 * 1024
	scanBufMax     = 4 * 1024 * 1024
)

// scanJPEG returns a bufio.SplitFunc that yields whole SOI..EOI spans,
// markers included. Bytes before a start marker are discarded. Spans at or
// below minSize are treated as spurious marker collisions: they are skipped
// in place and reported through onSkip, and the scan resumes at the next
// start marker. A span that would overflow the scanner's buffer (its end
// marker lost in the stream) is abandoned the same way, so the scan always
// makes progress and the scanner never returns ErrTooLong.
func scanJPEG(minSize int, onSkip func(*ParseError)) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		start := bytes.Index(data, soiMarker)
		if start < 0 {
			if atEOF {
				return len(data), nil, nil
			}
			// Keep the last byte: it may be the first half of a marker.
			if len(data) > 1 {
				return len(data) - 1, nil, nil
			}
			return 0, nil, nil
		}

		end := bytes.Index(data[start+len(soiMarker):], eoiMarker)
		if end < 0 {
			if atEOF {
				// Truncated span at stream end, nothing more to emit.
				return len(data), nil, nil
			}
			if len(data)-start >= scanBufMax {
				// The end marker never came. Abandon the span and
				// resynchronize at the next start marker inside it, or
				// failing that, past everything buffered.
				if onSkip != nil {
					onSkip(&ParseError{Reason: "oversized span", Size: len(data) - start})
				}
				next := bytes.Index(data[start+len(soiMarker):], soiMarker)
				if next >= 0 {
					return start + len(soiMarker) + next, nil, nil
				}
				return len(data) - 1, nil, nil
			}
			// Drop the garbage prefix now so the buffer holds only the
			// partial span while we wait for its end marker.
			return start, nil, nil
		}

		spanLen := len(soiMarker) + end + len(eoiMarker)
		advance := start + spanLen
		if spanLen <= minSize {
			if onSkip != nil {
				onSkip(&ParseError{Reason: "undersized span", Size: spanLen})
			}
			return advance, nil, nil
		}
		return advance, data[start : start+spanLen], nil
	}
}

// parseMarkers reads a marker-delimited JPEG stream until r is exhausted,
// calling emit with an owned copy of every well-formed frame. Malformed
// spans are reported through onErr and skipped; the parser never emits a
// partial frame. Returns the scanner's error, or nil at clean EOF.
func parseMarkers(r io.Reader, minSize int, emit func([]byte), onErr func(*ParseError)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, scanBufInitial), scanBufMax)
	scanner.Split(scanJPEG(minSize, onErr))

	for scanner.Scan() {
		// The token aliases the scanner's buffer; hand out a copy.
		token := scanner.Bytes()
		frame := make([]byte, len(token))
		copy(frame, token)
		emit(frame)
	}
	return scanner.Err()
}

// parseRaw reads fixed-size frames until r is exhausted, calling emit with
// a freshly allocated buffer per frame. A short read is dropped and
// reported through onErr without advancing the frame count; it never
// produces a partial frame. Returns io.EOF when the stream ends cleanly.
func parseRaw(r io.Reader, frameSize int, emit func([]byte), onErr func(*ParseError)) error {
	for {
		buf := make([]byte, frameSize)
		n, err := io.ReadFull(r, buf)
		switch err {
		case nil:
			emit(buf)
		case io.ErrUnexpectedEOF:
			if onErr != nil {
				onErr(&ParseError{Reason: "short read", Size: n})
			}
			// No frame this iteration; the next read observes the
			// stream's end state.
		default:
			return err
		}
	}
}
