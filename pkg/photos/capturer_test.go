package photos

import (
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-jetbot/pkg/camera"
)

// passthroughEncoder skips the OpenCV resize path so tests run anywhere.
func passthroughEncoder(f camera.Frame) ([]byte, error) {
	return f.Data, nil
}

func newTestCapturer(t *testing.T) (*Capturer, *camera.Buffer, *Store) {
	t.Helper()
	store := newTestStore(t)
	buf := camera.NewBuffer()
	c := NewCapturer(buf, store)
	c.SetEncoder(passthroughEncoder)
	return c, buf, store
}

func publishFrame(buf *camera.Buffer, payload string) {
	buf.Publish(camera.Frame{Data: []byte(payload), Format: camera.FormatJPEG})
}

func TestCapturer_WritesPhoto(t *testing.T) {
	c, buf, store := newTestCapturer(t)
	publishFrame(buf, "jpeg-bytes")

	name, err := c.Capture(SideLeft)
	if err != nil {
		t.Fatalf("Capture error: %v", err)
	}
	if !strings.HasPrefix(name, "left_") || !strings.HasSuffix(name, ".jpg") {
		t.Errorf("name = %q, want left_*.jpg", name)
	}

	path, _ := store.Path(SideLeft, name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read photo: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("photo content = %q, want jpeg-bytes", data)
	}

	// No temp files left behind.
	photos, _ := store.List(SideLeft)
	if len(photos) != 1 {
		t.Errorf("stored photos = %d, want 1", len(photos))
	}
}

func TestCapturer_RateLimitScenario(t *testing.T) {
	c, buf, _ := newTestCapturer(t)
	c.SetMinInterval(100 * time.Millisecond)
	publishFrame(buf, "x")

	// t=0: accepted.
	if _, err := c.Capture(SideLeft); err != nil {
		t.Fatalf("first capture error: %v", err)
	}

	// Inside the interval: rejected.
	time.Sleep(30 * time.Millisecond)
	if _, err := c.Capture(SideLeft); !IsRateLimited(err) {
		t.Fatalf("second capture error = %v, want ErrRateLimited", err)
	}

	// Past the interval: accepted again.
	time.Sleep(100 * time.Millisecond)
	if _, err := c.Capture(SideLeft); err != nil {
		t.Fatalf("third capture error: %v", err)
	}
}

func TestCapturer_RejectionDistinctFromFailure(t *testing.T) {
	c, buf, _ := newTestCapturer(t)
	c.SetMinInterval(time.Hour)
	c.SetEncoder(func(camera.Frame) ([]byte, error) {
		return nil, errors.New("encoder broke")
	})
	publishFrame(buf, "x")

	_, err := c.Capture(SideLeft)
	var ce *CaptureError
	if !errors.As(err, &ce) || ce.Stage != "encode" {
		t.Fatalf("error = %v, want CaptureError at encode", err)
	}
	if IsRateLimited(err) {
		t.Error("encode failure must not read as rate limiting")
	}

	// The failed attempt released its slot: a retry with a working
	// encoder goes straight through despite the hour-long interval.
	c.SetEncoder(passthroughEncoder)
	name, err := c.Capture(SideLeft)
	if err != nil {
		t.Fatalf("retry after failure error = %v, want success", err)
	}

	// The success holds the slot again.
	if _, err := c.Capture(SideLeft); !IsRateLimited(err) {
		t.Errorf("capture after %s error = %v, want ErrRateLimited", name, err)
	}
}

func TestCapturer_NoFrame(t *testing.T) {
	c, _, _ := newTestCapturer(t)
	c.SetMinInterval(0)

	if _, err := c.Capture(SideRight); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Capture error = %v, want ErrNoFrame", err)
	}
}

func TestCapturer_FallbackWhenNoFrame(t *testing.T) {
	c, _, store := newTestCapturer(t)
	c.SetMinInterval(0)
	c.Fallback = func(path string) error {
		return os.WriteFile(path, []byte("one-shot"), 0o644)
	}

	name, err := c.Capture(SideRight)
	if err != nil {
		t.Fatalf("Capture error: %v", err)
	}

	path, _ := store.Path(SideRight, name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fallback photo: %v", err)
	}
	if string(data) != "one-shot" {
		t.Errorf("content = %q, want one-shot", data)
	}
}

func TestCapturer_FallbackFailure(t *testing.T) {
	c, _, _ := newTestCapturer(t)
	c.SetMinInterval(0)
	c.Fallback = func(path string) error {
		return camera.ErrStillTimeout
	}

	_, err := c.Capture(SideLeft)
	var ce *CaptureError
	if !errors.As(err, &ce) || ce.Stage != "fallback" {
		t.Fatalf("error = %v, want CaptureError at fallback", err)
	}
	if !errors.Is(err, camera.ErrStillTimeout) {
		t.Error("CaptureError should unwrap to the timeout")
	}
}

func TestCapturer_InvalidSide(t *testing.T) {
	c, buf, _ := newTestCapturer(t)
	publishFrame(buf, "x")

	if _, err := c.Capture("forward"); !errors.Is(err, ErrInvalidSide) {
		t.Errorf("Capture error = %v, want ErrInvalidSide", err)
	}
}

func TestCapturer_ConcurrentCallsOneAccepted(t *testing.T) {
	c, buf, _ := newTestCapturer(t)
	c.SetMinInterval(time.Hour)
	publishFrame(buf, "x")

	const callers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted, limited := 0, 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Capture(SideLeft)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case IsRateLimited(err):
				limited++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if accepted != 1 {
		t.Errorf("accepted = %d, want exactly 1", accepted)
	}
	if limited != callers-1 {
		t.Errorf("rate limited = %d, want %d", limited, callers-1)
	}
}
