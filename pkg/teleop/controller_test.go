package teleop

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-jetbot/pkg/gamepad"
	"github.com/teslashibe/go-jetbot/pkg/motor"
	"github.com/teslashibe/go-jetbot/pkg/photos"
	"github.com/teslashibe/go-jetbot/pkg/status"
)

// mockCapturer records capture requests.
type mockCapturer struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (m *mockCapturer) Capture(side string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.calls = append(m.calls, side)
	return side + "_test.jpg", nil
}

func (m *mockCapturer) captures() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

func newTestController() (*Controller, *gamepad.MockDevice, *motor.MockDriver, *mockCapturer, *status.Tracker) {
	pad := gamepad.NewMockDevice()
	driver := motor.NewMockDriver()
	robot := motor.NewRobot(driver)
	cap := &mockCapturer{}
	tracker := status.NewTracker()
	ctrl := NewController(pad, robot, cap, tracker)
	return ctrl, pad, driver, cap, tracker
}

func TestController_MapsAxesToMotors(t *testing.T) {
	ctrl, pad, driver, _, _ := newTestController()

	pad.SetAxis(gamepad.AxisLeftMotor, -0.6) // stick forward
	pad.SetAxis(gamepad.AxisRightMotor, 0.4) // stick back

	ctrl.tick()

	if got := driver.Last(motor.Left); got != 0.6 {
		t.Errorf("left motor = %v, want 0.6 (inverted)", got)
	}
	if got := driver.Last(motor.Right); got != -0.4 {
		t.Errorf("right motor = %v, want -0.4 (inverted)", got)
	}
}

func TestController_DeadzoneHoldsMotorsStill(t *testing.T) {
	ctrl, pad, driver, _, _ := newTestController()

	pad.SetAxis(gamepad.AxisLeftMotor, 0.05)
	pad.SetAxis(gamepad.AxisRightMotor, -0.08)

	ctrl.tick()

	if driver.CallCount() != 0 {
		t.Errorf("motor calls = %d, want 0 (values unchanged from rest)", driver.CallCount())
	}
}

func TestController_SkipsRedundantCommands(t *testing.T) {
	ctrl, pad, driver, _, _ := newTestController()
	pad.SetAxis(gamepad.AxisLeftMotor, -0.5)

	ctrl.tick()
	first := driver.CallCount()
	ctrl.tick()
	ctrl.tick()

	if driver.CallCount() != first {
		t.Errorf("motor calls grew from %d to %d with unchanged sticks", first, driver.CallCount())
	}
}

func TestController_CaptureOnPressEdgeOnly(t *testing.T) {
	ctrl, pad, _, cap, tracker := newTestController()

	// Held across several ticks: one capture.
	pad.SetButton(gamepad.ButtonCaptureLeft, true)
	ctrl.tick()
	ctrl.tick()
	ctrl.tick()
	pad.SetButton(gamepad.ButtonCaptureLeft, false)
	ctrl.tick()

	if got := cap.captures(); len(got) != 1 || got[0] != "left" {
		t.Fatalf("captures = %v, want [left]", got)
	}

	// Second press: second capture.
	pad.SetButton(gamepad.ButtonCaptureLeft, true)
	ctrl.tick()
	if got := cap.captures(); len(got) != 2 {
		t.Errorf("captures after second press = %v, want 2 entries", got)
	}

	snap := tracker.Snapshot()
	if snap.PhotoCounts["left"] != 2 {
		t.Errorf("tracker left count = %d, want 2", snap.PhotoCounts["left"])
	}
	if snap.LastPhoto == nil || snap.LastPhoto.Name != "left_test.jpg" {
		t.Errorf("tracker last photo = %+v", snap.LastPhoto)
	}
}

func TestController_RightCapture(t *testing.T) {
	ctrl, pad, _, cap, _ := newTestController()

	pad.SetButton(gamepad.ButtonCaptureRight, true)
	ctrl.tick()

	if got := cap.captures(); len(got) != 1 || got[0] != "right" {
		t.Errorf("captures = %v, want [right]", got)
	}
}

func TestController_RateLimitedCaptureIsFeedback(t *testing.T) {
	ctrl, pad, _, cap, tracker := newTestController()
	cap.err = photos.ErrRateLimited

	pad.SetButton(gamepad.ButtonCaptureLeft, true)
	ctrl.tick()

	snap := tracker.Snapshot()
	if snap.Message == "" {
		t.Error("rate-limited capture should surface an operator message")
	}
	if snap.PhotoCounts["left"] != 0 {
		t.Error("rejected capture must not bump the photo count")
	}
}

func TestController_QuitButton(t *testing.T) {
	ctrl, pad, _, _, _ := newTestController()

	quits := 0
	ctrl.OnQuit = func() { quits++ }

	pad.SetButton(gamepad.ButtonQuit, true)
	ctrl.tick()
	ctrl.tick() // held
	pad.SetButton(gamepad.ButtonQuit, false)
	ctrl.tick()
	pad.SetButton(gamepad.ButtonQuit, true)
	ctrl.tick() // quit already fired once

	if quits != 1 {
		t.Errorf("OnQuit fired %d times, want 1", quits)
	}
}

func TestController_PadErrorStopsMotors(t *testing.T) {
	ctrl, pad, driver, _, tracker := newTestController()

	pad.SetAxis(gamepad.AxisLeftMotor, -1.0)
	ctrl.tick()
	if got := driver.Last(motor.Left); got != 1.0 {
		t.Fatalf("left motor = %v, want 1.0", got)
	}

	pad.FailWith(errors.New("unplugged"))
	ctrl.tick()

	if got := driver.Last(motor.Left); got != 0 {
		t.Errorf("left motor after pad failure = %v, want 0", got)
	}
	if tracker.Snapshot().GamepadConnected {
		t.Error("tracker should show gamepad disconnected")
	}

	// Recovery resumes control.
	pad.FailWith(nil)
	ctrl.tick()
	if !tracker.Snapshot().GamepadConnected {
		t.Error("tracker should show gamepad reconnected")
	}
}

func TestController_RunStop(t *testing.T) {
	ctrl, pad, _, _, tracker := newTestController()
	ctrl.SetRate(2 * time.Millisecond)
	pad.SetAxis(gamepad.AxisLeftMotor, -0.5)

	done := make(chan struct{})
	go func() {
		ctrl.Run()
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	ctrl.Stop()

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("controller did not stop within timeout")
	}

	if pad.PollCount() < 5 {
		t.Errorf("polls = %d, want at least 5", pad.PollCount())
	}
	snap := tracker.Snapshot()
	if snap.Running {
		t.Error("tracker should show stopped")
	}
	if snap.Motors.Left != 0 || snap.Motors.Right != 0 {
		t.Errorf("motors after stop = %+v, want zero", snap.Motors)
	}
}

func TestController_StopIdempotent(t *testing.T) {
	ctrl, _, _, _, _ := newTestController()

	// Stop before Run, then twice more: never panics or blocks.
	ctrl.Stop()
	ctrl.Stop()

	done := make(chan struct{})
	go func() {
		ctrl.Run() // stop already closed; returns immediately
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("Run did not observe pre-closed stop")
	}
	ctrl.Stop()
}
