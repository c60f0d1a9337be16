package gamepad

import (
	"math"
	"testing"
)

func TestMotorValue_Deadzone(t *testing.T) {
	tests := []struct {
		name string
		axis float64
		want float64
	}{
		{"centered", 0, 0},
		{"inside deadzone positive", 0.05, 0},
		{"inside deadzone negative", -0.09, 0},
		{"stick forward", -0.5, 0.5},
		{"stick back", 0.5, -0.5},
		{"full forward", -1.0, 1.0},
		{"at deadzone edge", 0.1, -0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MotorValue(tt.axis); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("MotorValue(%v) = %v, want %v", tt.axis, got, tt.want)
			}
		})
	}
}

func TestMotorValues_UsesMappedAxes(t *testing.T) {
	s := Snapshot{Axes: make([]float64, 8)}
	s.Axes[AxisLeftMotor] = -0.6
	s.Axes[AxisRightMotor] = 0.4

	left, right := MotorValues(s)
	if math.Abs(left-0.6) > 1e-9 {
		t.Errorf("left = %v, want 0.6", left)
	}
	if math.Abs(right-(-0.4)) > 1e-9 {
		t.Errorf("right = %v, want -0.4", right)
	}
}

func TestSnapshot_Pressed(t *testing.T) {
	var s Snapshot
	s.Buttons = (1 << ButtonCaptureLeft) | (1 << ButtonQuit)

	if !s.Pressed(ButtonCaptureLeft) {
		t.Error("ButtonCaptureLeft should read pressed")
	}
	if s.Pressed(ButtonCaptureRight) {
		t.Error("ButtonCaptureRight should read released")
	}
	if !s.Pressed(ButtonQuit) {
		t.Error("ButtonQuit should read pressed")
	}
}

func TestSnapshot_AxisOutOfRange(t *testing.T) {
	s := Snapshot{Axes: []float64{0.5}}
	if got := s.Axis(3); got != 0 {
		t.Errorf("Axis(3) = %v, want 0 for out-of-range axis", got)
	}
	if got := s.Axis(-1); got != 0 {
		t.Errorf("Axis(-1) = %v, want 0", got)
	}
}

func TestDiff_Edges(t *testing.T) {
	var prev, cur Snapshot
	prev.Buttons = (1 << 2) | (1 << ButtonQuit)
	cur.Buttons = (1 << 2) | (1 << ButtonCaptureLeft)

	e := Diff(prev, cur)

	if len(e.Pressed) != 1 || e.Pressed[0] != ButtonCaptureLeft {
		t.Errorf("Pressed = %v, want [%d]", e.Pressed, ButtonCaptureLeft)
	}
	if len(e.Released) != 1 || e.Released[0] != ButtonQuit {
		t.Errorf("Released = %v, want [%d]", e.Released, ButtonQuit)
	}
}

func TestDiff_NoChange(t *testing.T) {
	s := Snapshot{Buttons: 1 << 3}
	e := Diff(s, s)
	if len(e.Pressed) != 0 || len(e.Released) != 0 {
		t.Errorf("Diff of identical snapshots = %+v, want no edges", e)
	}
}

func TestDiff_HeldButtonEmitsOneEdge(t *testing.T) {
	// A button held across many polls must produce exactly one press edge.
	var prev Snapshot
	down := Snapshot{Buttons: 1 << ButtonCaptureRight}

	presses := 0
	for i := 0; i < 10; i++ {
		e := Diff(prev, down)
		presses += len(e.Pressed)
		prev = down
	}
	if presses != 1 {
		t.Errorf("press edges over a held button = %d, want 1", presses)
	}
}

func TestMockDevice_Poll(t *testing.T) {
	m := NewMockDevice()
	m.SetAxis(AxisLeftMotor, -0.8)
	m.SetButton(ButtonQuit, true)

	s, err := m.Poll()
	if err != nil {
		t.Fatalf("Poll error: %v", err)
	}
	if s.Axis(AxisLeftMotor) != -0.8 {
		t.Errorf("axis = %v, want -0.8", s.Axis(AxisLeftMotor))
	}
	if !s.Pressed(ButtonQuit) {
		t.Error("ButtonQuit should be pressed")
	}

	// Snapshot must be a copy, not an alias into the mock's state.
	s.Axes[AxisLeftMotor] = 0
	s2, _ := m.Poll()
	if s2.Axis(AxisLeftMotor) != -0.8 {
		t.Error("mutating a returned snapshot must not affect the device")
	}
}
