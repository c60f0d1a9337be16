package motion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/teslashibe/go-jetbot/pkg/motor"
)

func TestSequence_Evaluate(t *testing.T) {
	seq := NewSequence("test",
		Step{Drive: Drive{Left: 0.5, Right: 0.5}, For: time.Second},
		Step{Drive: Drive{Left: -0.5, Right: 0.5}, For: time.Second},
	)

	tests := []struct {
		at   time.Duration
		want Drive
	}{
		{at: 0, want: Drive{Left: 0.5, Right: 0.5}},
		{at: 999 * time.Millisecond, want: Drive{Left: 0.5, Right: 0.5}},
		{at: time.Second, want: Drive{Left: -0.5, Right: 0.5}},
		{at: 1500 * time.Millisecond, want: Drive{Left: -0.5, Right: 0.5}},
		{at: 3 * time.Second, want: Drive{}},
	}

	for _, tt := range tests {
		if got := seq.Evaluate(tt.at); got != tt.want {
			t.Errorf("Evaluate(%v) = %+v, want %+v", tt.at, got, tt.want)
		}
	}

	if seq.Duration() != 2*time.Second {
		t.Errorf("Duration() = %v, want 2s", seq.Duration())
	}
	if seq.IsComplete(1999 * time.Millisecond) {
		t.Error("sequence complete before its duration")
	}
	if !seq.IsComplete(2 * time.Second) {
		t.Error("sequence not complete at its duration")
	}
}

func TestRamp_Evaluate(t *testing.T) {
	ramp := NewRamp("test", Drive{}, Drive{Left: 1, Right: 0.5}, time.Second)

	if got := ramp.Evaluate(0); got != (Drive{}) {
		t.Errorf("Evaluate(0) = %+v, want zero", got)
	}
	mid := ramp.Evaluate(500 * time.Millisecond)
	if mid.Left != 0.5 || mid.Right != 0.25 {
		t.Errorf("Evaluate(mid) = %+v, want {0.5 0.25}", mid)
	}
	if got := ramp.Evaluate(2 * time.Second); got != (Drive{Left: 1, Right: 0.5}) {
		t.Errorf("Evaluate(past end) = %+v, want target", got)
	}
}

func TestMotorTest_Shape(t *testing.T) {
	m := MotorTest()

	if m.Duration() != 4*time.Second {
		t.Errorf("Duration() = %v, want 4s", m.Duration())
	}

	// Forward, backward, spin left, spin right.
	phases := []Drive{
		{Left: testSpeed, Right: testSpeed},
		{Left: -testSpeed, Right: -testSpeed},
		{Left: -testSpeed, Right: testSpeed},
		{Left: testSpeed, Right: -testSpeed},
	}
	for i, want := range phases {
		at := time.Duration(i)*time.Second + 500*time.Millisecond
		if got := m.Evaluate(at); got != want {
			t.Errorf("phase %d = %+v, want %+v", i, got, want)
		}
	}
}

func newTestPlayer() (*Player, *motor.MockDriver) {
	driver := motor.NewMockDriver()
	p := NewPlayer(motor.NewRobot(driver))
	p.SetRate(time.Millisecond)
	return p, driver
}

func TestPlayer_Names(t *testing.T) {
	p, _ := newTestPlayer()

	names := p.Names()
	if len(names) != 3 {
		t.Fatalf("Names() = %v, want 3 builtins", names)
	}
	// Sorted.
	if names[0] != "motor-test" || names[1] != "square" || names[2] != "wiggle" {
		t.Errorf("Names() = %v, want sorted builtins", names)
	}
}

func TestPlayer_PlayRunsAndStops(t *testing.T) {
	p, driver := newTestPlayer()
	p.Register("blip", func() Move {
		return NewSequence("blip", Step{Drive: Drive{Left: 0.5, Right: 0.5}, For: 20 * time.Millisecond})
	})

	if err := p.Play(context.Background(), "blip"); err != nil {
		t.Fatalf("Play() error = %v", err)
	}

	if driver.CallCount() == 0 {
		t.Fatal("move sent no motor commands")
	}
	// The wheels always end at rest.
	if got := driver.Last(motor.Left); got != 0 {
		t.Errorf("left motor after move = %v, want 0", got)
	}
	if got := driver.Last(motor.Right); got != 0 {
		t.Errorf("right motor after move = %v, want 0", got)
	}
	if p.Current() != "" {
		t.Errorf("Current() = %q after completion, want empty", p.Current())
	}
}

func TestPlayer_UnknownMove(t *testing.T) {
	p, _ := newTestPlayer()

	if err := p.Start("backflip"); !errors.Is(err, ErrUnknownMove) {
		t.Errorf("Start(backflip) error = %v, want ErrUnknownMove", err)
	}
}

func TestPlayer_BusyRejectsSecondMove(t *testing.T) {
	p, _ := newTestPlayer()
	p.Register("slow", func() Move {
		return NewSequence("slow", Step{Drive: Drive{Left: 0.2, Right: 0.2}, For: time.Second})
	})

	if err := p.Start("slow"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer p.Stop()
	time.Sleep(10 * time.Millisecond)

	if err := p.Start("wiggle"); !errors.Is(err, ErrBusy) {
		t.Errorf("second Start() error = %v, want ErrBusy", err)
	}
}

func TestPlayer_StopCancelsMove(t *testing.T) {
	p, driver := newTestPlayer()
	p.Register("slow", func() Move {
		return NewSequence("slow", Step{Drive: Drive{Left: 0.9, Right: 0.9}, For: time.Minute})
	})

	if err := p.Start("slow"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	p.Stop()

	deadline := time.After(time.Second)
	for p.Current() != "" {
		select {
		case <-deadline:
			t.Fatal("move did not stop")
		case <-time.After(time.Millisecond):
		}
	}
	if got := driver.Last(motor.Left); got != 0 {
		t.Errorf("left motor after stop = %v, want 0", got)
	}
}

func TestPlayer_PlayHonorsContext(t *testing.T) {
	p, driver := newTestPlayer()
	p.Register("slow", func() Move {
		return NewSequence("slow", Step{Drive: Drive{Left: 0.9, Right: 0.9}, For: time.Minute})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Play(ctx, "slow") }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Play() error = %v, want nil on cancellation", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Play did not return after context cancellation")
	}
	if got := driver.Last(motor.Left); got != 0 {
		t.Errorf("left motor after cancel = %v, want 0", got)
	}
}
