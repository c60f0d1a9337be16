// Package motion provides scripted drive routines. A Move yields wheel
// velocities over time; the Player samples the active move on a fixed
// tick and forwards it to the motors, always finishing with a stop.
package motion

import (
	"errors"
	"time"
)

// ErrUnknownMove is returned when a routine name is not registered.
var ErrUnknownMove = errors.New("motion: unknown move")

// ErrBusy is returned when a routine is already playing.
var ErrBusy = errors.New("motion: a move is already playing")

// Drive is a pair of normalized wheel velocities.
type Drive struct {
	Left  float64
	Right float64
}

// Move represents a drive routine that provides velocities over time.
type Move interface {
	// Name returns the move identifier (for logging).
	Name() string

	// Duration returns the total duration of the move.
	Duration() time.Duration

	// Evaluate returns the wheel velocities at time t since move start.
	Evaluate(t time.Duration) Drive

	// IsComplete returns true when the move has finished.
	IsComplete(t time.Duration) bool
}

// Step is one segment of a Sequence: hold a drive for a while.
type Step struct {
	Drive Drive
	For   time.Duration
}

// Sequence plays steps back to back.
type Sequence struct {
	name  string
	steps []Step
	total time.Duration
}

// NewSequence builds a sequence move.
func NewSequence(name string, steps ...Step) *Sequence {
	var total time.Duration
	for _, s := range steps {
		total += s.For
	}
	return &Sequence{name: name, steps: steps, total: total}
}

func (s *Sequence) Name() string            { return s.name }
func (s *Sequence) Duration() time.Duration { return s.total }

// Evaluate returns the step active at t; past the end the wheels rest.
func (s *Sequence) Evaluate(t time.Duration) Drive {
	for _, step := range s.steps {
		if t < step.For {
			return step.Drive
		}
		t -= step.For
	}
	return Drive{}
}

func (s *Sequence) IsComplete(t time.Duration) bool {
	return t >= s.total
}

// Ramp interpolates linearly between two drives over its duration.
// Gentle starts keep the chassis from lurching on smooth floors.
type Ramp struct {
	name     string
	from, to Drive
	duration time.Duration
}

// NewRamp builds a linear ramp move.
func NewRamp(name string, from, to Drive, duration time.Duration) *Ramp {
	return &Ramp{name: name, from: from, to: to, duration: duration}
}

func (r *Ramp) Name() string            { return r.name }
func (r *Ramp) Duration() time.Duration { return r.duration }

func (r *Ramp) Evaluate(t time.Duration) Drive {
	if t >= r.duration {
		return r.to
	}
	if t <= 0 {
		return r.from
	}
	frac := float64(t) / float64(r.duration)
	return Drive{
		Left:  r.from.Left + (r.to.Left-r.from.Left)*frac,
		Right: r.from.Right + (r.to.Right-r.from.Right)*frac,
	}
}

func (r *Ramp) IsComplete(t time.Duration) bool {
	return t >= r.duration
}
