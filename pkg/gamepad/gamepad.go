// Package gamepad reads a game controller as polled snapshots of axis and
// button state. Edge events (press/release) are derived by diffing
// consecutive snapshots; there is no event queue.
package gamepad

import (
	"errors"
	"fmt"

	"github.com/0xcafed00d/joystick"
)

// ErrNotConnected is returned when no joystick is present at the given id.
var ErrNotConnected = errors.New("gamepad: not connected")

// axisScale normalizes the driver's raw axis range to [-1, 1].
const axisScale = 32767.0

// Device is a polled input source. *Pad implements it over a real
// joystick; tests substitute a mock.
type Device interface {
	// Poll reads the current axis/button state.
	Poll() (Snapshot, error)
	// Name returns the controller's reported name.
	Name() string
	// Close releases the device.
	Close()
}

// Snapshot is one polled reading. Axes are normalized to [-1, 1];
// Buttons is a bitmask indexed by button number.
type Snapshot struct {
	Axes    []float64
	Buttons uint32
}

// Pressed reports whether the given button is down in this snapshot.
func (s Snapshot) Pressed(button int) bool {
	return s.Buttons&(1<<uint(button)) != 0
}

// Axis returns the normalized value of axis i, or 0 if out of range.
func (s Snapshot) Axis(i int) float64 {
	if i < 0 || i >= len(s.Axes) {
		return 0
	}
	return s.Axes[i]
}

// Edges holds the press/release transitions between two snapshots.
type Edges struct {
	Pressed  []int
	Released []int
}

// Diff derives edge events from the previous snapshot to cur.
func Diff(prev, cur Snapshot) Edges {
	var e Edges
	changed := prev.Buttons ^ cur.Buttons
	for b := 0; b < 32; b++ {
		mask := uint32(1) << uint(b)
		if changed&mask == 0 {
			continue
		}
		if cur.Buttons&mask != 0 {
			e.Pressed = append(e.Pressed, b)
		} else {
			e.Released = append(e.Released, b)
		}
	}
	return e
}

// Pad is a Device backed by a kernel joystick.
type Pad struct {
	js   joystick.Joystick
	name string
}

var _ Device = (*Pad)(nil)

// Open opens joystick id (0 for the first controller).
func Open(id int) (*Pad, error) {
	js, err := joystick.Open(id)
	if err != nil {
		return nil, fmt.Errorf("gamepad: open joystick %d: %w", id, err)
	}
	return &Pad{js: js, name: js.Name()}, nil
}

// Poll reads the current state.
func (p *Pad) Poll() (Snapshot, error) {
	state, err := p.js.Read()
	if err != nil {
		return Snapshot{}, fmt.Errorf("gamepad: read: %w", err)
	}

	axes := make([]float64, len(state.AxisData))
	for i, raw := range state.AxisData {
		v := float64(raw) / axisScale
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		axes[i] = v
	}
	return Snapshot{Axes: axes, Buttons: uint32(state.Buttons)}, nil
}

// Name returns the controller name.
func (p *Pad) Name() string {
	return p.name
}

// AxisCount returns the number of axes the controller reports.
func (p *Pad) AxisCount() int {
	return p.js.AxisCount()
}

// ButtonCount returns the number of buttons the controller reports.
func (p *Pad) ButtonCount() int {
	return p.js.ButtonCount()
}

// Close releases the joystick.
func (p *Pad) Close() {
	p.js.Close()
}
