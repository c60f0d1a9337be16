// Package motor drives the JetBot's differential drive pair through an
// Adafruit-style PCA9685 motor HAT on the I2C bus.
//
// This package follows the Interface Segregation Principle (ISP) by defining
// small, focused interfaces. Control loops should depend on
// VelocityController only; the Robot type composes a swappable Driver with
// per-motor calibration on top.
package motor

import "errors"

// Side identifies one motor of the differential pair.
type Side int

const (
	// Left is the left wheel motor (HAT motor 1).
	Left Side = iota
	// Right is the right wheel motor (HAT motor 2).
	Right
)

// String returns the side name.
func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// ErrClosed is returned by drivers after Close.
var ErrClosed = errors.New("motor: driver closed")

// VelocityController is the minimal contract for driving the robot.
// Velocities are normalized to [-1, 1]; values outside are clamped.
type VelocityController interface {
	SetVelocity(left, right float64) error
	Stop() error
}

// Driver sets the signed speed of a single motor. Implementations own the
// hardware access; the Robot type owns clamping and calibration.
type Driver interface {
	// SetSpeed drives one motor at speed in [-1, 1]. Zero coasts.
	SetSpeed(side Side, speed float64) error
	// Close releases the underlying bus and leaves both motors stopped.
	Close() error
}

// clamp restricts v to the range [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
