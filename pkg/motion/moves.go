package motion

import "time"

// testSpeed keeps the built-in routines slow enough to run on a desk.
const testSpeed = 0.3

// MotorTest exercises both wheels in each direction: forward, backward,
// spin left, spin right, one second each.
func MotorTest() Move {
	return NewSequence("motor-test",
		Step{Drive: Drive{Left: testSpeed, Right: testSpeed}, For: time.Second},
		Step{Drive: Drive{Left: -testSpeed, Right: -testSpeed}, For: time.Second},
		Step{Drive: Drive{Left: -testSpeed, Right: testSpeed}, For: time.Second},
		Step{Drive: Drive{Left: testSpeed, Right: -testSpeed}, For: time.Second},
	)
}

// Square drives the outline of a square: four straights with a spin at
// each corner.
func Square() Move {
	straight := Step{Drive: Drive{Left: testSpeed, Right: testSpeed}, For: 2 * time.Second}
	corner := Step{Drive: Drive{Left: -testSpeed, Right: testSpeed}, For: 600 * time.Millisecond}
	return NewSequence("square",
		straight, corner,
		straight, corner,
		straight, corner,
		straight, corner,
	)
}

// Wiggle rocks the chassis left and right in place. Handy as a
// "found you" acknowledgement during demos.
func Wiggle() Move {
	left := Step{Drive: Drive{Left: -testSpeed, Right: testSpeed}, For: 250 * time.Millisecond}
	right := Step{Drive: Drive{Left: testSpeed, Right: -testSpeed}, For: 250 * time.Millisecond}
	return NewSequence("wiggle", left, right, left, right, left, right)
}
