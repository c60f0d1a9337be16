package gamepad

// Control mapping for a PS-style controller in tank-drive teleop.
// The stick axes map one per motor; pushing a stick forward reads
// negative on the kernel axis, hence the inversion in MotorValue.
const (
	AxisLeftMotor  = 1 // left stick vertical
	AxisRightMotor = 5 // right stick vertical

	ButtonCaptureLeft  = 4 // L1: capture a "left" training photo
	ButtonCaptureRight = 5 // R1: capture a "right" training photo
	ButtonQuit         = 7 // Start: exit teleop
)

// Deadzone is the stick magnitude below which input reads as zero.
const Deadzone = 0.1

// MotorValue converts a raw stick axis reading into a motor velocity:
// deadzone applied, then inverted so stick-forward drives forward.
func MotorValue(axis float64) float64 {
	if axis > -Deadzone && axis < Deadzone {
		return 0
	}
	return -axis
}

// MotorValues maps a snapshot to (left, right) motor velocities using the
// standard axis assignment.
func MotorValues(s Snapshot) (left, right float64) {
	return MotorValue(s.Axis(AxisLeftMotor)), MotorValue(s.Axis(AxisRightMotor))
}
