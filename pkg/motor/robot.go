package motor

import "sync"

// Calibration scales and offsets the commanded value per motor so a
// hardware pair with mismatched gearboxes drives straight. The driven
// value is value*Alpha + Beta (sign preserved), matching the JetBot's
// stock motor model.
type Calibration struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

// DefaultCalibration is the identity mapping.
func DefaultCalibration() Calibration {
	return Calibration{Alpha: 1.0, Beta: 0.0}
}

func (c Calibration) apply(value float64) float64 {
	if value == 0 {
		return 0
	}
	mapped := value * c.Alpha
	if mapped > 0 {
		mapped += c.Beta
	} else {
		mapped -= c.Beta
	}
	return clamp(mapped, -1, 1)
}

// Robot is the wheeled-robot abstraction: two calibrated motors behind a
// Driver. All methods are safe for concurrent use.
type Robot struct {
	driver Driver

	mu          sync.Mutex
	left, right float64
	calLeft     Calibration
	calRight    Calibration
}

var _ VelocityController = (*Robot)(nil)

// NewRobot creates a robot over the given driver with identity calibration.
func NewRobot(driver Driver) *Robot {
	return &Robot{
		driver:   driver,
		calLeft:  DefaultCalibration(),
		calRight: DefaultCalibration(),
	}
}

// SetCalibration sets the per-motor calibration.
func (r *Robot) SetCalibration(left, right Calibration) {
	r.mu.Lock()
	r.calLeft = left
	r.calRight = right
	r.mu.Unlock()
}

// SetVelocity drives both motors. Values are clamped to [-1, 1] before
// calibration is applied.
func (r *Robot) SetVelocity(left, right float64) error {
	left = clamp(left, -1, 1)
	right = clamp(right, -1, 1)

	r.mu.Lock()
	r.left = left
	r.right = right
	driveLeft := r.calLeft.apply(left)
	driveRight := r.calRight.apply(right)
	r.mu.Unlock()

	if err := r.driver.SetSpeed(Left, driveLeft); err != nil {
		return err
	}
	return r.driver.SetSpeed(Right, driveRight)
}

// Stop halts both motors.
func (r *Robot) Stop() error {
	return r.SetVelocity(0, 0)
}

// Forward drives both wheels at speed.
func (r *Robot) Forward(speed float64) error {
	return r.SetVelocity(speed, speed)
}

// Backward drives both wheels at -speed.
func (r *Robot) Backward(speed float64) error {
	return r.SetVelocity(-speed, -speed)
}

// TurnLeft spins in place counter-clockwise at speed.
func (r *Robot) TurnLeft(speed float64) error {
	return r.SetVelocity(-speed, speed)
}

// TurnRight spins in place clockwise at speed.
func (r *Robot) TurnRight(speed float64) error {
	return r.SetVelocity(speed, -speed)
}

// Velocity returns the last commanded (uncalibrated) velocities.
func (r *Robot) Velocity() (left, right float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.left, r.right
}

// Close stops the motors and releases the driver.
func (r *Robot) Close() error {
	r.Stop()
	return r.driver.Close()
}
