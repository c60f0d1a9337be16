// Package teleop runs the gamepad-to-motors control loop: poll the pad at
// a fixed rate, map stick axes to wheel velocities, and dispatch button
// edges to photo capture and shutdown.
package teleop

import (
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-jetbot/internal/log"
	"github.com/teslashibe/go-jetbot/pkg/debug"
	"github.com/teslashibe/go-jetbot/pkg/gamepad"
	"github.com/teslashibe/go-jetbot/pkg/motor"
	"github.com/teslashibe/go-jetbot/pkg/status"
)

// DefaultRate is the control loop tick rate (100Hz, matching the pad's
// kernel polling granularity).
const DefaultRate = 10 * time.Millisecond

// heartbeatTicks spaces the periodic loop log (~5s at 100Hz).
const heartbeatTicks = 500

// errorLogInterval throttles repeated pad/motor error logs.
const errorLogInterval = 5 * time.Second

// Capturer accepts capture requests from button presses.
type Capturer interface {
	Capture(side string) (string, error)
}

// Controller owns the teleop loop. It is the only writer of motor
// commands while running; capture and quit actions fire on button press
// edges derived from consecutive pad snapshots.
type Controller struct {
	pad      gamepad.Device
	motors   motor.VelocityController
	capturer Capturer
	tracker  *status.Tracker

	rate     time.Duration
	stop     chan struct{}
	stopOnce sync.Once

	// OnQuit, if set, is called once when the quit button is pressed.
	OnQuit func()

	prev      gamepad.Snapshot
	lastLeft  float64
	lastRight float64
	padDown   bool

	tickCount     uint64
	errorCount    uint64
	lastErrorTime time.Time
	quitFired     bool

	logger *slog.Logger
}

// NewController creates a teleop controller. capturer and tracker may be
// nil; the corresponding actions become no-ops.
func NewController(pad gamepad.Device, motors motor.VelocityController, capturer Capturer, tracker *status.Tracker) *Controller {
	return &Controller{
		pad:      pad,
		motors:   motors,
		capturer: capturer,
		tracker:  tracker,
		rate:     DefaultRate,
		stop:     make(chan struct{}),
		logger:   log.With("component", "teleop"),
	}
}

// SetRate overrides the tick rate.
func (c *Controller) SetRate(rate time.Duration) {
	c.rate = rate
}

// Run starts the control loop and blocks until Stop. The motors are
// always stopped on the way out.
func (c *Controller) Run() {
	ticker := time.NewTicker(c.rate)
	defer ticker.Stop()

	if c.tracker != nil {
		c.tracker.SetRunning(true)
		c.tracker.SetGamepad(true, c.pad.Name())
	}
	c.logger.Info("teleop loop started", "rate", c.rate, "gamepad", c.pad.Name())

	defer func() {
		c.motors.Stop()
		if c.tracker != nil {
			c.tracker.SetRunning(false)
			c.tracker.SetDrive(status.Axes{}, status.Motors{})
		}
		c.logger.Info("teleop loop stopped", "ticks", c.tickCount, "errors", c.errorCount)
	}()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.tick()
		}
	}
}

// Stop halts the loop. Safe to call repeatedly and before Run.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// tick executes one poll-map-dispatch cycle.
func (c *Controller) tick() {
	c.tickCount++

	snap, err := c.pad.Poll()
	if err != nil {
		c.onPadError(err)
		return
	}
	if c.padDown {
		c.padDown = false
		if c.tracker != nil {
			c.tracker.SetGamepad(true, c.pad.Name())
		}
		c.logger.Info("gamepad recovered")
	}

	c.dispatchEdges(gamepad.Diff(c.prev, snap))
	c.prev = snap

	left, right := gamepad.MotorValues(snap)
	debug.TeleopLog("tick %d axes=(%.2f, %.2f) motors=(%.2f, %.2f)\n",
		c.tickCount, snap.Axis(gamepad.AxisLeftMotor), snap.Axis(gamepad.AxisRightMotor), left, right)

	if left != c.lastLeft || right != c.lastRight {
		if err := c.motors.SetVelocity(left, right); err != nil {
			c.onMotorError(err)
			return
		}
		c.lastLeft = left
		c.lastRight = right
		if c.tracker != nil {
			c.tracker.SetDrive(
				status.Axes{Left: snap.Axis(gamepad.AxisLeftMotor), Right: snap.Axis(gamepad.AxisRightMotor)},
				status.Motors{Left: left, Right: right},
			)
		}
	}

	if c.tickCount%heartbeatTicks == 0 {
		c.logger.Debug("teleop heartbeat",
			"ticks", c.tickCount, "errors", c.errorCount, "left", c.lastLeft, "right", c.lastRight)
	}
}

// dispatchEdges handles button press edges: capture left/right, quit.
func (c *Controller) dispatchEdges(edges gamepad.Edges) {
	for _, b := range edges.Pressed {
		switch b {
		case gamepad.ButtonCaptureLeft:
			c.capture("left")
		case gamepad.ButtonCaptureRight:
			c.capture("right")
		case gamepad.ButtonQuit:
			if !c.quitFired {
				c.quitFired = true
				c.logger.Info("quit button pressed")
				if c.OnQuit != nil {
					c.OnQuit()
				}
			}
		}
	}
}

// capture requests a photo and records the outcome. Rate-limit
// rejections are operator feedback, not errors.
func (c *Controller) capture(side string) {
	if c.capturer == nil {
		return
	}
	name, err := c.capturer.Capture(side)
	switch {
	case err == nil:
		if c.tracker != nil {
			c.tracker.RecordPhoto(side, name)
			c.tracker.SetMessage("captured " + name)
		}
		c.logger.Info("photo captured", "side", side, "name", name)
	default:
		if c.tracker != nil {
			c.tracker.SetMessage("capture failed: " + err.Error())
		}
		c.logger.Warn("capture rejected", "side", side, "err", err)
	}
}

// onPadError stops the motors once and throttles the log. The loop keeps
// polling so a reconnected pad resumes control.
func (c *Controller) onPadError(err error) {
	c.errorCount++
	if !c.padDown {
		c.padDown = true
		c.motors.Stop()
		c.lastLeft, c.lastRight = 0, 0
		if c.tracker != nil {
			c.tracker.SetGamepad(false, "")
			c.tracker.SetDrive(status.Axes{}, status.Motors{})
		}
	}
	if c.lastErrorTime.IsZero() || time.Since(c.lastErrorTime) > errorLogInterval {
		c.logger.Warn("gamepad read failed", "err", err, "errors", c.errorCount)
		c.lastErrorTime = time.Now()
	}
}

func (c *Controller) onMotorError(err error) {
	c.errorCount++
	if c.lastErrorTime.IsZero() || time.Since(c.lastErrorTime) > errorLogInterval {
		c.logger.Warn("motor command failed", "err", err, "errors", c.errorCount)
		c.lastErrorTime = time.Now()
	}
}
