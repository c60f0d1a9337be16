// Package remote provides the WebSocket gateway for driving the robot
// from a browser or terminal client. One driver at a time holds the
// controls; a deadman watchdog stops the motors when commands stop
// arriving.
package remote

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-jetbot/internal/log"
	"github.com/teslashibe/go-jetbot/pkg/motor"
	"github.com/teslashibe/go-jetbot/pkg/protocol"
	"github.com/teslashibe/go-jetbot/pkg/status"
)

// DefaultDeadman is how long the gateway waits for the next motor
// command before stopping the wheels. A driver that wants to keep
// moving must keep sending commands.
const DefaultDeadman = 500 * time.Millisecond

// Capturer accepts capture requests from the remote driver.
type Capturer interface {
	Capture(side string) (string, error)
}

// DriverConnection represents the connected driver
type DriverConnection struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time

	mu          sync.Mutex
	lastCommand time.Time
	driving     bool
}

// Send sends a message to the driver
func (d *DriverConnection) Send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Conn.WriteMessage(websocket.TextMessage, data)
}

// touch records a motor command arrival for the deadman watchdog.
func (d *DriverConnection) touch(driving bool) {
	d.mu.Lock()
	d.lastCommand = time.Now()
	d.driving = driving
	d.mu.Unlock()
}

// stale reports whether the driver has been silent past the deadline
// while the wheels are turning.
func (d *DriverConnection) stale(deadline time.Duration) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.driving && time.Since(d.lastCommand) > deadline
}

// Gateway manages the driver WebSocket connection
type Gateway struct {
	mu     sync.RWMutex
	driver *DriverConnection

	motors   motor.VelocityController
	capturer Capturer
	tracker  *status.Tracker

	deadman time.Duration

	// Stats
	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	motorCommands    atomic.Uint64
	deadmanStops     atomic.Uint64

	logger *slog.Logger
}

// NewGateway creates a driver gateway. capturer and tracker may be nil.
func NewGateway(motors motor.VelocityController, capturer Capturer, tracker *status.Tracker) *Gateway {
	return &Gateway{
		motors:   motors,
		capturer: capturer,
		tracker:  tracker,
		deadman:  DefaultDeadman,
		logger:   log.With("component", "remote"),
	}
}

// SetDeadman overrides the command timeout.
func (g *Gateway) SetDeadman(d time.Duration) {
	g.deadman = d
}

// RegisterRoutes registers the driver WebSocket route on a Fiber app
func (g *Gateway) RegisterRoutes(app *fiber.App) {
	// WebSocket upgrade middleware
	app.Use("/ws/teleop", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/teleop", websocket.New(g.handleDriver))
}

// handleDriver handles a driver WebSocket connection
func (g *Gateway) handleDriver(c *websocket.Conn) {
	driver := &DriverConnection{
		ID:        uuid.NewString(),
		Conn:      c,
		Connected: time.Now(),
	}

	// Only one driver holds the controls.
	g.mu.Lock()
	if g.driver != nil {
		g.mu.Unlock()
		g.logger.Warn("rejected second driver", "client", driver.ID)
		if msg, err := protocol.NewErrorMessage("busy", "another driver is connected"); err == nil {
			driver.Send(msg)
		}
		c.Close()
		return
	}
	g.driver = driver
	g.mu.Unlock()

	g.logger.Info("driver connected", "client", driver.ID)

	watchdogDone := make(chan struct{})
	go g.watchdog(driver, watchdogDone)

	defer func() {
		close(watchdogDone)

		g.mu.Lock()
		if g.driver == driver {
			g.driver = nil
		}
		g.mu.Unlock()

		// Never leave the robot moving after the driver goes away.
		g.stopMotors()
		g.logger.Info("driver disconnected", "client", driver.ID)
	}()

	// Read loop
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}

		g.messagesReceived.Add(1)
		g.handleMessage(driver, data)
	}
}

// watchdog stops the motors when the driver stops sending commands.
func (g *Gateway) watchdog(driver *DriverConnection, done chan struct{}) {
	ticker := time.NewTicker(g.deadman / 2)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if driver.stale(g.deadman) {
				driver.touch(false)
				g.deadmanStops.Add(1)
				g.logger.Warn("deadman expired, stopping motors", "client", driver.ID)
				g.stopMotors()
			}
		}
	}
}

// handleMessage processes an incoming message from the driver
func (g *Gateway) handleMessage(driver *DriverConnection, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		g.logger.Warn("bad message from driver", "client", driver.ID, "err", err)
		g.sendError(driver, "bad_message", err.Error())
		return
	}

	switch msg.Type {
	case protocol.TypeMotor:
		cmd, err := msg.GetMotorCommand()
		if err != nil {
			g.sendError(driver, "bad_message", err.Error())
			return
		}
		g.applyMotorCommand(driver, cmd)

	case protocol.TypeCapture:
		cmd, err := msg.GetCaptureCommand()
		if err != nil {
			g.sendError(driver, "bad_message", err.Error())
			return
		}
		g.handleCapture(driver, cmd.Side)

	case protocol.TypePing:
		g.sendPong(driver, msg)

	default:
		g.sendError(driver, "unsupported", "unsupported message type: "+string(msg.Type))
	}
}

// applyMotorCommand clamps and applies a wheel velocity command.
func (g *Gateway) applyMotorCommand(driver *DriverConnection, cmd *protocol.MotorCommand) {
	left := clamp(cmd.Left, -1, 1)
	right := clamp(cmd.Right, -1, 1)

	driver.touch(left != 0 || right != 0)
	g.motorCommands.Add(1)

	if err := g.motors.SetVelocity(left, right); err != nil {
		g.logger.Warn("motor command failed", "err", err)
		g.sendError(driver, "motor", err.Error())
		return
	}
	if g.tracker != nil {
		g.tracker.SetDrive(status.Axes{}, status.Motors{Left: left, Right: right})
	}
}

// handleCapture requests a training photo and reports the outcome.
func (g *Gateway) handleCapture(driver *DriverConnection, side string) {
	if g.capturer == nil {
		g.sendError(driver, "unsupported", "capture not available")
		return
	}

	name, err := g.capturer.Capture(side)
	var out *protocol.Message
	if err != nil {
		out, _ = protocol.NewPhotoMessage(side, "", false, err.Error())
	} else {
		if g.tracker != nil {
			g.tracker.RecordPhoto(side, name)
		}
		out, _ = protocol.NewPhotoMessage(side, name, true, "")
	}
	if out != nil {
		g.send(driver, out)
	}
}

// sendPong answers a ping.
func (g *Gateway) sendPong(driver *DriverConnection, ping *protocol.Message) {
	id := ""
	if data, err := ping.GetPingData(); err == nil {
		id = data.ID
	}
	msg, err := protocol.NewPongMessage(id, ping.Timestamp, time.Now().UnixMilli())
	if err != nil {
		return
	}
	g.send(driver, msg)
}

func (g *Gateway) sendError(driver *DriverConnection, code, message string) {
	if msg, err := protocol.NewErrorMessage(code, message); err == nil {
		g.send(driver, msg)
	}
}

func (g *Gateway) send(driver *DriverConnection, msg *protocol.Message) {
	g.messagesSent.Add(1)
	if err := driver.Send(msg); err != nil {
		g.logger.Warn("send to driver failed", "client", driver.ID, "err", err)
	}
}

// SendState pushes a state snapshot to the connected driver, if any.
func (g *Gateway) SendState(state protocol.StateData) error {
	g.mu.RLock()
	driver := g.driver
	g.mu.RUnlock()

	if driver == nil {
		return nil
	}
	msg, err := protocol.NewStateMessage(state)
	if err != nil {
		return err
	}
	g.messagesSent.Add(1)
	return driver.Send(msg)
}

// stopMotors halts the wheels and zeroes the tracker's drive state.
func (g *Gateway) stopMotors() {
	if err := g.motors.Stop(); err != nil {
		g.logger.Error("motor stop failed", "err", err)
	}
	if g.tracker != nil {
		g.tracker.SetDrive(status.Axes{}, status.Motors{})
	}
}

// HasDriver reports whether a driver currently holds the controls.
func (g *Gateway) HasDriver() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.driver != nil
}

// DriverInfo contains info about the connected driver
type DriverInfo struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
}

// GetDriverInfo returns info about the connected driver, or nil.
func (g *Gateway) GetDriverInfo() *DriverInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.driver == nil {
		return nil
	}
	return &DriverInfo{ID: g.driver.ID, Connected: g.driver.Connected}
}

// Stats contains gateway statistics
type Stats struct {
	DriverConnected  bool   `json:"driver_connected"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	MotorCommands    uint64 `json:"motor_commands"`
	DeadmanStops     uint64 `json:"deadman_stops"`
}

// GetStats returns gateway statistics
func (g *Gateway) GetStats() Stats {
	return Stats{
		DriverConnected:  g.HasDriver(),
		MessagesReceived: g.messagesReceived.Load(),
		MessagesSent:     g.messagesSent.Load(),
		MotorCommands:    g.motorCommands.Load(),
		DeadmanStops:     g.deadmanStops.Load(),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
