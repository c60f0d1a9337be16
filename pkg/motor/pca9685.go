package motor

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/teslashibe/go-jetbot/internal/log"
)

// PCA9685 register map (the HAT's PWM controller).
const (
	regMode1    = 0x00
	regPrescale = 0xFE
	regLED0OnL  = 0x06 // 4 registers per channel from here

	mode1Sleep   = 0x10
	mode1AutoInc = 0x20
	mode1Restart = 0x80
)

// DefaultHATAddr is the I2C address of the JetBot motor HAT.
const DefaultHATAddr = 0x60

// pwmFrequency is the motor PWM carrier. 1.6kHz keeps the DC motors quiet.
const pwmFrequency = 1600

// Channel assignment on the HAT: each DC motor uses one PWM channel for
// speed and two for direction (the H-bridge inputs).
type motorChannels struct {
	pwm, in1, in2 uint8
}

var hatChannels = map[Side]motorChannels{
	Left:  {pwm: 8, in1: 10, in2: 9},
	Right: {pwm: 13, in1: 11, in2: 12},
}

// HAT drives the DC motors through the PCA9685 on the JetBot motor HAT.
type HAT struct {
	mu     sync.Mutex
	bus    i2c.BusCloser
	dev    *i2c.Dev
	closed bool
}

var _ Driver = (*HAT)(nil)

// OpenHAT initializes the periph host, opens the given I2C bus, and
// configures the PCA9685 for motor control. busNumber is the kernel bus
// index (1 on the Jetson Nano, 7 on newer carrier boards).
func OpenHAT(busNumber, addr int) (*HAT, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("motor: periph host init: %w", err)
	}

	bus, err := i2creg.Open(strconv.Itoa(busNumber))
	if err != nil {
		return nil, fmt.Errorf("motor: open i2c bus %d: %w", busNumber, err)
	}

	h := &HAT{
		bus: bus,
		dev: &i2c.Dev{Addr: uint16(addr), Bus: bus},
	}
	if err := h.init(); err != nil {
		bus.Close()
		return nil, err
	}

	log.Info("motor HAT ready", "bus", busNumber, "addr", fmt.Sprintf("0x%02x", addr))
	return h, nil
}

// init wakes the PCA9685, sets the PWM frequency, and zeroes all channels.
func (h *HAT) init() error {
	// Sleep before touching the prescaler; it is read-only while awake.
	if err := h.writeReg(regMode1, mode1Sleep|mode1AutoInc); err != nil {
		return fmt.Errorf("motor: pca9685 sleep: %w", err)
	}

	// prescale = round(25MHz / (4096 * freq)) - 1
	prescale := uint8(25_000_000/(4096*pwmFrequency) - 1)
	if err := h.writeReg(regPrescale, prescale); err != nil {
		return fmt.Errorf("motor: pca9685 prescale: %w", err)
	}

	if err := h.writeReg(regMode1, mode1AutoInc); err != nil {
		return fmt.Errorf("motor: pca9685 wake: %w", err)
	}
	// Oscillator needs 500us after wake before restart.
	time.Sleep(time.Millisecond)
	if err := h.writeReg(regMode1, mode1Restart|mode1AutoInc); err != nil {
		return fmt.Errorf("motor: pca9685 restart: %w", err)
	}

	for side := range hatChannels {
		if err := h.setSpeedLocked(side, 0); err != nil {
			return err
		}
	}
	return nil
}

// SetSpeed drives one motor at speed in [-1, 1].
func (h *HAT) SetSpeed(side Side, speed float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	return h.setSpeedLocked(side, clamp(speed, -1, 1))
}

func (h *HAT) setSpeedLocked(side Side, speed float64) error {
	ch, ok := hatChannels[side]
	if !ok {
		return fmt.Errorf("motor: no channels for side %v", side)
	}

	magnitude := speed
	if magnitude < 0 {
		magnitude = -magnitude
	}
	duty := uint16(magnitude * 4095)

	var in1, in2 bool
	switch {
	case speed > 0:
		in1, in2 = true, false
	case speed < 0:
		in1, in2 = false, true
	}

	if err := h.setPin(ch.in1, in1); err != nil {
		return err
	}
	if err := h.setPin(ch.in2, in2); err != nil {
		return err
	}
	return h.setPWM(ch.pwm, duty)
}

// setPWM writes a duty cycle (0..4095) to one channel.
func (h *HAT) setPWM(channel uint8, duty uint16) error {
	base := regLED0OnL + 4*channel
	buf := []byte{base, 0x00, 0x00, byte(duty), byte(duty >> 8)}
	return h.dev.Tx(buf, nil)
}

// setPin drives a channel fully on or fully off using the PCA9685's
// full-on/full-off bits.
func (h *HAT) setPin(channel uint8, on bool) error {
	base := regLED0OnL + 4*channel
	var buf []byte
	if on {
		buf = []byte{base, 0x00, 0x10, 0x00, 0x00} // full on
	} else {
		buf = []byte{base, 0x00, 0x00, 0x00, 0x10} // full off
	}
	return h.dev.Tx(buf, nil)
}

func (h *HAT) writeReg(reg, value uint8) error {
	return h.dev.Tx([]byte{reg, value}, nil)
}

// Close stops both motors and releases the bus. Idempotent.
func (h *HAT) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	for side := range hatChannels {
		h.setSpeedLocked(side, 0)
	}
	h.closed = true
	return h.bus.Close()
}
