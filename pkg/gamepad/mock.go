package gamepad

import "sync"

// MockDevice is a Device with externally settable state, for tests.
type MockDevice struct {
	mu    sync.Mutex
	state Snapshot
	err   error
	polls int
}

var _ Device = (*MockDevice)(nil)

// NewMockDevice creates a mock with eight centered axes.
func NewMockDevice() *MockDevice {
	return &MockDevice{state: Snapshot{Axes: make([]float64, 8)}}
}

// SetAxis sets one axis value.
func (m *MockDevice) SetAxis(i int, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i >= 0 && i < len(m.state.Axes) {
		m.state.Axes[i] = v
	}
}

// SetButton sets one button's down state.
func (m *MockDevice) SetButton(b int, down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mask := uint32(1) << uint(b)
	if down {
		m.state.Buttons |= mask
	} else {
		m.state.Buttons &^= mask
	}
}

// FailWith makes every subsequent Poll return err.
func (m *MockDevice) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Poll returns a copy of the current state.
func (m *MockDevice) Poll() (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.polls++
	if m.err != nil {
		return Snapshot{}, m.err
	}
	axes := make([]float64, len(m.state.Axes))
	copy(axes, m.state.Axes)
	return Snapshot{Axes: axes, Buttons: m.state.Buttons}, nil
}

// PollCount returns how many times Poll has been called.
func (m *MockDevice) PollCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polls
}

// Name identifies the mock.
func (m *MockDevice) Name() string { return "mock gamepad" }

// Close is a no-op.
func (m *MockDevice) Close() {}
