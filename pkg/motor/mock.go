package motor

import "sync"

// SpeedCall records one SetSpeed invocation on the mock driver.
type SpeedCall struct {
	Side  Side
	Speed float64
}

// MockDriver records all commands for testing. It also backs the --mock
// flag of the motor-test command, so bench runs work without the HAT.
type MockDriver struct {
	mu     sync.Mutex
	calls  []SpeedCall
	err    error
	closed bool
}

var _ Driver = (*MockDriver)(nil)

// NewMockDriver creates an empty mock driver.
func NewMockDriver() *MockDriver {
	return &MockDriver{}
}

// FailWith makes every subsequent SetSpeed return err.
func (m *MockDriver) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// SetSpeed records the call.
func (m *MockDriver) SetSpeed(side Side, speed float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, SpeedCall{Side: side, Speed: speed})
	return nil
}

// Close marks the driver closed.
func (m *MockDriver) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Calls returns a copy of all recorded calls.
func (m *MockDriver) Calls() []SpeedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SpeedCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Last returns the most recent speed commanded for side, or 0.
func (m *MockDriver) Last(side Side) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.calls) - 1; i >= 0; i-- {
		if m.calls[i].Side == side {
			return m.calls[i].Speed
		}
	}
	return 0
}

// CallCount returns the number of recorded calls.
func (m *MockDriver) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
