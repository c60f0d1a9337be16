package protocol

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewMotorMessage creates a wheel velocity command
func NewMotorMessage(left, right float64) (*Message, error) {
	return NewMessage(TypeMotor, MotorCommand{
		Left:  left,
		Right: right,
	})
}

// NewCaptureMessage creates a training photo request
func NewCaptureMessage(side string) (*Message, error) {
	return NewMessage(TypeCapture, CaptureCommand{
		Side: side,
	})
}

// NewStateMessage creates a state snapshot message
func NewStateMessage(state StateData) (*Message, error) {
	return NewMessage(TypeState, state)
}

// NewPhotoMessage creates a capture outcome message
func NewPhotoMessage(side, name string, accepted bool, reason string) (*Message, error) {
	return NewMessage(TypePhoto, PhotoEvent{
		Side:     side,
		Name:     name,
		Accepted: accepted,
		Reason:   reason,
	})
}

// NewErrorMessage creates an error message
func NewErrorMessage(code, message string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{
		Code:    code,
		Message: message,
	})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: 0, // Will be set by NewMessage
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetMotorCommand extracts a motor command from a message
func (m *Message) GetMotorCommand() (*MotorCommand, error) {
	var data MotorCommand
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetCaptureCommand extracts a capture request from a message
func (m *Message) GetCaptureCommand() (*CaptureCommand, error) {
	var data CaptureCommand
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetStateData extracts a state snapshot from a message
func (m *Message) GetStateData() (*StateData, error) {
	var data StateData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPhotoEvent extracts a capture outcome from a message
func (m *Message) GetPhotoEvent() (*PhotoEvent, error) {
	var data PhotoEvent
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetErrorData extracts error data from a message
func (m *Message) GetErrorData() (*ErrorData, error) {
	var data ErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
