// Package protocol defines the WebSocket message types for the remote
// driving link. This package is shared between the robot and any driver
// client, so it depends on nothing else in the repo.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Driver → Robot messages
	TypeMotor   MessageType = "motor"   // Wheel velocity command
	TypeCapture MessageType = "capture" // Training photo request

	// Robot → Driver messages
	TypeState MessageType = "state" // Robot state snapshot
	TypePhoto MessageType = "photo" // Capture outcome
	TypeError MessageType = "error" // Rejected request

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = sonic.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return sonic.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return sonic.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := sonic.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Driver → Robot Message Types
// =============================================================================

// MotorCommand sets both wheel velocities. Values are normalized to
// [-1.0, 1.0]; the robot clamps anything outside that range.
type MotorCommand struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// CaptureCommand requests a training photo for one steering class.
type CaptureCommand struct {
	Side string `json:"side"` // "left" or "right"
}

// =============================================================================
// Robot → Driver Message Types
// =============================================================================

// StateData is the robot state snapshot pushed to the driver.
type StateData struct {
	Running         bool           `json:"running"`
	CameraAvailable bool           `json:"camera_available"`
	Motors          MotorState     `json:"motors"`
	PhotoCounts     map[string]int `json:"photo_counts,omitempty"`
	Message         string         `json:"message,omitempty"`
}

// MotorState reports the wheel velocities currently applied.
type MotorState struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// PhotoEvent reports the outcome of a capture request.
type PhotoEvent struct {
	Side     string `json:"side"`
	Name     string `json:"name,omitempty"`
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"` // set when rejected
}

// ErrorData reports a rejected request or connection problem.
type ErrorData struct {
	Code    string `json:"code"` // "busy", "bad_message", "unsupported"
	Message string `json:"message"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
