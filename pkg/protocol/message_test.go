package protocol

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    interface{}
		wantErr bool
	}{
		{
			name:    "motor message",
			msgType: TypeMotor,
			data:    MotorCommand{Left: 0.5, Right: -0.5},
			wantErr: false,
		},
		{
			name:    "capture message",
			msgType: TypeCapture,
			data:    CaptureCommand{Side: "left"},
			wantErr: false,
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if msg == nil && !tt.wantErr {
				t.Error("NewMessage() returned nil message")
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestMessageRoundTrip(t *testing.T) {
	msg, err := NewMotorMessage(0.75, -0.25)
	if err != nil {
		t.Fatalf("NewMotorMessage() error = %v", err)
	}

	// Serialize to bytes
	bytes, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	// Parse back
	parsed, err := ParseMessage(bytes)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}

	if parsed.Type != TypeMotor {
		t.Errorf("Type = %v, want %v", parsed.Type, TypeMotor)
	}

	cmd, err := parsed.GetMotorCommand()
	if err != nil {
		t.Fatalf("GetMotorCommand() error = %v", err)
	}

	if cmd.Left != 0.75 {
		t.Errorf("Left = %v, want 0.75", cmd.Left)
	}
	if cmd.Right != -0.25 {
		t.Errorf("Right = %v, want -0.25", cmd.Right)
	}
}

func TestCaptureMessage(t *testing.T) {
	msg, err := NewCaptureMessage("right")
	if err != nil {
		t.Fatalf("NewCaptureMessage() error = %v", err)
	}

	if msg.Type != TypeCapture {
		t.Errorf("Type = %v, want %v", msg.Type, TypeCapture)
	}

	cmd, err := msg.GetCaptureCommand()
	if err != nil {
		t.Fatalf("GetCaptureCommand() error = %v", err)
	}

	if cmd.Side != "right" {
		t.Errorf("Side = %v, want right", cmd.Side)
	}
}

func TestStateMessage(t *testing.T) {
	msg, err := NewStateMessage(StateData{
		Running:         true,
		CameraAvailable: true,
		Motors:          MotorState{Left: 0.3, Right: 0.3},
		PhotoCounts:     map[string]int{"left": 4, "right": 7},
		Message:         "captured left_test.jpg",
	})
	if err != nil {
		t.Fatalf("NewStateMessage() error = %v", err)
	}

	if msg.Type != TypeState {
		t.Errorf("Type = %v, want %v", msg.Type, TypeState)
	}

	state, err := msg.GetStateData()
	if err != nil {
		t.Fatalf("GetStateData() error = %v", err)
	}

	if !state.Running {
		t.Error("Running should be true")
	}
	if state.Motors.Left != 0.3 {
		t.Errorf("Motors.Left = %v, want 0.3", state.Motors.Left)
	}
	if state.PhotoCounts["right"] != 7 {
		t.Errorf("PhotoCounts[right] = %v, want 7", state.PhotoCounts["right"])
	}
}

func TestPhotoMessage(t *testing.T) {
	accepted, err := NewPhotoMessage("left", "left_20260823_143005.000000.jpg", true, "")
	if err != nil {
		t.Fatalf("NewPhotoMessage() error = %v", err)
	}

	event, err := accepted.GetPhotoEvent()
	if err != nil {
		t.Fatalf("GetPhotoEvent() error = %v", err)
	}
	if !event.Accepted {
		t.Error("Accepted should be true")
	}
	if event.Name != "left_20260823_143005.000000.jpg" {
		t.Errorf("Name = %v", event.Name)
	}

	rejected, err := NewPhotoMessage("left", "", false, "rate limited")
	if err != nil {
		t.Fatalf("NewPhotoMessage() error = %v", err)
	}
	event, err = rejected.GetPhotoEvent()
	if err != nil {
		t.Fatalf("GetPhotoEvent() error = %v", err)
	}
	if event.Accepted {
		t.Error("Accepted should be false")
	}
	if event.Reason != "rate limited" {
		t.Errorf("Reason = %v, want rate limited", event.Reason)
	}
}

func TestErrorMessage(t *testing.T) {
	msg, err := NewErrorMessage("busy", "another driver is connected")
	if err != nil {
		t.Fatalf("NewErrorMessage() error = %v", err)
	}

	if msg.Type != TypeError {
		t.Errorf("Type = %v, want %v", msg.Type, TypeError)
	}

	data, err := msg.GetErrorData()
	if err != nil {
		t.Fatalf("GetErrorData() error = %v", err)
	}

	if data.Code != "busy" {
		t.Errorf("Code = %v, want busy", data.Code)
	}
}

func TestPingPongMessage(t *testing.T) {
	pingMsg, err := NewPingMessage("test-123")
	if err != nil {
		t.Fatalf("NewPingMessage() error = %v", err)
	}

	if pingMsg.Type != TypePing {
		t.Errorf("Type = %v, want %v", pingMsg.Type, TypePing)
	}

	pingData, err := pingMsg.GetPingData()
	if err != nil {
		t.Fatalf("GetPingData() error = %v", err)
	}

	if pingData.ID != "test-123" {
		t.Errorf("ID = %v, want test-123", pingData.ID)
	}

	// Create pong response
	now := time.Now().UnixMilli()
	pongMsg, err := NewPongMessage("test-123", pingMsg.Timestamp, now)
	if err != nil {
		t.Fatalf("NewPongMessage() error = %v", err)
	}

	if pongMsg.Type != TypePong {
		t.Errorf("Type = %v, want %v", pongMsg.Type, TypePong)
	}

	pongData, err := pongMsg.GetPongData()
	if err != nil {
		t.Fatalf("GetPongData() error = %v", err)
	}

	if pongData.ID != "test-123" {
		t.Errorf("ID = %v, want test-123", pongData.ID)
	}
	if pongData.LatencyMs < 0 {
		t.Errorf("LatencyMs = %v, should be >= 0", pongData.LatencyMs)
	}
}

func TestParseInvalidMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "invalid json",
			input:   "not json",
			wantErr: true,
		},
		{
			name:    "empty json",
			input:   "{}",
			wantErr: false, // Empty is valid, just no type
		},
		{
			name:    "valid message",
			input:   `{"type":"ping","ts":1234567890}`,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMessage([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessageJSON(t *testing.T) {
	// Verify JSON structure matches expected format
	msg, _ := NewMotorMessage(0.5, -0.5)

	bytes, _ := msg.Bytes()

	var parsed map[string]interface{}
	if err := json.Unmarshal(bytes, &parsed); err != nil {
		t.Fatalf("Failed to unmarshal as map: %v", err)
	}

	if parsed["type"] != "motor" {
		t.Errorf("type = %v, want motor", parsed["type"])
	}

	if _, ok := parsed["ts"]; !ok {
		t.Error("ts field should be present")
	}

	if _, ok := parsed["data"]; !ok {
		t.Error("data field should be present")
	}
}

func BenchmarkNewMotorMessage(b *testing.B) {
	for i := 0; i < b.N; i++ {
		NewMotorMessage(0.5, -0.5)
	}
}

func BenchmarkParseMessage(b *testing.B) {
	msg, _ := NewMotorMessage(0.5, -0.5)
	bytes, _ := msg.Bytes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseMessage(bytes)
	}
}
