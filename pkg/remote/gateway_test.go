package remote

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-jetbot/pkg/motor"
	"github.com/teslashibe/go-jetbot/pkg/photos"
	"github.com/teslashibe/go-jetbot/pkg/protocol"
	"github.com/teslashibe/go-jetbot/pkg/status"
)

type mockCapturer struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (m *mockCapturer) Capture(side string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.calls = append(m.calls, side)
	return side + "_test.jpg", nil
}

func newTestGateway() (*Gateway, *motor.MockDriver, *mockCapturer, *status.Tracker) {
	driver := motor.NewMockDriver()
	robot := motor.NewRobot(driver)
	cap := &mockCapturer{}
	tracker := status.NewTracker()
	return NewGateway(robot, cap, tracker), driver, cap, tracker
}

func startTestServer(t *testing.T, g *Gateway, addr string) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	g.RegisterRoutes(app)

	go app.Listen(addr)
	t.Cleanup(func() { app.Shutdown() })
	time.Sleep(100 * time.Millisecond)
	return app
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func sendMessage(t *testing.T, ws *websocket.Conn, msg *protocol.Message) {
	t.Helper()
	data, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("WriteMessage error: %v", err)
	}
}

func readMessage(t *testing.T, ws *websocket.Conn) *protocol.Message {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage error: %v", err)
	}
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	return &msg
}

func TestGateway_MotorCommand(t *testing.T) {
	g, driver, _, tracker := newTestGateway()
	startTestServer(t, g, ":18090")

	ws := dial(t, "ws://localhost:18090/ws/teleop")
	time.Sleep(50 * time.Millisecond)

	if !g.HasDriver() {
		t.Fatal("gateway should report a connected driver")
	}

	msg, _ := protocol.NewMotorMessage(0.5, -0.5)
	sendMessage(t, ws, msg)
	time.Sleep(50 * time.Millisecond)

	if got := driver.Last(motor.Left); got != 0.5 {
		t.Errorf("left motor = %v, want 0.5", got)
	}
	if got := driver.Last(motor.Right); got != -0.5 {
		t.Errorf("right motor = %v, want -0.5", got)
	}
	if tracker.Snapshot().Motors.Left != 0.5 {
		t.Errorf("tracker left = %v, want 0.5", tracker.Snapshot().Motors.Left)
	}
}

func TestGateway_ClampsMotorCommand(t *testing.T) {
	g, driver, _, _ := newTestGateway()
	startTestServer(t, g, ":18091")

	ws := dial(t, "ws://localhost:18091/ws/teleop")
	time.Sleep(50 * time.Millisecond)

	msg, _ := protocol.NewMotorMessage(4.2, -9.9)
	sendMessage(t, ws, msg)
	time.Sleep(50 * time.Millisecond)

	if got := driver.Last(motor.Left); got != 1.0 {
		t.Errorf("left motor = %v, want clamped 1.0", got)
	}
	if got := driver.Last(motor.Right); got != -1.0 {
		t.Errorf("right motor = %v, want clamped -1.0", got)
	}
}

func TestGateway_SingleDriver(t *testing.T) {
	g, _, _, _ := newTestGateway()
	startTestServer(t, g, ":18092")

	dial(t, "ws://localhost:18092/ws/teleop")
	time.Sleep(50 * time.Millisecond)

	second := dial(t, "ws://localhost:18092/ws/teleop")
	resp := readMessage(t, second)

	if resp.Type != protocol.TypeError {
		t.Fatalf("second driver got %v, want error", resp.Type)
	}
	data, err := resp.GetErrorData()
	if err != nil {
		t.Fatalf("GetErrorData() error = %v", err)
	}
	if data.Code != "busy" {
		t.Errorf("error code = %v, want busy", data.Code)
	}
}

func TestGateway_DeadmanStopsMotors(t *testing.T) {
	g, driver, _, _ := newTestGateway()
	g.SetDeadman(100 * time.Millisecond)
	startTestServer(t, g, ":18093")

	ws := dial(t, "ws://localhost:18093/ws/teleop")
	time.Sleep(50 * time.Millisecond)

	msg, _ := protocol.NewMotorMessage(0.8, 0.8)
	sendMessage(t, ws, msg)
	time.Sleep(50 * time.Millisecond)
	if got := driver.Last(motor.Left); got != 0.8 {
		t.Fatalf("left motor = %v, want 0.8", got)
	}

	// Go silent past the deadman window.
	time.Sleep(300 * time.Millisecond)

	if got := driver.Last(motor.Left); got != 0 {
		t.Errorf("left motor after deadman = %v, want 0", got)
	}
	if g.GetStats().DeadmanStops < 1 {
		t.Error("stats should count the deadman stop")
	}

	// A fresh command resumes driving.
	msg, _ = protocol.NewMotorMessage(0.4, 0.4)
	sendMessage(t, ws, msg)
	time.Sleep(50 * time.Millisecond)
	if got := driver.Last(motor.Left); got != 0.4 {
		t.Errorf("left motor after resume = %v, want 0.4", got)
	}
}

func TestGateway_DisconnectStopsMotors(t *testing.T) {
	g, driver, _, _ := newTestGateway()
	startTestServer(t, g, ":18094")

	ws := dial(t, "ws://localhost:18094/ws/teleop")
	time.Sleep(50 * time.Millisecond)

	msg, _ := protocol.NewMotorMessage(1.0, 1.0)
	sendMessage(t, ws, msg)
	time.Sleep(50 * time.Millisecond)

	ws.Close()
	time.Sleep(100 * time.Millisecond)

	if g.HasDriver() {
		t.Error("gateway should have no driver after disconnect")
	}
	if got := driver.Last(motor.Left); got != 0 {
		t.Errorf("left motor after disconnect = %v, want 0", got)
	}
}

func TestGateway_Capture(t *testing.T) {
	g, _, cap, tracker := newTestGateway()
	startTestServer(t, g, ":18095")

	ws := dial(t, "ws://localhost:18095/ws/teleop")
	time.Sleep(50 * time.Millisecond)

	msg, _ := protocol.NewCaptureMessage("left")
	sendMessage(t, ws, msg)

	resp := readMessage(t, ws)
	if resp.Type != protocol.TypePhoto {
		t.Fatalf("response type = %v, want photo", resp.Type)
	}
	event, err := resp.GetPhotoEvent()
	if err != nil {
		t.Fatalf("GetPhotoEvent() error = %v", err)
	}
	if !event.Accepted || event.Name != "left_test.jpg" {
		t.Errorf("photo event = %+v", event)
	}
	if tracker.Snapshot().PhotoCounts["left"] != 1 {
		t.Error("tracker should count the capture")
	}

	// Rejected captures come back with a reason instead of a name.
	cap.err = photos.ErrRateLimited
	sendMessage(t, ws, msg)
	resp = readMessage(t, ws)
	event, _ = resp.GetPhotoEvent()
	if event.Accepted {
		t.Error("rejected capture reported as accepted")
	}
	if event.Reason == "" {
		t.Error("rejected capture should carry a reason")
	}
}

func TestGateway_PingPong(t *testing.T) {
	g, _, _, _ := newTestGateway()
	startTestServer(t, g, ":18096")

	ws := dial(t, "ws://localhost:18096/ws/teleop")
	time.Sleep(50 * time.Millisecond)

	ping, _ := protocol.NewPingMessage("hello-1")
	sendMessage(t, ws, ping)

	resp := readMessage(t, ws)
	if resp.Type != protocol.TypePong {
		t.Fatalf("response type = %v, want pong", resp.Type)
	}
	data, err := resp.GetPongData()
	if err != nil {
		t.Fatalf("GetPongData() error = %v", err)
	}
	if data.ID != "hello-1" {
		t.Errorf("pong ID = %v, want hello-1", data.ID)
	}
}

func TestGateway_SendStateWithoutDriver(t *testing.T) {
	g, _, _, _ := newTestGateway()

	// No driver connected: a state push is a no-op, not an error.
	if err := g.SendState(protocol.StateData{Running: true}); err != nil {
		t.Errorf("SendState() error = %v, want nil", err)
	}
}

func TestGateway_BadMessage(t *testing.T) {
	g, _, _, _ := newTestGateway()
	startTestServer(t, g, ":18097")

	ws := dial(t, "ws://localhost:18097/ws/teleop")
	time.Sleep(50 * time.Millisecond)

	if err := ws.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("WriteMessage error: %v", err)
	}

	resp := readMessage(t, ws)
	if resp.Type != protocol.TypeError {
		t.Fatalf("response type = %v, want error", resp.Type)
	}
}
