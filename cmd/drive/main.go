// Command drive is a terminal client for driving the robot over the
// teleop WebSocket. WASD steers, space stops, 1/2 capture training
// photos, q quits. Commands are resent continuously so the robot's
// deadman watchdog keeps the wheels alive while the client runs.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/term"

	"github.com/teslashibe/go-jetbot/internal/httpc"
	"github.com/teslashibe/go-jetbot/pkg/protocol"
)

// sendRate paces motor commands well inside the robot's deadman window.
const sendRate = 100 * time.Millisecond

const speedStep = 0.1

func main() {
	robot := flag.String("robot", "localhost:5000", "Robot host:port")
	speed := flag.Float64("speed", 0.5, "Drive speed (0..1)")
	flag.Parse()

	// Preflight: make sure the robot is there before taking the terminal.
	resp, err := httpc.Short.Get("http://" + *robot + "/api/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "robot not reachable at %s: %v\n", *robot, err)
		os.Exit(1)
	}
	resp.Body.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+*robot+"/ws/teleop", nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect teleop: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Println("🎮 JetBot Drive")
	fmt.Printf("   Robot: %s\n", *robot)
	fmt.Println("   w/s forward/back  a/d spin  +/- speed  space stop")
	fmt.Println("   1/2 capture left/right  p ping  q quit")
	fmt.Println()

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "raw terminal: %v\n", err)
		os.Exit(1)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	keys := make(chan byte, 16)
	go func() {
		buf := make([]byte, 1)
		for {
			if _, err := os.Stdin.Read(buf); err != nil {
				close(keys)
				return
			}
			keys <- buf[0]
		}
	}()

	// Server messages: state pushes, photo events, errors, pongs.
	incoming := make(chan *protocol.Message, 16)
	go func() {
		defer close(incoming)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg, err := protocol.ParseMessage(data)
			if err != nil {
				continue
			}
			incoming <- msg
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(sendRate)
	defer ticker.Stop()

	send := func(msg *protocol.Message, err error) {
		if err != nil {
			return
		}
		data, err := msg.Bytes()
		if err != nil {
			return
		}
		conn.WriteMessage(websocket.TextMessage, data)
	}

	var left, right float64
	for {
		select {
		case <-sigChan:
			send(protocol.NewMotorMessage(0, 0))
			fmt.Print("\r\n👋 Goodbye!\r\n")
			return

		case key, ok := <-keys:
			if !ok {
				return
			}
			switch key {
			case 'w':
				left, right = *speed, *speed
			case 's':
				left, right = -*speed, -*speed
			case 'a':
				left, right = -*speed, *speed
			case 'd':
				left, right = *speed, -*speed
			case ' ':
				left, right = 0, 0
			case '+', '=':
				*speed = min(*speed+speedStep, 1)
				fmt.Printf("\rspeed %.1f          \r\n", *speed)
			case '-', '_':
				*speed = max(*speed-speedStep, speedStep)
				fmt.Printf("\rspeed %.1f          \r\n", *speed)
			case '1':
				send(protocol.NewCaptureMessage("left"))
			case '2':
				send(protocol.NewCaptureMessage("right"))
			case 'p':
				send(protocol.NewPingMessage(uuid.NewString()))
			case 'q', 3: // q or Ctrl-C in raw mode
				send(protocol.NewMotorMessage(0, 0))
				fmt.Print("\r\n👋 Goodbye!\r\n")
				return
			}

		case <-ticker.C:
			send(protocol.NewMotorMessage(left, right))

		case msg, ok := <-incoming:
			if !ok {
				fmt.Print("\r\nconnection closed\r\n")
				return
			}
			printMessage(msg, left, right)
		}
	}
}

// printMessage renders one server message on the status line.
func printMessage(msg *protocol.Message, left, right float64) {
	switch msg.Type {
	case protocol.TypeState:
		st, err := msg.GetStateData()
		if err != nil {
			return
		}
		fmt.Printf("\rmotors=(%+.2f, %+.2f) photos=%v %-30s",
			left, right, st.PhotoCounts, st.Message)
	case protocol.TypePhoto:
		ev, err := msg.GetPhotoEvent()
		if err != nil {
			return
		}
		if ev.Accepted {
			fmt.Printf("\r\n📸 %s: %s\r\n", ev.Side, ev.Name)
		} else {
			fmt.Printf("\r\n📸 %s rejected: %s\r\n", ev.Side, ev.Reason)
		}
	case protocol.TypePong:
		pong, err := msg.GetPongData()
		if err != nil {
			return
		}
		fmt.Printf("\r\n🏓 latency %dms\r\n", pong.LatencyMs)
	case protocol.TypeError:
		errData, err := msg.GetErrorData()
		if err != nil {
			return
		}
		fmt.Printf("\r\n⚠️  %s: %s\r\n", errData.Code, errData.Message)
	}
}
