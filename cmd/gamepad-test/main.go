// Command gamepad-test prints live controller state so a new pad's axis
// and button numbering can be checked against the drive mapping before
// putting the robot on the floor.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-jetbot/internal/config"
	"github.com/teslashibe/go-jetbot/pkg/gamepad"
)

func main() {
	joystickID := flag.Int("joystick", config.JoystickID(), "Joystick device index")
	rate := flag.Duration("rate", 100*time.Millisecond, "Poll interval")
	flag.Parse()

	pad, err := gamepad.Open(*joystickID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open joystick %d: %v\n", *joystickID, err)
		os.Exit(1)
	}
	defer pad.Close()

	fmt.Printf("🎮 %s (%d axes, %d buttons)\n", pad.Name(), pad.AxisCount(), pad.ButtonCount())
	fmt.Printf("   Drive axes: left=%d right=%d  Capture: L1=%d R1=%d  Quit: %d\n",
		gamepad.AxisLeftMotor, gamepad.AxisRightMotor,
		gamepad.ButtonCaptureLeft, gamepad.ButtonCaptureRight, gamepad.ButtonQuit)
	fmt.Println("   Ctrl-C to exit")
	fmt.Println()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*rate)
	defer ticker.Stop()

	var prev gamepad.Snapshot
	for {
		select {
		case <-sigChan:
			fmt.Println("\n👋 Goodbye!")
			return
		case <-ticker.C:
		}

		snap, err := pad.Poll()
		if err != nil {
			fmt.Printf("read failed: %v\n", err)
			continue
		}

		edges := gamepad.Diff(prev, snap)
		for _, b := range edges.Pressed {
			fmt.Printf("button %d pressed\n", b)
		}
		for _, b := range edges.Released {
			fmt.Printf("button %d released\n", b)
		}
		prev = snap

		left, right := gamepad.MotorValues(snap)
		fmt.Printf("\raxes=(%+.2f, %+.2f) motors=(%+.2f, %+.2f) buttons=%08b   ",
			snap.Axis(gamepad.AxisLeftMotor), snap.Axis(gamepad.AxisRightMotor),
			left, right, snap.Buttons)
	}
}
