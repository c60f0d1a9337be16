// Package debug provides global debug logging flags
package debug

import "fmt"

// Enabled controls whether debug logging is active
var Enabled bool

// Teleop controls whether per-tick teleop logs are shown (axis values, motor
// commands). Use --debug-teleop to enable these very verbose logs
var Teleop bool

// Log prints a message only if debug mode is enabled
func Log(format string, args ...interface{}) {
	if Enabled {
		fmt.Printf(format, args...)
	}
}

// Logln prints a message with newline only if debug mode is enabled
func Logln(msg string) {
	if Enabled {
		fmt.Println(msg)
	}
}

// TeleopLog prints a message only if teleop debug mode is enabled
func TeleopLog(format string, args ...interface{}) {
	if Teleop {
		fmt.Printf(format, args...)
	}
}

// TeleopLogln prints a message with newline only if teleop debug mode is enabled
func TeleopLogln(msg string) {
	if Teleop {
		fmt.Println(msg)
	}
}
