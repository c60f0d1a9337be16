// Package config provides configuration helpers for go-jetbot commands.
package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Default robot configuration.
const (
	DefaultHTTPAddr = ":5000"
	DefaultI2CBus   = 1
	DefaultPhotoDir = "training-photos"
)

// HTTPAddr returns the web server listen address from JETBOT_HTTP_ADDR.
// Falls back to the default if not set.
func HTTPAddr() string {
	if addr := os.Getenv("JETBOT_HTTP_ADDR"); addr != "" {
		return addr
	}
	return DefaultHTTPAddr
}

// I2CBus returns the I2C bus number for the motor HAT from JETBOT_I2C_BUS.
// The Jetson Nano exposes the JetBot HAT on bus 1; newer carrier boards
// use bus 7.
func I2CBus() int {
	if bus := os.Getenv("JETBOT_I2C_BUS"); bus != "" {
		if n, err := strconv.Atoi(bus); err == nil {
			return n
		}
	}
	return DefaultI2CBus
}

// PhotoDir returns the training-photo base directory from JETBOT_PHOTO_DIR.
// Defaults to ~/training-photos.
func PhotoDir() string {
	if dir := os.Getenv("JETBOT_PHOTO_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultPhotoDir
	}
	return filepath.Join(home, DefaultPhotoDir)
}

// CameraMode returns the framing mode override from JETBOT_CAMERA_MODE
// ("markers" or "raw"). Empty means use the built-in default.
func CameraMode() string {
	return os.Getenv("JETBOT_CAMERA_MODE")
}

// JoystickID returns the joystick index from JETBOT_JOYSTICK.
func JoystickID() int {
	if id := os.Getenv("JETBOT_JOYSTICK"); id != "" {
		if n, err := strconv.Atoi(id); err == nil {
			return n
		}
	}
	return 0
}
