// Package camera owns the encoder subprocess and turns its byte stream into
// frames. It supports the two framings the Jetson pipelines produce: a
// JPEG stream with in-band SOI/EOI markers, and fixed-size raw BGR frames.
package camera

import "fmt"

// Mode selects how the encoder's byte stream is framed.
type Mode string

const (
	// ModeMarkers parses a continuous JPEG stream by its SOI/EOI markers.
	ModeMarkers Mode = "markers"
	// ModeRaw reads fixed-size raw BGR frames.
	ModeRaw Mode = "raw"
)

// Config holds all camera configuration parameters.
type Config struct {
	// === Capture ===
	SensorID  int `json:"sensor_id"` // CSI sensor index
	Width     int `json:"width"`     // Capture width in pixels
	Height    int `json:"height"`    // Capture height in pixels
	Framerate int `json:"framerate"` // Capture FPS

	// === Framing ===
	Mode Mode `json:"mode"`

	// Output dimensions after the pipeline's downscale. Only meaningful in
	// raw mode, where they fix the frame size read from the stream.
	OutputWidth  int `json:"output_width"`
	OutputHeight int `json:"output_height"`

	// MinFrameBytes rejects marker-delimited spans at or below this size.
	// Guards against spurious SOI/EOI collisions in entropy-coded data.
	MinFrameBytes int `json:"min_frame_bytes"`

	// Quality is the JPEG quality used when raw frames are encoded
	// downstream (1-100).
	Quality int `json:"quality"`

	// Launcher is the pipeline binary. Overridable for tests.
	Launcher string `json:"-"`
}

// Sensor capabilities for the IMX219 (JetBot camera module).
const (
	SensorMaxWidth     = 3280
	SensorMaxHeight    = 2464
	SensorMaxFramerate = 120
)

// DefaultMinFrameBytes matches the smallest plausible encoded frame.
const DefaultMinFrameBytes = 100

// DefaultLauncher is the GStreamer pipeline launcher.
const DefaultLauncher = "gst-launch-1.0"

// DefaultConfig returns the preview configuration: 720p JPEG stream parsed
// by markers, matching the standalone camera server.
func DefaultConfig() Config {
	return Config{
		SensorID:      0,
		Width:         1280,
		Height:        720,
		Framerate:     30,
		Mode:          ModeMarkers,
		MinFrameBytes: DefaultMinFrameBytes,
		Quality:       80,
		Launcher:      DefaultLauncher,
	}
}

// RawConfig returns the teleop configuration: 720p capture downscaled to
// 640x480 BGR, read as fixed-size frames. Raw frames keep the producer
// loop free of encode work; JPEG encoding happens at the consumer edge.
func RawConfig() Config {
	cfg := DefaultConfig()
	cfg.Mode = ModeRaw
	cfg.OutputWidth = 640
	cfg.OutputHeight = 480
	return cfg
}

// FrameSize returns the byte count of one raw frame, or 0 for marker mode.
func (c *Config) FrameSize() int {
	if c.Mode != ModeRaw {
		return 0
	}
	return c.OutputWidth * c.OutputHeight * 3 // BGR
}

// Command returns the pipeline invocation for the configured mode.
func (c *Config) Command() []string {
	capsFilter := fmt.Sprintf("video/x-raw(memory:NVMM),width=%d,height=%d,framerate=%d/1",
		c.Width, c.Height, c.Framerate)

	switch c.Mode {
	case ModeRaw:
		return []string{
			c.Launcher, "-q",
			"nvarguscamerasrc", fmt.Sprintf("sensor-id=%d", c.SensorID),
			"!", capsFilter,
			"!", "nvvidconv",
			"!", fmt.Sprintf("video/x-raw,width=%d,height=%d", c.OutputWidth, c.OutputHeight),
			"!", "videoconvert",
			"!", "video/x-raw,format=BGR",
			"!", "fdsink",
		}
	default: // ModeMarkers
		return []string{
			c.Launcher, "-q",
			"nvarguscamerasrc", fmt.Sprintf("sensor-id=%d", c.SensorID),
			"!", capsFilter,
			"!", "nvvidconv",
			"!", "nvjpegenc",
			"!", "fdsink",
		}
	}
}

// stillCommand returns a one-shot pipeline invocation that captures a
// single buffer at full sensor framing, scales it to width x height, and
// writes a JPEG to path.
func (c *Config) stillCommand(path string, width, height int) []string {
	return []string{
		c.Launcher, "-q",
		"nvarguscamerasrc", fmt.Sprintf("sensor-id=%d", c.SensorID), "num-buffers=1",
		"!", fmt.Sprintf("video/x-raw(memory:NVMM),width=%d,height=%d,framerate=%d/1",
			c.Width, c.Height, c.Framerate),
		"!", "nvvidconv",
		"!", fmt.Sprintf("video/x-raw,width=%d,height=%d", width, height),
		"!", "jpegenc",
		"!", "filesink", fmt.Sprintf("location=%s", path),
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.SensorID < 0 {
		errors = append(errors, "sensor_id must be >= 0")
	}
	if c.Width < 160 || c.Width > SensorMaxWidth {
		errors = append(errors, fmt.Sprintf("width must be between 160 and %d", SensorMaxWidth))
	}
	if c.Height < 120 || c.Height > SensorMaxHeight {
		errors = append(errors, fmt.Sprintf("height must be between 120 and %d", SensorMaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > SensorMaxFramerate {
		errors = append(errors, fmt.Sprintf("framerate must be between 1 and %d", SensorMaxFramerate))
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	switch c.Mode {
	case ModeMarkers:
		if c.MinFrameBytes < 4 {
			errors = append(errors, "min_frame_bytes must be at least 4 in markers mode")
		}
	case ModeRaw:
		if c.OutputWidth < 16 || c.OutputHeight < 16 {
			errors = append(errors, "output dimensions must be at least 16x16 in raw mode")
		}
		if c.OutputWidth > c.Width || c.OutputHeight > c.Height {
			errors = append(errors, "output dimensions must not exceed capture dimensions")
		}
	default:
		errors = append(errors, "mode must be markers or raw")
	}

	return errors
}

// Capabilities returns the camera sensor capabilities.
func Capabilities() map[string]interface{} {
	return map[string]interface{}{
		"sensor":        "imx219",
		"max_width":     SensorMaxWidth,
		"max_height":    SensorMaxHeight,
		"max_framerate": SensorMaxFramerate,
		"modes":         []string{string(ModeMarkers), string(ModeRaw)},
	}
}
