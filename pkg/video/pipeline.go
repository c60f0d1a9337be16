package video

import (
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"
)

// Encoder pipeline defaults, tuned for driving: modest resolution, low
// latency over quality.
const (
	DefaultWidth     = 1280
	DefaultHeight    = 720
	DefaultFramerate = 30
	DefaultBitrate   = 2_000_000
)

// DefaultLauncher is the GStreamer pipeline binary.
const DefaultLauncher = "gst-launch-1.0"

// killGrace is how long Stop waits after SIGTERM before SIGKILL.
const killGrace = 2 * time.Second

// PipelineConfig describes the camera-to-RTP encoder pipeline.
type PipelineConfig struct {
	SensorID  int
	Width     int
	Height    int
	Framerate int
	Bitrate   int

	// Port is the loopback UDP port RTP is sent to (the streamer's
	// ingest port).
	Port int

	Launcher string
}

// DefaultPipelineConfig returns the encoder defaults targeting port.
func DefaultPipelineConfig(port int) PipelineConfig {
	return PipelineConfig{
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		Framerate: DefaultFramerate,
		Bitrate:   DefaultBitrate,
		Port:      port,
		Launcher:  DefaultLauncher,
	}
}

// Command builds the gst-launch argv: CSI camera through the Jetson's
// hardware H.264 encoder, payloaded as RTP to the loopback ingest port.
func (c PipelineConfig) Command() []string {
	return []string{
		c.Launcher,
		"nvarguscamerasrc", "sensor-id=" + strconv.Itoa(c.SensorID), "!",
		fmt.Sprintf("video/x-raw(memory:NVMM),width=%d,height=%d,framerate=%d/1",
			c.Width, c.Height, c.Framerate), "!",
		"nvv4l2h264enc",
		"bitrate=" + strconv.Itoa(c.Bitrate),
		"insert-sps-pps=true",
		"idrinterval=30",
		"maxperf-enable=true", "!",
		"h264parse", "!",
		"rtph264pay", "config-interval=1", "pt=96", "!",
		"udpsink", "host=127.0.0.1", "port=" + strconv.Itoa(c.Port),
		"sync=false",
	}
}

// Pipeline runs the encoder subprocess.
type Pipeline struct {
	config PipelineConfig

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewPipeline creates a pipeline runner for cfg.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	if cfg.Launcher == "" {
		cfg.Launcher = DefaultLauncher
	}
	return &Pipeline{config: cfg}
}

// Start launches the encoder. Launch failures surface synchronously.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		return fmt.Errorf("video: pipeline already running")
	}

	args := p.config.Command()
	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("video: start %s: %w", args[0], err)
	}
	p.cmd = cmd
	return nil
}

// Stop terminates the encoder: SIGTERM, a short grace, then SIGKILL.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	cmd := p.cmd
	p.cmd = nil
	p.mu.Unlock()

	if cmd == nil {
		return nil
	}

	cmd.Process.Signal(syscall.SIGTERM)
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(killGrace):
		cmd.Process.Kill()
		<-done
	}
	return nil
}
