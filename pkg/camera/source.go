package camera

import (
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/teslashibe/go-jetbot/internal/log"
)

// State is the encoder process lifecycle.
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateStopping
	StateStopped
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// stopGrace is how long Stop waits after SIGTERM before SIGKILL.
const stopGrace = 2 * time.Second

// Stats counts what the ingest loop has seen since Start.
type Stats struct {
	Frames      uint64 `json:"frames"`
	ParseErrors uint64 `json:"parse_errors"`
}

// Source owns the encoder subprocess and the loop that parses its stdout
// into frames. Every decoded frame overwrites the buffer's single slot;
// the producer never waits on a consumer. The source does not restart the
// process on its own: an unexpected exit parks it in StateStopped and the
// caller decides.
type Source struct {
	cfg  Config
	buf  *Buffer
	argv []string

	mu    sync.Mutex
	state State
	cmd   *exec.Cmd
	done  chan struct{}
	err   error

	frames      atomic.Uint64
	parseErrors atomic.Uint64

	logger *slog.Logger
}

// NewSource creates a frame source publishing into buf.
func NewSource(cfg Config, buf *Buffer) *Source {
	if cfg.Launcher == "" {
		cfg.Launcher = DefaultLauncher
	}
	return &Source{
		cfg:    cfg,
		buf:    buf,
		argv:   cfg.Command(),
		state:  StateNotStarted,
		logger: log.With("component", "camera"),
	}
}

// Buffer returns the buffer this source publishes into.
func (s *Source) Buffer() *Buffer {
	return s.buf
}

// Config returns the source configuration.
func (s *Source) Config() Config {
	return s.cfg
}

// Start launches the encoder pipeline and begins the ingest loop.
// Launch failures are reported synchronously; stream errors after launch
// surface through State and Err, never through unrelated call stacks.
func (s *Source) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateRunning, StateStopping:
		return ErrAlreadyRunning
	}

	cmd := exec.Command(s.argv[0], s.argv[1:]...)
	cmd.Stderr = io.Discard

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &StartupError{Cmd: s.argv[0], Err: err}
	}
	if err := cmd.Start(); err != nil {
		return &StartupError{Cmd: s.argv[0], Err: err}
	}

	s.cmd = cmd
	s.done = make(chan struct{})
	s.err = nil
	s.state = StateRunning
	s.frames.Store(0)
	s.parseErrors.Store(0)

	s.logger.Info("encoder pipeline started",
		"launcher", s.argv[0], "mode", string(s.cfg.Mode), "pid", cmd.Process.Pid)

	go s.readLoop(cmd, stdout, s.done)
	return nil
}

// readLoop parses stdout until the stream ends, then reaps the process and
// records why the loop stopped.
func (s *Source) readLoop(cmd *exec.Cmd, stdout io.Reader, done chan struct{}) {
	defer close(done)

	onErr := func(pe *ParseError) {
		s.parseErrors.Add(1)
		s.logger.Debug("discarding malformed span", "reason", pe.Reason, "bytes", pe.Size)
	}

	var parseErr error
	switch s.cfg.Mode {
	case ModeRaw:
		emit := func(data []byte) {
			s.frames.Add(1)
			s.buf.Publish(Frame{
				Data:   data,
				Format: FormatBGR,
				Width:  s.cfg.OutputWidth,
				Height: s.cfg.OutputHeight,
			})
		}
		parseErr = parseRaw(stdout, s.cfg.FrameSize(), emit, onErr)
	default:
		emit := func(data []byte) {
			s.frames.Add(1)
			s.buf.Publish(Frame{
				Data:   data,
				Format: FormatJPEG,
				Width:  s.cfg.Width,
				Height: s.cfg.Height,
			})
		}
		parseErr = parseMarkers(stdout, s.cfg.MinFrameBytes, emit, onErr)
	}

	// A parser bail-out leaves the process alive with nobody draining
	// its stdout; kill it first so Wait cannot block on a full pipe.
	if parseErr != nil && parseErr != io.EOF && cmd.Process != nil {
		cmd.Process.Kill()
	}
	waitErr := cmd.Wait()

	s.mu.Lock()
	stopping := s.state == StateStopping
	s.state = StateStopped
	if !stopping {
		if parseErr != nil && parseErr != io.EOF {
			s.err = fmt.Errorf("%w: %v", ErrProcessExited, parseErr)
		} else {
			s.err = ErrProcessExited
		}
	}
	s.mu.Unlock()

	if stopping {
		s.logger.Info("ingest loop stopped", "frames", s.frames.Load())
		return
	}
	s.logger.Warn("encoder process exited unexpectedly",
		"frames", s.frames.Load(), "parse_err", parseErr, "wait_err", waitErr)
}

// Stop terminates the encoder with SIGTERM, escalating to SIGKILL after a
// grace period. Safe to call at any time, in any state, repeatedly; it
// never blocks past the grace period plus process reaping.
func (s *Source) Stop() error {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStopping
	cmd := s.cmd
	done := s.done
	s.mu.Unlock()

	if cmd.Process != nil {
		cmd.Process.Signal(syscall.SIGTERM)
	}

	select {
	case <-done:
	case <-time.After(stopGrace):
		s.logger.Warn("encoder ignored SIGTERM, killing")
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
		<-done
	}
	return nil
}

// State returns the current lifecycle state.
func (s *Source) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Running reports whether the ingest loop is active.
func (s *Source) Running() bool {
	return s.State() == StateRunning
}

// Err returns the terminal error after an unexpected exit, or nil.
func (s *Source) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stats returns ingest counters.
func (s *Source) Stats() Stats {
	return Stats{
		Frames:      s.frames.Load(),
		ParseErrors: s.parseErrors.Load(),
	}
}
