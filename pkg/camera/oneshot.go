package camera

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// StillTimeout bounds how long a one-shot capture may take to produce its
// output file.
const StillTimeout = 3 * time.Second

// CaptureStill runs a one-shot pipeline that scales a single capture to
// width x height, writes it to path as JPEG, and exits. It is the capture
// path of last resort, used when no persistent pipeline is running.
func CaptureStill(ctx context.Context, cfg Config, path string, width, height int) error {
	if cfg.Launcher == "" {
		cfg.Launcher = DefaultLauncher
	}

	ctx, cancel := context.WithTimeout(ctx, StillTimeout)
	defer cancel()

	args := cfg.stillCommand(path, width, height)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return ErrStillTimeout
		}
		return &StartupError{Cmd: args[0], Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("camera: still capture produced no file: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(path)
		return fmt.Errorf("camera: still capture produced an empty file")
	}
	return nil
}
