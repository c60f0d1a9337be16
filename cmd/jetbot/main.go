// Command jetbot runs the full robot stack: camera pipeline, motor
// control, gamepad teleop, the web dashboard, and the remote driving
// gateway. Hardware that is missing degrades gracefully so the same
// binary runs on the robot and on a desk.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/teslashibe/go-jetbot/internal/config"
	"github.com/teslashibe/go-jetbot/internal/log"
	"github.com/teslashibe/go-jetbot/pkg/camera"
	"github.com/teslashibe/go-jetbot/pkg/debug"
	"github.com/teslashibe/go-jetbot/pkg/gamepad"
	"github.com/teslashibe/go-jetbot/pkg/gdrive"
	"github.com/teslashibe/go-jetbot/pkg/mjpeg"
	"github.com/teslashibe/go-jetbot/pkg/motion"
	"github.com/teslashibe/go-jetbot/pkg/motor"
	"github.com/teslashibe/go-jetbot/pkg/photos"
	"github.com/teslashibe/go-jetbot/pkg/remote"
	"github.com/teslashibe/go-jetbot/pkg/status"
	"github.com/teslashibe/go-jetbot/pkg/teleop"
	"github.com/teslashibe/go-jetbot/pkg/web"
)

func main() {
	addr := flag.String("addr", config.HTTPAddr(), "Web dashboard listen address")
	photoDir := flag.String("photos", config.PhotoDir(), "Training photo directory")
	i2cBus := flag.Int("i2c-bus", config.I2CBus(), "I2C bus for the motor HAT")
	joystickID := flag.Int("joystick", config.JoystickID(), "Joystick device index")
	mockMotors := flag.Bool("mock-motors", false, "Use a mock motor driver (no HAT)")
	noCamera := flag.Bool("no-camera", false, "Skip the camera pipeline")
	noGamepad := flag.Bool("no-gamepad", false, "Skip the gamepad teleop loop")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	debugTeleop := flag.Bool("debug-teleop", false, "Log every teleop tick (very verbose)")
	flag.Parse()

	debug.Enabled = *debugFlag
	debug.Teleop = *debugTeleop
	if *debugFlag {
		*logLevel = "debug"
	}
	log.Init(*logLevel)

	fmt.Println("🤖 JetBot Controller")
	fmt.Printf("   Dashboard: %s\n", *addr)
	fmt.Printf("   Photos:    %s\n", *photoDir)
	fmt.Println()

	// Photo store and capturer.
	store, err := photos.NewStore(*photoDir)
	if err != nil {
		log.Error("photo store unavailable", "dir", *photoDir, "err", err)
		os.Exit(1)
	}

	tracker := status.NewTracker()
	tracker.SetPhotoCounts(store.Counts())

	// Motors: the HAT when present, a mock otherwise so the rest of the
	// stack still runs on a desk.
	var driver motor.Driver
	if *mockMotors {
		driver = motor.NewMockDriver()
		fmt.Println("⚙️  Motors: mock driver")
	} else {
		hat, err := motor.OpenHAT(*i2cBus, motor.DefaultHATAddr)
		if err != nil {
			log.Warn("motor HAT unavailable, using mock driver", "bus", *i2cBus, "err", err)
			fmt.Println("⚠️  Motor HAT not found - wheels disabled")
			driver = motor.NewMockDriver()
		} else {
			driver = hat
			fmt.Printf("⚙️  Motors: PCA9685 HAT on bus %d\n", *i2cBus)
		}
	}
	robot := motor.NewRobot(driver)
	defer robot.Close()

	// Camera pipeline and MJPEG preview.
	var (
		manager   *camera.Manager
		publisher *mjpeg.Publisher
	)
	cfg := camera.DefaultConfig()
	if config.CameraMode() == string(camera.ModeRaw) {
		cfg = camera.RawConfig()
	}
	if !*noCamera {
		manager = camera.NewManager(cfg)
		if err := manager.Start(); err != nil {
			log.Warn("camera pipeline failed to start", "err", err)
			fmt.Println("⚠️  Camera not available - preview disabled")
			manager = nil
		} else {
			publisher = mjpeg.NewPublisher(manager.Buffer())
			tracker.SetCamera(true, string(cfg.Mode))
			fmt.Printf("📷 Camera: %dx%d@%d %s\n", cfg.Width, cfg.Height, cfg.Framerate, cfg.Mode)
		}
	}

	capturer := newCapturer(manager, cfg, store)

	// Scripted motions and the remote driving gateway share the robot.
	player := motion.NewPlayer(robot)
	gateway := remote.NewGateway(robot, capturer, tracker)

	// Google Drive sync is opt-in via OAuth credentials in the env.
	var syncer web.Syncer
	var drive *gdrive.Client
	if id := os.Getenv("GOOGLE_CLIENT_ID"); id != "" {
		drive, err = gdrive.NewClient(gdrive.Config{
			ClientID:     id,
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		}, store)
		if err != nil {
			log.Warn("google drive sync unavailable", "err", err)
		} else {
			syncer = drive
			fmt.Println("☁️  Google Drive sync enabled")
		}
	}

	// Shutdown is shared between SIGINT/SIGTERM, the gamepad quit button,
	// and POST /api/shutdown.
	shutdown := make(chan struct{})
	var once sync.Once
	shutdownOnce := func() { once.Do(func() { close(shutdown) }) }

	server := web.NewServer(web.Config{
		Addr:       *addr,
		Stream:     publisher,
		Store:      store,
		Capturer:   capturer,
		Tracker:    tracker,
		Gateway:    gateway,
		Motions:    player,
		Syncer:     syncer,
		OnShutdown: shutdownOnce,
	})
	if drive != nil {
		drive.RegisterRoutes(server.App())
	}
	server.StartAsync()
	fmt.Printf("🌐 Dashboard: http://localhost%s\n", *addr)

	// Gamepad teleop, when a pad is plugged in.
	var controller *teleop.Controller
	if !*noGamepad {
		pad, err := gamepad.Open(*joystickID)
		if err != nil {
			log.Warn("gamepad unavailable", "id", *joystickID, "err", err)
			fmt.Println("🎮 No gamepad - drive from the browser")
		} else {
			defer pad.Close()
			controller = teleop.NewController(pad, robot, capturer, tracker)
			controller.OnQuit = shutdownOnce
			go controller.Run()
			fmt.Printf("🎮 Gamepad: %s\n", pad.Name())
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
	case <-shutdown:
	}

	fmt.Println("\n👋 Shutting down...")

	// Stop order: inputs first, then the wheels, then the camera, and
	// the HTTP listener last so in-flight requests drain.
	if controller != nil {
		controller.Stop()
	}
	player.Stop()
	robot.Stop()
	if manager != nil {
		if err := manager.Stop(); err != nil {
			log.Warn("camera stop failed", "err", err)
		}
	}
	if err := server.Shutdown(); err != nil {
		log.Warn("web shutdown failed", "err", err)
	}

	fmt.Println("👋 Goodbye!")
}

// newCapturer builds the photo capturer. Without a running pipeline the
// one-shot still capture stands in, so the capture buttons work even
// when the preview is down.
func newCapturer(manager *camera.Manager, cfg camera.Config, store *photos.Store) *photos.Capturer {
	var buf *camera.Buffer
	if manager != nil {
		buf = manager.Buffer()
	} else {
		buf = camera.NewBuffer()
	}
	c := photos.NewCapturer(buf, store)
	if manager == nil {
		c.Fallback = func(path string) error {
			return camera.CaptureStill(context.Background(), cfg, path, photos.TrainingWidth, photos.TrainingHeight)
		}
	}
	return c
}
