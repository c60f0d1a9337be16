// Command camera-server runs just the camera half of the robot: the
// GStreamer pipeline, the MJPEG preview, and photo capture, plus a small
// config API for tuning the pipeline without restarting the binary.
// Useful for aiming the camera and checking framing before a drive.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-jetbot/internal/config"
	"github.com/teslashibe/go-jetbot/internal/log"
	"github.com/teslashibe/go-jetbot/pkg/camera"
	"github.com/teslashibe/go-jetbot/pkg/mjpeg"
	"github.com/teslashibe/go-jetbot/pkg/photos"
	"github.com/teslashibe/go-jetbot/pkg/status"
	"github.com/teslashibe/go-jetbot/pkg/web"
)

func main() {
	addr := flag.String("addr", config.HTTPAddr(), "Listen address")
	photoDir := flag.String("photos", config.PhotoDir(), "Training photo directory")
	preset := flag.String("preset", "", "Camera preset (default, hires, lowres)")
	width := flag.Int("width", 0, "Capture width override")
	height := flag.Int("height", 0, "Capture height override")
	framerate := flag.Int("framerate", 0, "Capture framerate override")
	quality := flag.Int("quality", 0, "JPEG quality override")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	log.Init(*logLevel)

	cfg := camera.DefaultConfig()
	if *preset != "" {
		p := camera.GetPreset(*preset)
		if p == nil {
			fmt.Fprintf(os.Stderr, "unknown preset %q (have: %v)\n", *preset, camera.PresetNames())
			os.Exit(2)
		}
		cfg = *p
	}
	if *width > 0 {
		cfg.Width = *width
	}
	if *height > 0 {
		cfg.Height = *height
	}
	if *framerate > 0 {
		cfg.Framerate = *framerate
	}
	if *quality > 0 {
		cfg.Quality = *quality
	}

	fmt.Println("📷 JetBot Camera Server")
	fmt.Printf("   Pipeline: %dx%d@%d %s q%d\n", cfg.Width, cfg.Height, cfg.Framerate, cfg.Mode, cfg.Quality)
	fmt.Printf("   Preview:  http://localhost%s/video_feed\n", *addr)
	fmt.Println()

	store, err := photos.NewStore(*photoDir)
	if err != nil {
		log.Error("photo store unavailable", "dir", *photoDir, "err", err)
		os.Exit(1)
	}

	manager := camera.NewManager(cfg)
	if err := manager.Start(); err != nil {
		log.Error("camera pipeline failed to start", "err", err)
		os.Exit(1)
	}

	tracker := status.NewTracker()
	tracker.SetPhotoCounts(store.Counts())
	tracker.SetCamera(true, string(cfg.Mode))
	manager.OnConfigChange = func(cfg camera.Config) {
		tracker.SetCamera(manager.Running(), string(cfg.Mode))
	}

	publisher := mjpeg.NewPublisher(manager.Buffer())
	capturer := photos.NewCapturer(manager.Buffer(), store)

	server := web.NewServer(web.Config{
		Addr:     *addr,
		Stream:   publisher,
		Store:    store,
		Capturer: capturer,
		Tracker:  tracker,
	})
	registerCameraAPI(server.App(), manager)
	server.StartAsync()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\n👋 Shutting down...")
	if err := manager.Stop(); err != nil {
		log.Warn("camera stop failed", "err", err)
	}
	if err := server.Shutdown(); err != nil {
		log.Warn("web shutdown failed", "err", err)
	}
}

// registerCameraAPI adds pipeline tuning endpoints. A config change
// restarts the pipeline, so the preview blinks once and resumes with the
// new settings.
func registerCameraAPI(app *fiber.App, manager *camera.Manager) {
	api := app.Group("/api/camera")

	api.Get("/config", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"running": manager.Running(),
			"config":  manager.GetConfigJSON(),
			"stats":   manager.Stats(),
		})
	})

	api.Post("/config", func(c *fiber.Ctx) error {
		var params map[string]interface{}
		if err := c.BodyParser(&params); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
		}
		if err := manager.UpdateConfig(params); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(fiber.Map{"config": manager.GetConfigJSON()})
	})

	api.Get("/presets", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"presets":      camera.PresetNames(),
			"capabilities": camera.Capabilities(),
		})
	})
}
