package web

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-jetbot/pkg/photos"
	"github.com/teslashibe/go-jetbot/pkg/remote"
	"github.com/teslashibe/go-jetbot/pkg/status"
)

// statusPayload is the /api/status response: the tracker snapshot plus
// the server's own gauges.
type statusPayload struct {
	status.Status
	StreamViewers int                `json:"stream_viewers"`
	Driver        *remote.DriverInfo `json:"driver,omitempty"`
}

// handleDashboard serves the single-page dashboard.
func (s *Server) handleDashboard(c *fiber.Ctx) error {
	c.Type("html")
	return c.SendString(dashboardHTML)
}

// handleStatus returns the robot's current state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	payload := statusPayload{}
	if s.tracker != nil {
		payload.Status = s.tracker.Snapshot()
	}
	if s.stream != nil {
		payload.StreamViewers = s.stream.Viewers()
	}
	if s.gateway != nil {
		payload.Driver = s.gateway.GetDriverInfo()
	}
	return c.JSON(payload)
}

// handleCapture takes a training photo for the given side.
func (s *Server) handleCapture(c *fiber.Ctx) error {
	side := c.Params("side")
	if !photos.ValidSide(side) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid side"})
	}
	if s.capturer == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "capture not available"})
	}

	name, err := s.capturer.Capture(side)
	switch {
	case err == nil:
		if s.tracker != nil {
			s.tracker.RecordPhoto(side, name)
		}
		return c.JSON(fiber.Map{"side": side, "name": name})
	case photos.IsRateLimited(err):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, photos.ErrNoFrame):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

// handleListPhotos returns the newest photos for a side.
func (s *Server) handleListPhotos(c *fiber.Ctx) error {
	if s.store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "photo store not available"})
	}
	side := c.Params("side")

	list, err := s.store.List(side)
	if err != nil {
		if errors.Is(err, photos.ErrInvalidSide) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid side"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	count, _ := s.store.Count(side)
	return c.JSON(fiber.Map{
		"side":   side,
		"count":  count,
		"photos": list,
	})
}

// handlePhotoFile serves one stored photo.
func (s *Server) handlePhotoFile(c *fiber.Ctx) error {
	if s.store == nil {
		return fiber.ErrServiceUnavailable
	}

	path, err := s.store.Path(c.Params("side"), c.Params("name"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if _, err := os.Stat(path); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "photo not found"})
	}
	return c.SendFile(path)
}

// handleDeletePhoto removes one photo.
func (s *Server) handleDeletePhoto(c *fiber.Ctx) error {
	if s.store == nil {
		return fiber.ErrServiceUnavailable
	}
	side := c.Params("side")
	name := c.Params("name")

	if err := s.store.Delete(side, name); err != nil {
		switch {
		case errors.Is(err, photos.ErrInvalidSide), errors.Is(err, photos.ErrInvalidName):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, fs.ErrNotExist):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "photo not found"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
	}

	if s.tracker != nil {
		s.tracker.RemovePhotos(side, 1)
	}
	return c.JSON(fiber.Map{"side": side, "name": name, "deleted": true})
}

// handleDeleteAllPhotos clears one side's directory.
func (s *Server) handleDeleteAllPhotos(c *fiber.Ctx) error {
	if s.store == nil {
		return fiber.ErrServiceUnavailable
	}
	side := c.Params("side")

	n, err := s.store.DeleteAll(side)
	if err != nil {
		if errors.Is(err, photos.ErrInvalidSide) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid side"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if s.tracker != nil {
		s.tracker.RemovePhotos(side, n)
	}
	return c.JSON(fiber.Map{"side": side, "deleted": n})
}

// handleListMotions returns the playable routine names.
func (s *Server) handleListMotions(c *fiber.Ctx) error {
	names := []string{}
	if s.motions != nil {
		names = s.motions.Names()
	}
	return c.JSON(fiber.Map{"motions": names})
}

// handlePlayMotion starts a scripted routine.
func (s *Server) handlePlayMotion(c *fiber.Ctx) error {
	if s.motions == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "motions not available"})
	}
	name := c.Params("name")

	if err := s.motions.Start(name); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if s.tracker != nil {
		s.tracker.SetMessage("playing " + name)
	}
	return c.JSON(fiber.Map{"motion": name, "status": "started"})
}

// handleSync uploads the photo store to cloud storage.
func (s *Server) handleSync(c *fiber.Ctx) error {
	if s.syncer == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "sync not configured"})
	}

	n, err := s.syncer.SyncAll(context.Background())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error(), "uploaded": n})
	}
	if s.tracker != nil {
		s.tracker.SetMessage("sync complete")
	}
	return c.JSON(fiber.Map{"uploaded": n})
}

// handleShutdown answers first, then hands control to the process'
// shutdown path.
func (s *Server) handleShutdown(c *fiber.Ctx) error {
	s.logger.Info("shutdown requested over HTTP")
	if s.onShutdown != nil {
		go s.onShutdown()
	}
	return c.JSON(fiber.Map{"status": "shutting down"})
}
