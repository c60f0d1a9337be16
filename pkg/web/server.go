// Package web serves the robot dashboard: live MJPEG preview, the
// photo management REST API, and WebSocket status push.
package web

import (
	"bufio"
	"context"
	"log/slog"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/valyala/fasthttp"

	"github.com/teslashibe/go-jetbot/internal/log"
	"github.com/teslashibe/go-jetbot/pkg/hub"
	"github.com/teslashibe/go-jetbot/pkg/mjpeg"
	"github.com/teslashibe/go-jetbot/pkg/photos"
	"github.com/teslashibe/go-jetbot/pkg/protocol"
	"github.com/teslashibe/go-jetbot/pkg/remote"
	"github.com/teslashibe/go-jetbot/pkg/status"
)

// Capturer accepts capture requests from the REST API.
type Capturer interface {
	Capture(side string) (string, error)
}

// MotionPlayer runs scripted drive routines. Start validates the name
// and runs the routine asynchronously.
type MotionPlayer interface {
	Names() []string
	Start(name string) error
}

// Syncer uploads the photo store to cloud storage.
type Syncer interface {
	SyncAll(ctx context.Context) (int, error)
}

// Config wires the server's collaborators. Stream, Capturer, Gateway,
// Motions and Syncer are optional; their endpoints answer 503 when
// absent. Tracker is required.
type Config struct {
	Addr     string
	Stream   *mjpeg.Publisher
	Store    *photos.Store
	Capturer Capturer
	Tracker  *status.Tracker
	Gateway  *remote.Gateway
	Motions  MotionPlayer
	Syncer   Syncer

	// OnShutdown is called after POST /api/shutdown has been answered.
	OnShutdown func()
}

// Server is the robot's HTTP front end.
type Server struct {
	app  *fiber.App
	addr string

	stream   *mjpeg.Publisher
	store    *photos.Store
	capturer Capturer
	tracker  *status.Tracker
	gateway  *remote.Gateway
	motions  MotionPlayer
	syncer   Syncer

	onShutdown func()

	// Hub for websocket status broadcast (thread-safe!)
	statusHub *hub.Hub

	// Cancelled on Shutdown so MJPEG viewer loops drain out.
	streamCtx  context.Context
	streamStop context.CancelFunc

	logger *slog.Logger
}

// NewServer creates the dashboard server.
func NewServer(cfg Config) *Server {
	streamCtx, streamStop := context.WithCancel(context.Background())

	s := &Server{
		addr:       cfg.Addr,
		stream:     cfg.Stream,
		store:      cfg.Store,
		capturer:   cfg.Capturer,
		tracker:    cfg.Tracker,
		gateway:    cfg.Gateway,
		motions:    cfg.Motions,
		syncer:     cfg.Syncer,
		onShutdown: cfg.OnShutdown,
		statusHub:  hub.New("status"),
		streamCtx:  streamCtx,
		streamStop: streamStop,
		logger:     log.With("component", "web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "JetBot Dashboard",
		DisableStartupMessage: true,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
	})

	// CORS for local development
	app.Use(cors.New())

	app.Get("/", s.handleDashboard)
	app.Get("/video_feed", s.handleVideoFeed)
	app.Get("/photos/:side/:name", s.handlePhotoFile)

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/capture/:side", s.handleCapture)
	api.Get("/photos/:side", s.handleListPhotos)
	api.Delete("/photos/:side/:name", s.handleDeletePhoto)
	api.Delete("/photos/:side", s.handleDeleteAllPhotos)
	api.Get("/motions", s.handleListMotions)
	api.Post("/motion/:name", s.handlePlayMotion)
	api.Post("/sync", s.handleSync)
	api.Post("/shutdown", s.handleShutdown)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	if s.gateway != nil {
		s.gateway.RegisterRoutes(app)
	}

	// Every tracker mutation fans out to dashboard clients and the
	// remote driver.
	if s.tracker != nil {
		s.tracker.OnChange = s.pushState
	}

	s.app = app
	return s
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the status hub and blocks serving HTTP.
func (s *Server) Start() error {
	go s.statusHub.Run()
	s.logger.Info("dashboard listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// StartAsync starts the web server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("web server stopped", "err", err)
		}
	}()
}

// Shutdown drains MJPEG viewers, stops the hub, and closes the listener.
func (s *Server) Shutdown() error {
	s.streamStop()
	s.statusHub.Stop()
	return s.app.Shutdown()
}

// pushState broadcasts a state change to dashboard clients and the
// remote driver. Runs on the mutating goroutine; both sinks are
// non-blocking or cheap.
func (s *Server) pushState(st status.Status) {
	s.statusHub.BroadcastJSON(st)
	if s.gateway != nil {
		s.gateway.SendState(protocol.StateData{
			Running:         st.Running,
			CameraAvailable: st.CameraAvailable,
			Motors:          protocol.MotorState{Left: st.Motors.Left, Right: st.Motors.Right},
			PhotoCounts:     st.PhotoCounts,
			Message:         st.Message,
		})
	}
}

// handleVideoFeed streams multipart JPEG until the viewer leaves or the
// server shuts down.
func (s *Server) handleVideoFeed(c *fiber.Ctx) error {
	if s.stream == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "camera stream not running")
	}

	ctx := s.streamCtx
	stream := s.stream
	c.Set(fiber.HeaderContentType, stream.ContentType())
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		if err := stream.Stream(ctx, w); err != nil && !mjpeg.IsDisconnect(err) {
			s.logger.Warn("video feed ended", "err", err)
		}
	}))
	return nil
}

// handleStatusWS pushes state snapshots over a websocket.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	// Seed the new client before the pumps take over the connection.
	if s.tracker != nil {
		c.WriteJSON(s.tracker.Snapshot())
	}

	client := hub.NewClient(s.statusHub, c)
	client.Run() // Blocks until connection closes
}
