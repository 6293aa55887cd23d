// Package web provides the tracking dashboard: a JSON status API, the
// capture gallery and a live websocket stream of tracking events.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/perchbot/go-gimbal/internal/log"
	"github.com/perchbot/go-gimbal/pkg/detection"
	"github.com/perchbot/go-gimbal/pkg/hub"
	"github.com/perchbot/go-gimbal/pkg/recorder"
	"github.com/perchbot/go-gimbal/pkg/tracking"
)

// StatusSource exposes the tracking loop's live snapshot.
type StatusSource interface {
	Status() tracking.Status
}

// CaptureIndex lists recently saved frames.
type CaptureIndex interface {
	SessionID() string
	Recent(limit int) ([]recorder.Capture, error)
}

// Server is the dashboard server. It doubles as a tracking.StateSink:
// every tracking update is fanned out to websocket clients through the
// event hub.
type Server struct {
	app    *fiber.App
	addr   string
	dir    string // capture directory backing /captures/:file
	events *hub.Hub
	logger *slog.Logger

	status   StatusSource
	captures CaptureIndex

	// OnStop is invoked by POST /api/stop. Wire it to the driver's
	// StopAll for a dashboard kill switch.
	OnStop func() error

	startedAt time.Time
}

// New creates the dashboard server. status must not be nil; captures
// may be nil when frame capture is disabled.
func New(addr, captureDir string, status StatusSource, captures CaptureIndex) *Server {
	s := &Server{
		addr:      addr,
		dir:       captureDir,
		events:    hub.New("events"),
		logger:    log.With("component", "web"),
		status:    status,
		captures:  captures,
		startedAt: time.Now(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Gimbal Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	app.Get("/healthz", s.handleHealthz)

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/captures", s.handleCaptures)
	api.Post("/stop", s.handleStop)

	// Saved frames
	app.Get("/captures/:file", s.handleCaptureFile)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(s.handleWS))

	s.app = app
	return s
}

// Start runs the event hub and serves HTTP until Shutdown. The hub
// stops when ctx ends.
func (s *Server) Start(ctx context.Context) error {
	fmt.Printf("🌐 Dashboard: http://localhost%s\n", s.addr)
	go s.events.Run(ctx)
	return s.app.Listen(s.addr)
}

// Shutdown gracefully stops the web server.
func (s *Server) Shutdown(ctx context.Context) error {
	deadline := 5 * time.Second
	if d, ok := ctx.Deadline(); ok {
		deadline = time.Until(d)
	}
	return s.app.ShutdownWithTimeout(deadline)
}

// Event is the JSON shape broadcast to websocket clients.
type Event struct {
	Type     string          `json:"type"` // tracking, error
	Time     time.Time       `json:"ts"`
	Signal   tracking.Signal `json:"signal"`
	Found    bool            `json:"found"`
	Box      detection.Box   `json:"box"`
	Actuated bool            `json:"actuated"`
	Stage    string          `json:"stage,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// TrackingUpdate implements tracking.StateSink.
func (s *Server) TrackingUpdate(e tracking.Estimate, actuated bool) {
	s.broadcast(Event{
		Type:     "tracking",
		Time:     time.Now(),
		Signal:   e.Signal,
		Found:    e.Found,
		Box:      e.Box,
		Actuated: actuated,
	})
}

// TrackingError implements tracking.StateSink.
func (s *Server) TrackingError(stage string, err error) {
	s.broadcast(Event{
		Type:  "error",
		Time:  time.Now(),
		Stage: stage,
		Error: err.Error(),
	})
}

func (s *Server) broadcast(e Event) {
	if err := s.events.BroadcastJSON(e); err != nil {
		s.logger.Warn("event broadcast failed", "error", err)
	}
}

// ClientCount returns the number of connected websocket clients.
func (s *Server) ClientCount() int {
	return s.events.ClientCount()
}
