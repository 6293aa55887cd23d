package web

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/perchbot/go-gimbal/pkg/hub"
	"github.com/perchbot/go-gimbal/pkg/recorder"
	"github.com/perchbot/go-gimbal/pkg/tracking"
)

// StatusResponse is the /api/status payload.
type StatusResponse struct {
	Status    string          `json:"status"`
	SessionID string          `json:"session_id,omitempty"`
	UptimeSec int64           `json:"uptime_sec"`
	Clients   int             `json:"clients"`
	Tracking  tracking.Status `json:"tracking"`
}

// handleHealthz is the liveness probe
func (s *Server) handleHealthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleStatus returns the loop snapshot plus session metadata
func (s *Server) handleStatus(c *fiber.Ctx) error {
	resp := StatusResponse{
		Status:    "ok",
		UptimeSec: int64(time.Since(s.startedAt).Seconds()),
		Clients:   s.events.ClientCount(),
		Tracking:  s.status.Status(),
	}
	if s.captures != nil {
		resp.SessionID = s.captures.SessionID()
	}
	return c.JSON(resp)
}

// handleCaptures returns recent capture rows, newest first
func (s *Server) handleCaptures(c *fiber.Ctx) error {
	if s.captures == nil {
		return c.JSON([]recorder.Capture{})
	}

	limit := c.QueryInt("limit", 20)
	rows, err := s.captures.Recent(limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if rows == nil {
		rows = []recorder.Capture{}
	}
	return c.JSON(rows)
}

// handleCaptureFile serves a saved frame from the capture directory.
// Only bare filenames are accepted; anything path-like is rejected.
func (s *Server) handleCaptureFile(c *fiber.Ctx) error {
	name := c.Params("file")
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return fiber.ErrBadRequest
	}

	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return fiber.ErrNotFound
	}
	return c.SendFile(path)
}

// handleStop is the dashboard kill switch
func (s *Server) handleStop(c *fiber.Ctx) error {
	if s.OnStop == nil {
		return c.Status(500).JSON(fiber.Map{
			"error": "Stop not configured",
		})
	}

	if err := s.OnStop(); err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	s.logger.Info("emergency stop via dashboard")
	return c.JSON(fiber.Map{"stopped": true})
}

// handleWS streams tracking events to a websocket client. Blocks for
// the life of the connection, as fiber's websocket handler expects.
func (s *Server) handleWS(conn *websocket.Conn) {
	client := hub.NewClient(s.events, conn)
	client.Run()
}
