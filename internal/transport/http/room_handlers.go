package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/movewire/movewire-server/internal/session"
)

// RoomHandlers provides read-only HTTP handlers over session state.
type RoomHandlers struct {
	sessions session.Store
	log      *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(sessions session.Store, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		sessions: sessions,
		log:      logger,
	}
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	Name        string `json:"name"`
	Members     int    `json:"members"`
	Status      string `json:"status"`
	HasSnapshot bool   `json:"has_snapshot"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GetRoom reports membership count and stored-snapshot presence.
// GET /api/rooms/:name
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	name := c.Param("name")

	size := h.sessions.MembershipSize(name)
	_, hasSnapshot := h.sessions.Snapshot(name)

	if size == 0 && !hasSnapshot {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	c.JSON(http.StatusOK, RoomResponse{
		Name:        name,
		Members:     size,
		Status:      statusLabel(size),
		HasSnapshot: hasSnapshot,
	})
}

func statusLabel(size int) string {
	switch {
	case size == 0:
		return "empty"
	case size == 1:
		return "waiting"
	default:
		return "active"
	}
}
