package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/movewire/movewire-server/internal/config"
	"github.com/movewire/movewire-server/internal/core"
	"github.com/movewire/movewire-server/internal/session"
)

// NewServer builds the HTTP server: liveness check, read-only room
// status API, and the websocket endpoint.
func NewServer(hub *core.Hub, sessions session.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	rooms := NewRoomHandlers(sessions, logger)
	router.GET("/api/rooms/:name", rooms.GetRoom)

	router.GET("/ws", gin.WrapH(NewWSHandler(hub, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
