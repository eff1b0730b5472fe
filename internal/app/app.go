package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/movewire/movewire-server/internal/archive"
	"github.com/movewire/movewire-server/internal/archive/sqlite"
	"github.com/movewire/movewire-server/internal/config"
	"github.com/movewire/movewire-server/internal/core"
	"github.com/movewire/movewire-server/internal/session"
	transporthttp "github.com/movewire/movewire-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	games           archive.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	games, err := sqlite.New(cfg.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("init archive: %w", err)
	}

	logger.Info().Str("archive_path", cfg.ArchivePath).Msg("game archive initialized")

	sessions := session.NewMemoryStore()
	hub := core.NewHub(sessions, games, logger)
	server := transporthttp.NewServer(hub, sessions, *cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		games:           games,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	// The hub outlives the signal context so in-flight connections can
	// still unregister while the HTTP server drains.
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the archive and other resources.
func (a *App) cleanup() {
	if a.games != nil {
		if err := a.games.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close archive")
		} else {
			a.log.Info().Msg("archive closed")
		}
	}
}
