package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay-server/internal/config"
	"github.com/vovakirdan/chatrelay-server/internal/core"
	"github.com/vovakirdan/chatrelay-server/internal/sanitize"
	"github.com/vovakirdan/chatrelay-server/internal/store"
	"github.com/vovakirdan/chatrelay-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/chatrelay-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	coordinator     *core.Coordinator
	archive         store.MessageArchive
	shutdownTimeout time.Duration
	drainTimeout    time.Duration
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	archive, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init archive: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("message archive initialized")

	validator := sanitize.New(cfg.MaxUsernameLength, cfg.MaxMessageLength)
	registry := core.NewSessionRegistry()
	history := core.NewHistoryLog(cfg.HistorySize)
	engine := core.NewBroadcastEngine(logger, cfg.SendTimeout)

	coordinator := core.NewCoordinator(
		registry,
		history,
		engine,
		core.DefaultResponderRules(),
		validator,
		archive,
		logger,
		core.CoordinatorOptions{
			HistoryReplay:     cfg.HistoryReplay,
			BotReplyDelay:     cfg.BotReplyDelay,
			UserCountInterval: cfg.UserCountInterval,
		},
	)

	server := transporthttp.NewServer(coordinator, archive, cfg, logger)

	return &App{
		server:          server,
		coordinator:     coordinator,
		archive:         archive,
		shutdownTimeout: cfg.ShutdownTimeout,
		drainTimeout:    cfg.DrainTimeout,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.coordinator.Run(ctx)

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

// cleanup drains chat sessions and closes the archive.
func (a *App) cleanup() {
	drainCtx, cancel := context.WithTimeout(context.Background(), a.drainTimeout)
	defer cancel()

	report := a.coordinator.Shutdown(drainCtx)
	a.log.Info().
		Int("closed", report.Closed).
		Int("failed", report.Failed).
		Msg("chat sessions drained")

	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close archive")
		} else {
			a.log.Info().Msg("archive closed")
		}
	}
}
