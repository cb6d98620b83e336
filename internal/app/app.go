// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/niarxxi/webmusic/internal/adapter/catalog"
	"github.com/niarxxi/webmusic/internal/adapter/eventbus"
	beepdevice "github.com/niarxxi/webmusic/internal/adapter/media/beep"
	mockdevice "github.com/niarxxi/webmusic/internal/adapter/media/mock"
	"github.com/niarxxi/webmusic/internal/adapter/repository/memory"
	"github.com/niarxxi/webmusic/internal/adapter/repository/sqlite"
	"github.com/niarxxi/webmusic/internal/logger"
	"github.com/niarxxi/webmusic/internal/ports"
	"github.com/niarxxi/webmusic/internal/service"
)

// Application is the root structure holding all wired dependencies. It is
// responsible for startup order, shutdown order, and nothing else; the
// behavior lives in the services.
type Application struct {
	logger *slog.Logger

	// Infrastructure
	eventBus ports.EventBus
	device   ports.MediaDevice
	stateDB  *sqlite.StateRepository

	// Services
	catalogService  *service.CatalogService
	playlistService *service.PlaylistService
	playerService   *service.PlayerService
	bindingService  *service.BindingService
	sessionService  *service.SessionService
}

// Config holds application configuration.
type Config struct {
	// DatabasePath is where the session snapshot database lives.
	// Empty selects an in-memory repository (nothing persists).
	DatabasePath string

	// MusicDir, when set, replaces the built-in catalog with a scan of the
	// given directory.
	MusicDir string

	// UseMockDevice selects the in-memory media device (for testing)
	UseMockDevice bool

	// LogLevel controls logging verbosity
	LogLevel slog.Level
}

// DefaultConfig returns the default application configuration.
func DefaultConfig() Config {
	loggerCfg := logger.DefaultConfig()

	dbPath := "webmusic.db"
	if dir, err := os.UserConfigDir(); err == nil {
		dbPath = filepath.Join(dir, "webmusic", "webmusic.db")
	}

	return Config{
		DatabasePath:  dbPath,
		UseMockDevice: false,
		LogLevel:      loggerCfg.Level,
	}
}

// NewApplication creates a new application with all dependencies wired.
func NewApplication(config Config) (*Application, error) {
	app := &Application{}

	app.logger = logger.NewLogger(logger.Config{
		Level:  config.LogLevel,
		Format: "text",
	})
	app.logger.Info("initializing application",
		slog.String("version", GetVersionInfo().FullString()))

	// Event bus
	syncBus := eventbus.NewSyncEventBus()
	syncBus.SetLogger(app.logger.With(slog.String("component", "eventbus")))
	app.eventBus = syncBus

	// Media device
	if config.UseMockDevice {
		app.device = mockdevice.NewDevice()
	} else {
		app.device = beepdevice.NewDevice(app.logger.With(slog.String("device", "beep")))
	}

	// Catalog source
	var source ports.CatalogSource
	if config.MusicDir != "" {
		source = catalog.NewScannerSource(app.logger.With(slog.String("component", "scanner")), config.MusicDir)
	} else {
		source = catalog.NewEmbeddedSource()
	}

	catalogService, err := service.NewCatalogService(
		app.logger.With(slog.String("service", "catalog")),
		source,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	app.catalogService = catalogService

	// Session repository
	var stateRepo ports.StateRepository
	if config.DatabasePath == "" {
		stateRepo = memory.NewStateRepository()
	} else {
		if err := os.MkdirAll(filepath.Dir(config.DatabasePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		db, err := sqlite.NewStateRepository(
			app.logger.With(slog.String("repository", "sqlite")),
			config.DatabasePath,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to open state database: %w", err)
		}
		app.stateDB = db
		stateRepo = db
	}

	// Services
	app.playlistService = service.NewPlaylistService(
		app.logger.With(slog.String("service", "playlist")),
		app.catalogService,
		app.eventBus,
	)

	app.playerService = service.NewPlayerService(
		app.logger.With(slog.String("service", "player")),
		app.catalogService,
		app.playlistService,
		app.eventBus,
	)

	app.bindingService = service.NewBindingService(
		app.logger.With(slog.String("service", "binding")),
		app.device,
		app.playerService,
		app.eventBus,
	)

	app.sessionService = service.NewSessionService(
		app.logger.With(slog.String("service", "session")),
		stateRepo,
		app.playerService,
		app.playlistService,
		app.eventBus,
	)

	// Restore the previous session and begin persisting mutations.
	app.sessionService.Start()

	app.logger.Info("all services initialized",
		slog.Int("catalog_songs", app.catalogService.Len()))

	return app, nil
}

// Catalog returns the catalog service.
func (a *Application) Catalog() *service.CatalogService { return a.catalogService }

// Playlists returns the playlist service.
func (a *Application) Playlists() *service.PlaylistService { return a.playlistService }

// Player returns the player service.
func (a *Application) Player() *service.PlayerService { return a.playerService }

// Binding returns the media binding service.
func (a *Application) Binding() *service.BindingService { return a.bindingService }

// EventBus returns the application event bus.
func (a *Application) EventBus() ports.EventBus { return a.eventBus }

// Logger returns the root logger.
func (a *Application) Logger() *slog.Logger { return a.logger }

// Shutdown gracefully shuts down the application. Services stop in reverse
// order of creation so the final session save observes settled state.
func (a *Application) Shutdown() {
	a.logger.Info("shutting down application")

	if a.sessionService != nil {
		if err := a.sessionService.Shutdown(); err != nil {
			a.logger.Warn("failed to shutdown session service", slog.Any("error", err))
		}
	}

	if a.bindingService != nil {
		if err := a.bindingService.Shutdown(); err != nil {
			a.logger.Warn("failed to shutdown binding service", slog.Any("error", err))
		}
	}

	if a.playerService != nil {
		if err := a.playerService.Shutdown(); err != nil {
			a.logger.Warn("failed to shutdown player service", slog.Any("error", err))
		}
	}

	if a.device != nil {
		if err := a.device.Close(); err != nil {
			a.logger.Warn("failed to close media device", slog.Any("error", err))
		}
	}

	if a.stateDB != nil {
		if err := a.stateDB.Close(); err != nil {
			a.logger.Warn("failed to close state database", slog.Any("error", err))
		}
	}

	if a.eventBus != nil {
		a.eventBus.Close()
	}

	a.logger.Info("shutdown complete")
}
