package app

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/outing/internal/common"
	"github.com/ternarybob/outing/internal/handlers"
	"github.com/ternarybob/outing/internal/httpclient"
	"github.com/ternarybob/outing/internal/interfaces"
	"github.com/ternarybob/outing/internal/ratelimit"
	"github.com/ternarybob/outing/internal/services/enrichment"
	"github.com/ternarybob/outing/internal/services/itinerary"
	"github.com/ternarybob/outing/internal/services/llm"
	"github.com/ternarybob/outing/internal/services/maintenance"
	"github.com/ternarybob/outing/internal/services/places"
	"github.com/ternarybob/outing/internal/storage"
)

const (
	// maintenanceJobTimeout bounds one run of a housekeeping job
	maintenanceJobTimeout = 5 * time.Minute

	placesIdleConnsPerHost = 8
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager
	Validator      *validator.Validate

	// Places API access, shared by every caller
	PlacesLimiter *ratelimit.Limiter
	PlacesService interfaces.PlacesService

	// Generation pipeline
	LLMService        *llm.ProviderFactory
	EnrichmentService *enrichment.Service
	ItineraryService  interfaces.ItineraryService

	// Housekeeping
	SchedulerService interfaces.SchedulerService

	// HTTP handlers
	APIHandler         *handlers.APIHandler
	ItineraryHandler   *handlers.ItineraryHandler
	PlacesHandler      *handlers.PlacesHandler
	MaintenanceHandler *handlers.MaintenanceHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config:    cfg,
		Logger:    logger,
		Validator: validator.New(),
	}

	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("storage", app.StorageManager.Backend()).
		Bool("maintenance_enabled", cfg.Maintenance.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer holding the lookup cache
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", storageManager.Backend()).
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices initializes the services in dependency order:
// limiter -> places (cached) -> enrichment -> completion providers -> itinerary -> maintenance
func (a *App) initServices() error {
	placesCfg := &a.Config.Places

	a.PlacesLimiter = ratelimit.New(ratelimit.Config{
		Name:         "google_places",
		Window:       placesCfg.RateWindow,
		MaxRequests:  placesCfg.RateMaxRequests,
		QueueDepth:   placesCfg.RateQueueDepth,
		QueueSpacing: placesCfg.RateQueueSpacing,
	}, a.Logger)

	var placesService interfaces.PlacesService = places.NewService(placesCfg, a.PlacesLimiter, a.Logger,
		places.WithHTTPClient(httpclient.NewPooledHTTPClient(placesCfg.RequestTimeout, placesIdleConnsPerHost)),
	)
	if placesCfg.CacheTTL > 0 {
		placesService = places.NewCachedService(
			placesService,
			a.StorageManager.KeyValueStorage(),
			placesCfg,
			a.Logger,
		)
	}
	a.PlacesService = placesService

	if placesCfg.APIKey == "" {
		a.Logger.Warn().Msg("Google Places API key not configured - steps will be returned unvalidated")
	}

	a.EnrichmentService = enrichment.NewService(a.PlacesService, a.Config.Generation.StepDelay, a.Logger)

	a.LLMService = llm.NewFromConfig(a.Config, a.Logger)
	a.ItineraryService = itinerary.NewService(a.LLMService, a.EnrichmentService, &a.Config.Generation, a.Logger)

	scheduler := maintenance.NewService(a.Logger, maintenanceJobTimeout)
	a.SchedulerService = scheduler
	if a.Config.Maintenance.Enabled {
		if err := maintenance.RegisterDefaultJobs(scheduler, a.StorageManager.KeyValueStorage(), a.Config.Maintenance.Schedule); err != nil {
			return fmt.Errorf("failed to register maintenance jobs: %w", err)
		}
		if _, err := maintenance.RegisterCompactionJob(scheduler, a.StorageManager, a.Config.Maintenance.CompactSchedule); err != nil {
			return fmt.Errorf("failed to register compaction job: %w", err)
		}
		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start maintenance scheduler: %w", err)
		}
	}

	return nil
}

// initHandlers initializes the HTTP handlers
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.Logger, a.StorageManager.Backend())
	a.ItineraryHandler = handlers.NewItineraryHandler(a.ItineraryService, a.Validator, a.Logger)
	a.PlacesHandler = handlers.NewPlacesHandler(a.PlacesService, a.EnrichmentService, a.Validator, a.Logger)
	a.MaintenanceHandler = handlers.NewMaintenanceHandler(a.SchedulerService)
}

// Close stops background work and releases resources
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop maintenance scheduler")
		}
	}

	// Pending lookups fail with ErrClosed
	if a.PlacesLimiter != nil {
		a.PlacesLimiter.Close()
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		} else {
			a.Logger.Info().Msg("LLM service closed")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
