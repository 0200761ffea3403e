package main

import (
	"context"

	"github.com/addisrender/backend/internal/config"
	"github.com/addisrender/backend/internal/handlers"
	"github.com/addisrender/backend/internal/models"
	"github.com/addisrender/backend/internal/services"
	"github.com/addisrender/backend/internal/utils"
	"github.com/addisrender/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg            *config.Config
	blobStore      services.BlobStore
	sweeper        *services.Sweeper
	authHandler    *handlers.AuthHandler
	quoteHandler   *handlers.QuoteHandler
	contactHandler *handlers.ContactHandler
	catalogHandler *handlers.CatalogHandler
	profileHandler *handlers.ProfileHandler
	adminHandler   *handlers.AdminHandler
	eventsHandler  *handlers.EventsHandler
}

// bootstrap initializes all application dependencies: database, blob
// storage, handlers, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	blobStore, err := services.NewS3Store(context.Background(), &cfg.Storage)
	if err != nil {
		logger.Fatalf("Failed to initialize blob storage: %v", err)
	}

	db := models.GetDB()

	authHandler := handlers.NewAuthHandler(db, cfg)
	if err := authHandler.Service().CreateAdminIfNotExists(&cfg.Admin); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	contactHandler := handlers.NewContactHandler(db)
	catalogHandler := handlers.NewCatalogHandler(db)

	sweeper := services.NewSweeper(db, blobStore)
	if err := sweeper.Start(); err != nil {
		logger.Warn().Err(err).Msg("Failed to start orphan blob sweeper")
	}

	return &appServices{
		cfg:            cfg,
		blobStore:      blobStore,
		sweeper:        sweeper,
		authHandler:    authHandler,
		quoteHandler:   handlers.NewQuoteHandler(db, blobStore, cfg),
		contactHandler: contactHandler,
		catalogHandler: catalogHandler,
		profileHandler: handlers.NewProfileHandler(authHandler.Service()),
		adminHandler: handlers.NewAdminHandler(db, blobStore, cfg,
			catalogHandler.Service(), contactHandler.Service()),
		eventsHandler: handlers.NewEventsHandler(authHandler.Service()),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.sweeper.Stop()
	logger.Info().Msg("Schedulers stopped")
}
