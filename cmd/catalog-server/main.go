package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/openmerch/catalog/catalog/application"
	"github.com/openmerch/catalog/catalog/persistence"
	"github.com/openmerch/catalog/catalog/storage"
	"github.com/openmerch/catalog/internal/config"
	"github.com/openmerch/catalog/internal/middleware"
	"github.com/openmerch/catalog/internal/rest"
	"github.com/openmerch/catalog/shared/db/sqlite"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg := config.Load()

	database := sqlite.NewSQLiteDB(&sqlite.SQLiteConfig{Path: cfg.DBPath})
	if err := database.Connect(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	store, err := storage.New(cfg.StoreDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open asset store")
	}

	var integrity application.IntegrityChecker
	if cfg.DeepIntegrity {
		integrity = application.NewDeepChecker()
	} else {
		integrity = application.NewHeaderChecker()
	}

	backups := application.NewBackupManager(store)
	pipeline := application.NewUploadPipeline(
		store,
		application.NewAssetValidator(),
		application.NewNameGenerator(),
		backups,
		integrity,
		application.NewOptimizer(),
		cfg.PublicPrefix,
	)
	scanner := application.NewOrphanScanner(store)
	cache := application.NewMetadataCache(cfg.CacheTTL, cfg.CacheMaxSize)
	repo := persistence.NewCategoryRepository(database.DB())
	service := application.NewCategoryService(repo, pipeline, scanner, cache)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	backups.RunPeriodicSweep(sweepCtx, cfg.BackupTTL, cfg.SweepInterval)

	engine := gin.New()
	engine.Use(middleware.LoggingMiddleware())
	engine.Use(gin.CustomRecovery(middleware.HandlePanics()))
	rest.NewApi(engine, service, backups, store.Root())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: engine,
	}

	go func() {
		log.Info().Msg("Starting server on port :" + cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info().Msg("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to shutdown server")
	}

	log.Info().Msg("Server stopped")
}
