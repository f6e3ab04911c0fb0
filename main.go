package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/taskboard-be/internal/api"
	"github.com/isdelr/taskboard-be/internal/auth"
	"github.com/isdelr/taskboard-be/internal/config"
	"github.com/isdelr/taskboard-be/internal/database"
	"github.com/isdelr/taskboard-be/internal/logger"
	"github.com/isdelr/taskboard-be/internal/monitoring"
	"github.com/isdelr/taskboard-be/internal/services"
	"github.com/isdelr/taskboard-be/internal/websocket"
)

func main() {
	// A missing .env file is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", true)
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.LogLevel, !cfg.IsProduction())
	if cfg.UsesDevSecret() {
		log.Warn().Msg("JWT_SECRET is not set; using the development secret")
	}

	// Set up database
	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(migrateCtx)
	cancelMigrate()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	eventService := services.NewEventService(db)
	userService := services.NewUserService(db, eventService)
	taskService := services.NewTaskService(db, eventService, hub)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)

	// Set up and run the background retention scheduler
	scheduler, err := monitoring.NewScheduler(eventService, cfg.EventRetentionSchedule, cfg.EventRetention)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	scheduler.Run()

	statUpdater := monitoring.NewStatUpdater(db, cfg.StatsInterval)
	go statUpdater.Run()

	// Set up router
	router := api.NewRouter(api.Dependencies{
		Users:       userService,
		Tasks:       taskService,
		Events:      eventService,
		Tokens:      tokens,
		Hub:         hub,
		DB:          db,
		Stats:       statUpdater,
		Environment: cfg.Environment,
		CORSOrigins: cfg.CORSOrigins,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().
			Int("port", cfg.ServerPort).
			Str("environment", cfg.Environment).
			Str("db_driver", db.Driver()).
			Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	statUpdater.Stop() // Stop the monitoring service
	scheduler.Stop()   // Stop the scheduler

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Stop()

	log.Info().Msg("Server exiting")
}
