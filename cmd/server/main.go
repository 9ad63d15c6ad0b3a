package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mtaanifix-api/internal/api/routes"
	"mtaanifix-api/internal/bot"
	"mtaanifix-api/internal/config"
	"mtaanifix-api/internal/logging"
	"mtaanifix-api/internal/matcher"
	"mtaanifix-api/internal/store"
	"mtaanifix-api/internal/whatsapp"
	"mtaanifix-api/internal/workers"
	"mtaanifix-api/pkg/utils"

	"github.com/labstack/echo/v4"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logging
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting MtaaniFix API")

	// Connect to the fundi worker-pool store
	dbClient, err := store.NewClient(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer dbClient.Close()

	// Connect to the session cache
	cache := utils.NewRedisClient(cfg)
	defer cache.Close()

	// Repositories over the store
	fundiRepo := store.NewFundiRepository(dbClient)
	messageRepo := store.NewMessageRepository(dbClient)

	// Matching pipeline
	matchService := matcher.NewService(cfg, fundiRepo)

	// WhatsApp bot pipeline
	waClient := whatsapp.NewClient(cfg)
	if !waClient.IsConfigured() {
		logger.Warn("WhatsApp credentials not configured, outbound messages will fail")
	}
	responder := bot.NewResponder(fundiRepo, cache, cfg.Matching.BotListSize)
	processor := bot.NewProcessor(responder, messageRepo, cache, waClient, cfg.Workers.MaxRetries)

	// Message worker pool
	poolManager := workers.NewPoolManager(cfg, processor)
	if err := poolManager.Initialize(); err != nil {
		logger.Fatal("Failed to start worker pool", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer poolManager.Shutdown()

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	// Setup routes
	routes.SetupRoutes(e, cfg, matchService, poolManager, dbClient, cache)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		logger.Info("Stopping worker pool...")
		if err := poolManager.Shutdown(); err != nil {
			logger.Error("Error stopping worker pool", map[string]interface{}{
				"error": err.Error(),
			})
		}

		logger.Info("Stopping HTTP server...")
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down server", map[string]interface{}{
				"error": err.Error(),
			})
		}

		logger.Info("Server shutdown complete")
	}()

	// Start server
	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", map[string]interface{}{
		"address": address,
	})

	if err := e.Start(address); err != nil {
		logger.Fatal("Server failed to start", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
