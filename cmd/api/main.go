package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/api"
	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/config"
	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/logger"
	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/repository"
	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/service"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	briefRepo := repository.NewBriefRepository(db)

	// Initialize services
	extractor := service.NewExtractorService(&service.ExtractorConfig{
		Timeout:      time.Duration(cfg.Extractor.Timeout) * time.Second,
		MaxBodyChars: cfg.Extractor.MaxBodyChars,
		UserAgent:    cfg.Extractor.UserAgent,
	})

	fetcher := service.NewFetcherService(extractor, &service.FetcherConfig{
		Workers: cfg.Pipeline.FetchWorkers,
	})

	synthesizer := service.NewSynthesizerService(&service.SynthesizerConfig{
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Timeout:     time.Duration(cfg.LLM.Timeout) * time.Second,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})

	pipeline := service.NewPipelineService(briefRepo, fetcher, synthesizer, &service.PipelineConfig{
		JobTimeout: time.Duration(cfg.Pipeline.JobTimeout) * time.Second,
	})

	// Setup router
	router := api.SetupRouter(briefRepo, pipeline, synthesizer, cfg, appLogger)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout; in-flight pipeline runs own their
	// contexts and finish or time out independently
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
