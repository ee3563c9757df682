package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"HealthBuddy/internal/config"
	"HealthBuddy/internal/geminiservice"
	"HealthBuddy/internal/relay"
	"HealthBuddy/internal/server"

	"github.com/rs/zerolog/log"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// In-flight model calls get a little longer than usual to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {
	cfg, err := config.LoadAPI()
	logger := config.SetupLogger(cfg.Env, "api")
	if err != nil {
		logger.Error().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	client := geminiservice.NewClient(geminiservice.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
	}, logger)

	gateway, err := geminiservice.NewGateway(client, cfg.TranslationCacheSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not initialize AI gateway")
	}

	apiServer := server.NewServer(cfg, gateway, relay.NewClient(cfg.RelayURL)).HTTPServer()

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(apiServer, done)

	logger.Info().Str("addr", apiServer.Addr).Str("model", client.Model()).Msg("API server listening")

	err = apiServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info().Msg("Graceful shutdown complete.")
}
