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
	"HealthBuddy/internal/relay"
	"HealthBuddy/internal/utility"

	"github.com/rs/zerolog/log"
)

func gracefulShutdown(relayServer *http.Server, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := relayServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	done <- true
}

func main() {
	cfg, err := config.LoadRelay()
	logger := config.SetupLogger(cfg.Env, "relay")
	if err != nil {
		// Without credentials there is nothing this process can do.
		logger.Error().Err(err).Msg("Please update the .env file of the relay")
		os.Exit(1)
	}

	e := utility.NewEcho()
	relay.NewHandler(relay.NewWhatsAppClient(cfg)).RegisterRoutes(e)

	relayServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      e,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 45 * time.Second,
	}

	done := make(chan bool, 1)
	go gracefulShutdown(relayServer, done)

	logger.Info().Str("addr", relayServer.Addr).Str("template", cfg.TemplateName).Msg("Relay backend (Meta API) listening")

	err = relayServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	<-done
	log.Info().Msg("Graceful shutdown complete.")
}
