package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"csvinsight/internal/app"
	"csvinsight/internal/config"
	"csvinsight/pkg/logger"

	"github.com/spf13/viper"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load(viper.New())
	if err != nil {
		// The logger is not configured yet; fall back to a console logger.
		log := logger.Init(logger.Options{Level: "info", Pretty: true})
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	if cfg.UsesDevSecret() {
		log.Warn().Msg("SESSION_SECRET is not set, using the development secret")
	}

	// --- Wire application ---
	srv, err := app.Bootstrap(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start application")
	}

	// --- Start HTTP Server ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", cfg.AppPort).Msg("starting server")
		if err := srv.App.Listen(cfg.AppPort); err != nil {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Info().Msg("shutting down server")

	if err := srv.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("error during fiber shutdown")
	}
	if err := srv.Close(); err != nil {
		log.Error().Err(err).Msg("error releasing resources")
	}
	log.Info().Msg("server gracefully stopped")
}
