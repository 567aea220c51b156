package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/koinsera/botadmin/internal/config"
	"github.com/koinsera/botadmin/internal/devserver"
	"github.com/koinsera/botadmin/internal/logger"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	log := logger.GetLogger()

	srv, err := devserver.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}
	defer srv.Close()

	log.Info().Str("version", version).Msg("Starting bot platform dev server...")
	if cfg.DevServer.Seed {
		log.Info().
			Str("admin", devserver.DemoAdminLogin).
			Str("user", devserver.DemoUserLogin).
			Msg("Demo accounts loaded")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		log.Error().Err(err).Msg("Server failed")
		os.Exit(1)
	}
}
