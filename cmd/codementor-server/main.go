// Package main provides the entry point for the codementor server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/codementor-ai/codementor/internal/config"
	"github.com/codementor-ai/codementor/internal/logging"
	"github.com/codementor-ai/codementor/internal/provider"
	"github.com/codementor-ai/codementor/internal/server"
	"github.com/codementor-ai/codementor/internal/session"
)

var (
	port      = flag.Int("port", 0, "Server port (overrides config)")
	directory = flag.String("directory", "", "Config directory")
	logLevel  = flag.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	version   = flag.Bool("version", false, "Print version and exit")
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("codementor-server %s (%s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// A local .env is optional; missing files are fine.
	_ = godotenv.Load()

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(*logLevel)
	logging.Init(logCfg)
	log := logging.Component("main")

	workDir := *directory
	if workDir == "" {
		var err error
		workDir, err = os.Getwd()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to get working directory")
		}
	}

	appConfig, err := config.Load(workDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if *port != 0 {
		appConfig.Port = *port
	}
	if appConfig.Provider.APIKey == "" {
		log.Warn().Msg("no provider API key configured; completion requests will fail")
	}

	registry := session.NewRegistry(time.Duration(*appConfig.SessionIdleTimeout) * time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	registry.StartJanitor(ctx)

	openrouter := provider.NewOpenRouter(appConfig.Provider)
	tutor := session.NewService(registry, openrouter, appConfig)

	serverConfig := server.DefaultConfig()
	serverConfig.Port = appConfig.Port
	serverConfig.AllowedOrigins = appConfig.AllowedOrigins

	srv := server.New(serverConfig, appConfig, registry, tutor)

	go func() {
		log.Info().
			Int("port", appConfig.Port).
			Str("model", appConfig.Model).
			Msg("server listening")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server stopped")
}
