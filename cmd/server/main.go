package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/kaydendua/bAIted/internal/app"
	"github.com/kaydendua/bAIted/internal/config"
	httpTransport "github.com/kaydendua/bAIted/internal/transport/http"
	"github.com/kaydendua/bAIted/internal/transport/ws"
)

func main() {
	// Load .env if present, then configuration
	_ = godotenv.Load()
	cfg := config.Load()

	// Set up logger
	var logger *slog.Logger
	logOpts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	if cfg.Logging.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}

	slog.SetDefault(logger)

	logger.Info("starting bAIted game server",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	if cfg.Problem.APIKey == "" {
		logger.Warn("CEREBRAS_API_KEY is not set, problem generation will fall back to a placeholder")
	}

	// Core components
	registry := app.NewLobbyRegistry(cfg.Game, logger)
	defer registry.Close()

	tally := app.NewVoteTally()
	generator := app.NewProblemClient(cfg.Problem, logger)

	hub := ws.NewHub(registry, logger)
	orchestrator := app.NewPhaseOrchestrator(registry, tally, generator, hub, cfg.Game, cfg.Problem, logger)
	defer orchestrator.Close()

	wsHandler := ws.NewHandler(hub, registry, orchestrator, logger)

	// HTTP server
	server := httpTransport.NewServer(cfg, registry, hub, wsHandler, logger)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
