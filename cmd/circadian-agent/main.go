package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lumenlab/circadia-platform/internal/processing"
	"github.com/lumenlab/circadia-platform/pkg/config"
	"github.com/lumenlab/circadia-platform/pkg/health"
	"github.com/lumenlab/circadia-platform/pkg/mqtt"
	"github.com/lumenlab/circadia-platform/pkg/postgres"
	"github.com/lumenlab/circadia-platform/pkg/redis"
)

func main() {
	// Load configuration with hierarchy: defaults → env → flags
	cfg := config.NewConfig()
	cfg.ServiceName = "circadian-agent"
	cfg.LoadFromEnv()
	cfg.LoadFromFlags()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting Circadia processing agent",
		"service_name", cfg.ServiceName,
		"mqtt_broker", cfg.MQTTAddress(),
		"redis_host", cfg.RedisAddress(),
		"postgres_host", cfg.PostgresHost,
		"log_level", cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	mqttClient := mqtt.NewClient(cfg, logger)
	redisClient := redis.NewClient(cfg, logger)
	pgClient := postgres.NewClient(cfg, logger)

	agent := processing.NewAgent(mqttClient, redisClient, pgClient, cfg, logger)

	healthChecker := health.NewChecker(mqttClient, redisClient, logger)
	httpServer := startHealthServer(cfg.HealthPort, healthChecker, logger)

	agentErr := make(chan error, 1)
	go func() {
		if err := agent.Start(ctx); err != nil {
			logger.Error("Agent error", "error", err)
			agentErr <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received (SIGTERM/SIGINT)")
	case err := <-agentErr:
		logger.Error("Agent failed", "error", err)
	}

	logger.Info("Initiating graceful shutdown")
	cancel()

	if err := agent.Stop(); err != nil {
		logger.Error("Error stopping agent", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down health server", "error", err)
	}

	logger.Info("Processing agent shutdown complete")
}

func startHealthServer(port int, checker *health.Checker, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.HandlerFunc())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		logger.Info("Starting health check server", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Health server error", "error", err)
		}
	}()

	return server
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
