package health

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/lumenlab/circadia-platform/pkg/mqtt"
	"github.com/lumenlab/circadia-platform/pkg/redis"
)

// Checker provides health check functionality for agents
type Checker struct {
	mqtt   mqtt.Client
	redis  redis.Client
	logger *slog.Logger
}

// NewChecker creates a new health checker with the given dependencies
func NewChecker(mqttClient mqtt.Client, redisClient redis.Client, logger *slog.Logger) *Checker {
	return &Checker{
		mqtt:   mqttClient,
		redis:  redisClient,
		logger: logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp string    `json:"timestamp"`
	Services  *Services `json:"services,omitempty"`
}

// Services represents the status of external dependencies
type Services struct {
	Redis string `json:"redis"`
	MQTT  string `json:"mqtt"`
}

// HandlerFunc returns an HTTP handler for the liveness check. It returns 200
// as long as the process is alive, keeping scheduler probes fast.
func (h *Checker) HandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode health response", "error", err)
		}
	}
}

// DetailedHandlerFunc returns a handler that reports dependency status.
func (h *Checker) DetailedHandlerFunc() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := &Services{
			Redis: "unknown",
			MQTT:  "unknown",
		}

		if h.mqtt != nil && h.mqtt.IsConnected() {
			services.MQTT = "connected"
		} else {
			services.MQTT = "disconnected"
		}

		// Connection state only; no live ping so the probe stays cheap
		if h.redis != nil {
			services.Redis = "connected"
		} else {
			services.Redis = "disconnected"
		}

		status := "healthy"
		statusCode := http.StatusOK

		if services.Redis == "disconnected" || services.MQTT == "disconnected" {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := HealthResponse{
			Status:    status,
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Services:  services,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)

		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode health response", "error", err)
		}
	}
}
