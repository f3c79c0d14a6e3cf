package processing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lumenlab/circadia-platform/internal/collector"
	"github.com/lumenlab/circadia-platform/internal/detect"
	"github.com/lumenlab/circadia-platform/internal/pipeline"
	"github.com/lumenlab/circadia-platform/internal/results"
	"github.com/lumenlab/circadia-platform/internal/session"
	"github.com/lumenlab/circadia-platform/pkg/config"
	"github.com/lumenlab/circadia-platform/pkg/mqtt"
	"github.com/lumenlab/circadia-platform/pkg/postgres"
	"github.com/lumenlab/circadia-platform/pkg/redis"
)

// Agent assembles monitoring sessions from the sample buffer on request,
// runs the circadian pipeline, persists the record and publishes it.
type Agent struct {
	mqtt      mqtt.Client
	redis     redis.Client
	postgres  postgres.Client
	buffer    *collector.Storage
	processor *pipeline.Processor
	detector  *detect.Detector
	store     *results.Storage
	cfg       *config.Config
	logger    *slog.Logger
}

// NewAgent creates a processing agent with the given dependencies
func NewAgent(mqttClient mqtt.Client, redisClient redis.Client, pgClient postgres.Client, cfg *config.Config, logger *slog.Logger) *Agent {
	return &Agent{
		mqtt:      mqttClient,
		redis:     redisClient,
		postgres:  pgClient,
		buffer:    collector.NewStorage(redisClient, cfg, logger),
		processor: pipeline.NewProcessor(pipeline.DefaultModelParams(), logger),
		detector:  detect.NewDetector(cfg.FrameSampleRegions, cfg.FrameNeutralThreshold, logger),
		cfg:       cfg,
		logger:    logger,
	}
}

// Start connects the transports and subscribes to processing requests.
// Blocks until the context is cancelled.
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting processing agent",
		"service_name", a.cfg.ServiceName,
		"mqtt_broker", a.cfg.MQTTAddress())

	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}
	if err := a.redis.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	if err := a.postgres.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	a.store = results.NewStorage(a.postgres.DB())
	if err := a.store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure results schema: %w", err)
	}

	if err := a.mqtt.Subscribe(mqtt.TopicProcessRequests, 1, a.handleRequest(ctx)); err != nil {
		return fmt.Errorf("failed to subscribe to process requests: %w", err)
	}

	a.logger.Info("Processing agent started")

	<-ctx.Done()
	a.logger.Info("Processing agent stopping")

	return nil
}

// ProcessRequest names the session window to assemble from a device's
// sample buffer. LightType is optional; when absent the agent resolves one
// heuristically from the window's last sample.
type ProcessRequest struct {
	SessionID string `json:"sessionId"`
	StartedAt string `json:"startedAt"`
	StoppedAt string `json:"stoppedAt"`
	LightType string `json:"lightType,omitempty"`
}

// handleRequest processes one session window end to end.
func (a *Agent) handleRequest(ctx context.Context) mqtt.MessageHandler {
	return func(msg mqtt.Message) {
		device := deviceFromTopic(msg.Topic())
		if device == "" {
			a.logger.Warn("Invalid topic format", "topic", msg.Topic())
			return
		}

		var req ProcessRequest
		if err := json.Unmarshal(msg.Payload(), &req); err != nil {
			a.logger.Warn("Dropping unparseable process request", "topic", msg.Topic(), "error", err)
			return
		}

		record, err := a.processWindow(ctx, device, &req)
		if err != nil {
			a.logger.Error("Failed to process session window",
				"device", device, "session_id", req.SessionID, "error", err)
			return
		}

		a.logger.Info("Processed session",
			"device", device,
			"session_id", record.SessionID,
			"samples", len(record.Timestamps),
			"msi", record.MSI,
			"risk", record.RiskLevel())
	}
}

// processWindow assembles, processes, persists and publishes one session.
func (a *Agent) processWindow(ctx context.Context, device string, req *ProcessRequest) (*session.Results, error) {
	from, err := time.Parse(time.RFC3339, req.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid startedAt %q: %w", req.StartedAt, err)
	}
	to, err := time.Parse(time.RFC3339, req.StoppedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid stoppedAt %q: %w", req.StoppedAt, err)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("invalid window: stoppedAt before startedAt")
	}

	samples, err := a.buffer.LoadWindow(ctx, device, from, to)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no buffered samples for %s in window", device)
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	sess := &session.Session{
		ID:        sessionID,
		StartedAt: from,
		StoppedAt: to,
		Samples:   samples,
		Meta:      map[string]interface{}{"device": device},
	}

	lightType := req.LightType
	if lightType == "" {
		last := samples[len(samples)-1]
		detection := a.detector.DetectWithHeuristics(last.Timestamp, last.Lux, samples, last.ScreenBrightness)
		lightType = detection.LightType
		sess.Meta["detectionMethod"] = detection.Method
		sess.Meta["detectionConfidence"] = detection.Confidence
	}

	record, err := a.processor.Process(ctx, sess, lightType)
	if err != nil {
		return nil, err
	}

	if _, err := a.store.SaveResult(ctx, record); err != nil {
		return nil, err
	}

	payload, err := record.MarshalRecord()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal results record: %w", err)
	}

	if err := a.redis.Set(ctx, redis.LatestResultKey(device), payload, 24*time.Hour); err != nil {
		a.logger.Error("Failed to cache results record", "device", device, "error", err)
	}

	if err := a.mqtt.Publish(mqtt.ResultsTopic(device), 1, true, payload); err != nil {
		return nil, fmt.Errorf("failed to publish results record: %w", err)
	}

	return record, nil
}

// deviceFromTopic extracts the device segment of circadia/control/process/{device}.
func deviceFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 {
		return ""
	}
	return parts[3]
}

// Stop gracefully stops the processing agent
func (a *Agent) Stop() error {
	a.logger.Info("Stopping processing agent")
	a.mqtt.Disconnect()

	if err := a.postgres.Disconnect(); err != nil {
		a.logger.Error("Error closing Postgres connection", "error", err)
	}
	if err := a.redis.Close(); err != nil {
		a.logger.Error("Error closing Redis connection", "error", err)
		return err
	}
	return nil
}
