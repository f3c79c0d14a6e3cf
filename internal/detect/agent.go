package detect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lumenlab/circadia-platform/internal/session"
	"github.com/lumenlab/circadia-platform/pkg/config"
	"github.com/lumenlab/circadia-platform/pkg/mqtt"
	"github.com/lumenlab/circadia-platform/pkg/redis"
)

// Agent runs continuous lighting-environment detection over the raw device
// feeds: heuristic detection on every light sample, camera-based detection
// on every frame, publishing tagged detections with daylight context.
type Agent struct {
	mqtt     mqtt.Client
	redis    redis.Client
	detector *Detector
	cfg      *config.Config
	logger   *slog.Logger
}

// NewAgent creates a detection agent with the given dependencies
func NewAgent(mqttClient mqtt.Client, redisClient redis.Client, cfg *config.Config, logger *slog.Logger) *Agent {
	return &Agent{
		mqtt:     mqttClient,
		redis:    redisClient,
		detector: NewDetector(cfg.FrameSampleRegions, cfg.FrameNeutralThreshold, logger),
		cfg:      cfg,
		logger:   logger,
	}
}

// Start connects the transports and subscribes to the light and frame
// feeds. Blocks until the context is cancelled.
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting detection agent",
		"service_name", a.cfg.ServiceName,
		"mqtt_broker", a.cfg.MQTTAddress(),
		"camera_enabled", a.cfg.CameraEnabled)

	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}
	if err := a.redis.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	if err := a.mqtt.Subscribe(mqtt.TopicRawLight, 1, a.handleLightSample(ctx)); err != nil {
		return fmt.Errorf("failed to subscribe to light feed: %w", err)
	}

	if a.cfg.CameraEnabled {
		if err := a.mqtt.Subscribe(mqtt.TopicRawFrame, 1, a.handleFrame(ctx)); err != nil {
			return fmt.Errorf("failed to subscribe to frame feed: %w", err)
		}
	}

	a.logger.Info("Detection agent started")

	<-ctx.Done()
	a.logger.Info("Detection agent stopping")

	return nil
}

// lightPayload is the subset of the raw light message the heuristics need.
type lightPayload struct {
	Data struct {
		Timestamp        string   `json:"timestamp"`
		AmbientLux       float64  `json:"ambientLux"`
		ScreenBrightness *float64 `json:"screenBrightness"`
	} `json:"data"`
}

// handleLightSample runs heuristic detection on one raw reading.
func (a *Agent) handleLightSample(ctx context.Context) mqtt.MessageHandler {
	return func(msg mqtt.Message) {
		device := deviceFromTopic(msg.Topic())
		if device == "" {
			a.logger.Warn("Invalid topic format", "topic", msg.Topic())
			return
		}

		var payload lightPayload
		if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
			a.logger.Warn("Dropping unparseable light message", "topic", msg.Topic(), "error", err)
			return
		}

		at := time.Now()
		if payload.Data.Timestamp != "" {
			if parsed, err := time.Parse(time.RFC3339, payload.Data.Timestamp); err == nil {
				at = parsed
			}
		}

		result := a.detector.DetectWithHeuristics(at, payload.Data.AmbientLux, nil, payload.Data.ScreenBrightness)
		a.publishDetection(ctx, device, at, result)
	}
}

// handleFrame runs camera-based detection on one encoded still frame.
func (a *Agent) handleFrame(ctx context.Context) mqtt.MessageHandler {
	return func(msg mqtt.Message) {
		device := deviceFromTopic(msg.Topic())
		if device == "" {
			a.logger.Warn("Invalid topic format", "topic", msg.Topic())
			return
		}

		result, err := a.detector.DetectFromFrame(msg.Payload())
		if err != nil {
			// Frames arrive speculatively; a bad one is not an agent fault
			a.logger.Debug("Frame detection failed", "device", device, "error", err)
			return
		}

		a.publishDetection(ctx, device, time.Now(), result)
	}
}

// publishDetection caches and publishes a detection with daylight context.
func (a *Agent) publishDetection(ctx context.Context, device string, at time.Time, result *Result) {
	record := result.ToMap()
	record["device"] = device
	record["timestamp"] = at.UTC().Format(time.RFC3339Nano)
	record["timeCategory"] = string(session.CategoryForTime(at))

	daylight := CalculateDaylightContext(a.cfg.Latitude, a.cfg.Longitude, at)
	record["sunAltitudeDegrees"] = daylight.SunAltitudeDegrees
	record["theoreticalOutdoorLux"] = daylight.TheoreticalOutdoorLux
	record["isDaytime"] = daylight.IsDaytime

	payload, err := json.Marshal(record)
	if err != nil {
		a.logger.Error("Failed to marshal detection", "device", device, "error", err)
		return
	}

	if err := a.redis.Set(ctx, redis.LatestDetectionKey(device), payload, time.Hour); err != nil {
		a.logger.Error("Failed to cache detection", "device", device, "error", err)
	}

	if err := a.mqtt.Publish(mqtt.DetectionTopic(device), 1, true, payload); err != nil {
		a.logger.Error("Failed to publish detection", "device", device, "error", err)
		return
	}

	a.logger.Debug("Published detection",
		"device", device,
		"light_type", result.LightType,
		"method", result.Method,
		"confidence", result.Confidence)
}

// deviceFromTopic extracts the device segment of circadia/raw/{signal}/{device}.
func deviceFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 {
		return ""
	}
	return parts[3]
}

// Stop gracefully stops the detection agent
func (a *Agent) Stop() error {
	a.logger.Info("Stopping detection agent")
	a.mqtt.Disconnect()
	if err := a.redis.Close(); err != nil {
		a.logger.Error("Error closing Redis connection", "error", err)
		return err
	}
	return nil
}
