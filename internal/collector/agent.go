package collector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lumenlab/circadia-platform/pkg/config"
	"github.com/lumenlab/circadia-platform/pkg/mqtt"
	"github.com/lumenlab/circadia-platform/pkg/redis"
)

// Agent subscribes to raw device feeds, buffers parsed light samples and
// publishes a downstream trigger per stored sample.
type Agent struct {
	mqtt      mqtt.Client
	storage   *Storage
	processor *Processor
	cfg       *config.Config
	logger    *slog.Logger
}

// NewAgent creates a collector agent with the given dependencies
func NewAgent(mqttClient mqtt.Client, redisClient redis.Client, cfg *config.Config, logger *slog.Logger) *Agent {
	return &Agent{
		mqtt:      mqttClient,
		storage:   NewStorage(redisClient, cfg, logger),
		processor: NewProcessor(logger),
		cfg:       cfg,
		logger:    logger,
	}
}

// Start connects the transports and begins consuming raw sample feeds.
// Blocks until the context is cancelled.
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting collector agent",
		"service_name", a.cfg.ServiceName,
		"mqtt_broker", a.cfg.MQTTAddress(),
		"topics", a.cfg.SampleTopics)

	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	for _, topic := range a.cfg.SampleTopics {
		if err := a.mqtt.Subscribe(topic, 1, a.handleMessage(ctx)); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}

	a.logger.Info("Collector agent started")

	<-ctx.Done()
	a.logger.Info("Collector agent stopping")

	return nil
}

// handleMessage returns the MQTT handler bound to the agent context.
func (a *Agent) handleMessage(ctx context.Context) mqtt.MessageHandler {
	return func(msg mqtt.Message) {
		parsed, err := a.processor.ParseMessage(msg.Topic(), msg.Payload())
		if err != nil {
			a.logger.Warn("Dropping unparseable message", "topic", msg.Topic(), "error", err)
			return
		}

		if err := a.storage.StoreSample(ctx, parsed); err != nil {
			a.logger.Error("Failed to buffer sample",
				"device", parsed.Device, "error", err)
			return
		}

		payload, err := a.processor.BuildTriggerPayload(parsed)
		if err != nil {
			a.logger.Error("Failed to build trigger payload", "error", err)
			return
		}

		topic := fmt.Sprintf("%s/light/%s", mqtt.TopicSensorBase, parsed.Device)
		if err := a.mqtt.Publish(topic, 1, false, payload); err != nil {
			a.logger.Error("Failed to publish sample trigger",
				"topic", topic, "error", err)
		}
	}
}

// Stop gracefully stops the collector agent
func (a *Agent) Stop() error {
	a.logger.Info("Stopping collector agent")
	a.mqtt.Disconnect()
	return nil
}
