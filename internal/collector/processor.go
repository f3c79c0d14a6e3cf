package collector

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lumenlab/circadia-platform/internal/session"
)

// Processor parses raw device messages into light samples.
type Processor struct {
	logger *slog.Logger
}

// NewProcessor creates a new message processor
func NewProcessor(logger *slog.Logger) *Processor {
	return &Processor{
		logger: logger,
	}
}

// SampleMessage is a parsed raw message with its routing metadata.
type SampleMessage struct {
	Signal        string
	Device        string
	OriginalTopic string
	Sample        session.LightSample
	CollectedAt   int64 // Unix milliseconds
}

// rawSamplePayload is the device wire format. Firmware wraps readings in
// {"data": {...}} and sends screenOn as 0/1.
type rawSamplePayload struct {
	Data struct {
		Timestamp        string   `json:"timestamp"`
		AmbientLux       *float64 `json:"ambientLux"`
		Value            *float64 `json:"value"`
		ScreenOn         int      `json:"screenOn"`
		ScreenBrightness *float64 `json:"screenBrightness"`
		AccelMagnitude   *float64 `json:"accelMagnitude"`
		OrientationPitch *float64 `json:"orientationPitch"`
	} `json:"data"`
}

// ParseMessage parses a raw MQTT message into a sample message.
// Topic pattern: circadia/raw/{signal}/{device}
func (p *Processor) ParseMessage(topic string, payload []byte) (*SampleMessage, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 {
		p.logger.Warn("Invalid topic format", "topic", topic)
		return nil, fmt.Errorf("invalid topic format: %s (expected at least 4 parts)", topic)
	}

	signal := parts[2]
	device := parts[3]

	var raw rawSamplePayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		p.logger.Error("Failed to parse JSON payload", "topic", topic, "error", err)
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	now := time.Now().UTC()
	ts := now
	if raw.Data.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, raw.Data.Timestamp)
		if err != nil {
			p.logger.Warn("Unparseable sample timestamp, using arrival time",
				"topic", topic, "timestamp", raw.Data.Timestamp)
		} else {
			ts = parsed.UTC()
		}
	}

	// Older firmware sends the reading as "value" rather than "ambientLux"
	lux := 0.0
	if raw.Data.AmbientLux != nil {
		lux = *raw.Data.AmbientLux
	} else if raw.Data.Value != nil {
		lux = *raw.Data.Value
	}
	if lux < 0 {
		return nil, fmt.Errorf("negative illuminance %.2f on %s", lux, topic)
	}

	msg := &SampleMessage{
		Signal:        signal,
		Device:        device,
		OriginalTopic: topic,
		Sample: session.LightSample{
			Timestamp:        ts,
			Lux:              lux,
			ScreenOn:         raw.Data.ScreenOn != 0,
			ScreenBrightness: raw.Data.ScreenBrightness,
			AccelMagnitude:   raw.Data.AccelMagnitude,
			OrientationPitch: raw.Data.OrientationPitch,
		},
		CollectedAt: now.UnixMilli(),
	}

	p.logger.Debug("Parsed sample message",
		"signal", signal,
		"device", device,
		"lux", lux,
		"topic", topic)

	return msg, nil
}

// BuildTriggerPayload creates the payload published downstream once a sample
// has been buffered: the sample itself plus routing metadata.
func (p *Processor) BuildTriggerPayload(msg *SampleMessage) ([]byte, error) {
	payload := map[string]interface{}{
		"sample":         msg.Sample,
		"device":         msg.Device,
		"original_topic": msg.OriginalTopic,
		"stored_at":      time.UnixMilli(msg.CollectedAt).UTC().Format(time.RFC3339Nano),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trigger payload: %w", err)
	}

	return data, nil
}
