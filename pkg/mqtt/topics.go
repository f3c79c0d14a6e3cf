package mqtt

import "fmt"

// Topic layout of the Circadia broker. Raw feeds carry unprocessed device
// payloads; sensor feeds carry buffered/derived records; results carry
// processed session records.
const (
	// Raw device feeds (input)
	TopicRawAll    = "circadia/raw/+/+"
	TopicRawLight  = "circadia/raw/light/+"
	TopicRawFrame  = "circadia/raw/frame/+"
	TopicRawMotion = "circadia/raw/motion/+"

	// Processing triggers: payload names the session window to assemble
	TopicProcessRequests = "circadia/control/process/+"

	// Derived outputs
	TopicSensorBase    = "circadia/sensor"
	TopicDetectionBase = "circadia/sensor/lighting"
	TopicResultsBase   = "circadia/results"
)

// RawTopic constructs a raw feed topic for a signal type and device.
// Pattern: circadia/raw/{signal}/{device}
func RawTopic(signal, device string) string {
	return fmt.Sprintf("circadia/raw/%s/%s", signal, device)
}

// DetectionTopic is where lighting-environment detections for a device are
// published. Pattern: circadia/sensor/lighting/{device}
func DetectionTopic(device string) string {
	return fmt.Sprintf("%s/%s", TopicDetectionBase, device)
}

// ResultsTopic is where processed session records for a device are
// published. Pattern: circadia/results/{device}
func ResultsTopic(device string) string {
	return fmt.Sprintf("%s/%s", TopicResultsBase, device)
}

// ProcessRequestTopic is the per-device processing trigger topic.
// Pattern: circadia/control/process/{device}
func ProcessRequestTopic(device string) string {
	return fmt.Sprintf("circadia/control/process/%s", device)
}
