package redis

import "fmt"

// Key construction helpers for the Circadia buffer schema.

// SampleBufferKey returns the key for a device's light-sample buffer
// (sorted set scored by unix milliseconds).
// Pattern: samples:light:{device}
func SampleBufferKey(device string) string {
	return fmt.Sprintf("samples:light:%s", device)
}

// SampleMetaKey returns the key for a device's sample metadata (hash with
// lastSampleTime and counters).
// Pattern: meta:light:{device}
func SampleMetaKey(device string) string {
	return fmt.Sprintf("meta:light:%s", device)
}

// LatestResultKey returns the key caching the most recent results record
// for a device. Pattern: results:latest:{device}
func LatestResultKey(device string) string {
	return fmt.Sprintf("results:latest:%s", device)
}

// LatestDetectionKey returns the key caching the most recent lighting
// detection for a device. Pattern: detection:latest:{device}
func LatestDetectionKey(device string) string {
	return fmt.Sprintf("detection:latest:%s", device)
}
