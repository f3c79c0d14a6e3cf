package session

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// LightSample is a single ambient-light reading captured during a monitoring
// session. Produced by the acquisition layer; the processing pipeline treats
// it as read-only.
type LightSample struct {
	Timestamp        time.Time
	Lux              float64
	ScreenOn         bool
	ScreenBrightness *float64
	AccelMagnitude   *float64
	OrientationPitch *float64
}

// sampleWire is the interchange form of a LightSample. screenOn travels as
// 0/1 for compatibility with the sensor firmware payloads.
type sampleWire struct {
	Timestamp        string   `json:"timestamp"`
	AmbientLux       float64  `json:"ambientLux"`
	ScreenOn         int      `json:"screenOn"`
	ScreenBrightness *float64 `json:"screenBrightness,omitempty"`
	AccelMagnitude   *float64 `json:"accelMagnitude,omitempty"`
	OrientationPitch *float64 `json:"orientationPitch,omitempty"`
}

// MarshalJSON serializes the sample in the interchange form.
func (s LightSample) MarshalJSON() ([]byte, error) {
	screenOn := 0
	if s.ScreenOn {
		screenOn = 1
	}
	return json.Marshal(sampleWire{
		Timestamp:        s.Timestamp.UTC().Format(time.RFC3339),
		AmbientLux:       s.Lux,
		ScreenOn:         screenOn,
		ScreenBrightness: s.ScreenBrightness,
		AccelMagnitude:   s.AccelMagnitude,
		OrientationPitch: s.OrientationPitch,
	})
}

// UnmarshalJSON parses the interchange form back into a sample.
func (s *LightSample) UnmarshalJSON(data []byte) error {
	var w sampleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to parse light sample: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, w.Timestamp)
	if err != nil {
		return fmt.Errorf("invalid sample timestamp %q: %w", w.Timestamp, err)
	}

	s.Timestamp = ts.UTC()
	s.Lux = w.AmbientLux
	s.ScreenOn = w.ScreenOn != 0
	s.ScreenBrightness = w.ScreenBrightness
	s.AccelMagnitude = w.AccelMagnitude
	s.OrientationPitch = w.OrientationPitch
	return nil
}

// Session is an ordered run of light samples between a start and stop
// instant. Sample order is insertion order; the pipeline assumes it is
// time order.
type Session struct {
	ID        string                 `json:"id"`
	StartedAt time.Time              `json:"startedAt"`
	StoppedAt time.Time              `json:"stoppedAt"`
	Samples   []LightSample          `json:"samples"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
}

// DurationHours returns the session length in hours.
func (s *Session) DurationHours() float64 {
	return s.StoppedAt.Sub(s.StartedAt).Hours()
}

// RGB is a color value with channels in [0,1].
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Valid reports whether all channels are finite and within [0,1].
func (c RGB) Valid() bool {
	for _, v := range []float64{c.R, c.G, c.B} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
			return false
		}
	}
	return true
}

// Chromaticity is a CIE 1931 (x, y) coordinate.
type Chromaticity struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Valid reports whether the coordinate is physically realizable:
// x, y in (0,1) and x+y <= 1.
func (c Chromaticity) Valid() bool {
	if math.IsNaN(c.X) || math.IsNaN(c.Y) {
		return false
	}
	return c.X > 0 && c.X < 1 && c.Y > 0 && c.Y < 1 && c.X+c.Y <= 1
}
