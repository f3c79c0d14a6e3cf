package detect

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lumenlab/circadia-platform/internal/lighttype"
)

func testDetector() *Detector {
	return NewDetector(4, 0.1, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func at(hour int) time.Time {
	return time.Date(2025, 3, 14, hour, 0, 0, 0, time.UTC)
}

func TestDetectWithHeuristics(t *testing.T) {
	d := testDetector()

	tests := []struct {
		name           string
		hour           int
		lux            float64
		wantType       string
		wantConfidence float64
	}{
		{"dim evening is warm light", 20, 30, lighttype.WarmLED2700K, 0.65},
		{"bright morning is daylight", 8, 1500, lighttype.Daylight6500K, 0.75},
		{"bright midday is daylight", 13, 5000, lighttype.Daylight6500K, 0.75},
		{"ordinary midday is cool led", 13, 400, lighttype.CoolLED5000K, 0.60},
		{"dim night is incandescent", 2, 20, lighttype.Incandescent, 0.55},
		{"dim morning falls through", 8, 50, lighttype.NeutralLED4000K, 0.55},
		{"bright evening falls through", 20, 2000, lighttype.NeutralLED4000K, 0.55},
		{"bright night falls through", 2, 2000, lighttype.NeutralLED4000K, 0.55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := d.DetectWithHeuristics(at(tt.hour), tt.lux, nil, nil)

			if result.LightType != tt.wantType {
				t.Errorf("LightType = %v, want %v", result.LightType, tt.wantType)
			}
			if result.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %v, want %v", result.Confidence, tt.wantConfidence)
			}
			if result.Method != MethodHeuristic {
				t.Errorf("Method = %v, want %v", result.Method, MethodHeuristic)
			}
			if result.Camera != nil {
				t.Error("heuristic result must not carry camera evidence")
			}
		})
	}
}

func TestDetectWithHeuristicsScreenOverride(t *testing.T) {
	d := testDetector()

	// A bright screen wins even at bright midday.
	brightness := 0.8
	result := d.DetectWithHeuristics(at(12), 5000, nil, &brightness)

	if result.LightType != lighttype.PhoneScreen {
		t.Errorf("LightType = %v, want %v", result.LightType, lighttype.PhoneScreen)
	}
	if result.Confidence != 0.7 {
		t.Errorf("Confidence = %v, want 0.7", result.Confidence)
	}
	if result.Method != MethodHeuristic {
		t.Errorf("Method = %v, want %v", result.Method, MethodHeuristic)
	}

	// Below the threshold the ordinary rules apply.
	dimmer := 0.5
	result = d.DetectWithHeuristics(at(12), 5000, nil, &dimmer)
	if result.LightType == lighttype.PhoneScreen {
		t.Error("sub-threshold brightness must not trigger the screen override")
	}
}

func TestHeuristicResultToMap(t *testing.T) {
	d := testDetector()
	result := d.DetectWithHeuristics(at(20), 30, nil, nil)

	m := result.ToMap()
	if m["lightType"] != lighttype.WarmLED2700K {
		t.Errorf("lightType = %v, want %v", m["lightType"], lighttype.WarmLED2700K)
	}
	if _, ok := m["kelvin"]; ok {
		t.Error("heuristic detection map must not contain a kelvin estimate")
	}
}
