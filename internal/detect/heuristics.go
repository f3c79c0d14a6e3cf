package detect

import (
	"time"

	"github.com/lumenlab/circadia-platform/internal/lighttype"
	"github.com/lumenlab/circadia-platform/internal/session"
)

// Heuristic rule thresholds. Tunable, fixed here to the values the rules
// were calibrated against.
const (
	// Screen brightness above this dominates any time/lux rule.
	phoneScreenBrightness = 0.8
	phoneScreenConfidence = 0.7

	brightLux = 1000.0
	dimLux    = 100.0
)

// DetectWithHeuristics classifies the lighting environment from time of day,
// current illuminance and the optional screen brightness. recentSamples is
// accepted for parity with the camera path and future smoothing; the rules
// themselves act on the current reading. The result never carries camera
// evidence.
func (d *Detector) DetectWithHeuristics(at time.Time, currentLux float64, recentSamples []session.LightSample, screenBrightness *float64) *Result {
	// A bright active screen up close swamps the ambient estimate, so it
	// wins regardless of time and lux.
	if screenBrightness != nil && *screenBrightness >= phoneScreenBrightness {
		return &Result{
			LightType:  lighttype.PhoneScreen,
			Confidence: phoneScreenConfidence,
			Method:     MethodHeuristic,
		}
	}

	category := session.CategoryForTime(at)

	var label string
	var confidence float64
	switch {
	case category == session.CategoryEvening && currentLux < dimLux:
		label = lighttype.WarmLED2700K
		confidence = 0.65
	case (category == session.CategoryMorning || category == session.CategoryMidday) && currentLux > brightLux:
		label = lighttype.Daylight6500K
		confidence = 0.75
	case category == session.CategoryMidday:
		label = lighttype.CoolLED5000K
		confidence = 0.60
	case category == session.CategoryNight && currentLux < dimLux:
		label = lighttype.Incandescent
		confidence = 0.55
	default:
		label = lighttype.NeutralLED4000K
		confidence = 0.55
	}

	d.logger.Debug("Heuristic detection complete",
		"light_type", label,
		"confidence", confidence,
		"category", string(category),
		"lux", currentLux,
		"recent_samples", len(recentSamples))

	return &Result{
		LightType:  label,
		Confidence: confidence,
		Method:     MethodHeuristic,
	}
}
