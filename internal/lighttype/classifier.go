package lighttype

// Light-source labels form a closed vocabulary shared across detection,
// processing and interchange. phone_screen and incandescent are reachable
// only through heuristic detection, never through CCT bucketing.
const (
	WarmLED2700K    = "warm_led_2700k"
	NeutralLED4000K = "neutral_led_4000k"
	CoolLED5000K    = "cool_led_5000k"
	Daylight6500K   = "daylight_6500k"
	PhoneScreen     = "phone_screen"
	Incandescent    = "incandescent"
)

// DefaultMelanopicRatio is applied when a label is not in the table, so the
// pipeline never fails solely because of an unrecognized label.
const DefaultMelanopicRatio = 0.6

// melanopicRatios maps each light type to its melanopic efficacy ratio
// relative to photopic illuminance.
var melanopicRatios = map[string]float64{
	WarmLED2700K:    0.45,
	NeutralLED4000K: 0.60,
	CoolLED5000K:    0.75,
	Daylight6500K:   0.90,
	PhoneScreen:     0.80,
	Incandescent:    0.40,
}

// CCTToLightType buckets a correlated color temperature into a light-source
// label. Boundaries are half-open at 3000, 4500 and 6000 K.
func CCTToLightType(kelvin float64) string {
	switch {
	case kelvin < 3000:
		return WarmLED2700K
	case kelvin < 4500:
		return NeutralLED4000K
	case kelvin < 6000:
		return CoolLED5000K
	default:
		return Daylight6500K
	}
}

// MelanopicRatio looks up the melanopic efficacy ratio for a label.
func MelanopicRatio(lightType string) float64 {
	if ratio, ok := melanopicRatios[lightType]; ok {
		return ratio
	}
	return DefaultMelanopicRatio
}

// Confidence scores a CCT-based classification from Duv and the estimate's
// extremity. Close to the Planckian locus means the source behaves like a
// blackbody and the CCT bucket is trustworthy; estimates outside the
// plausible interior range are discounted.
func Confidence(duv, kelvin float64) float64 {
	abs := duv
	if abs < 0 {
		abs = -abs
	}

	var confidence float64
	switch {
	case abs < 0.02:
		confidence = 0.95
	case abs < 0.05:
		confidence = 0.80
	case abs < 0.10:
		confidence = 0.60
	default:
		confidence = 0.40
	}

	if kelvin < 2500 || kelvin > 10000 {
		confidence *= 0.8
	}

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
