package pipeline

import "github.com/lumenlab/circadia-platform/internal/session"

// ModelParams are the tunable coefficients of the photobiological model.
// The closed-form constants (CS ceiling and slope) come from the saturating
// circadian-stimulus response; the weights and gains are calibration
// parameters constrained by two ordering contracts: evening dose must drive
// MSI harder than equal midday dose, and morning-vs-evening dose asymmetry
// sets the sign of the phase shift (positive = advance).
type ModelParams struct {
	// CS response: CS = CSCeiling * (1 - exp(-CSSlope * melanopicLux)).
	CSCeiling float64
	CSSlope   float64

	// Per-category dose weights applied when accumulating the MSI input.
	CategoryWeights map[session.TimeCategory]float64

	// MSI = clamp(weightedDose / (durationHours * MSINormalization)).
	MSINormalization float64

	// Phase shift gain and symmetric clamp, in hours.
	PhaseGain     float64
	PhaseClampHrs float64
}

// DefaultModelParams returns the calibrated defaults.
func DefaultModelParams() ModelParams {
	return ModelParams{
		CSCeiling: 0.7,
		CSSlope:   0.005,
		CategoryWeights: map[session.TimeCategory]float64{
			session.CategoryMorning: 0.9,
			session.CategoryMidday:  0.7,
			session.CategoryEvening: 1.4,
			session.CategoryNight:   1.1,
		},
		MSINormalization: 3.0,
		PhaseGain:        2.0,
		PhaseClampHrs:    3.0,
	}
}

// weight returns the dose weight for a category, defaulting to 1.
func (p ModelParams) weight(c session.TimeCategory) float64 {
	if w, ok := p.CategoryWeights[c]; ok {
		return w
	}
	return 1.0
}
