package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/lumenlab/circadia-platform/internal/lighttype"
	"github.com/lumenlab/circadia-platform/internal/session"
)

// Processor runs the circadian light-exposure model over a session. It is
// stateless across calls: every invocation either returns a complete results
// record or an error, and nothing is retained in between, so concurrent use
// needs no synchronization.
type Processor struct {
	params ModelParams
	logger *slog.Logger
}

// NewProcessor creates a processor with the given model parameters.
func NewProcessor(params ModelParams, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{params: params, logger: logger}
}

// Process converts a session and light type into a results record. A session
// with no samples is a caller contract violation and fails atomically; the
// caller is expected to have resolved the light type via detection
// beforehand, an empty label falls back to the default melanopic ratio.
func (p *Processor) Process(ctx context.Context, sess *session.Session, lightType string) (*session.Results, error) {
	if sess == nil || len(sess.Samples) == 0 {
		return nil, fmt.Errorf("invalid input: session has no samples")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ratio := lighttype.MelanopicRatio(lightType)
	n := len(sess.Samples)

	results := &session.Results{
		SessionID:     sess.ID,
		StartedAt:     sess.StartedAt,
		StoppedAt:     sess.StoppedAt,
		DurationHours: sess.DurationHours(),
		Timestamps:    make([]time.Time, n),
		Lux:           make([]float64, n),
		MelanopicLux:  make([]float64, n),
		CS:            make([]float64, n),
		LightType:     lightType,
		Meta:          sess.Meta,
	}

	var sumCS, sumMel, peakCS float64
	for i, sample := range sess.Samples {
		mel := sample.Lux * ratio
		cs := p.circadianStimulus(mel)

		results.Timestamps[i] = sample.Timestamp
		results.Lux[i] = sample.Lux
		results.MelanopicLux[i] = mel
		results.CS[i] = cs

		sumCS += cs
		sumMel += mel
		if cs > peakCS {
			peakCS = cs
		}
	}

	results.AverageCS = sumCS / float64(n)
	results.AverageMelanopicLux = sumMel / float64(n)
	results.PeakCS = peakCS

	dose, weightedDose, morningDose, eveningDose := p.integrateDose(results)
	results.TotalDose = dose

	duration := results.DurationHours
	if duration <= 0 {
		duration = math.Max(lastGapHours(results), 1.0/60.0)
	}

	results.MSI = clamp01(weightedDose / (duration * p.params.MSINormalization))
	results.PhaseShiftHours = p.phaseShift(morningDose, eveningDose, duration)

	p.logger.Debug("Processed session",
		"session_id", sess.ID,
		"samples", n,
		"light_type", lightType,
		"total_dose", results.TotalDose,
		"msi", results.MSI,
		"phase_shift_hours", results.PhaseShiftHours)

	return results, nil
}

// circadianStimulus is the saturating CS response, bounded in [0, ceiling).
func (p *Processor) circadianStimulus(melanopicLux float64) float64 {
	if melanopicLux <= 0 {
		return 0
	}
	return p.params.CSCeiling * (1.0 - math.Exp(-p.params.CSSlope*melanopicLux))
}

// integrateDose accumulates CS over real timestamp gaps (trapezoidal, in
// CS-hours) and, in the same pass, the time-of-day weighted dose for MSI and
// the morning/evening split for the phase estimate. Non-positive gaps
// contribute nothing, so out-of-order samples degrade softly instead of
// producing negative dose.
func (p *Processor) integrateDose(r *session.Results) (dose, weighted, morning, evening float64) {
	for i := 1; i < len(r.CS); i++ {
		gap := r.Timestamps[i].Sub(r.Timestamps[i-1]).Hours()
		if gap <= 0 {
			continue
		}

		segment := 0.5 * (r.CS[i-1] + r.CS[i]) * gap
		dose += segment

		category := session.CategoryForTime(r.Timestamps[i])
		weighted += segment * p.params.weight(category)

		switch category {
		case session.CategoryMorning:
			morning += segment * p.params.weight(category)
		case session.CategoryEvening, session.CategoryNight:
			evening += segment * p.params.weight(category)
		}
	}
	return dose, weighted, morning, evening
}

// phaseShift estimates circadian phase displacement in hours from the
// weighted dose asymmetry between the morning and evening/night windows.
// Positive = advance (earlier), negative = delay (later).
func (p *Processor) phaseShift(morningDose, eveningDose, durationHours float64) float64 {
	shift := p.params.PhaseGain * (morningDose - eveningDose) / math.Max(durationHours, 1.0/60.0)
	if shift > p.params.PhaseClampHrs {
		return p.params.PhaseClampHrs
	}
	if shift < -p.params.PhaseClampHrs {
		return -p.params.PhaseClampHrs
	}
	return shift
}

// lastGapHours is the span of the sample series itself, the fallback when a
// session's declared duration is degenerate.
func lastGapHours(r *session.Results) float64 {
	if len(r.Timestamps) < 2 {
		return 0
	}
	return r.Timestamps[len(r.Timestamps)-1].Sub(r.Timestamps[0]).Hours()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
