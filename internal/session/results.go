package session

import (
	"encoding/json"
	"math"
	"time"
)

// Risk level labels derived from the melatonin suppression index.
const (
	RiskHigh     = "High"
	RiskModerate = "Moderate"
	RiskLow      = "Low"
	RiskMinimal  = "Minimal"
)

// Results is the output record of the circadian processing pipeline: the
// per-sample series plus the aggregate dose, suppression and phase metrics.
// All four series always have the same length as the processed session's
// sample sequence.
type Results struct {
	SessionID     string    `json:"sessionId"`
	StartedAt     time.Time `json:"startedAt"`
	StoppedAt     time.Time `json:"stoppedAt"`
	DurationHours float64   `json:"durationHours"`

	Timestamps   []time.Time `json:"timestamps"`
	Lux          []float64   `json:"luxValues"`
	MelanopicLux []float64   `json:"melanopicValues"`
	CS           []float64   `json:"csValues"`

	TotalDose           float64 `json:"totalDoseX"`
	MSI                 float64 `json:"msiPredicted"`
	PhaseShiftHours     float64 `json:"phaseShiftHours"`
	AverageCS           float64 `json:"averageCS"`
	PeakCS              float64 `json:"peakCS"`
	AverageMelanopicLux float64 `json:"averageMelanopicLux"`

	LightType string                 `json:"lightType"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
}

// EveningRatio returns the fraction of samples whose clock hour falls in the
// evening bucket. Zero for an empty series.
func (r *Results) EveningRatio() float64 {
	if len(r.Timestamps) == 0 {
		return 0
	}
	evening := 0
	for _, ts := range r.Timestamps {
		if IsEveningHour(ts.Hour()) {
			evening++
		}
	}
	return float64(evening) / float64(len(r.Timestamps))
}

// HealthScore derives a 0-100 circadian health score from the stored MSI and
// the time-of-day distribution of the samples. It is computed on read so it
// can never drift from the stored series. An empty series yields a neutral
// 50 (reachable only when a record is constructed by hand).
func (r *Results) HealthScore() float64 {
	if len(r.Timestamps) == 0 {
		return 50.0
	}

	eveningRatio := r.EveningRatio()
	if eveningRatio > 0.5 && r.MSI > 0.15 {
		return 100.0 * (1.0 - r.MSI*eveningRatio)
	}
	return 100.0 * clamp01(1.0-math.Abs(r.MSI)*0.3)
}

// RiskLevel buckets the MSI into a four-level label, evaluated in
// descending order.
func (r *Results) RiskLevel() string {
	switch {
	case r.MSI > 0.4:
		return RiskHigh
	case r.MSI > 0.2:
		return RiskModerate
	case r.MSI > 0.1:
		return RiskLow
	default:
		return RiskMinimal
	}
}

// resultsWire adds the derived fields to the serialized record so consumers
// never have to re-implement the derivations.
type resultsWire struct {
	SessionID           string                 `json:"sessionId"`
	StartedAt           string                 `json:"startedAt"`
	StoppedAt           string                 `json:"stoppedAt"`
	DurationHours       float64                `json:"durationHours"`
	TotalDose           float64                `json:"totalDoseX"`
	MSI                 float64                `json:"msiPredicted"`
	PhaseShiftHours     float64                `json:"phaseShiftHours"`
	AverageCS           float64                `json:"averageCS"`
	PeakCS              float64                `json:"peakCS"`
	AverageMelanopicLux float64                `json:"averageMelanopicLux"`
	LightType           string                 `json:"lightType"`
	HealthScore         float64                `json:"healthScore"`
	RiskLevel           string                 `json:"riskLevel"`
	Meta                map[string]interface{} `json:"meta,omitempty"`
}

// MarshalRecord serializes the aggregate results record (without the raw
// series) for publishing and caching.
func (r *Results) MarshalRecord() ([]byte, error) {
	return json.Marshal(resultsWire{
		SessionID:           r.SessionID,
		StartedAt:           r.StartedAt.UTC().Format(time.RFC3339),
		StoppedAt:           r.StoppedAt.UTC().Format(time.RFC3339),
		DurationHours:       r.DurationHours,
		TotalDose:           r.TotalDose,
		MSI:                 r.MSI,
		PhaseShiftHours:     r.PhaseShiftHours,
		AverageCS:           r.AverageCS,
		PeakCS:              r.PeakCS,
		AverageMelanopicLux: r.AverageMelanopicLux,
		LightType:           r.LightType,
		HealthScore:         r.HealthScore(),
		RiskLevel:           r.RiskLevel(),
		Meta:                r.Meta,
	})
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
