package pipeline

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlab/circadia-platform/internal/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// makeSession builds a session of n samples at fixed lux, spaced one minute
// apart from start, with the declared stop one spacing past the last sample.
func makeSession(start time.Time, n int, lux float64) *session.Session {
	samples := make([]session.LightSample, n)
	for i := range samples {
		samples[i] = session.LightSample{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Lux:       lux,
		}
	}
	return &session.Session{
		ID:        "test-session",
		StartedAt: start,
		StoppedAt: start.Add(time.Duration(n) * time.Minute),
		Samples:   samples,
	}
}

func TestProcessRejectsEmptySession(t *testing.T) {
	p := NewProcessor(DefaultModelParams(), testLogger())

	_, err := p.Process(context.Background(), &session.Session{ID: "empty"}, "neutral_led_4000k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no samples")

	_, err = p.Process(context.Background(), nil, "neutral_led_4000k")
	require.Error(t, err)
}

func TestProcessRespectsContext(t *testing.T) {
	p := NewProcessor(DefaultModelParams(), testLogger())
	sess := makeSession(time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC), 10, 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Process(ctx, sess, "neutral_led_4000k")
	require.ErrorIs(t, err, context.Canceled)
}

func TestProcessOneHourMiddaySession(t *testing.T) {
	p := NewProcessor(DefaultModelParams(), testLogger())
	sess := makeSession(time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC), 60, 100)

	results, err := p.Process(context.Background(), sess, "neutral_led_4000k")
	require.NoError(t, err)

	// All four series track the sample sequence one to one.
	require.Len(t, results.Timestamps, 60)
	require.Len(t, results.Lux, 60)
	require.Len(t, results.MelanopicLux, 60)
	require.Len(t, results.CS, 60)

	// 100 lux at the neutral melanopic ratio of 0.6
	assert.InDelta(t, 60.0, results.MelanopicLux[0], 1e-9)
	assert.InDelta(t, 60.0, results.AverageMelanopicLux, 1e-9)

	assert.Greater(t, results.TotalDose, 0.1)
	assert.Less(t, results.TotalDose, 0.3)

	assert.Greater(t, results.MSI, 0.0)
	assert.Less(t, results.MSI, 0.1)

	assert.GreaterOrEqual(t, results.AverageCS, 0.0)
	assert.LessOrEqual(t, results.AverageCS, 0.7)
	assert.InDelta(t, results.AverageCS, results.PeakCS, 1e-9, "uniform lux gives flat CS")

	// Midday exposure contributes to neither phase window.
	assert.InDelta(t, 0.0, results.PhaseShiftHours, 1e-9)
}

func TestProcessCSBounds(t *testing.T) {
	p := NewProcessor(DefaultModelParams(), testLogger())
	sess := makeSession(time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC), 30, 100000)

	results, err := p.Process(context.Background(), sess, "daylight_6500k")
	require.NoError(t, err)

	for i, cs := range results.CS {
		assert.GreaterOrEqual(t, cs, 0.0, "sample %d", i)
		assert.Less(t, cs, 0.7, "CS saturates below the ceiling, sample %d", i)
	}
	assert.GreaterOrEqual(t, results.MSI, 0.0)
	assert.LessOrEqual(t, results.MSI, 1.0)
}

func TestProcessEveningWeighsHarderThanMidday(t *testing.T) {
	p := NewProcessor(DefaultModelParams(), testLogger())

	midday := makeSession(time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC), 60, 100)
	evening := makeSession(time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC), 60, 100)

	middayResults, err := p.Process(context.Background(), midday, "neutral_led_4000k")
	require.NoError(t, err)
	eveningResults, err := p.Process(context.Background(), evening, "neutral_led_4000k")
	require.NoError(t, err)

	assert.InDelta(t, middayResults.TotalDose, eveningResults.TotalDose, 1e-9,
		"raw dose is time-of-day independent")
	assert.Greater(t, eveningResults.MSI, middayResults.MSI,
		"equal dose in the evening must suppress more")
}

func TestProcessPhaseShiftDirection(t *testing.T) {
	p := NewProcessor(DefaultModelParams(), testLogger())

	morning := makeSession(time.Date(2025, 3, 14, 7, 0, 0, 0, time.UTC), 60, 500)
	evening := makeSession(time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC), 60, 500)

	morningResults, err := p.Process(context.Background(), morning, "neutral_led_4000k")
	require.NoError(t, err)
	eveningResults, err := p.Process(context.Background(), evening, "neutral_led_4000k")
	require.NoError(t, err)

	assert.Positive(t, morningResults.PhaseShiftHours, "morning light advances")
	assert.Negative(t, eveningResults.PhaseShiftHours, "evening light delays")

	assert.LessOrEqual(t, morningResults.PhaseShiftHours, 3.0)
	assert.GreaterOrEqual(t, eveningResults.PhaseShiftHours, -3.0)
}

func TestProcessOutOfOrderSamples(t *testing.T) {
	p := NewProcessor(DefaultModelParams(), testLogger())
	start := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	sess := &session.Session{
		ID:        "disordered",
		StartedAt: start,
		StoppedAt: start.Add(10 * time.Minute),
		Samples: []session.LightSample{
			{Timestamp: start.Add(5 * time.Minute), Lux: 100},
			{Timestamp: start, Lux: 100},
			{Timestamp: start.Add(10 * time.Minute), Lux: 100},
		},
	}

	results, err := p.Process(context.Background(), sess, "neutral_led_4000k")
	require.NoError(t, err)

	// Negative gaps are skipped, never allowed to subtract dose.
	assert.GreaterOrEqual(t, results.TotalDose, 0.0)
}

func TestProcessDegenerateDuration(t *testing.T) {
	p := NewProcessor(DefaultModelParams(), testLogger())
	start := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	// Declared stop equals start but the samples span half an hour; the
	// series span takes over as the normalization base.
	sess := makeSession(start, 30, 200)
	sess.StoppedAt = start

	results, err := p.Process(context.Background(), sess, "neutral_led_4000k")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, results.MSI, 0.0)
	assert.LessOrEqual(t, results.MSI, 1.0)
	assert.Greater(t, results.MSI, 0.0)
}

func TestProcessEmptyLightTypeFallsBack(t *testing.T) {
	p := NewProcessor(DefaultModelParams(), testLogger())
	sess := makeSession(time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC), 10, 100)

	results, err := p.Process(context.Background(), sess, "")
	require.NoError(t, err)

	// Default melanopic ratio is 0.6
	assert.InDelta(t, 60.0, results.MelanopicLux[0], 1e-9)
}
