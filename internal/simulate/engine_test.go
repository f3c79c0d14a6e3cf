package simulate

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlab/circadia-platform/internal/pipeline"
	"github.com/lumenlab/circadia-platform/internal/session"
)

func testEngine() (*Engine, *pipeline.Processor) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	processor := pipeline.NewProcessor(pipeline.DefaultModelParams(), logger)
	return NewEngine(processor, logger), processor
}

func eveningSession(n int, lux float64) *session.Session {
	start := time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC)
	samples := make([]session.LightSample, n)
	for i := range samples {
		samples[i] = session.LightSample{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Lux:       lux,
		}
	}
	return &session.Session{
		ID:        "evening-session",
		StartedAt: start,
		StoppedAt: start.Add(time.Duration(n) * time.Minute),
		Samples:   samples,
	}
}

func TestSimulateIdentityScenario(t *testing.T) {
	engine, processor := testEngine()
	base := eveningSession(60, 150)

	baseResults, err := processor.Process(context.Background(), base, "warm_led_2700k")
	require.NoError(t, err)

	// Zero change over the whole day must reproduce the base metrics.
	identity := &Scenario{Label: "identity"}
	modified, err := engine.Simulate(context.Background(), base, identity, "warm_led_2700k")
	require.NoError(t, err)

	assert.InDelta(t, baseResults.TotalDose, modified.TotalDose, 1e-12)
	assert.InDelta(t, baseResults.MSI, modified.MSI, 1e-12)
	assert.InDelta(t, baseResults.PhaseShiftHours, modified.PhaseShiftHours, 1e-12)
	assert.InDelta(t, baseResults.AverageCS, modified.AverageCS, 1e-12)
	assert.Equal(t, len(baseResults.Timestamps), len(modified.Timestamps))
}

func TestSimulateEveningReduction(t *testing.T) {
	engine, processor := testEngine()
	base := eveningSession(60, 150)

	baseResults, err := processor.Process(context.Background(), base, "warm_led_2700k")
	require.NoError(t, err)

	scenario := &Scenario{
		Label:                 "dim evenings",
		ExposureChangePercent: -60,
		WindowStartHour:       19,
		WindowEndHour:         23,
	}
	modified, err := engine.Simulate(context.Background(), base, scenario, "warm_led_2700k")
	require.NoError(t, err)

	assert.Less(t, modified.TotalDose, baseResults.TotalDose)
	assert.Less(t, modified.MSI, baseResults.MSI)
	assert.Greater(t, modified.PhaseShiftHours, baseResults.PhaseShiftHours,
		"less evening light means less delay")
	assert.Equal(t, "dim evenings", modified.Meta["scenario"])
}

func TestSimulateWindowMiss(t *testing.T) {
	engine, processor := testEngine()
	base := eveningSession(60, 150)

	baseResults, err := processor.Process(context.Background(), base, "warm_led_2700k")
	require.NoError(t, err)

	// Window covers only the morning; the evening session is untouched.
	scenario := &Scenario{
		ExposureChangePercent: -90,
		WindowStartHour:       6,
		WindowEndHour:         10,
	}
	modified, err := engine.Simulate(context.Background(), base, scenario, "warm_led_2700k")
	require.NoError(t, err)

	assert.InDelta(t, baseResults.TotalDose, modified.TotalDose, 1e-12)
	assert.InDelta(t, baseResults.MSI, modified.MSI, 1e-12)
}

func TestSimulateFullRemoval(t *testing.T) {
	engine, _ := testEngine()
	base := eveningSession(60, 150)

	scenario := &Scenario{ExposureChangePercent: -100}
	modified, err := engine.Simulate(context.Background(), base, scenario, "warm_led_2700k")
	require.NoError(t, err)

	assert.InDelta(t, 0.0, modified.TotalDose, 1e-12)
	assert.InDelta(t, 0.0, modified.MSI, 1e-12)
}

func TestSimulateExtraBlock(t *testing.T) {
	engine, processor := testEngine()
	base := eveningSession(60, 150)

	baseResults, err := processor.Process(context.Background(), base, "warm_led_2700k")
	require.NoError(t, err)

	scenario := &Scenario{
		Label: "late therapy",
		Extra: &ExtraBlock{Minutes: 30, StartHour: 21},
	}
	modified, err := engine.Simulate(context.Background(), base, scenario, "warm_led_2700k")
	require.NoError(t, err)

	assert.Len(t, modified.Timestamps, 90, "30 synthesized samples joined the series")
	assert.Greater(t, modified.TotalDose, baseResults.TotalDose)
	assert.Greater(t, modified.PeakCS, baseResults.PeakCS)

	// Series stays in time order after the merge.
	for i := 1; i < len(modified.Timestamps); i++ {
		assert.False(t, modified.Timestamps[i].Before(modified.Timestamps[i-1]),
			"series out of order at %d", i)
	}
}

func TestSimulateExtraBlockBeforeStartRollsForward(t *testing.T) {
	engine, _ := testEngine()
	base := eveningSession(60, 150)

	// A 7am block on a session that starts at 20:00 lands on the next
	// morning, not before the session began.
	scenario := &Scenario{Extra: &ExtraBlock{Minutes: 10, StartHour: 7}}
	modified, err := engine.Simulate(context.Background(), base, scenario, "warm_led_2700k")
	require.NoError(t, err)

	last := modified.Timestamps[len(modified.Timestamps)-1]
	assert.True(t, last.After(base.StoppedAt), "block extends the monitored span")
	assert.Equal(t, 7, last.Hour())
}

func TestSimulateInvalidInputs(t *testing.T) {
	engine, _ := testEngine()

	_, err := engine.Simulate(context.Background(), &session.Session{}, &Scenario{}, "warm_led_2700k")
	assert.Error(t, err, "empty base session")

	base := eveningSession(10, 150)
	_, err = engine.Simulate(context.Background(), base, &Scenario{WindowStartHour: 30}, "warm_led_2700k")
	assert.Error(t, err, "invalid scenario")
}

func TestSimulateDoesNotMutateBase(t *testing.T) {
	engine, _ := testEngine()
	base := eveningSession(20, 150)
	base.Meta = map[string]interface{}{"device": "lamp-1"}

	scenario := &Scenario{Label: "halved", ExposureChangePercent: -50}
	_, err := engine.Simulate(context.Background(), base, scenario, "warm_led_2700k")
	require.NoError(t, err)

	for i, sample := range base.Samples {
		assert.Equal(t, 150.0, sample.Lux, "base sample %d mutated", i)
	}
	_, tainted := base.Meta["scenario"]
	assert.False(t, tainted, "base meta mutated")
}
