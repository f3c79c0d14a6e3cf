package simulate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioValidate(t *testing.T) {
	tests := []struct {
		name     string
		scenario Scenario
		wantErr  bool
	}{
		{"zero value covers whole day", Scenario{}, false},
		{"plain window", Scenario{WindowStartHour: 19, WindowEndHour: 23, ExposureChangePercent: -50}, false},
		{"wrapping window", Scenario{WindowStartHour: 22, WindowEndHour: 2}, false},
		{"full removal", Scenario{ExposureChangePercent: -100}, false},
		{"below full removal", Scenario{ExposureChangePercent: -100.1}, true},
		{"start hour too large", Scenario{WindowStartHour: 24}, true},
		{"negative end hour", Scenario{WindowEndHour: -1}, true},
		{"valid extra block", Scenario{Extra: &ExtraBlock{Minutes: 30, StartHour: 7}}, false},
		{"extra block zero minutes", Scenario{Extra: &ExtraBlock{Minutes: 0, StartHour: 7}}, true},
		{"extra block bad hour", Scenario{Extra: &ExtraBlock{Minutes: 30, StartHour: 25}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.scenario.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHourInWindow(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		hour       int
		want       bool
	}{
		{"inside plain window", 19, 23, 20, true},
		{"start is inclusive", 19, 23, 19, true},
		{"end is exclusive", 19, 23, 23, false},
		{"outside plain window", 19, 23, 12, false},
		{"wrap covers late evening", 22, 2, 23, true},
		{"wrap covers early morning", 22, 2, 1, true},
		{"wrap excludes midday", 22, 2, 12, false},
		{"wrap end is exclusive", 22, 2, 2, false},
		{"equal hours cover whole day", 8, 8, 3, true},
		{"zero window covers whole day", 0, 0, 12, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Scenario{WindowStartHour: tt.start, WindowEndHour: tt.end}
			assert.Equal(t, tt.want, s.hourInWindow(tt.hour))
		})
	}
}

func TestLoadScenarioFromBytes(t *testing.T) {
	data := []byte(`
base_session_id: sess-42
label: dim evenings
exposure_change_percent: -60
window_start_hour: 19
window_end_hour: 23
extra_block:
  minutes: 30
  start_hour: 7
`)

	scenario, err := LoadScenarioFromBytes(data)
	require.NoError(t, err)

	assert.Equal(t, "sess-42", scenario.BaseSessionID)
	assert.Equal(t, "dim evenings", scenario.Label)
	assert.Equal(t, -60.0, scenario.ExposureChangePercent)
	assert.Equal(t, 19, scenario.WindowStartHour)
	assert.Equal(t, 23, scenario.WindowEndHour)
	require.NotNil(t, scenario.Extra)
	assert.Equal(t, 30, scenario.Extra.Minutes)
	assert.Equal(t, 7, scenario.Extra.StartHour)
}

func TestLoadScenarioFromBytesInvalid(t *testing.T) {
	_, err := LoadScenarioFromBytes([]byte("not: [valid"))
	assert.Error(t, err)

	_, err = LoadScenarioFromBytes([]byte("exposure_change_percent: -150"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}
