package simulate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ExtraBlock is an optional synthesized bright-light block added to the
// modified session, representing deliberate light therapy.
type ExtraBlock struct {
	Minutes   int `json:"minutes" yaml:"minutes"`
	StartHour int `json:"startHour" yaml:"start_hour"`
}

// Scenario is a declarative exposure modification: scale ambient lux by
// ExposureChangePercent inside the [WindowStartHour, WindowEndHour) clock
// window (wrapping past midnight when end < start; start == end covers the
// whole day), optionally adding an extra bright-light block. Immutable after
// validation.
type Scenario struct {
	BaseSessionID         string      `json:"baseSessionId" yaml:"base_session_id"`
	Label                 string      `json:"label" yaml:"label"`
	ExposureChangePercent float64     `json:"exposureChangePercent" yaml:"exposure_change_percent"`
	WindowStartHour       int         `json:"windowStartHour" yaml:"window_start_hour"`
	WindowEndHour         int         `json:"windowEndHour" yaml:"window_end_hour"`
	Extra                 *ExtraBlock `json:"extraBlock,omitempty" yaml:"extra_block,omitempty"`
}

// Validate checks the scenario's hour and block invariants.
func (s *Scenario) Validate() error {
	if s.WindowStartHour < 0 || s.WindowStartHour > 23 {
		return fmt.Errorf("invalid input: window start hour %d outside 0-23", s.WindowStartHour)
	}
	if s.WindowEndHour < 0 || s.WindowEndHour > 23 {
		return fmt.Errorf("invalid input: window end hour %d outside 0-23", s.WindowEndHour)
	}
	if s.ExposureChangePercent < -100 {
		return fmt.Errorf("invalid input: exposure change %.1f%% below -100%%", s.ExposureChangePercent)
	}
	if s.Extra != nil {
		if s.Extra.StartHour < 0 || s.Extra.StartHour > 23 {
			return fmt.Errorf("invalid input: extra block start hour %d outside 0-23", s.Extra.StartHour)
		}
		if s.Extra.Minutes <= 0 {
			return fmt.Errorf("invalid input: extra block duration %d minutes", s.Extra.Minutes)
		}
	}
	return nil
}

// hourInWindow reports whether a clock hour falls inside the scenario
// window, treating it as wrapping past midnight when end < start and as the
// whole day when start == end.
func (s *Scenario) hourInWindow(hour int) bool {
	if s.WindowStartHour == s.WindowEndHour {
		return true
	}
	if s.WindowStartHour < s.WindowEndHour {
		return hour >= s.WindowStartHour && hour < s.WindowEndHour
	}
	return hour >= s.WindowStartHour || hour < s.WindowEndHour
}

// LoadScenario reads and validates a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return LoadScenarioFromBytes(data)
}

// LoadScenarioFromBytes parses and validates scenario YAML.
func LoadScenarioFromBytes(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario YAML: %w", err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("scenario validation failed: %w", err)
	}
	return &scenario, nil
}
