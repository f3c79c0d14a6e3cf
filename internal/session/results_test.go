package session

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func eveningTimestamps(n int) []time.Time {
	out := make([]time.Time, n)
	base := time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = base.Add(time.Duration(i) * time.Minute)
	}
	return out
}

func middayTimestamps(n int) []time.Time {
	out := make([]time.Time, n)
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = base.Add(time.Duration(i) * time.Minute)
	}
	return out
}

func TestEveningRatio(t *testing.T) {
	r := Results{Timestamps: append(middayTimestamps(30), eveningTimestamps(10)...)}
	if got := r.EveningRatio(); got != 0.25 {
		t.Errorf("EveningRatio() = %v, want 0.25", got)
	}

	empty := Results{}
	if got := empty.EveningRatio(); got != 0 {
		t.Errorf("EveningRatio() on empty = %v, want 0", got)
	}
}

func TestHealthScore(t *testing.T) {
	tests := []struct {
		name string
		r    Results
		want float64
	}{
		{"empty series is neutral", Results{}, 50.0},
		{
			"evening heavy with high msi",
			Results{Timestamps: eveningTimestamps(10), MSI: 0.3},
			100.0 * (1.0 - 0.3*1.0),
		},
		{
			"midday exposure",
			Results{Timestamps: middayTimestamps(10), MSI: 0.3},
			100.0 * (1.0 - 0.3*0.3),
		},
		{
			"evening but low msi",
			Results{Timestamps: eveningTimestamps(10), MSI: 0.1},
			100.0 * (1.0 - 0.1*0.3),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.r.HealthScore()
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("HealthScore() = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 100 {
				t.Errorf("HealthScore() = %v outside [0,100]", got)
			}
		})
	}
}

func TestRiskLevel(t *testing.T) {
	tests := []struct {
		msi  float64
		want string
	}{
		{0.5, RiskHigh},
		{0.41, RiskHigh},
		{0.4, RiskModerate},
		{0.25, RiskModerate},
		{0.2, RiskLow},
		{0.15, RiskLow},
		{0.1, RiskMinimal},
		{0.05, RiskMinimal},
		{0, RiskMinimal},
	}

	for _, tt := range tests {
		r := Results{MSI: tt.msi}
		if got := r.RiskLevel(); got != tt.want {
			t.Errorf("RiskLevel() with MSI %v = %v, want %v", tt.msi, got, tt.want)
		}
	}
}

func TestMarshalRecord(t *testing.T) {
	r := Results{
		SessionID:     "sess-1",
		StartedAt:     time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC),
		StoppedAt:     time.Date(2025, 3, 14, 21, 0, 0, 0, time.UTC),
		DurationHours: 1.0,
		Timestamps:    eveningTimestamps(5),
		TotalDose:     0.25,
		MSI:           0.08,
		LightType:     "warm_led_2700k",
	}

	data, err := r.MarshalRecord()
	if err != nil {
		t.Fatalf("MarshalRecord failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("record is not valid JSON: %v", err)
	}

	if decoded["sessionId"] != "sess-1" {
		t.Errorf("sessionId = %v, want sess-1", decoded["sessionId"])
	}
	if decoded["riskLevel"] != RiskMinimal {
		t.Errorf("riskLevel = %v, want %v", decoded["riskLevel"], RiskMinimal)
	}
	if _, ok := decoded["healthScore"].(float64); !ok {
		t.Error("expected derived healthScore in record")
	}
	if _, ok := decoded["timestamps"]; ok {
		t.Error("record must not carry the raw series")
	}
}
