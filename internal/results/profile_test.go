package results

import (
	"testing"
	"time"

	"github.com/lumenlab/circadia-platform/internal/session"
)

func TestExposureProfile(t *testing.T) {
	// Two samples at hour 12 (CS 0.2 and 0.4) and one at hour 20 (CS 0.3).
	r := &session.Results{
		Timestamps: []time.Time{
			time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 14, 12, 30, 0, 0, time.UTC),
			time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC),
		},
		CS: []float64{0.2, 0.4, 0.3},
	}

	bins := ExposureProfile(r).Slice()
	if len(bins) != ProfileBins {
		t.Fatalf("profile has %d bins, want %d", len(bins), ProfileBins)
	}

	if bins[12] < 0.299 || bins[12] > 0.301 {
		t.Errorf("bin 12 = %v, want mean 0.3", bins[12])
	}
	if bins[20] < 0.299 || bins[20] > 0.301 {
		t.Errorf("bin 20 = %v, want 0.3", bins[20])
	}

	for h, v := range bins {
		if h == 12 || h == 20 {
			continue
		}
		if v != 0 {
			t.Errorf("bin %d = %v, want 0 for hours without samples", h, v)
		}
	}
}

func TestExposureProfileEmpty(t *testing.T) {
	bins := ExposureProfile(&session.Results{}).Slice()
	if len(bins) != ProfileBins {
		t.Fatalf("profile has %d bins, want %d", len(bins), ProfileBins)
	}
	for h, v := range bins {
		if v != 0 {
			t.Errorf("bin %d = %v, want 0", h, v)
		}
	}
}
