package results

import (
	"github.com/pgvector/pgvector-go"

	"github.com/lumenlab/circadia-platform/internal/session"
)

// ProfileBins is the dimensionality of the exposure profile: one mean-CS
// bin per clock hour.
const ProfileBins = 24

// ExposureProfile collapses a results record into a 24-bin hourly mean-CS
// vector. Two days with similar light timing land close together under
// cosine distance, which is what similar-session lookup queries on.
func ExposureProfile(r *session.Results) pgvector.Vector {
	var sums [ProfileBins]float64
	var counts [ProfileBins]int

	for i, ts := range r.Timestamps {
		if i >= len(r.CS) {
			break
		}
		hour := ts.Hour()
		sums[hour] += r.CS[i]
		counts[hour]++
	}

	bins := make([]float32, ProfileBins)
	for h := 0; h < ProfileBins; h++ {
		if counts[h] > 0 {
			bins[h] = float32(sums[h] / float64(counts[h]))
		}
	}

	return pgvector.NewVector(bins)
}
