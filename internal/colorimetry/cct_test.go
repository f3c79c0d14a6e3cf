package colorimetry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlab/circadia-platform/internal/session"
)

func TestRGBToChromaticityWhite(t *testing.T) {
	// sRGB white is D65
	chroma := RGBToChromaticity(session.RGB{R: 1, G: 1, B: 1})
	require.True(t, chroma.Valid())

	assert.InDelta(t, 0.3127, chroma.X, 0.005)
	assert.InDelta(t, 0.3290, chroma.Y, 0.005)
}

func TestRGBToChromaticityBlack(t *testing.T) {
	chroma := RGBToChromaticity(session.RGB{R: 0, G: 0, B: 0})
	assert.False(t, chroma.Valid(), "black input must yield an invalid chromaticity, not an error")
}

func TestRGBToChromaticityInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		rgb  session.RGB
	}{
		{"negative channel", session.RGB{R: -0.1, G: 0.5, B: 0.5}},
		{"channel above one", session.RGB{R: 1.5, G: 0.5, B: 0.5}},
		{"NaN channel", session.RGB{R: math.NaN(), G: 0.5, B: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, RGBToChromaticity(tt.rgb).Valid())
		})
	}
}

func TestChromaticityToCCTWhite(t *testing.T) {
	chroma := RGBToChromaticity(session.RGB{R: 1, G: 1, B: 1})
	result := ChromaticityToCCT(chroma)

	require.True(t, result.Valid)
	assert.InDelta(t, 6500, result.Kelvin, 300, "D65 white should estimate near 6500 K")
	assert.InDelta(t, 0, result.Duv, 0.01, "D65 sits close to the Planckian locus")
}

func TestChromaticityToCCTOnLocus(t *testing.T) {
	// Points taken from the Planckian locus itself should round-trip
	// through the polynomial estimate with small error and near-zero Duv.
	for _, kelvin := range []float64{3000, 4000, 5000, 6500, 9000} {
		x, y := planckianXY(kelvin)
		result := ChromaticityToCCT(session.Chromaticity{X: x, Y: y})

		require.True(t, result.Valid, "locus point at %v K", kelvin)
		assert.InEpsilon(t, kelvin, result.Kelvin, 0.05, "CCT at %v K", kelvin)
		assert.InDelta(t, 0, result.Duv, 0.005, "Duv at %v K", kelvin)
	}
}

func TestChromaticityToCCTInvalid(t *testing.T) {
	assert.False(t, ChromaticityToCCT(session.Chromaticity{}).Valid)
	assert.False(t, ChromaticityToCCT(session.Chromaticity{X: 0.9, Y: 0.9}).Valid)
}

func TestChromaticityToCCTClamped(t *testing.T) {
	// Deep red chromaticity maps far below the locus range and must be
	// clamped to a finite bound, never returned unbounded or NaN.
	result := ChromaticityToCCT(session.Chromaticity{X: 0.63, Y: 0.34})
	if result.Valid {
		assert.GreaterOrEqual(t, result.Kelvin, MinCCT)
		assert.LessOrEqual(t, result.Kelvin, MaxCCT)
	}
}

func TestDuvSignConvention(t *testing.T) {
	// A point nudged above the locus (greenish) has positive Duv, below
	// (pinkish) negative.
	x, y := planckianXY(5000)

	above := ChromaticityToCCT(session.Chromaticity{X: x, Y: y + 0.02})
	require.True(t, above.Valid)
	assert.Positive(t, above.Duv)

	below := ChromaticityToCCT(session.Chromaticity{X: x, Y: y - 0.02})
	require.True(t, below.Valid)
	assert.Negative(t, below.Duv)
}
