package colorimetry

import (
	"math"

	"github.com/lumenlab/circadia-platform/internal/session"
)

// Near-black XYZ sums below this carry no usable chromaticity information.
const blackSumEpsilon = 1e-6

// RGBToChromaticity converts an sRGB color (channels in [0,1]) to a CIE 1931
// (x, y) chromaticity coordinate. The channels are linearized before the
// RGB→XYZ matrix transform. A black or out-of-range input yields an invalid
// chromaticity (Valid() == false) rather than an error, keeping the
// conversion total for speculative camera frames.
func RGBToChromaticity(c session.RGB) session.Chromaticity {
	if !c.Valid() {
		return session.Chromaticity{}
	}

	r := srgbToLinear(c.R)
	g := srgbToLinear(c.G)
	b := srgbToLinear(c.B)

	// sRGB D65 reference primaries.
	x := 0.4124564*r + 0.3575761*g + 0.1804375*b
	y := 0.2126729*r + 0.7151522*g + 0.0721750*b
	z := 0.0193339*r + 0.1191920*g + 0.9503041*b

	sum := x + y + z
	if sum < blackSumEpsilon {
		return session.Chromaticity{}
	}

	return session.Chromaticity{X: x / sum, Y: y / sum}
}

// srgbToLinear undoes the sRGB transfer curve.
func srgbToLinear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// toUV converts CIE 1931 (x, y) to CIE 1960 (u, v), the space in which Duv
// is defined.
func toUV(c session.Chromaticity) (u, v float64) {
	d := -2.0*c.X + 12.0*c.Y + 3.0
	if d == 0 {
		return 0, 0
	}
	return 4.0 * c.X / d, 6.0 * c.Y / d
}
