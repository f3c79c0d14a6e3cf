package colorimetry

import (
	"math"

	"github.com/lumenlab/circadia-platform/internal/session"
)

// Classification downstream only needs an approximate bucket, so estimates
// outside this band are clamped instead of rejected.
const (
	MinCCT = 1000.0
	MaxCCT = 25000.0
)

// CCTResult carries a correlated color temperature estimate together with
// Duv, the signed distance of the sample chromaticity from the Planckian
// locus. Duv is a confidence signal only; it is never applied as a
// correction to the CCT itself.
type CCTResult struct {
	Kelvin float64
	Duv    float64
	Valid  bool
}

// ChromaticityToCCT estimates CCT using the Hernández-Andrés polynomial
// inverse of the Planckian locus. The low- and high-temperature branches use
// different epicenters; the high branch is selected when the low-branch
// estimate exceeds its validity ceiling. Invalid chromaticities yield an
// invalid result; valid ones always yield a finite, clamped estimate.
func ChromaticityToCCT(c session.Chromaticity) CCTResult {
	if !c.Valid() {
		return CCTResult{}
	}

	kelvin := hernandezLow(c)
	if kelvin > 50000 {
		kelvin = hernandezHigh(c)
	}

	if math.IsNaN(kelvin) || math.IsInf(kelvin, 0) {
		return CCTResult{}
	}
	if kelvin < MinCCT {
		kelvin = MinCCT
	}
	if kelvin > MaxCCT {
		kelvin = MaxCCT
	}

	return CCTResult{
		Kelvin: kelvin,
		Duv:    duvFromLocus(c, kelvin),
		Valid:  true,
	}
}

// hernandezLow evaluates the 3000-50000 K branch.
func hernandezLow(c session.Chromaticity) float64 {
	n := (c.X - 0.3366) / (c.Y - 0.1735)
	return -949.86315 +
		6253.80338*math.Exp(-n/0.92159) +
		28.70599*math.Exp(-n/0.20039) +
		0.00004*math.Exp(-n/0.07125)
}

// hernandezHigh evaluates the >50000 K branch with its shifted epicenter.
func hernandezHigh(c session.Chromaticity) float64 {
	n := (c.X - 0.3356) / (c.Y - 0.1691)
	return 36284.48953 +
		0.00228*math.Exp(-n/0.07861) +
		5.4535e-36*math.Exp(-n/0.01543)
}

// duvFromLocus computes the signed CIE 1960 uv distance between the sample
// and the Planckian locus point at the estimated CCT. Positive means the
// sample sits above the locus (greenish), negative below (pinkish).
func duvFromLocus(c session.Chromaticity, kelvin float64) float64 {
	lx, ly := planckianXY(kelvin)
	lu, lv := toUV(session.Chromaticity{X: lx, Y: ly})
	su, sv := toUV(c)

	dist := math.Hypot(su-lu, sv-lv)
	if sv < lv {
		return -dist
	}
	return dist
}

// planckianXY approximates the blackbody chromaticity at temperature T using
// the Kim et al. cubic spline fit, valid over 1667-25000 K.
func planckianXY(t float64) (x, y float64) {
	if t < 1667 {
		t = 1667
	}
	if t > 25000 {
		t = 25000
	}

	t2 := t * t
	t3 := t2 * t

	if t <= 4000 {
		x = -0.2661239e9/t3 - 0.2343589e6/t2 + 0.8776956e3/t + 0.179910
	} else {
		x = -3.0258469e9/t3 + 2.1070379e6/t2 + 0.2226347e3/t + 0.240390
	}

	x2 := x * x
	x3 := x2 * x
	switch {
	case t <= 2222:
		y = -1.1063814*x3 - 1.34811020*x2 + 2.18555832*x - 0.20219683
	case t <= 4000:
		y = -0.9549476*x3 - 1.37418593*x2 + 2.09137015*x - 0.16748867
	default:
		y = 3.0817580*x3 - 5.87338670*x2 + 3.75112997*x - 0.37001483
	}
	return x, y
}
