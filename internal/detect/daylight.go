package detect

import (
	"math"
	"time"

	"github.com/sixdouglas/suncalc"
)

// DaylightContext describes the theoretical outdoor light at a location and
// instant. The detector agents attach it to published detections as
// observational context; it does not change rule outcomes, which must stay
// deterministic for a given reading.
type DaylightContext struct {
	TheoreticalOutdoorLux float64
	SunAltitudeDegrees    float64
	IsDaytime             bool
	IsGoldenHour          bool
}

// CalculateDaylightContext computes sun position at (lat, lon) and a rough
// outdoor illuminance estimate: ~120k lux with the sun overhead, scaled by
// the sine of the altitude.
func CalculateDaylightContext(lat, lon float64, at time.Time) DaylightContext {
	position := suncalc.GetPosition(at, lat, lon)
	altitudeDegrees := position.Altitude * (180.0 / math.Pi)

	var theoreticalLux float64
	if altitudeDegrees > 0 {
		theoreticalLux = 120000.0 * math.Sin(position.Altitude)
		if theoreticalLux < 0 {
			theoreticalLux = 0
		}
	}

	return DaylightContext{
		TheoreticalOutdoorLux: theoreticalLux,
		SunAltitudeDegrees:    altitudeDegrees,
		IsDaytime:             altitudeDegrees > 0,
		IsGoldenHour:          altitudeDegrees > 0 && altitudeDegrees < 6,
	}
}
