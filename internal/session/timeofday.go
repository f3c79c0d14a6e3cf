package session

import "time"

// TimeCategory is the coarse circadian time-of-day bucket shared by the
// pipeline, the simulation engine and heuristic detection.
type TimeCategory string

const (
	CategoryMorning TimeCategory = "morning"
	CategoryMidday  TimeCategory = "midday"
	CategoryEvening TimeCategory = "evening"
	CategoryNight   TimeCategory = "night"
)

// CategoryForHour maps a clock hour to its circadian category:
// morning [4,10), midday [10,17), evening [19,24) and [0,1), else night.
func CategoryForHour(hour int) TimeCategory {
	switch {
	case hour >= 4 && hour < 10:
		return CategoryMorning
	case hour >= 10 && hour < 17:
		return CategoryMidday
	case hour >= 19 || hour == 0:
		return CategoryEvening
	default:
		return CategoryNight
	}
}

// CategoryForTime maps an instant to its circadian category using the
// instant's own location.
func CategoryForTime(t time.Time) TimeCategory {
	return CategoryForHour(t.Hour())
}

// IsEveningHour reports whether the hour falls in the evening bucket.
func IsEveningHour(hour int) bool {
	return CategoryForHour(hour) == CategoryEvening
}
