package schedule

import "strings"

// MaxLeadMinutes bounds every lead time. It is shorter than a week, which
// keeps notification and window computations within one recurrence period.
const MaxLeadMinutes = 10000

var unitMinutes = map[string]int{
	"minute":  1,
	"minutes": 1,
	"hour":    60,
	"hours":   60,
	"day":     24 * 60,
	"days":    24 * 60,
	"week":    7 * 24 * 60,
	"weeks":   7 * 24 * 60,
}

// KnownUnit reports whether unit is a supported lead time unit.
func KnownUnit(unit string) bool {
	_, ok := unitMinutes[strings.ToLower(strings.TrimSpace(unit))]
	return ok
}

// LeadMinutes converts a value in the given unit to minutes. It returns 0,
// meaning invalid, for unknown units and for results outside [1, MaxLeadMinutes].
func LeadMinutes(value int, unit string) int {
	mult, ok := unitMinutes[strings.ToLower(strings.TrimSpace(unit))]
	if !ok || value <= 0 || value > MaxLeadMinutes {
		return 0
	}
	minutes := value * mult
	if minutes > MaxLeadMinutes {
		return 0
	}
	return minutes
}
