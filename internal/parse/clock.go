package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var clockRe = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):([0-5][0-9])$`)

// Clock is a local wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// String formats the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseClock parses "H:MM" or "HH:MM" in 24-hour notation.
func ParseClock(raw string) (Clock, error) {
	m := clockRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return Clock{}, fmt.Errorf("invalid time of day %q, expected HH:MM", raw)
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	return Clock{Hour: h, Minute: min}, nil
}

const (
	MinOffsetMinutes = -12 * 60
	MaxOffsetMinutes = 14 * 60
)

// ValidateOffset checks a timezone offset given in minutes east of UTC.
func ValidateOffset(minutes int) error {
	if minutes < MinOffsetMinutes || minutes > MaxOffsetMinutes {
		return fmt.Errorf("timezone offset %d is out of range [%d, %d]", minutes, MinOffsetMinutes, MaxOffsetMinutes)
	}
	return nil
}
