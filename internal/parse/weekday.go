package parse

import (
	"fmt"
	"strings"
	"time"
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts english weekday names and their three letter
// abbreviations, case-insensitively.
func ParseWeekday(raw string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if wd, ok := weekdayNames[name]; ok {
		return wd, nil
	}
	if len(name) == 3 {
		for full, wd := range weekdayNames {
			if strings.HasPrefix(full, name) {
				return wd, nil
			}
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", raw)
}

// ParseWeekdays parses a comma separated weekday list. Duplicates are dropped
// and the first-seen order is kept. An empty list is not an error.
func ParseWeekdays(raw string) ([]time.Weekday, error) {
	var names []string
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) != "" {
			names = append(names, part)
		}
	}
	return ParseWeekdayList(names)
}

// ParseWeekdayList is ParseWeekdays for an already split list.
func ParseWeekdayList(names []string) ([]time.Weekday, error) {
	seen := make(map[time.Weekday]bool, len(names))
	out := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		wd, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		if seen[wd] {
			continue
		}
		seen[wd] = true
		out = append(out, wd)
	}
	return out, nil
}

// FormatWeekdays renders weekdays in the storage form, e.g. "friday,monday".
func FormatWeekdays(days []time.Weekday) string {
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = strings.ToLower(d.String())
	}
	return strings.Join(names, ",")
}
