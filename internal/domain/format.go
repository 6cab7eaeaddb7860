package domain

import (
	"fmt"
	"strings"
	"time"
)

// InstantLayout is how one-time reminders are shown to users.
const InstantLayout = "02 Jan 2006 15:04"

// FormatClock returns HH:MM.
func FormatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// FormatInstant formats t in loc using InstantLayout.
func FormatInstant(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(InstantLayout)
}

// FormatDays joins weekday names in schedule order, e.g. "Monday, Wednesday".
func FormatDays(days []Weekday) string {
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, d.String())
	}
	return strings.Join(names, ", ")
}

// Describe renders a schedule for chat replies.
func (s Schedule) Describe(loc *time.Location) string {
	switch s.Kind {
	case KindOnce:
		return FormatInstant(s.At, loc)
	case KindWeekly:
		return "every " + FormatDays(s.Days) + " at " + FormatClock(s.Hour, s.Minute)
	default:
		return "—"
	}
}

// ValidateTZ checks that tz is a valid IANA location and returns it.
func ValidateTZ(tz string) (*time.Location, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", tz, err)
	}
	return loc, nil
}
