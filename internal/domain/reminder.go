package domain

import (
	"errors"
	"fmt"
	"time"
)

// Kind tags which Schedule variant is populated.
type Kind int

const (
	KindOnce Kind = iota + 1
	KindWeekly
)

func (k Kind) String() string {
	switch k {
	case KindOnce:
		return "once"
	case KindWeekly:
		return "weekly"
	default:
		return "unknown"
	}
}

// Weekday is a day index where Monday is 0 and Sunday is 6.
type Weekday int

// WeekdayOf converts a time.Weekday (Sunday = 0) into a Weekday (Monday = 0).
func WeekdayOf(d time.Weekday) Weekday {
	return Weekday((int(d) + 6) % 7)
}

func (d Weekday) Valid() bool { return d >= 0 && d <= 6 }

var (
	ErrInvalidSchedule = errors.New("invalid schedule")
	ErrNoDays          = errors.New("weekly schedule needs at least one day")
)

// Schedule is either a one-time instant (KindOnce, At) or a weekly
// recurrence (KindWeekly, Hour, Minute, Days). Fields of the other variant
// stay zero.
type Schedule struct {
	Kind   Kind
	At     time.Time
	Hour   int
	Minute int
	Days   []Weekday
}

// Once builds a one-time schedule truncated to the minute.
func Once(at time.Time) Schedule {
	return Schedule{Kind: KindOnce, At: TruncateMinute(at)}
}

// Weekly builds a weekly schedule. Days are de-duplicated keeping the first
// occurrence order.
func Weekly(hour, minute int, days []Weekday) Schedule {
	seen := make(map[Weekday]bool, len(days))
	uniq := make([]Weekday, 0, len(days))
	for _, d := range days {
		if seen[d] {
			continue
		}
		seen[d] = true
		uniq = append(uniq, d)
	}
	return Schedule{Kind: KindWeekly, Hour: hour, Minute: minute, Days: uniq}
}

// Validate checks the variant invariants.
func (s Schedule) Validate() error {
	switch s.Kind {
	case KindOnce:
		if s.At.IsZero() {
			return fmt.Errorf("%w: missing instant", ErrInvalidSchedule)
		}
		if !s.At.Equal(TruncateMinute(s.At)) {
			return fmt.Errorf("%w: instant not minute aligned", ErrInvalidSchedule)
		}
		if len(s.Days) > 0 || s.Hour != 0 || s.Minute != 0 {
			return fmt.Errorf("%w: one-time schedule carries weekly fields", ErrInvalidSchedule)
		}
	case KindWeekly:
		if !s.At.IsZero() {
			return fmt.Errorf("%w: weekly schedule carries an instant", ErrInvalidSchedule)
		}
		if s.Hour < 0 || s.Hour > 23 || s.Minute < 0 || s.Minute > 59 {
			return fmt.Errorf("%w: time %d:%d out of range", ErrInvalidSchedule, s.Hour, s.Minute)
		}
		if len(s.Days) == 0 {
			return ErrNoDays
		}
		for _, d := range s.Days {
			if !d.Valid() {
				return fmt.Errorf("%w: weekday %d", ErrInvalidSchedule, d)
			}
		}
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidSchedule, s.Kind)
	}
	return nil
}

// HasDay reports whether d is part of a weekly schedule.
func (s Schedule) HasDay(d Weekday) bool {
	for _, x := range s.Days {
		if x == d {
			return true
		}
	}
	return false
}

// Reminder is a stored notification scoped to the server it was created in.
type Reminder struct {
	ID        int64
	ServerID  string
	ChannelID string
	AuthorID  string
	Text      string
	Schedule  Schedule
	CreatedAt time.Time
}

// TruncateMinute drops seconds and sub-second precision, keeping the location.
func TruncateMinute(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}
