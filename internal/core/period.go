package core

import (
	"strings"
	"time"
)

const (
	PeriodDaily   PeriodKind = "daily"
	PeriodWeekly  PeriodKind = "weekly"
	PeriodMonthly PeriodKind = "monthly"
	PeriodYear    PeriodKind = "year"
)

type (
	// PeriodKind is one of the four supported calendar period literals.
	// The set is closed and case-sensitive.
	PeriodKind string

	// Interval is a half-open UTC reporting interval [Start, End).
	// Adjacent intervals of the same kind share a boundary instant but
	// never a covered instant.
	Interval struct {
		Start time.Time
		End   time.Time
		Kind  PeriodKind
	}
)

// Contains reports whether an instant falls inside the interval.
// Start is included, End is excluded.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// ResolvePeriod computes the calendar interval of the given kind anchored
// at the given date. An empty anchor means "now". All arithmetic is
// calendar-based in UTC; a date-only anchor is taken as that UTC calendar
// date, never shifted through a local zone.
//
// Weeks begin on Monday. Months and years roll over through time.AddDate,
// so December anchors produce January ends.
func ResolvePeriod(period, anchor string, now time.Time) (Interval, error) {
	at := now.UTC()
	if s := strings.TrimSpace(anchor); s != "" {
		parsed, err := ParseAnchorDate(s)
		if err != nil {
			return Interval{}, err
		}
		at = parsed
	}

	midnight := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)

	switch PeriodKind(period) {
	case PeriodDaily:
		return Interval{Start: midnight, End: midnight.AddDate(0, 0, 1), Kind: PeriodDaily}, nil
	case PeriodWeekly:
		// time.Weekday counts 0=Sunday..6=Saturday.
		diffToMonday := (int(at.Weekday()) + 6) % 7
		start := midnight.AddDate(0, 0, -diffToMonday)
		return Interval{Start: start, End: start.AddDate(0, 0, 7), Kind: PeriodWeekly}, nil
	case PeriodMonthly:
		start := time.Date(at.Year(), at.Month(), 1, 0, 0, 0, 0, time.UTC)
		return Interval{Start: start, End: start.AddDate(0, 1, 0), Kind: PeriodMonthly}, nil
	case PeriodYear:
		start := time.Date(at.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return Interval{Start: start, End: start.AddDate(1, 0, 0), Kind: PeriodYear}, nil
	default:
		return Interval{}, ErrInvalidPeriod
	}
}

// ParseAnchorDate parses a caller-supplied anchor as either a bare
// YYYY-MM-DD calendar date or a full RFC 3339 timestamp, normalized to UTC.
func ParseAnchorDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, ErrInvalidDate
}
