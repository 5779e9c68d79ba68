package time_entry

import (
	"fmt"
	"time"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/errs"
)

const (
	minutesPerDay = 24 * 60

	// DefaultMinShiftMinutes is the shortest shift that may be recorded.
	DefaultMinShiftMinutes = 15

	DateLayout = time.DateOnly
)

// ClockTime is a wall-clock time of day in minutes after midnight.
type ClockTime int

// ParseClockTime parses "HH:MM" on a 24-hour clock.
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil || len(s) != 5 {
		return 0, errs.Validation("time", fmt.Sprintf("invalid time %q, expected HH:MM", s))
	}
	return ClockTime(t.Hour()*60 + t.Minute()), nil
}

func (c ClockTime) Valid() bool {
	return c >= 0 && c < minutesPerDay
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// ParseDate parses "YYYY-MM-DD" into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, errs.Validation("date", fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s))
	}
	return d, nil
}

// Entry is one worked shift. Date is a calendar date at midnight UTC.
type Entry struct {
	Id           int
	Uid          string
	Date         time.Time
	Start        ClockTime
	End          ClockTime
	BreakMinutes int
	Description  string
}

// SpanMinutes is the time between start and end. An end before the start means the shift
// ran past midnight, which is tolerated exactly once.
func (e Entry) SpanMinutes() int {
	span := int(e.End - e.Start)
	if span < 0 {
		span += minutesPerDay
	}
	return span
}

// WorkedMinutes is the span minus the break.
func (e Entry) WorkedMinutes() int {
	return e.SpanMinutes() - e.BreakMinutes
}

// Validate rejects entries that cannot be aggregated: missing date, out-of-range clock
// values, zero-length spans, negative breaks and shifts shorter than minMinutes.
func (e Entry) Validate(minMinutes int) error {
	if e.Date.IsZero() {
		return errs.Validation("date", "is required")
	}
	if !e.Start.Valid() {
		return errs.Validation("startTime", fmt.Sprintf("%d is outside 00:00-23:59", e.Start))
	}
	if !e.End.Valid() {
		return errs.Validation("endTime", fmt.Sprintf("%d is outside 00:00-23:59", e.End))
	}
	if e.Start == e.End {
		return errs.Validation("endTime", "must differ from start time")
	}
	if e.BreakMinutes < 0 {
		return errs.Validation("breakMinutes", "must not be negative")
	}
	if worked := e.WorkedMinutes(); worked < minMinutes {
		return errs.Validation("breakMinutes", fmt.Sprintf("worked time of %d minutes is below the minimum of %d", worked, minMinutes))
	}
	return nil
}
