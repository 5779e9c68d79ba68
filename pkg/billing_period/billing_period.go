package billing_period

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/errs"
)

// DateLayout is the wire format of period bounds.
const DateLayout = time.DateOnly

// Config is a user's recurring period definition. When StartDay is greater than EndDay
// the period spans a calendar-month boundary.
type Config struct {
	StartDay int
	EndDay   int
}

// Validate fails with a ConfigError when the configuration is absent or out of range.
func (c Config) Validate() error {
	if c.StartDay == 0 && c.EndDay == 0 {
		return errs.Config(errs.CodeMissingConfig, "billing period is not configured")
	}
	if c.StartDay < 1 || c.StartDay > 31 {
		return errs.Config(errs.CodeInvalidConfig, fmt.Sprintf("start day %d is outside 1-31", c.StartDay))
	}
	if c.EndDay < 1 || c.EndDay > 31 {
		return errs.Config(errs.CodeInvalidConfig, fmt.Sprintf("end day %d is outside 1-31", c.EndDay))
	}
	return nil
}

func (c Config) wraps() bool {
	return c.EndDay < c.StartDay
}

// Key identifies a period by the month in which it ends.
type Key struct {
	Year  int
	Month time.Month
}

func KeyOf(year int, month time.Month) Key {
	return Key{Year: year, Month: month}
}

// KeyFromString parses the "2025-04" form produced by String.
func KeyFromString(s string) (Key, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return Key{}, errs.Validation("period", fmt.Sprintf("invalid period key format: %q", s))
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 1 {
		return Key{}, errs.Validation("period", fmt.Sprintf("invalid year in %q", s))
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return Key{}, errs.Validation("period", fmt.Sprintf("invalid month in %q", s))
	}
	return Key{Year: year, Month: time.Month(month)}, nil
}

func (k Key) Equal(other Key) bool {
	return k.Year == other.Year && k.Month == other.Month
}

func (k Key) Before(other Key) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

func (k Key) After(other Key) bool {
	return other.Before(k)
}

func (k Key) Next() Key {
	return k.add(1)
}

func (k Key) Prev() Key {
	return k.add(-1)
}

func (k Key) add(months int) Key {
	t := time.Date(k.Year, k.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	return Key{Year: t.Year(), Month: t.Month()}
}

// MonthsUntil returns how many steps of Next lead from k to other; negative when other is earlier.
func (k Key) MonthsUntil(other Key) int {
	return (other.Year-k.Year)*12 + int(other.Month) - int(k.Month)
}

// String returns the key as "2025-04".
func (k Key) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// Period is one concrete, resolved billing period. Start and End are inclusive calendar
// dates at midnight UTC.
type Period struct {
	Key       Key
	Label     string
	Start     time.Time
	End       time.Time
	IsCurrent bool
}

// Contains reports whether the calendar date of t lies within the inclusive range.
func (p Period) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

// Days returns the number of calendar days in the period.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

type Order string

const (
	Chronological   Order = "asc"
	MostRecentFirst Order = "desc"
)

// DateOf drops the clock part of t, keeping its calendar date as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
