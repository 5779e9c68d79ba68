package billing_period

import (
	"errors"
	"fmt"
	"time"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/errs"
)

// ErrNotChronological is returned when a sequence of periods skips or repeats a key or runs backwards.
var ErrNotChronological = errors.New("billing periods are not in chronological order")

var monthNames = [...]string{
	time.January:   "Januar",
	time.February:  "Februar",
	time.March:     "März",
	time.April:     "April",
	time.May:       "Mai",
	time.June:      "Juni",
	time.July:      "Juli",
	time.August:    "August",
	time.September: "September",
	time.October:   "Oktober",
	time.November:  "November",
	time.December:  "Dezember",
}

const labelDateLayout = "02.01.2006"

// Resolve returns the concrete period identified by key. now only decides IsCurrent.
func Resolve(cfg Config, key Key, now time.Time) (Period, error) {
	if err := cfg.Validate(); err != nil {
		return Period{}, err
	}
	return resolve(cfg, key, now), nil
}

// List returns count periods ending with the latest period that starts on or before reference.
func List(cfg Config, reference time.Time, count int, order Order, now time.Time) ([]Period, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if count < 1 {
		return nil, errs.Validation("count", fmt.Sprintf("must be positive, got %d", count))
	}

	last := keyAtOrBefore(cfg, reference)
	periods := make([]Period, 0, count)
	for k := last.add(-(count - 1)); !k.After(last); k = k.Next() {
		periods = append(periods, resolve(cfg, k, now))
	}
	if order == MostRecentFirst {
		for i, j := 0, len(periods)-1; i < j; i, j = i+1, j-1 {
			periods[i], periods[j] = periods[j], periods[i]
		}
	}
	return periods, nil
}

// Range returns every period from `from` to `to` inclusive in chronological order.
func Range(cfg Config, from Key, to Key, now time.Time) ([]Period, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, errs.Validation("period", fmt.Sprintf("range end %s is before start %s", to, from))
	}

	periods := make([]Period, 0, from.MonthsUntil(to)+1)
	for k := from; !k.After(to); k = k.Next() {
		periods = append(periods, resolve(cfg, k, now))
	}
	return periods, nil
}

// KeyForDate returns the key of the period containing date. The second result is false
// when the date lies in a gap between periods, which happens for configurations that do
// not cover the whole month (e.g. 1st to 15th).
func KeyForDate(cfg Config, date time.Time) (Key, bool) {
	if cfg.Validate() != nil {
		return Key{}, false
	}
	k := keyAtOrBefore(cfg, date)
	start, end := bounds(cfg, k)
	d := DateOf(date)
	return k, !d.Before(start) && !d.After(end)
}

// CheckContiguous verifies that periods follow each other key by key without overlapping.
func CheckContiguous(periods []Period) error {
	for i := 1; i < len(periods); i++ {
		prev, cur := periods[i-1], periods[i]
		if cur.Key.Equal(prev.Key) || !cur.Start.After(prev.End) {
			return &errs.OverlapError{Kind: "billing periods", First: prev.Label, Second: cur.Label}
		}
		if !cur.Key.Equal(prev.Key.Next()) {
			return fmt.Errorf("%w: %s follows %s", ErrNotChronological, cur.Key, prev.Key)
		}
	}
	return nil
}

func resolve(cfg Config, key Key, now time.Time) Period {
	start, end := bounds(cfg, key)
	p := Period{
		Key:   key,
		Label: label(start, end),
		Start: start,
		End:   end,
	}
	p.IsCurrent = p.Contains(now)
	return p
}

// bounds computes the inclusive start and end of the period ending in key's month.
// For wrapping configurations the start never falls on or before the previous period's
// end, which clamping alone could cause (e.g. 31st to 30th in February).
func bounds(cfg Config, key Key) (time.Time, time.Time) {
	end := clampedDate(key, cfg.EndDay)
	if !cfg.wraps() {
		return clampedDate(key, cfg.StartDay), end
	}
	prev := key.Prev()
	start := clampedDate(prev, cfg.StartDay)
	prevEnd := clampedDate(prev, cfg.EndDay)
	if !start.After(prevEnd) {
		start = prevEnd.AddDate(0, 0, 1)
	}
	return start, end
}

func keyAtOrBefore(cfg Config, date time.Time) Key {
	d := DateOf(date)
	k := Key{Year: d.Year(), Month: d.Month()}
	if cfg.wraps() {
		if d.After(clampedDate(k, cfg.EndDay)) {
			k = k.Next()
		}
	}
	if start, _ := bounds(cfg, k); d.Before(start) {
		k = k.Prev()
	}
	return k
}

func clampedDate(key Key, day int) time.Time {
	if last := daysIn(key); day > last {
		day = last
	}
	return time.Date(key.Year, key.Month, day, 0, 0, 0, 0, time.UTC)
}

func daysIn(key Key) int {
	return time.Date(key.Year, key.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func label(start, end time.Time) string {
	var months string
	switch {
	case start.Year() == end.Year() && start.Month() == end.Month():
		months = fmt.Sprintf("%s %d", monthNames[end.Month()], end.Year())
	case start.Year() == end.Year():
		months = fmt.Sprintf("%s/%s %d", monthNames[start.Month()], monthNames[end.Month()], end.Year())
	default:
		months = fmt.Sprintf("%s %d/%s %d", monthNames[start.Month()], start.Year(), monthNames[end.Month()], end.Year())
	}
	return fmt.Sprintf("%s (%s - %s)", months, start.Format(labelDateLayout), end.Format(labelDateLayout))
}
