package minijob_limit

import (
	"fmt"
	"sort"
	"time"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/errs"
	"github.com/shopspring/decimal"
)

const dateLayout = time.DateOnly

// Limit is the monthly earnings cap in force from EffectiveFrom until EffectiveUntil, both
// inclusive. A nil EffectiveUntil is open-ended.
type Limit struct {
	Id             int
	Amount         decimal.Decimal
	EffectiveFrom  time.Time
	EffectiveUntil *time.Time
	Description    string
}

func (l Limit) Validate() error {
	if !l.Amount.IsPositive() {
		return errs.Validation("amount", "must be greater than zero")
	}
	if l.EffectiveFrom.IsZero() {
		return errs.Validation("effectiveFrom", "is required")
	}
	if l.EffectiveUntil != nil && l.EffectiveUntil.Before(l.EffectiveFrom) {
		return errs.Validation("effectiveUntil", "must not be before effectiveFrom")
	}
	return nil
}

// Covers reports whether date lies within the limit's validity.
func (l Limit) Covers(date time.Time) bool {
	if date.Before(l.EffectiveFrom) {
		return false
	}
	return l.EffectiveUntil == nil || !date.After(*l.EffectiveUntil)
}

// Overlaps reports whether the validity ranges of l and other share at least one day.
func (l Limit) Overlaps(other Limit) bool {
	if l.EffectiveUntil != nil && l.EffectiveUntil.Before(other.EffectiveFrom) {
		return false
	}
	if other.EffectiveUntil != nil && other.EffectiveUntil.Before(l.EffectiveFrom) {
		return false
	}
	return true
}

func (l Limit) String() string {
	until := "open"
	if l.EffectiveUntil != nil {
		until = l.EffectiveUntil.Format(dateLayout)
	}
	return fmt.Sprintf("%s (%s - %s)", l.Amount.StringFixed(2), l.EffectiveFrom.Format(dateLayout), until)
}

// CheckOverlap fails with an OverlapError naming the first pair of overlapping limits.
func CheckOverlap(limits []Limit) error {
	sorted := sortedByFrom(limits)
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Overlaps(sorted[i]) {
			return &errs.OverlapError{Kind: "minijob limits", First: sorted[i-1].String(), Second: sorted[i].String()}
		}
	}
	return nil
}

// Schedule answers which limit is in force on a date.
type Schedule struct {
	limits []Limit
}

// NewSchedule rejects overlapping limits so that every date has at most one limit.
func NewSchedule(limits []Limit) (Schedule, error) {
	if err := CheckOverlap(limits); err != nil {
		return Schedule{}, err
	}
	return Schedule{limits: sortedByFrom(limits)}, nil
}

func (s Schedule) Limits() []Limit {
	return append([]Limit(nil), s.limits...)
}

// LimitOn returns the limit covering date or a NoCurrentSetting ConfigError.
func (s Schedule) LimitOn(date time.Time) (Limit, error) {
	i := sort.Search(len(s.limits), func(i int) bool {
		return s.limits[i].EffectiveFrom.After(date)
	})
	if i > 0 && s.limits[i-1].Covers(date) {
		return s.limits[i-1], nil
	}
	return Limit{}, errs.Config(errs.CodeNoCurrentSetting, fmt.Sprintf("no minijob limit in force on %s", date.Format(dateLayout)))
}

// AmountOn is LimitOn reduced to the amount.
func (s Schedule) AmountOn(date time.Time) (decimal.Decimal, error) {
	limit, err := s.LimitOn(date)
	if err != nil {
		return decimal.Zero, err
	}
	return limit.Amount, nil
}

func sortedByFrom(limits []Limit) []Limit {
	sorted := append([]Limit(nil), limits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EffectiveFrom.Before(sorted[j].EffectiveFrom)
	})
	return sorted
}
