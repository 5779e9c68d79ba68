package ledger

import (
	"fmt"
	"time"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/errs"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/billing_period"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/earnings"
	"github.com/shopspring/decimal"
)

// LimitLookup returns the minijob limit in force on a date.
type LimitLookup interface {
	AmountOn(date time.Time) (decimal.Decimal, error)
}

// Entry is one period of the carryover ledger.
type Entry struct {
	Period       billing_period.Period
	EntryCount   int
	TotalMinutes int
	TotalHours   decimal.Decimal

	GrossEarnings  decimal.Decimal
	CarryIn        decimal.Decimal
	ActualEarnings decimal.Decimal
	PaidEarnings   decimal.Decimal
	CarryOut       decimal.Decimal
	Limit          decimal.Decimal
	ExceedsLimit   bool
	WarningLevel   WarningLevel
}

type options struct {
	priorCarry decimal.Decimal
	thresholds Thresholds
}

type Option func(*options)

// WithPriorCarry seeds the carry into the first period, used when only a tail of the chain
// is recomputed.
func WithPriorCarry(carry decimal.Decimal) Option {
	return func(o *options) {
		o.priorCarry = carry
	}
}

func WithThresholds(t Thresholds) Option {
	return func(o *options) {
		o.thresholds = t
	}
}

// Build folds the periods left to right, capping each period's actual earnings at the limit
// in force on its start date and carrying the excess into the next period. Periods must be
// consecutive and in chronological order.
func Build(periods []earnings.PeriodEarnings, limits LimitLookup, opts ...Option) ([]Entry, error) {
	o := options{
		priorCarry: decimal.Zero,
		thresholds: DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.thresholds.Validate(); err != nil {
		return nil, err
	}
	if o.priorCarry.IsNegative() {
		return nil, errs.Validation("carryIn", fmt.Sprintf("prior carry %s must not be negative", o.priorCarry))
	}
	if err := checkChain(periods); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(periods))
	carry := o.priorCarry
	for _, p := range periods {
		limit, err := limits.AmountOn(p.Period.Start)
		if err != nil {
			return nil, fmt.Errorf("ledger period %s: %w", p.Period.Key, err)
		}

		entry := Entry{
			Period:         p.Period,
			EntryCount:     p.EntryCount,
			TotalMinutes:   p.TotalMinutes,
			TotalHours:     p.TotalHours,
			GrossEarnings:  p.GrossEarnings,
			CarryIn:        carry,
			ActualEarnings: p.GrossEarnings.Add(carry),
			Limit:          limit,
		}
		if entry.ActualEarnings.LessThanOrEqual(limit) {
			entry.PaidEarnings = entry.ActualEarnings
			entry.CarryOut = decimal.Zero
		} else {
			entry.PaidEarnings = limit
			entry.CarryOut = entry.ActualEarnings.Sub(limit)
			entry.ExceedsLimit = true
		}
		entry.WarningLevel = o.thresholds.Classify(entry.ActualEarnings, limit)

		entries = append(entries, entry)
		carry = entry.CarryOut
	}
	return entries, nil
}

func checkChain(periods []earnings.PeriodEarnings) error {
	resolved := make([]billing_period.Period, 0, len(periods))
	for _, p := range periods {
		resolved = append(resolved, p.Period)
	}
	return billing_period.CheckContiguous(resolved)
}

// FinalCarry returns the carry out of the last entry, zero for an empty ledger.
func FinalCarry(entries []Entry) decimal.Decimal {
	if len(entries) == 0 {
		return decimal.Zero
	}
	return entries[len(entries)-1].CarryOut
}
