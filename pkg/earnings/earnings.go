package earnings

import (
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/billing_period"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/time_entry"
	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

var sixty = decimal.NewFromInt(60)

// PeriodEarnings is the aggregate of one billing period's entries.
type PeriodEarnings struct {
	Period       billing_period.Period
	EntryCount   int
	TotalMinutes int
	// TotalHours is TotalMinutes / 60 rounded to two places.
	TotalHours decimal.Decimal
	// GrossEarnings is TotalMinutes * rate / 60, rounded once to cents.
	GrossEarnings decimal.Decimal
}

// Aggregate sums the entries dated inside period. Entries outside the period are ignored.
func Aggregate(entries []time_entry.Entry, period billing_period.Period, hourlyRate decimal.Decimal) PeriodEarnings {
	result := PeriodEarnings{Period: period}
	for _, e := range entries {
		if !period.Contains(e.Date) {
			continue
		}
		result.EntryCount++
		result.TotalMinutes += e.WorkedMinutes()
	}
	minutes := decimal.NewFromInt(int64(result.TotalMinutes))
	result.TotalHours = minutes.DivRound(sixty, moneyPlaces)
	result.GrossEarnings = minutes.Mul(hourlyRate).DivRound(sixty, moneyPlaces)
	return result
}

// AggregateAll aggregates every period from one shared entry slice, preserving the order of
// periods. Each entry lands in at most one period when the periods do not overlap.
func AggregateAll(entries []time_entry.Entry, periods []billing_period.Period, hourlyRate decimal.Decimal) []PeriodEarnings {
	buckets := make([][]time_entry.Entry, len(periods))
	for _, e := range entries {
		if i := indexOf(periods, e); i >= 0 {
			buckets[i] = append(buckets[i], e)
		}
	}

	result := make([]PeriodEarnings, 0, len(periods))
	for i, p := range periods {
		result = append(result, Aggregate(buckets[i], p, hourlyRate))
	}
	return result
}

func indexOf(periods []billing_period.Period, e time_entry.Entry) int {
	for i, p := range periods {
		if p.Contains(e.Date) {
			return i
		}
	}
	return -1
}
