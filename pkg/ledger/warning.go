package ledger

import (
	"fmt"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/errs"
	"github.com/shopspring/decimal"
)

type WarningLevel string

const (
	Safe     WarningLevel = "safe"
	Warning  WarningLevel = "warning"
	Critical WarningLevel = "critical"
)

// Thresholds are the ratios of actual earnings to the limit at which the warning level
// changes. A ratio equal to Critical is still a warning.
type Thresholds struct {
	Warning  decimal.Decimal
	Critical decimal.Decimal
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Warning:  decimal.RequireFromString("0.8"),
		Critical: decimal.NewFromInt(1),
	}
}

// NewThresholds builds validated thresholds from configuration values.
func NewThresholds(warning, critical float64) (Thresholds, error) {
	t := Thresholds{
		Warning:  decimal.NewFromFloat(warning),
		Critical: decimal.NewFromFloat(critical),
	}
	if err := t.Validate(); err != nil {
		return Thresholds{}, err
	}
	return t, nil
}

func (t Thresholds) Validate() error {
	if !t.Warning.IsPositive() {
		return errs.Config(errs.CodeInvalidPolicy, fmt.Sprintf("warning ratio %s must be positive", t.Warning))
	}
	if t.Critical.LessThan(t.Warning) {
		return errs.Config(errs.CodeInvalidPolicy, fmt.Sprintf("critical ratio %s is below warning ratio %s", t.Critical, t.Warning))
	}
	return nil
}

// Classify rates actual against limit. Ratios are compared as actual against limit*threshold
// so no division rounding is involved.
func (t Thresholds) Classify(actual, limit decimal.Decimal) WarningLevel {
	if !limit.IsPositive() {
		if actual.IsPositive() {
			return Critical
		}
		return Safe
	}
	switch {
	case actual.LessThan(limit.Mul(t.Warning)):
		return Safe
	case actual.LessThanOrEqual(limit.Mul(t.Critical)):
		return Warning
	default:
		return Critical
	}
}
