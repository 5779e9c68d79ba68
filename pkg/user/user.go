package user

import (
	"time"

	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/billing_period"
	"github.com/shopspring/decimal"
)

const DefaultTimezone = "Europe/Berlin"

type User struct {
	Id          int
	Uid         string
	Username    string
	DisplayName string
	Settings    Settings
}

type Settings struct {
	Timezone      string
	BillingPeriod billing_period.Config
	HourlyRate    decimal.Decimal
}

// Location resolves Timezone, falling back to UTC for unknown names.
func (s Settings) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
