package event_bus

import "time"

const (
	TimeEntryChangedType       EventType = "time_entry.changed"
	BillingSettingsUpdatedType EventType = "user.billing.updated"
	MinijobLimitChangedType    EventType = "minijob_limit.changed"
)

// TimeEntryChanged is published after an entry was created, updated or deleted.
// PreviousDate is set when an update moved the entry to another day.
type TimeEntryChanged struct {
	UserId       int
	EntryUid     string
	Date         time.Time
	PreviousDate time.Time
}

// EarliestDate returns the earlier of Date and PreviousDate, ignoring a zero PreviousDate.
func (e TimeEntryChanged) EarliestDate() time.Time {
	if !e.PreviousDate.IsZero() && e.PreviousDate.Before(e.Date) {
		return e.PreviousDate
	}
	return e.Date
}

type BillingSettingsUpdated struct {
	UserId        int
	PeriodChanged bool
	RateChanged   bool
}

type MinijobLimitChanged struct {
	LimitId       int
	EffectiveFrom time.Time
	Deleted       bool
}
