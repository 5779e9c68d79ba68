package time_entry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/HomeLabSky/schoppmann-time-tracking/internal/errs"
	"github.com/HomeLabSky/schoppmann-time-tracking/internal/event_bus"
	"github.com/HomeLabSky/schoppmann-time-tracking/internal/utils"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/billing_period"
	"github.com/HomeLabSky/schoppmann-time-tracking/pkg/user"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUser = user.User{
	Id:       1,
	Uid:      "3f0e1c8a-5b7d-4e2a-9c61-8d4b2a7f1e90",
	Username: "anna",
	Settings: user.Settings{
		Timezone:      "Europe/Berlin",
		BillingPeriod: billing_period.Config{StartDay: 25, EndDay: 24},
		HourlyRate:    decimal.NewFromInt(12),
	},
}

var ctx = user.WithUser(context.Background(), testUser)

var repoStub = NewRepositoryStub()

var service *ServiceImpl
var bus *event_bus.EventBus
var clock *utils.MockClock
var published []event_bus.TimeEntryChanged

func setup(t *testing.T) func() {
	bus = event_bus.NewEventBus()
	published = nil
	event_bus.SubscribeTyped[event_bus.TimeEntryChanged](bus, event_bus.TimeEntryChangedType,
		func(e event_bus.EventT[event_bus.TimeEntryChanged]) error {
			published = append(published, e.Data)
			return nil
		})
	clock = &utils.MockClock{FixedNow: time.Date(2025, time.April, 10, 9, 0, 0, 0, time.UTC)}
	service = NewService(repoStub, bus, clock, DefaultMinShiftMinutes)
	return func() {
		t.Log("Teardown after test")
		repoStub.Reset()
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func shift(day time.Time, start, end string, breakMinutes int) Entry {
	s, _ := ParseClockTime(start)
	e, _ := ParseClockTime(end)
	return Entry{Date: day, Start: s, End: e, BreakMinutes: breakMinutes}
}

func TestServiceImpl_CreateEntry(t *testing.T) {
	t.Run("should store entry and publish change", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		entry := shift(date(2025, time.April, 3), "09:00", "13:30", 30)

		// when
		created, err := service.CreateEntry(ctx, entry)

		// then
		require.NoError(t, err)
		assert.NotEmpty(t, created.Uid)
		assert.Equal(t, 240, created.WorkedMinutes())
		require.Len(t, published, 1)
		assert.Equal(t, testUser.Id, published[0].UserId)
		assert.Equal(t, created.Uid, published[0].EntryUid)
		assert.Equal(t, entry.Date, published[0].Date)
		assert.True(t, published[0].PreviousDate.IsZero())
	})

	t.Run("should reject shift below the minimum duration", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		entry := shift(date(2025, time.April, 3), "09:00", "09:10", 0)

		// when
		_, err := service.CreateEntry(ctx, entry)

		// then
		assert.ErrorIs(t, err, errs.ErrValidation)
		assert.Empty(t, published)
		entries, _ := repoStub.ListEntries(ctx, testUser.Id, date(2025, time.January, 1), date(2025, time.December, 31))
		assert.Empty(t, entries)
	})

	t.Run("should accept overnight shift", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		created, err := service.CreateEntry(ctx, shift(date(2025, time.April, 3), "23:00", "01:00", 0))

		// then
		require.NoError(t, err)
		assert.Equal(t, 120, created.WorkedMinutes())
	})

	t.Run("should ignore client supplied uid", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		entry := shift(date(2025, time.April, 3), "09:00", "12:00", 0)
		entry.Uid = "chosen-by-client"

		// when
		created, err := service.CreateEntry(ctx, entry)

		// then
		require.NoError(t, err)
		assert.NotEqual(t, "chosen-by-client", created.Uid)
	})

	t.Run("should fail when billing period is not configured", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		unconfigured := testUser
		unconfigured.Settings.BillingPeriod = billing_period.Config{}
		userCtx := user.WithUser(context.Background(), unconfigured)

		// when
		_, err := service.CreateEntry(userCtx, shift(date(2025, time.April, 3), "09:00", "12:00", 0))

		// then
		assert.True(t, errs.HasCode(err, errs.CodeMissingConfig))
	})

	t.Run("should reject date between two billing periods", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		firstHalf := testUser
		firstHalf.Settings.BillingPeriod = billing_period.Config{StartDay: 1, EndDay: 15}
		userCtx := user.WithUser(context.Background(), firstHalf)

		// when
		_, err := service.CreateEntry(userCtx, shift(date(2025, time.April, 20), "09:00", "17:00", 0))

		// then
		var validationErr *errs.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "date", validationErr.Field)
		has, _ := repoStub.HasEntries(ctx, testUser.Id)
		assert.False(t, has)
		assert.Empty(t, published)
	})

	t.Run("should accept date inside a period of a partial month configuration", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		firstHalf := testUser
		firstHalf.Settings.BillingPeriod = billing_period.Config{StartDay: 1, EndDay: 15}
		userCtx := user.WithUser(context.Background(), firstHalf)

		// when
		created, err := service.CreateEntry(userCtx, shift(date(2025, time.April, 15), "09:00", "17:00", 0))

		// then
		require.NoError(t, err)
		assert.Equal(t, 480, created.WorkedMinutes())
	})

	t.Run("should return error when context has no user", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.CreateEntry(context.Background(), shift(date(2025, time.April, 3), "09:00", "12:00", 0))

		// then
		assert.ErrorIs(t, err, user.ErrNoUser)
		assert.Contains(t, err.Error(), "failed to get current user")
	})

	t.Run("should return publish error after storing the entry", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		event_bus.SubscribeTyped[event_bus.TimeEntryChanged](bus, event_bus.TimeEntryChangedType,
			func(e event_bus.EventT[event_bus.TimeEntryChanged]) error {
				return errors.New("subscriber down")
			})

		// when
		_, err := service.CreateEntry(ctx, shift(date(2025, time.April, 3), "09:00", "12:00", 0))

		// then
		assert.ErrorContains(t, err, "subscriber down")
		has, _ := repoStub.HasEntries(ctx, testUser.Id)
		assert.True(t, has)
	})
}

func TestServiceImpl_UpdateEntry(t *testing.T) {
	t.Run("should update entry and report previous date", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		created, err := service.CreateEntry(ctx, shift(date(2025, time.April, 3), "09:00", "12:00", 0))
		require.NoError(t, err)
		moved := shift(date(2025, time.March, 28), "10:00", "14:00", 15)
		moved.Uid = created.Uid

		// when
		updated, err := service.UpdateEntry(ctx, moved)

		// then
		require.NoError(t, err)
		assert.Equal(t, 225, updated.WorkedMinutes())
		require.Len(t, published, 2)
		assert.Equal(t, date(2025, time.March, 28), published[1].Date)
		assert.Equal(t, date(2025, time.April, 3), published[1].PreviousDate)
		assert.Equal(t, date(2025, time.March, 28), published[1].EarliestDate())
	})

	t.Run("should fail for unknown entry", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		entry := shift(date(2025, time.April, 3), "09:00", "12:00", 0)
		entry.Uid = "missing"

		// when
		_, err := service.UpdateEntry(ctx, entry)

		// then
		assert.ErrorIs(t, err, ErrEntryNotFound)
		assert.Empty(t, published)
	})

	t.Run("should reject moving an entry between two billing periods", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		firstHalf := testUser
		firstHalf.Settings.BillingPeriod = billing_period.Config{StartDay: 1, EndDay: 15}
		userCtx := user.WithUser(context.Background(), firstHalf)
		created, err := service.CreateEntry(userCtx, shift(date(2025, time.April, 3), "09:00", "12:00", 0))
		require.NoError(t, err)
		moved := shift(date(2025, time.April, 16), "09:00", "12:00", 0)
		moved.Uid = created.Uid

		// when
		_, err = service.UpdateEntry(userCtx, moved)

		// then
		assert.ErrorIs(t, err, errs.ErrValidation)
		stored, _ := repoStub.GetEntry(ctx, testUser.Id, created.Uid)
		assert.Equal(t, date(2025, time.April, 3), stored.Date)
		assert.Len(t, published, 1)
	})

	t.Run("should require uid", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.UpdateEntry(ctx, shift(date(2025, time.April, 3), "09:00", "12:00", 0))

		// then
		assert.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("should not touch entries of another user", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		created, err := service.CreateEntry(ctx, shift(date(2025, time.April, 3), "09:00", "12:00", 0))
		require.NoError(t, err)
		other := testUser
		other.Id = 2
		otherCtx := user.WithUser(context.Background(), other)
		entry := shift(date(2025, time.April, 3), "08:00", "12:00", 0)
		entry.Uid = created.Uid

		// when
		_, err = service.UpdateEntry(otherCtx, entry)

		// then
		assert.ErrorIs(t, err, ErrEntryNotFound)
		stored, _ := repoStub.GetEntry(ctx, testUser.Id, created.Uid)
		assert.Equal(t, created.Start, stored.Start)
	})
}

func TestServiceImpl_DeleteEntry(t *testing.T) {
	t.Run("should delete entry and publish its date", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		created, err := service.CreateEntry(ctx, shift(date(2025, time.April, 3), "09:00", "12:00", 0))
		require.NoError(t, err)

		// when
		err = service.DeleteEntry(ctx, created.Uid)

		// then
		require.NoError(t, err)
		require.Len(t, published, 2)
		assert.Equal(t, date(2025, time.April, 3), published[1].Date)
		has, _ := repoStub.HasEntries(ctx, testUser.Id)
		assert.False(t, has)
	})

	t.Run("should fail for unknown entry", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		err := service.DeleteEntry(ctx, "missing")

		// then
		assert.ErrorIs(t, err, ErrEntryNotFound)
		assert.Empty(t, published)
	})
}

func TestServiceImpl_ListEntries(t *testing.T) {
	t.Run("should list entries in range ordered by date", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		_, err := service.CreateEntry(ctx, shift(date(2025, time.April, 5), "09:00", "12:00", 0))
		require.NoError(t, err)
		_, err = service.CreateEntry(ctx, shift(date(2025, time.April, 1), "09:00", "12:00", 0))
		require.NoError(t, err)
		_, err = service.CreateEntry(ctx, shift(date(2025, time.April, 20), "09:00", "12:00", 0))
		require.NoError(t, err)

		// when
		entries, err := service.ListEntries(ctx, date(2025, time.April, 1), date(2025, time.April, 5))

		// then
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, date(2025, time.April, 1), entries[0].Date)
		assert.Equal(t, date(2025, time.April, 5), entries[1].Date)
	})

	t.Run("should reject inverted range", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.ListEntries(ctx, date(2025, time.April, 5), date(2025, time.April, 1))

		// then
		assert.ErrorIs(t, err, errs.ErrValidation)
	})
}

func TestServiceImpl_ListPeriodEntries(t *testing.T) {
	t.Run("should return entries inside the wrapping period", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		for _, day := range []time.Time{
			date(2025, time.March, 24),
			date(2025, time.March, 25),
			date(2025, time.April, 24),
			date(2025, time.April, 25),
		} {
			_, err := service.CreateEntry(ctx, shift(day, "09:00", "12:00", 0))
			require.NoError(t, err)
		}

		// when
		period, entries, err := service.ListPeriodEntries(ctx, billing_period.KeyOf(2025, time.April))

		// then
		require.NoError(t, err)
		assert.Equal(t, date(2025, time.March, 25), period.Start)
		assert.Equal(t, date(2025, time.April, 24), period.End)
		assert.True(t, period.IsCurrent)
		require.Len(t, entries, 2)
		assert.Equal(t, date(2025, time.March, 25), entries[0].Date)
		assert.Equal(t, date(2025, time.April, 24), entries[1].Date)
	})

	t.Run("should fail when billing period is not configured", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		unconfigured := testUser
		unconfigured.Settings.BillingPeriod = billing_period.Config{}

		// when
		_, _, err := service.ListPeriodEntries(user.WithUser(context.Background(), unconfigured), billing_period.KeyOf(2025, time.April))

		// then
		assert.ErrorIs(t, err, errs.ErrConfig)
	})
}
