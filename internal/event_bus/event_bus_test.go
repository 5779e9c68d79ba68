package event_bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_PublishTyped(t *testing.T) {
	// given
	bus := NewEventBus()
	var received []TimeEntryChanged
	SubscribeTyped[TimeEntryChanged](bus, TimeEntryChangedType, func(e EventT[TimeEntryChanged]) error {
		received = append(received, e.Data)
		return nil
	})
	payload := TimeEntryChanged{UserId: 7, Date: time.Date(2025, time.April, 3, 0, 0, 0, 0, time.UTC)}

	// when
	err := bus.Publish(NewEvent(context.Background(), TimeEntryChangedType, payload))

	// then
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, payload, received[0])
}

func TestEventBus_SkipsMismatchedPayload(t *testing.T) {
	bus := NewEventBus()
	called := false
	SubscribeTyped[TimeEntryChanged](bus, TimeEntryChangedType, func(e EventT[TimeEntryChanged]) error {
		called = true
		return nil
	})

	err := bus.Publish(NewEvent(context.Background(), TimeEntryChangedType, MinijobLimitChanged{LimitId: 1}))
	require.NoError(t, err)
	err = bus.Publish(NewEvent(context.Background(), TimeEntryChangedType, nil))
	require.NoError(t, err)

	assert.False(t, called)
}

func TestEventBus_HandlersRunInRegistrationOrder(t *testing.T) {
	bus := NewEventBus()
	var order []int
	for i := 1; i <= 20; i++ {
		n := i
		bus.Subscribe(MinijobLimitChangedType, func(e Event) error {
			order = append(order, n)
			return nil
		})
	}

	require.NoError(t, bus.Publish(NewEvent(context.Background(), MinijobLimitChangedType, MinijobLimitChanged{})))

	require.Len(t, order, 20)
	for i, n := range order {
		assert.Equal(t, i+1, n)
	}
}

func TestEventBus_CollectsErrorsAndPanics(t *testing.T) {
	// given
	bus := NewEventBus()
	errFailed := errors.New("handler failed")
	secondCalled := false
	bus.Subscribe(BillingSettingsUpdatedType, func(e Event) error { return errFailed })
	bus.Subscribe(BillingSettingsUpdatedType, func(e Event) error { panic("boom") })
	bus.Subscribe(BillingSettingsUpdatedType, func(e Event) error {
		secondCalled = true
		return nil
	})

	// when
	err := bus.Publish(NewEvent(context.Background(), BillingSettingsUpdatedType, BillingSettingsUpdated{UserId: 1}))

	// then
	require.Error(t, err)
	assert.ErrorIs(t, err, errFailed)
	assert.Contains(t, err.Error(), "2 handler(s) failed")
	assert.Contains(t, err.Error(), "boom")
	assert.True(t, secondCalled)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus()
	unsubscribe := bus.Subscribe(TimeEntryChangedType, func(e Event) error { return nil })
	assert.Equal(t, 1, bus.SubscriberCount(TimeEntryChangedType))

	unsubscribe()

	assert.Equal(t, 0, bus.SubscriberCount(TimeEntryChangedType))
}

func TestEventBus_CancelledContext(t *testing.T) {
	bus := NewEventBus()
	called := false
	bus.Subscribe(TimeEntryChangedType, func(e Event) error {
		called = true
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bus.Publish(NewEvent(ctx, TimeEntryChangedType, TimeEntryChanged{}))

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestTimeEntryChanged_EarliestDate(t *testing.T) {
	april := time.Date(2025, time.April, 3, 0, 0, 0, 0, time.UTC)
	march := time.Date(2025, time.March, 30, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, april, TimeEntryChanged{Date: april}.EarliestDate())
	assert.Equal(t, march, TimeEntryChanged{Date: april, PreviousDate: march}.EarliestDate())
	assert.Equal(t, march, TimeEntryChanged{Date: march, PreviousDate: april}.EarliestDate())
}
