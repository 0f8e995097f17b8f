package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()
	ctx := context.Background()

	var received *Event
	calls := 0
	bus.Subscribe(EventBookingCreated, func(_ context.Context, event *Event) error {
		received = event
		calls++
		return nil
	})

	err := bus.PublishJSON(ctx, EventBookingCreated, BookingEventPayload{BookingID: 5, Status: "pending"})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
	assert.Equal(t, EventBookingCreated, received.Type)
	assert.False(t, received.CreatedAt.IsZero())

	var payload BookingEventPayload
	require.NoError(t, received.Decode(&payload))
	assert.Equal(t, int64(5), payload.BookingID)

	// other types are not delivered
	require.NoError(t, bus.PublishJSON(ctx, EventReviewCreated, ReviewEventPayload{}))
	assert.Equal(t, 1, calls)
}

func TestEventBus_WildcardAndErrors(t *testing.T) {
	bus := NewEventBus()
	ctx := context.Background()

	var seen []string
	boom := errors.New("boom")
	bus.Subscribe(EventReviewCreated, func(_ context.Context, _ *Event) error { return boom })
	bus.Subscribe(AllEvents, func(_ context.Context, e *Event) error {
		seen = append(seen, e.Type)
		return nil
	})

	err := bus.PublishJSON(ctx, EventReviewCreated, ReviewEventPayload{Rating: 5})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, bus.PublishJSON(ctx, EventBookingStatusChanged, BookingEventPayload{}))
	assert.Equal(t, []string{EventReviewCreated, EventBookingStatusChanged}, seen)
}

func TestEventBus_NilAndBadPayload(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(context.Background(), EventBookingCreated, nil))

	bus = NewEventBus()
	assert.Error(t, bus.PublishJSON(context.Background(), EventBookingCreated, make(chan int)))
}
