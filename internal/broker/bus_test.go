package broker

import (
	"context"
	"errors"
	"testing"

	"phone-storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishStampsOrigin(t *testing.T) {
	bus := NewBus("instance-a")
	var seen []string
	bus.Subscribe(func(_ context.Context, e models.Event) error {
		seen = append(seen, e.Meta().Origin)
		return nil
	})

	local := &models.BrandUpdatedEvent{BaseEvent: models.NewBaseEvent(models.EventTypeBrandUpdated)}
	require.NoError(t, bus.Publish(context.Background(), local))

	remote := &models.BrandUpdatedEvent{BaseEvent: models.NewBaseEvent(models.EventTypeBrandUpdated)}
	remote.Origin = "instance-b"
	require.NoError(t, bus.Publish(context.Background(), remote))

	assert.Equal(t, []string{"instance-a", "instance-b"}, seen)
}

func TestDispatchRunsEveryHandler(t *testing.T) {
	bus := NewBus("instance-a")
	errFirst := errors.New("first")
	errThird := errors.New("third")

	var order []int
	bus.Subscribe(func(context.Context, models.Event) error { order = append(order, 1); return errFirst })
	bus.Subscribe(func(context.Context, models.Event) error { order = append(order, 2); return nil })
	bus.Subscribe(func(context.Context, models.Event) error { order = append(order, 3); return errThird })

	err := bus.Dispatch(context.Background(), &models.SessionEndedEvent{BaseEvent: models.NewBaseEvent(models.EventTypeSessionEnded)})
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.ErrorIs(t, err, errFirst)
	assert.ErrorIs(t, err, errThird)
}

func TestDispatchDoesNotStamp(t *testing.T) {
	bus := NewBus("instance-a")
	var origin string
	bus.Subscribe(func(_ context.Context, e models.Event) error {
		origin = e.Meta().Origin
		return nil
	})

	require.NoError(t, bus.Dispatch(context.Background(), &models.SessionEndedEvent{}))
	assert.Empty(t, origin)
}
