package broker

import (
	"context"
	"errors"
	"sync"

	"phone-storefront/internal/models"
	"phone-storefront/internal/util"

	"go.uber.org/zap"
)

// Handler receives a dispatched event
type Handler func(ctx context.Context, event models.Event) error

// Bus dispatches events to subscribers synchronously, in subscription order.
// Events published locally are stamped with the bus origin before dispatch.
type Bus struct {
	origin string
	logger *zap.Logger

	mu       sync.RWMutex
	handlers []Handler
}

// NewBus creates a bus for the instance identified by origin
func NewBus(origin string) *Bus {
	return &Bus{
		origin: origin,
		logger: util.Named("bus"),
	}
}

// Origin returns the instance id stamped on local events
func (b *Bus) Origin() string {
	return b.origin
}

// Subscribe adds a handler for every event
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish stamps a local event with the bus origin and dispatches it
func (b *Bus) Publish(ctx context.Context, event models.Event) error {
	if s, ok := event.(interface{ SetOrigin(string) }); ok && event.Meta().Origin == "" {
		s.SetOrigin(b.origin)
	}
	return b.Dispatch(ctx, event)
}

// Dispatch delivers an event as is. Every handler runs even when an earlier
// one fails; the errors are joined.
func (b *Bus) Dispatch(ctx context.Context, event models.Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers...)
	b.mu.RUnlock()

	meta := event.Meta()
	var errs []error
	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			b.logger.Error("Event handler failed",
				zap.String("event_id", meta.EventID),
				zap.String("event_type", meta.EventType),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
