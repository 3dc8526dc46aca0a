package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"phone-storefront/internal/models"
	"phone-storefront/internal/util"

	"go.uber.org/zap"
)

// EventPublisher mirrors locally produced events to the relay topic
type EventPublisher struct {
	producer MessageProducer
	origin   string
	logger   *zap.Logger
}

// MessageProducer writes keyed events to the relay
type MessageProducer interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// NewEventPublisher creates a new event publisher. Only events stamped with
// origin are forwarded.
func NewEventPublisher(producer MessageProducer, origin string) *EventPublisher {
	return &EventPublisher{
		producer: producer,
		origin:   origin,
		logger:   util.Named("relay"),
	}
}

// Forward publishes a local event, it is a bus Handler
func (ep *EventPublisher) Forward(ctx context.Context, event models.Event) error {
	meta := event.Meta()
	if meta.Origin != ep.origin {
		return nil
	}
	if err := ep.producer.PublishEvent(ctx, eventKey(event), event); err != nil {
		// relay failures never fail the local mutation
		ep.logger.Error("Failed to relay event",
			zap.String("event_id", meta.EventID),
			zap.String("event_type", meta.EventType),
			zap.Error(err))
		return nil
	}
	util.RelayedEventsTotal.WithLabelValues("out", meta.EventType).Inc()
	return nil
}

func eventKey(event models.Event) string {
	switch e := event.(type) {
	case *models.BrandUpdatedEvent:
		return fmt.Sprintf("brand-%d", e.Brand.ID)
	case *models.DeviceModelUpdatedEvent:
		return fmt.Sprintf("model-%d", e.Model.ID)
	case *models.VariantUpdatedEvent:
		return fmt.Sprintf("variant-%d", e.Variant.ID)
	case *models.CheckoutCompletedEvent:
		return fmt.Sprintf("order-%d", e.Order.ID)
	default:
		return "session-" + event.Meta().Origin
	}
}

// DecodeEvent decodes a relayed event into its concrete type
func DecodeEvent(data []byte) (models.Event, error) {
	var base models.BaseEvent
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	var event models.Event
	switch base.EventType {
	case models.EventTypeBrandUpdated:
		event = &models.BrandUpdatedEvent{}
	case models.EventTypeDeviceModelUpdated:
		event = &models.DeviceModelUpdatedEvent{}
	case models.EventTypeVariantUpdated:
		event = &models.VariantUpdatedEvent{}
	case models.EventTypeCheckoutCompleted:
		event = &models.CheckoutCompletedEvent{}
	case models.EventTypeSessionEnded:
		event = &models.SessionEndedEvent{}
	default:
		return nil, fmt.Errorf("unknown event type %q", base.EventType)
	}

	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s event: %w", base.EventType, err)
	}
	return event, nil
}

// EventHandler routes events to typed handlers
type EventHandler struct {
	onBrandUpdated       func(context.Context, *models.BrandUpdatedEvent) error
	onDeviceModelUpdated func(context.Context, *models.DeviceModelUpdatedEvent) error
	onVariantUpdated     func(context.Context, *models.VariantUpdatedEvent) error
	onCheckoutCompleted  func(context.Context, *models.CheckoutCompletedEvent) error
	onSessionEnded       func(context.Context, *models.SessionEndedEvent) error
	logger               *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.Named("events")}
}

// OnBrandUpdated registers a handler for BrandUpdated events
func (eh *EventHandler) OnBrandUpdated(handler func(context.Context, *models.BrandUpdatedEvent) error) {
	eh.onBrandUpdated = handler
}

// OnDeviceModelUpdated registers a handler for DeviceModelUpdated events
func (eh *EventHandler) OnDeviceModelUpdated(handler func(context.Context, *models.DeviceModelUpdatedEvent) error) {
	eh.onDeviceModelUpdated = handler
}

// OnVariantUpdated registers a handler for VariantUpdated events
func (eh *EventHandler) OnVariantUpdated(handler func(context.Context, *models.VariantUpdatedEvent) error) {
	eh.onVariantUpdated = handler
}

// OnCheckoutCompleted registers a handler for CheckoutCompleted events
func (eh *EventHandler) OnCheckoutCompleted(handler func(context.Context, *models.CheckoutCompletedEvent) error) {
	eh.onCheckoutCompleted = handler
}

// OnSessionEnded registers a handler for SessionEnded events
func (eh *EventHandler) OnSessionEnded(handler func(context.Context, *models.SessionEndedEvent) error) {
	eh.onSessionEnded = handler
}

// Handle routes an event to its registered handler, it is a bus Handler
func (eh *EventHandler) Handle(ctx context.Context, event models.Event) error {
	switch e := event.(type) {
	case *models.BrandUpdatedEvent:
		if eh.onBrandUpdated != nil {
			return eh.onBrandUpdated(ctx, e)
		}
	case *models.DeviceModelUpdatedEvent:
		if eh.onDeviceModelUpdated != nil {
			return eh.onDeviceModelUpdated(ctx, e)
		}
	case *models.VariantUpdatedEvent:
		if eh.onVariantUpdated != nil {
			return eh.onVariantUpdated(ctx, e)
		}
	case *models.CheckoutCompletedEvent:
		if eh.onCheckoutCompleted != nil {
			return eh.onCheckoutCompleted(ctx, e)
		}
	case *models.SessionEndedEvent:
		if eh.onSessionEnded != nil {
			return eh.onSessionEnded(ctx, e)
		}
	default:
		eh.logger.Debug("Unhandled event type", zap.String("event_type", event.Meta().EventType))
	}
	return nil
}
