package models

import (
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventTypeBrandUpdated       = "BRAND_UPDATED"
	EventTypeDeviceModelUpdated = "DEVICE_MODEL_UPDATED"
	EventTypeVariantUpdated     = "VARIANT_UPDATED"
	EventTypeCheckoutCompleted  = "CHECKOUT_COMPLETED"
	EventTypeSessionEnded       = "SESSION_ENDED"
)

// Event is implemented by every sync event
type Event interface {
	Meta() BaseEvent
}

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Origin    string    `json:"origin"`
	Timestamp time.Time `json:"timestamp"`
}

// Meta returns the common event fields
func (b BaseEvent) Meta() BaseEvent {
	return b
}

// BrandUpdatedEvent published when a brand mutation succeeds
type BrandUpdatedEvent struct {
	BaseEvent
	Brand Brand `json:"brand"`
}

// DeviceModelUpdatedEvent published when a model is created or updated
type DeviceModelUpdatedEvent struct {
	BaseEvent
	Model DeviceModel `json:"model"`
}

// VariantUpdatedEvent published when a variant is created or updated
type VariantUpdatedEvent struct {
	BaseEvent
	Variant Variant `json:"variant"`
}

// CheckoutCompletedEvent published when the checkout call succeeds
type CheckoutCompletedEvent struct {
	BaseEvent
	Order Order `json:"order"`
}

// SessionEndedEvent published on logout
type SessionEndedEvent struct {
	BaseEvent
}

// StockLine is one purchased quantity used for the stock projection
type StockLine struct {
	ListingID int64 `json:"listing_id"`
	Quantity  int   `json:"quantity"`
}

// StockLines extracts the projection lines of an order
func (o Order) StockLines() []StockLine {
	lines := make([]StockLine, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, StockLine{ListingID: item.ListingID, Quantity: item.Quantity})
	}
	return lines
}

// NewBaseEvent creates event metadata with a fresh id
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// SetOrigin records the instance that produced the event
func (b *BaseEvent) SetOrigin(origin string) {
	b.Origin = origin
}
