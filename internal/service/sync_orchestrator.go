package service

import (
	"context"

	"phone-storefront/internal/broker"
	"phone-storefront/internal/models"
	"phone-storefront/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Propagation outcomes
const (
	outcomeApplied   = "applied"
	outcomeNoMatch   = "no_match"
	outcomeDuplicate = "duplicate"
	outcomeLedgerErr = "ledger_error"
)

// ListingPropagation is implemented by the listings cache
type ListingPropagation interface {
	ApplyBrand(b models.Brand) int
	ApplyDeviceModel(m models.DeviceModel) int
	ApplyVariant(v models.Variant) int
}

// CartResetter is implemented by the cart cache
type CartResetter interface {
	Reset()
}

// OrdersRecorder is implemented by the orders cache
type OrdersRecorder interface {
	RecordCreated(order models.Order)
	Invalidate()
	Reset()
}

// SyncOrchestrator applies the cross-cache effects of events. Every event id
// is applied at most once. Events relayed from other instances only touch
// shared data: the user's cart and orders belong to the local session.
type SyncOrchestrator struct {
	ledger    Ledger
	listings  ListingPropagation
	cart      CartResetter
	orders    OrdersRecorder
	projector *InventoryProjector
	origin    string
	logger    *zap.Logger
}

// NewSyncOrchestrator creates a new sync orchestrator
func NewSyncOrchestrator(
	ledger Ledger,
	listings ListingPropagation,
	cart CartResetter,
	orders OrdersRecorder,
	projector *InventoryProjector,
	origin string,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		ledger:    ledger,
		listings:  listings,
		cart:      cart,
		orders:    orders,
		projector: projector,
		origin:    origin,
		logger:    util.Named("sync"),
	}
}

// Register wires the orchestrator into an event handler
func (so *SyncOrchestrator) Register(eh *broker.EventHandler) {
	eh.OnBrandUpdated(so.HandleBrandUpdated)
	eh.OnDeviceModelUpdated(so.HandleDeviceModelUpdated)
	eh.OnVariantUpdated(so.HandleVariantUpdated)
	eh.OnCheckoutCompleted(so.HandleCheckoutCompleted)
	eh.OnSessionEnded(so.HandleSessionEnded)
}

// HandleBrandUpdated refreshes the brand embedded in cached listings
func (so *SyncOrchestrator) HandleBrandUpdated(ctx context.Context, event *models.BrandUpdatedEvent) error {
	return so.process(ctx, event.BaseEvent, func(context.Context) string {
		return matched(so.listings.ApplyBrand(event.Brand))
	})
}

// HandleDeviceModelUpdated refreshes the model embedded in cached listings
func (so *SyncOrchestrator) HandleDeviceModelUpdated(ctx context.Context, event *models.DeviceModelUpdatedEvent) error {
	return so.process(ctx, event.BaseEvent, func(context.Context) string {
		return matched(so.listings.ApplyDeviceModel(event.Model))
	})
}

// HandleVariantUpdated refreshes the variant embedded in cached listings
func (so *SyncOrchestrator) HandleVariantUpdated(ctx context.Context, event *models.VariantUpdatedEvent) error {
	return so.process(ctx, event.BaseEvent, func(context.Context) string {
		return matched(so.listings.ApplyVariant(event.Variant))
	})
}

// HandleCheckoutCompleted clears the cart, records the new order, invalidates
// the orders page and projects the purchased stock
func (so *SyncOrchestrator) HandleCheckoutCompleted(ctx context.Context, event *models.CheckoutCompletedEvent) error {
	return so.process(ctx, event.BaseEvent, func(ctx context.Context) string {
		if so.local(event.BaseEvent) {
			so.cart.Reset()
			so.orders.RecordCreated(event.Order)
			so.orders.Invalidate()
		}
		if so.projector != nil && !so.projector.Project(ctx, event.Order) {
			return outcomeNoMatch
		}

		so.logger.Info("Checkout propagated",
			zap.Int64("order_id", event.Order.ID),
			zap.Bool("local", so.local(event.BaseEvent)))
		return outcomeApplied
	})
}

// HandleSessionEnded drops the data of the signed-out user
func (so *SyncOrchestrator) HandleSessionEnded(ctx context.Context, event *models.SessionEndedEvent) error {
	return so.process(ctx, event.BaseEvent, func(context.Context) string {
		if !so.local(event.BaseEvent) {
			return outcomeNoMatch
		}
		so.cart.Reset()
		so.orders.Reset()
		return outcomeApplied
	})
}

func (so *SyncOrchestrator) process(ctx context.Context, meta models.BaseEvent, apply func(context.Context) string) (err error) {
	ctx, span := util.StartSpan(ctx, "SyncOrchestrator."+meta.EventType,
		attribute.String("event.id", meta.EventID),
		attribute.String("event.origin", meta.Origin))
	defer func() { util.EndSpan(span, err) }()

	// effects are idempotent: a ledger outage applies the event rather than dropping it
	processed, lerr := so.ledger.IsEventProcessed(ctx, meta.EventID)
	if lerr != nil {
		util.PropagationsTotal.WithLabelValues(meta.EventType, outcomeLedgerErr).Inc()
		so.logger.Warn("Failed to check event processed, applying anyway",
			zap.String("event_id", meta.EventID),
			zap.Error(lerr))
		processed = false
	}
	if processed {
		util.PropagationsTotal.WithLabelValues(meta.EventType, outcomeDuplicate).Inc()
		so.logger.Info("Event already processed", zap.String("event_id", meta.EventID))
		return nil
	}

	outcome := apply(ctx)
	util.PropagationsTotal.WithLabelValues(meta.EventType, outcome).Inc()

	if err := so.ledger.MarkEventProcessed(ctx, meta.EventID, meta.EventType); err != nil {
		so.logger.Error("Failed to mark event processed", zap.Error(err))
	}
	return nil
}

func (so *SyncOrchestrator) local(meta models.BaseEvent) bool {
	return meta.Origin == "" || meta.Origin == so.origin
}

func matched(n int) string {
	if n == 0 {
		return outcomeNoMatch
	}
	return outcomeApplied
}
