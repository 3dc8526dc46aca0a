package service

import (
	"context"
	"fmt"

	"phone-storefront/internal/cache"
	"phone-storefront/internal/models"
	"phone-storefront/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// CheckoutAPI places an order from the server-side cart
type CheckoutAPI interface {
	Checkout(ctx context.Context) (models.Order, error)
}

// CheckoutService converts the cart into an order and announces it.
// The effects on the cart, orders and stock are applied by the orchestrator.
type CheckoutService struct {
	api    CheckoutAPI
	tokens cache.TokenSource
	events cache.EventPublisher
	logger *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(api CheckoutAPI, tokens cache.TokenSource, events cache.EventPublisher) *CheckoutService {
	return &CheckoutService{
		api:    api,
		tokens: tokens,
		events: events,
		logger: util.Named("checkout"),
	}
}

// Checkout places the order. On failure no local state changes.
func (s *CheckoutService) Checkout(ctx context.Context) (order models.Order, err error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Checkout")
	defer func() { util.EndSpan(span, err) }()

	if token, terr := s.tokens.Token(ctx); terr != nil || token == "" {
		util.CheckoutsFailedTotal.Inc()
		return models.Order{}, cache.ErrNotAuthenticated
	}

	order, err = s.api.Checkout(ctx)
	if err != nil {
		util.CheckoutsFailedTotal.Inc()
		s.logger.Warn("Checkout failed", zap.Error(err))
		return models.Order{}, fmt.Errorf("checkout failed: %w", err)
	}

	util.CheckoutsTotal.Inc()
	span.SetAttributes(attribute.Int64("order.id", order.ID))
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int("items", len(order.Items)))

	event := &models.CheckoutCompletedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeCheckoutCompleted),
		Order:     order,
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish CheckoutCompleted event", zap.Error(err))
	}

	return order, nil
}
