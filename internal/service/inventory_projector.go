package service

import (
	"context"

	"phone-storefront/internal/models"
	"phone-storefront/internal/util"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// StockProjection is implemented by the listings cache
type StockProjection interface {
	ApplyCheckout(orderID int64, lines []models.StockLine) bool
}

// InventoryProjector lowers the projected stock of purchased listings until
// the next refetch brings the confirmed values
type InventoryProjector struct {
	listings StockProjection
	logger   *zap.Logger
}

// NewInventoryProjector creates a new projector
func NewInventoryProjector(listings StockProjection) *InventoryProjector {
	return &InventoryProjector{
		listings: listings,
		logger:   util.Named("inventory"),
	}
}

// Project applies an order to the projected stock, at most once per order
func (p *InventoryProjector) Project(ctx context.Context, order models.Order) bool {
	_, span := util.StartSpan(ctx, "InventoryProjector.Project",
		attribute.Int64("order.id", order.ID))
	defer span.End()

	if !p.listings.ApplyCheckout(order.ID, order.StockLines()) {
		p.logger.Debug("Order already projected", zap.Int64("order_id", order.ID))
		return false
	}

	util.StockProjectionsApplied.Inc()
	p.logger.Debug("Stock projected", zap.Int64("order_id", order.ID), zap.Int("lines", len(order.Items)))
	return true
}
