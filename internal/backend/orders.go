package backend

import (
	"context"
	"net/http"

	"phone-storefront/internal/models"
)

// ListMyOrders fetches one page of the authenticated user's orders
func (c *Client) ListMyOrders(ctx context.Context, fp models.Fingerprint) (models.Page[models.Order], error) {
	var page models.Page[models.Order]
	err := c.getJSON(ctx, "/orders/me", pageQuery("/orders/me", fp.Page, fp.Size), "Failed to load orders", &page)
	if err != nil {
		return models.Page[models.Order]{}, err
	}
	if page.Content == nil {
		page.Content = []models.Order{}
	}
	return page, nil
}

// Checkout turns the current cart into an order
func (c *Client) Checkout(ctx context.Context) (models.Order, error) {
	var out models.Order
	_, err := c.sendJSON(ctx, http.MethodPost, "/orders/checkout", "/orders/checkout", nil, "Checkout failed", &out)
	return out, err
}
