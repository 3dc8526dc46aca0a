package backend

import (
	"context"
	"fmt"
	"net/http"

	"phone-storefront/internal/models"
)

func (c *Client) ListSellers(ctx context.Context) ([]models.Seller, error) {
	return listCollection[models.Seller](ctx, c, "/seller", "/seller", "Failed to load sellers")
}

func (c *Client) GetSeller(ctx context.Context, id int64) (models.Seller, error) {
	var out models.Seller
	err := c.getJSON(ctx, "/seller/{id}", fmt.Sprintf("/seller/%d", id), "Failed to load seller", &out)
	return out, err
}

// GetMySeller fetches the seller profile of the authenticated user
func (c *Client) GetMySeller(ctx context.Context) (models.Seller, error) {
	var out models.Seller
	err := c.getJSON(ctx, "/seller/me", "/seller/me", "Failed to load seller profile", &out)
	return out, err
}

func (c *Client) CreateSeller(ctx context.Context, in models.SellerInput) (models.Seller, error) {
	var out models.Seller
	_, err := c.sendJSON(ctx, http.MethodPost, "/seller", "/seller", in, "Failed to create seller profile", &out)
	return out, err
}

func (c *Client) UpdateSeller(ctx context.Context, id int64, in models.SellerInput) (models.Seller, error) {
	var out models.Seller
	_, err := c.sendJSON(ctx, http.MethodPut, "/seller/{id}", fmt.Sprintf("/seller/%d", id), in, "Failed to update seller profile", &out)
	return out, err
}
