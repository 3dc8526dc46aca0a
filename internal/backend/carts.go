package backend

import (
	"context"
	"fmt"
	"net/http"

	"phone-storefront/internal/models"
)

// GetMyCart fetches the cart of the authenticated user
func (c *Client) GetMyCart(ctx context.Context) (models.Cart, error) {
	var out models.Cart
	err := c.getJSON(ctx, "/carts/me", "/carts/me", "Failed to load cart", &out)
	return out, err
}

// AddCartItem adds a listing to the cart
func (c *Client) AddCartItem(ctx context.Context, in models.CartItemInput) (models.Cart, error) {
	return c.mutateCart(ctx, http.MethodPost, "/carts/me/items", "/carts/me/items", in, "Failed to add item to cart")
}

// UpdateCartItem changes the quantity of a cart line
func (c *Client) UpdateCartItem(ctx context.Context, listingID int64, quantity int) (models.Cart, error) {
	path := fmt.Sprintf("/carts/me/items/%d", listingID)
	return c.mutateCart(ctx, http.MethodPut, "/carts/me/items/{listingId}", path, models.QuantityInput{Quantity: quantity}, "Failed to update cart item")
}

// RemoveCartItem removes a listing from the cart
func (c *Client) RemoveCartItem(ctx context.Context, listingID int64) (models.Cart, error) {
	path := fmt.Sprintf("/carts/me/items/%d", listingID)
	return c.mutateCart(ctx, http.MethodDelete, "/carts/me/items/{listingId}", path, nil, "Failed to remove cart item")
}

// ClearCart removes every item from the cart
func (c *Client) ClearCart(ctx context.Context) (models.Cart, error) {
	return c.mutateCart(ctx, http.MethodDelete, "/carts/me/items", "/carts/me/items", nil, "Failed to clear cart")
}

// mutateCart returns the cart from the mutation response, or reads it back
// when the endpoint answers without a body.
func (c *Client) mutateCart(ctx context.Context, method, route, path string, in any, fallback string) (models.Cart, error) {
	var out models.Cart
	hasBody, err := c.sendJSON(ctx, method, route, path, in, fallback, &out)
	if err != nil {
		return models.Cart{}, err
	}
	if !hasBody {
		return c.GetMyCart(ctx)
	}
	return out, nil
}
