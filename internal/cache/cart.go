package cache

import (
	"context"
	"sync"

	"phone-storefront/internal/models"
	"phone-storefront/internal/util"

	"go.uber.org/zap"
)

// CartAPI is the part of the backend the cart cache talks to
type CartAPI interface {
	GetMyCart(ctx context.Context) (models.Cart, error)
	AddCartItem(ctx context.Context, in models.CartItemInput) (models.Cart, error)
	UpdateCartItem(ctx context.Context, listingID int64, quantity int) (models.Cart, error)
	RemoveCartItem(ctx context.Context, listingID int64) (models.Cart, error)
	ClearCart(ctx context.Context) (models.Cart, error)
}

// CartSnapshot is a copy of the cart state
type CartSnapshot struct {
	Cart   *models.Cart `json:"cart"`
	Status Status       `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// Cart mirrors the server-side cart. Every mutation replaces the whole cart
// with the server response; totals are never computed locally.
type Cart struct {
	api    CartAPI
	tokens TokenSource
	logger *zap.Logger

	mu      sync.Mutex
	cart    *models.Cart
	status  Status
	err     string
	issued  uint64
	written uint64
}

// NewCart creates an empty cart cache
func NewCart(api CartAPI, tokens TokenSource) *Cart {
	return &Cart{
		api:    api,
		tokens: tokens,
		logger: util.Named("cart"),
		status: StatusIdle,
	}
}

// Load fetches the cart of the current session.
// Without a session it returns nil and makes no request.
func (c *Cart) Load(ctx context.Context) (*models.Cart, error) {
	if !c.authenticated(ctx) {
		return nil, nil
	}
	return c.run(ctx, "load", func(ctx context.Context) (models.Cart, error) {
		return c.api.GetMyCart(ctx)
	})
}

// AddItem adds a listing to the cart
func (c *Cart) AddItem(ctx context.Context, listingID int64, quantity int) (*models.Cart, error) {
	return c.mutate(ctx, "add_item", func(ctx context.Context) (models.Cart, error) {
		return c.api.AddCartItem(ctx, models.CartItemInput{ListingID: listingID, Quantity: quantity})
	})
}

// UpdateQuantity sets the quantity of a cart line
func (c *Cart) UpdateQuantity(ctx context.Context, listingID int64, quantity int) (*models.Cart, error) {
	return c.mutate(ctx, "update_quantity", func(ctx context.Context) (models.Cart, error) {
		return c.api.UpdateCartItem(ctx, listingID, quantity)
	})
}

// RemoveItem removes a listing from the cart
func (c *Cart) RemoveItem(ctx context.Context, listingID int64) (*models.Cart, error) {
	return c.mutate(ctx, "remove_item", func(ctx context.Context) (models.Cart, error) {
		return c.api.RemoveCartItem(ctx, listingID)
	})
}

// Clear empties the cart on the server
func (c *Cart) Clear(ctx context.Context) (*models.Cart, error) {
	return c.mutate(ctx, "clear", func(ctx context.Context) (models.Cart, error) {
		return c.api.ClearCart(ctx)
	})
}

// Reset drops the cached cart without a request
func (c *Cart) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cart = nil
	c.status = StatusIdle
	c.err = ""
	// responses issued before the reset must not bring the cart back
	c.written = c.issued
}

// Current returns the cached cart, nil when nothing is loaded
func (c *Cart) Current() *models.Cart {
	return c.Snapshot().Cart
}

// Snapshot returns a copy of the current state
func (c *Cart) Snapshot() CartSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CartSnapshot{
		Cart:   copyCart(c.cart),
		Status: c.status,
		Error:  c.err,
	}
}

func (c *Cart) mutate(ctx context.Context, op string, call func(context.Context) (models.Cart, error)) (*models.Cart, error) {
	if !c.authenticated(ctx) {
		util.CacheMutationsTotal.WithLabelValues("cart", op, "rejected").Inc()
		return nil, ErrNotAuthenticated
	}
	return c.run(ctx, op, call)
}

func (c *Cart) run(ctx context.Context, op string, call func(context.Context) (models.Cart, error)) (*models.Cart, error) {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.status = StatusLoading
	c.err = ""
	c.mu.Unlock()

	cart, err := call(context.WithoutCancel(ctx))

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq <= c.written {
		util.StaleWritesDiscarded.WithLabelValues("cart").Inc()
		if err != nil {
			return nil, err
		}
		return copyCart(&cart), nil
	}
	c.written = seq

	if err != nil {
		c.status = StatusFailed
		c.err = err.Error()
		util.CacheMutationsTotal.WithLabelValues("cart", op, "failed").Inc()
		c.logger.Warn("Cart request failed", zap.String("operation", op), zap.Error(err))
		return nil, err
	}

	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	c.cart = &cart
	c.status = StatusSucceeded
	util.CacheMutationsTotal.WithLabelValues("cart", op, "succeeded").Inc()
	return copyCart(c.cart), nil
}

func (c *Cart) authenticated(ctx context.Context) bool {
	if c.tokens == nil {
		return false
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.logger.Warn("Failed to read session token", zap.Error(err))
		return false
	}
	return token != ""
}

func copyCart(cart *models.Cart) *models.Cart {
	if cart == nil {
		return nil
	}
	out := *cart
	out.Items = append([]models.CartItem{}, cart.Items...)
	return &out
}
