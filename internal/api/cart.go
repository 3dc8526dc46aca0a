package api

import (
	"net/http"

	"phone-storefront/internal/cache"
	"phone-storefront/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) getCart(c *gin.Context) {
	cart, err := h.sf.Cart.Load(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if cart == nil {
		h.fail(c, cache.ErrNotAuthenticated)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *Handler) addCartItem(c *gin.Context) {
	var in models.CartItemInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	cart, err := h.sf.Cart.AddItem(c.Request.Context(), in.ListingID, in.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *Handler) updateCartItem(c *gin.Context) {
	listingID, ok := paramID(c, "listingId")
	if !ok {
		return
	}
	var in models.QuantityInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	cart, err := h.sf.Cart.UpdateQuantity(c.Request.Context(), listingID, in.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *Handler) removeCartItem(c *gin.Context) {
	listingID, ok := paramID(c, "listingId")
	if !ok {
		return
	}
	cart, err := h.sf.Cart.RemoveItem(c.Request.Context(), listingID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *Handler) clearCart(c *gin.Context) {
	cart, err := h.sf.Cart.Clear(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *Handler) checkout(c *gin.Context) {
	order, err := h.sf.Checkout.Checkout(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) loadOrders(c *gin.Context) {
	q, ok := pageQuery(c)
	if !ok {
		return
	}
	if !h.sf.Session.Authenticated(c.Request.Context()) {
		h.fail(c, cache.ErrNotAuthenticated)
		return
	}
	snap, err := h.sf.Orders.Load(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *Handler) lastOrder(c *gin.Context) {
	order := h.sf.Orders.LastCreatedOrder()
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No order placed in this session"})
		return
	}
	c.JSON(http.StatusOK, order)
}
