package api

import (
	"net/http"
	"strconv"

	"phone-storefront/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) loadListings(c *gin.Context) {
	q, ok := pageQuery(c)
	if !ok {
		return
	}
	snap, err := h.sf.Listings.Load(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// getListing serves the cached listing, or resolves it from the backend
func (h *Handler) getListing(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if l, found := h.sf.Listings.Get(id); found {
		c.JSON(http.StatusOK, l)
		return
	}
	l, err := h.sf.Resolver.Resolve(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *Handler) createListing(c *gin.Context) {
	var in models.ListingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	l, err := h.sf.Listings.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (h *Handler) updateListing(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in models.ListingUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	l, err := h.sf.Listings.Update(c.Request.Context(), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *Handler) deleteListing(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var sellerID int64
	if v := c.Query("sellerId"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			badRequest(c, "Invalid sellerId", err)
			return
		}
		sellerID = parsed
	}
	if err := h.sf.Listings.Delete(c.Request.Context(), id, sellerID); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
