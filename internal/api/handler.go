package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"phone-storefront/internal/backend"
	"phone-storefront/internal/cache"
	"phone-storefront/internal/store"
	"phone-storefront/internal/storefront"
	"phone-storefront/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const defaultPageSize = 20

// ReadinessCheck reports whether a dependency is usable
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// EventLog lists the events recorded by a persistent ledger
type EventLog interface {
	RecentEvents(ctx context.Context, limit int) ([]store.ProcessedEvent, error)
}

// Handler contains HTTP handlers
type Handler struct {
	sf       *storefront.Storefront
	checks   []ReadinessCheck
	eventLog EventLog
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(sf *storefront.Storefront, checks ...ReadinessCheck) *Handler {
	return &Handler{
		sf:     sf,
		checks: checks,
		logger: util.Named("api"),
	}
}

// WithEventLog exposes the ledger rows on /ledger/events
func (h *Handler) WithEventLog(log EventLog) *Handler {
	h.eventLog = log
	return h
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/ledger/events", h.recentEvents)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/catalog", h.loadCatalog)
		v1.POST("/catalog/models", h.createModel)
		v1.PUT("/catalog/models/:id", h.updateModel)
		v1.POST("/catalog/variants", h.createVariant)
		v1.PUT("/catalog/variants/:id", h.updateVariant)
		v1.PUT("/catalog/brands/:id", h.updateBrand)

		v1.GET("/listings", h.loadListings)
		v1.GET("/listings/:id", h.getListing)
		v1.POST("/listings", h.createListing)
		v1.PATCH("/listings/:id", h.updateListing)
		v1.DELETE("/listings/:id", h.deleteListing)

		v1.GET("/cart", h.getCart)
		v1.POST("/cart/items", h.addCartItem)
		v1.PUT("/cart/items/:listingId", h.updateCartItem)
		v1.DELETE("/cart/items/:listingId", h.removeCartItem)
		v1.DELETE("/cart", h.clearCart)

		v1.POST("/checkout", h.checkout)
		v1.GET("/orders", h.loadOrders)
		v1.GET("/orders/last", h.lastOrder)

		v1.POST("/session/login", h.login)
		v1.POST("/session/register", h.register)
		v1.POST("/session/logout", h.logout)
		v1.GET("/session/me", h.me)

		v1.GET("/sellers", h.listSellers)
		v1.GET("/sellers/me", h.mySeller)
		v1.POST("/sellers", h.createSeller)
		v1.PUT("/sellers/:id", h.updateSeller)

		v1.GET("/variants/:id/images", h.listImages)
		v1.POST("/variants/:id/images", h.uploadImage)
		v1.PUT("/images/:id/primary", h.setPrimaryImage)
		v1.DELETE("/images/:id", h.deleteImage)
		v1.GET("/images/:id/raw", h.imageBytes)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"origin": h.sf.Origin(),
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings the configured dependencies
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			failed[check.Name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// recentEvents lists the newest processed events of the Postgres ledger
func (h *Handler) recentEvents(c *gin.Context) {
	if h.eventLog == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ledger keeps no event log"})
		return
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			badRequest(c, "Invalid limit", err)
			return
		}
		limit = n
	}

	events, err := h.eventLog.RecentEvents(c.Request.Context(), limit)
	if err != nil {
		h.logger.Warn("Failed to list ledger events", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to list ledger events"})
		return
	}
	if events == nil {
		events = []store.ProcessedEvent{}
	}
	c.JSON(http.StatusOK, events)
}

// fail maps an error to a response. Backend errors keep their status and message.
func (h *Handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, cache.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, cache.ErrSellerRequired):
		status = http.StatusBadRequest
	case errors.Is(err, cache.ErrSellerMismatch):
		status = http.StatusConflict
	case errors.Is(err, cache.ErrListingNotCached):
		status = http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	default:
		if s := backend.StatusOf(err); s >= 400 {
			status = s
		} else if s == 0 {
			status = http.StatusBadGateway
		}
	}

	if status >= http.StatusInternalServerError {
		h.logger.Warn("Request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string, err error) {
	body := gin.H{"error": msg}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid "+name, err)
		return 0, false
	}
	return id, true
}

func pageQuery(c *gin.Context) (cache.Query, bool) {
	q := cache.Query{Size: defaultPageSize}
	var err error
	if v := c.Query("page"); v != "" {
		if q.Page, err = strconv.Atoi(v); err != nil || q.Page < 0 {
			badRequest(c, "Invalid page", err)
			return q, false
		}
	}
	if v := c.Query("size"); v != "" {
		if q.Size, err = strconv.Atoi(v); err != nil || q.Size <= 0 {
			badRequest(c, "Invalid size", err)
			return q, false
		}
	}
	q.Force = forceQuery(c)
	return q, true
}

func forceQuery(c *gin.Context) bool {
	force, _ := strconv.ParseBool(c.Query("force"))
	return force
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
