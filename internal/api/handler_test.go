package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"phone-storefront/internal/backend"
	"phone-storefront/internal/models"
	"phone-storefront/internal/session"
	"phone-storefront/internal/store"
	"phone-storefront/internal/storefront"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeMarketplace is a minimal marketplace backend
func fakeMarketplace(t *testing.T) *httptest.Server {
	t.Helper()
	r := gin.New()

	r.POST("/api/v1/auth/authenticate", func(c *gin.Context) {
		var in models.AuthRequest
		_ = c.ShouldBindJSON(&in)
		if in.Password != "secret" {
			c.String(http.StatusForbidden, "Bad credentials")
			return
		}
		c.JSON(http.StatusOK, models.AuthResponse{AccessToken: "jwt-token"})
	})
	r.GET("/brands", func(c *gin.Context) {
		c.String(http.StatusServiceUnavailable, "Catalog under maintenance")
	})
	r.GET("/device-models", func(c *gin.Context) {
		c.JSON(http.StatusOK, []models.DeviceModel{})
	})
	r.GET("/variants", func(c *gin.Context) {
		c.JSON(http.StatusOK, []models.Variant{})
	})
	r.GET("/listings", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.Page[models.Listing]{
			Content:    []models.Listing{{ID: 5, SellerID: 1, VariantID: 10, Stock: 10}},
			TotalPages: 1,
		})
	})
	r.POST("/orders/checkout", func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer jwt-token" {
			c.Status(http.StatusUnauthorized)
			return
		}
		c.JSON(http.StatusOK, models.Order{
			ID:          42,
			OrderNumber: "ORD-42",
			Status:      models.OrderStatusPendingPayment,
			Items:       []models.OrderItem{{ListingID: 5, Quantity: 3}},
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T, checks ...ReadinessCheck) (*gin.Engine, *storefront.Storefront) {
	t.Helper()
	srv := fakeMarketplace(t)
	sessions := session.NewMemory()
	sf := storefront.New(storefront.Options{
		API:      backend.New(srv.Client(), srv.URL, sessions),
		Sessions: sessions,
		Origin:   "test-instance",
	})

	router := gin.New()
	NewHandler(sf, checks...).SetupRoutes(router)
	return router, sf
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test-instance", body["origin"])
}

func TestReadinessCheck(t *testing.T) {
	router, _ := newTestRouter(t,
		ReadinessCheck{Name: "redis", Check: func(context.Context) error { return nil }},
		ReadinessCheck{Name: "postgres", Check: func(context.Context) error { return errors.New("connection refused") }},
	)

	w := do(router, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
	assert.NotContains(t, w.Body.String(), "redis")
}

func TestAnonymousUserIsRejected(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/api/v1/cart", ""},
		{http.MethodPost, "/api/v1/cart/items", `{"listingId":5,"quantity":1}`},
		{http.MethodPost, "/api/v1/checkout", ""},
		{http.MethodGet, "/api/v1/orders", ""},
		{http.MethodGet, "/api/v1/session/me", ""},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := do(router, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestLoginAndCheckout(t *testing.T) {
	router, sf := newTestRouter(t)

	w := do(router, http.MethodPost, "/api/v1/session/login", `{"email":"ana@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Bad credentials")

	w = do(router, http.MethodPost, "/api/v1/session/login", `{"email":"ana@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/api/v1/listings", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPost, "/api/v1/checkout", "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(router, http.MethodGet, "/api/v1/orders/last", "")
	require.Equal(t, http.StatusOK, w.Code)
	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, "ORD-42", order.OrderNumber)

	l, ok := sf.Listings.Get(5)
	require.True(t, ok)
	assert.Equal(t, 7, l.Stocks.Projected)

	w = do(router, http.MethodPost, "/api/v1/session/logout", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(router, http.MethodGet, "/api/v1/orders/last", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBackendErrorKeepsStatusAndMessage(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/v1/catalog", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"error":"Catalog under maintenance"}`, w.Body.String())
}

func TestListingRequests(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/v1/listings?page=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodGet, "/api/v1/listings/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// unknown listing and no seller to fall back on
	w = do(router, http.MethodDelete, "/api/v1/listings/99", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodGet, "/api/v1/listings", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodDelete, "/api/v1/listings/5?sellerId=2", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(router, http.MethodGet, "/api/v1/listings/5", "")
	require.Equal(t, http.StatusOK, w.Code)
	var l models.EnrichedListing
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &l))
	assert.Equal(t, int64(5), l.ID)
	// relations the backend could not resolve stay empty
	assert.Nil(t, l.Variant)
	assert.Nil(t, l.Seller)
}

type fakeEventLog struct {
	limit  int
	events []store.ProcessedEvent
	err    error
}

func (f *fakeEventLog) RecentEvents(_ context.Context, limit int) ([]store.ProcessedEvent, error) {
	f.limit = limit
	return f.events, f.err
}

func TestLedgerEvents(t *testing.T) {
	processedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("no event log", func(t *testing.T) {
		router, _ := newTestRouter(t)
		w := do(router, http.MethodGet, "/ledger/events", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("lists events", func(t *testing.T) {
		log := &fakeEventLog{events: []store.ProcessedEvent{
			{EventID: "evt-1", EventType: "CHECKOUT_COMPLETED", ProcessedAt: processedAt},
		}}
		router := gin.New()
		sf := storefront.New(storefront.Options{
			API:      backend.New(http.DefaultClient, "http://127.0.0.1:0", session.NewMemory()),
			Sessions: session.NewMemory(),
			Origin:   "test-instance",
		})
		NewHandler(sf).WithEventLog(log).SetupRoutes(router)

		w := do(router, http.MethodGet, "/ledger/events?limit=5", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 5, log.limit)
		assert.JSONEq(t,
			`[{"eventId":"evt-1","eventType":"CHECKOUT_COMPLETED","processedAt":"2024-03-01T12:00:00Z"}]`,
			w.Body.String())

		w = do(router, http.MethodGet, "/ledger/events?limit=0", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		log.err = errors.New("connection refused")
		w = do(router, http.MethodGet, "/ledger/events", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, 50, log.limit)
	})
}
