// Package cache holds the client-side views of catalog, listings, cart and
// orders. Each cache guards its own state with a mutex and is the only
// writer of that state; effects from other caches arrive through the
// Apply*/Reset/Invalidate methods called by the sync orchestrator.
package cache

import (
	"context"
	"errors"
	"strconv"

	"phone-storefront/internal/models"
)

// Status of a cache state machine
type Status string

// Status values
const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrSellerRequired   = errors.New("sellerId is required to delete a listing")
	ErrSellerMismatch   = errors.New("sellerId does not match the cached listing")
	ErrListingNotCached = errors.New("listing not found in cache")
)

// EventPublisher receives events after a mutation succeeded
type EventPublisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// TokenSource reports the bearer token of the current session
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Query is a paginated load request
type Query struct {
	Page  int
	Size  int
	Force bool
}

// Fingerprint returns the identity of the query
func (q Query) Fingerprint() models.Fingerprint {
	return models.Fingerprint{Page: q.Page, Size: q.Size}
}

func fingerprintKey(fp models.Fingerprint) string {
	return strconv.Itoa(fp.Page) + ":" + strconv.Itoa(fp.Size)
}
