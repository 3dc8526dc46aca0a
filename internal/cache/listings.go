package cache

import (
	"context"
	"fmt"
	"sync"

	"phone-storefront/internal/models"
	"phone-storefront/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ListingsAPI is the part of the backend the listings cache talks to
type ListingsAPI interface {
	ListListings(ctx context.Context, fp models.Fingerprint) (models.Page[models.Listing], error)
	CreateListing(ctx context.Context, in models.ListingInput) (models.Listing, error)
	UpdateListing(ctx context.Context, id int64, in models.ListingUpdate) (models.ListingPatch, error)
	DeleteListing(ctx context.Context, id, sellerID int64) error
}

// Enricher joins listings with their relations
type Enricher interface {
	Enrich(ctx context.Context, listing models.Listing) models.EnrichedListing
	EnrichAll(ctx context.Context, listings []models.Listing) []models.EnrichedListing
}

// ListingsSnapshot is a copy of the listings state
type ListingsSnapshot struct {
	Items          []models.EnrichedListing `json:"items"`
	TotalPages     int                      `json:"totalPages"`
	TotalElements  int64                    `json:"totalElements"`
	Fingerprint    *models.Fingerprint      `json:"fingerprint,omitempty"`
	InFlight       *models.Fingerprint      `json:"inFlight,omitempty"`
	Status         Status                   `json:"status"`
	Error          string                   `json:"error,omitempty"`
	MutationStatus Status                   `json:"mutationStatus"`
	MutationError  string                   `json:"mutationError,omitempty"`
}

// Listings caches one enriched page of listings.
//
// Loads are collapsed per fingerprint and skipped when the same page already
// succeeded. Every fetch takes an issue sequence number and a response is
// only written when it is newer than the last written one, so the most
// recently issued request wins regardless of completion order.
type Listings struct {
	api      ListingsAPI
	enricher Enricher
	logger   *zap.Logger
	group    singleflight.Group

	mu             sync.Mutex
	items          []models.EnrichedListing
	totalPages     int
	totalElements  int64
	last           *models.Fingerprint
	inflight       *models.Fingerprint
	status         Status
	err            string
	mutationStatus Status
	mutationErr    string
	issued         uint64
	written        uint64
	appliedOrders  map[int64]struct{}
}

// NewListings creates an idle listings cache
func NewListings(api ListingsAPI, enricher Enricher) *Listings {
	return &Listings{
		api:            api,
		enricher:       enricher,
		logger:         util.Named("listings"),
		items:          []models.EnrichedListing{},
		status:         StatusIdle,
		mutationStatus: StatusIdle,
		appliedOrders:  make(map[int64]struct{}),
	}
}

// Load fetches a page of listings unless the request is redundant.
//
// Without Force the call is skipped when the same fingerprint already
// succeeded, and joins a fetch of the same fingerprint that is in flight.
// Force always issues a new fetch; later non-forced callers join it.
// Callers may stop waiting through ctx, the fetch itself keeps running.
func (l *Listings) Load(ctx context.Context, q Query) (ListingsSnapshot, error) {
	fp := q.Fingerprint()
	key := fingerprintKey(fp)

	l.mu.Lock()
	if !q.Force && l.status == StatusSucceeded && l.last != nil && *l.last == fp {
		snap := l.snapshotLocked()
		l.mu.Unlock()
		util.CacheLoadsTotal.WithLabelValues("listings", util.OutcomeSkipped).Inc()
		return snap, nil
	}
	l.mu.Unlock()

	if q.Force {
		l.group.Forget(key)
	}

	fetchCtx := context.WithoutCancel(ctx)
	originated := false
	ch := l.group.DoChan(key, func() (any, error) {
		originated = true
		return l.fetch(fetchCtx, fp)
	})

	select {
	case <-ctx.Done():
		return l.Snapshot(), ctx.Err()
	case res := <-ch:
		if !originated {
			util.CacheLoadsTotal.WithLabelValues("listings", util.OutcomeJoined).Inc()
		}
		if res.Err != nil {
			return l.Snapshot(), res.Err
		}
		return res.Val.(ListingsSnapshot), nil
	}
}

func (l *Listings) fetch(ctx context.Context, fp models.Fingerprint) (ListingsSnapshot, error) {
	l.mu.Lock()
	l.issued++
	seq := l.issued
	l.status = StatusLoading
	l.err = ""
	inflight := fp
	l.inflight = &inflight
	l.mu.Unlock()

	page, err := l.api.ListListings(ctx, fp)
	var items []models.EnrichedListing
	if err == nil {
		items = l.enricher.EnrichAll(ctx, page.Content)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	latest := seq == l.issued
	if latest {
		l.inflight = nil
	}

	if seq <= l.written {
		util.StaleWritesDiscarded.WithLabelValues("listings").Inc()
		l.logger.Debug("Discarding stale listings response",
			zap.Int("page", fp.Page),
			zap.Int("size", fp.Size),
			zap.Uint64("seq", seq),
			zap.Uint64("written", l.written))
		if err != nil {
			return ListingsSnapshot{}, err
		}
		return ListingsSnapshot{
			Items:          append([]models.EnrichedListing{}, items...),
			TotalPages:     page.TotalPages,
			TotalElements:  page.TotalElements,
			Fingerprint:    &inflight,
			Status:         StatusSucceeded,
			MutationStatus: l.mutationStatus,
		}, nil
	}

	if err != nil {
		util.CacheLoadsTotal.WithLabelValues("listings", util.OutcomeFailed).Inc()
		if latest {
			l.written = seq
			l.status = StatusFailed
			l.err = err.Error()
		}
		l.logger.Warn("Listings load failed",
			zap.Int("page", fp.Page),
			zap.Int("size", fp.Size),
			zap.Error(err))
		return ListingsSnapshot{}, err
	}

	l.written = seq
	l.items = items
	l.totalPages = page.TotalPages
	l.totalElements = page.TotalElements
	l.last = &inflight
	if latest {
		l.status = StatusSucceeded
	}
	util.CacheLoadsTotal.WithLabelValues("listings", util.OutcomeFetched).Inc()
	return l.snapshotLocked(), nil
}

// Create creates a listing and puts its enriched form first
func (l *Listings) Create(ctx context.Context, in models.ListingInput) (models.EnrichedListing, error) {
	l.beginMutation()
	created, err := l.api.CreateListing(ctx, in)
	if err != nil {
		l.failMutation("create", err)
		return models.EnrichedListing{}, err
	}

	enriched := l.enricher.Enrich(ctx, created)

	l.mu.Lock()
	l.items = upsert(l.items, enriched, func(x models.EnrichedListing) bool { return x.ID == enriched.ID })
	l.mutationStatus = StatusSucceeded
	l.mu.Unlock()

	util.CacheMutationsTotal.WithLabelValues("listings", "create", "succeeded").Inc()
	return enriched, nil
}

// Update sends a listing update and merges the returned fields into the
// cached item. Fields missing from the response keep their cached value.
// Relations are re-resolved only when the variant or seller changed.
func (l *Listings) Update(ctx context.Context, id int64, in models.ListingUpdate) (models.EnrichedListing, error) {
	l.beginMutation()
	patch, err := l.api.UpdateListing(ctx, id, in)
	if err != nil {
		l.failMutation("update", err)
		return models.EnrichedListing{}, err
	}

	l.mu.Lock()
	idx := l.indexLocked(id)
	if idx < 0 {
		l.mutationStatus = StatusSucceeded
		l.mu.Unlock()
		util.CacheMutationsTotal.WithLabelValues("listings", "update", "succeeded").Inc()
		return models.MergeListing(models.Bare(models.Listing{ID: id}), patch), nil
	}
	current := l.items[idx]
	merged := models.MergeListing(current, patch)
	relinked := merged.VariantID != current.VariantID || merged.SellerID != current.SellerID
	if !relinked {
		l.items[idx] = merged
		l.mutationStatus = StatusSucceeded
	}
	l.mu.Unlock()

	if relinked {
		resolved := l.enricher.Enrich(ctx, merged.Listing)
		resolved.Stocks = merged.Stocks
		merged = resolved

		l.mu.Lock()
		if i := l.indexLocked(id); i >= 0 {
			l.items[i] = merged
		}
		l.mutationStatus = StatusSucceeded
		l.mu.Unlock()
	}

	util.CacheMutationsTotal.WithLabelValues("listings", "update", "succeeded").Inc()
	return merged, nil
}

// Delete deletes a listing. When sellerID is 0 the cached item's seller is
// used; a sellerID that disagrees with the cached item is rejected.
func (l *Listings) Delete(ctx context.Context, id, sellerID int64) error {
	l.mu.Lock()
	cachedSeller := int64(0)
	if idx := l.indexLocked(id); idx >= 0 {
		cachedSeller = l.items[idx].SellerID
	}
	l.mu.Unlock()

	switch {
	case sellerID == 0 && cachedSeller == 0:
		l.failMutation("delete", ErrSellerRequired)
		return ErrSellerRequired
	case sellerID == 0:
		sellerID = cachedSeller
	case cachedSeller != 0 && cachedSeller != sellerID:
		err := fmt.Errorf("%w: listing %d belongs to seller %d, got %d", ErrSellerMismatch, id, cachedSeller, sellerID)
		l.failMutation("delete", err)
		return err
	}

	l.beginMutation()
	if err := l.api.DeleteListing(ctx, id, sellerID); err != nil {
		l.failMutation("delete", err)
		return err
	}

	l.mu.Lock()
	if idx := l.indexLocked(id); idx >= 0 {
		out := make([]models.EnrichedListing, 0, len(l.items)-1)
		out = append(out, l.items[:idx]...)
		l.items = append(out, l.items[idx+1:]...)
	}
	l.mutationStatus = StatusSucceeded
	l.mu.Unlock()

	util.CacheMutationsTotal.WithLabelValues("listings", "delete", "succeeded").Inc()
	return nil
}

// ApplyBrand patches the embedded brand of matching listings.
// It returns the number of listings touched.
func (l *Listings) ApplyBrand(b models.Brand) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	touched := 0
	for i := range l.items {
		item := &l.items[i]
		changed := false
		if item.Brand != nil && item.Brand.ID == b.ID {
			nb := b
			item.Brand = &nb
			changed = true
		}
		if item.Variant != nil && item.Variant.Model != nil && item.Variant.Model.BrandID == b.ID {
			v := *item.Variant
			m := *v.Model
			m.BrandName = b.Name
			v.Model = &m
			item.Variant = &v
			changed = true
		}
		if changed {
			touched++
		}
	}
	return touched
}

// ApplyDeviceModel patches the embedded model of matching listings
func (l *Listings) ApplyDeviceModel(m models.DeviceModel) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	touched := 0
	for i := range l.items {
		item := &l.items[i]
		if item.Variant == nil || item.Variant.DeviceModelID != m.ID {
			continue
		}
		v := *item.Variant
		nm := m
		if nm.BrandName == "" && v.Model != nil && v.Model.BrandID == nm.BrandID {
			nm.BrandName = v.Model.BrandName
		}
		v.Model = &nm
		item.Variant = &v

		if item.Brand == nil || item.Brand.ID != nm.BrandID {
			if nm.BrandName != "" {
				item.Brand = &models.Brand{ID: nm.BrandID, Name: nm.BrandName}
			} else {
				item.Brand = nil
			}
		}
		touched++
	}
	return touched
}

// ApplyVariant patches the embedded variant of matching listings
func (l *Listings) ApplyVariant(v models.Variant) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	touched := 0
	for i := range l.items {
		item := &l.items[i]
		if item.VariantID != v.ID && (item.Variant == nil || item.Variant.ID != v.ID) {
			continue
		}
		nv := v
		if nv.Model == nil && item.Variant != nil && item.Variant.DeviceModelID == nv.DeviceModelID {
			nv.Model = item.Variant.Model
		}
		item.Variant = &nv
		touched++
	}
	return touched
}

// ApplyCheckout decrements the projected stock of purchased listings,
// never below zero. An order is applied at most once; the result reports
// whether this call applied it. Orders without an id cannot be told apart
// and are always applied.
func (l *Listings) ApplyCheckout(orderID int64, lines []models.StockLine) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if orderID != 0 {
		if _, seen := l.appliedOrders[orderID]; seen {
			return false
		}
		l.appliedOrders[orderID] = struct{}{}
	}

	for _, line := range lines {
		idx := l.indexLocked(line.ListingID)
		if idx < 0 {
			continue
		}
		projected := l.items[idx].Stocks.Projected - line.Quantity
		if projected < 0 {
			projected = 0
		}
		l.items[idx].Stocks.Projected = projected
	}
	return true
}

// Get returns a cached listing by id
func (l *Listings) Get(id int64) (models.EnrichedListing, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if idx := l.indexLocked(id); idx >= 0 {
		return l.items[idx], true
	}
	return models.EnrichedListing{}, false
}

// Items returns the cached listings
func (l *Listings) Items() []models.EnrichedListing {
	return l.Snapshot().Items
}

// Snapshot returns a copy of the current state
func (l *Listings) Snapshot() ListingsSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Listings) indexLocked(id int64) int {
	for i := range l.items {
		if l.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Listings) beginMutation() {
	l.mu.Lock()
	l.mutationStatus = StatusLoading
	l.mutationErr = ""
	l.mu.Unlock()
}

func (l *Listings) failMutation(op string, err error) {
	l.mu.Lock()
	l.mutationStatus = StatusFailed
	l.mutationErr = err.Error()
	l.mu.Unlock()

	util.CacheMutationsTotal.WithLabelValues("listings", op, "failed").Inc()
	l.logger.Warn("Listings mutation failed", zap.String("operation", op), zap.Error(err))
}

func (l *Listings) snapshotLocked() ListingsSnapshot {
	snap := ListingsSnapshot{
		Items:          append([]models.EnrichedListing{}, l.items...),
		TotalPages:     l.totalPages,
		TotalElements:  l.totalElements,
		Status:         l.status,
		Error:          l.err,
		MutationStatus: l.mutationStatus,
		MutationError:  l.mutationErr,
	}
	if l.last != nil {
		fp := *l.last
		snap.Fingerprint = &fp
	}
	if l.inflight != nil {
		fp := *l.inflight
		snap.InFlight = &fp
	}
	return snap
}
