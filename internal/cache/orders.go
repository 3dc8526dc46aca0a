package cache

import (
	"context"
	"sync"

	"phone-storefront/internal/models"
	"phone-storefront/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// OrdersAPI is the part of the backend the orders cache talks to
type OrdersAPI interface {
	ListMyOrders(ctx context.Context, fp models.Fingerprint) (models.Page[models.Order], error)
}

// OrdersSnapshot is a copy of the orders state
type OrdersSnapshot struct {
	Items            []models.Order      `json:"items"`
	TotalPages       int                 `json:"totalPages"`
	TotalElements    int64               `json:"totalElements"`
	Fingerprint      *models.Fingerprint `json:"fingerprint,omitempty"`
	LastCreatedOrder *models.Order       `json:"lastCreatedOrder,omitempty"`
	Status           Status              `json:"status"`
	Error            string              `json:"error,omitempty"`
}

// Orders caches one page of the user's orders and the order created by the
// last checkout
type Orders struct {
	api    OrdersAPI
	logger *zap.Logger
	group  singleflight.Group

	mu            sync.Mutex
	items         []models.Order
	totalPages    int
	totalElements int64
	last          *models.Fingerprint
	lastCreated   *models.Order
	status        Status
	err           string
	issued        uint64
	written       uint64
	inflight      map[models.Fingerprint]int
}

// NewOrders creates an idle orders cache
func NewOrders(api OrdersAPI) *Orders {
	return &Orders{
		api:    api,
		logger: util.Named("orders"),
		items:    []models.Order{},
		status:   StatusIdle,
		inflight: make(map[models.Fingerprint]int),
	}
}

// Load fetches a page of orders, skipping a fingerprint that already
// succeeded and joining one that is in flight, unless forced.
func (o *Orders) Load(ctx context.Context, q Query) (OrdersSnapshot, error) {
	fp := q.Fingerprint()
	key := fingerprintKey(fp)

	o.mu.Lock()
	if !q.Force && o.status == StatusSucceeded && o.last != nil && *o.last == fp {
		snap := o.snapshotLocked()
		o.mu.Unlock()
		util.CacheLoadsTotal.WithLabelValues("orders", util.OutcomeSkipped).Inc()
		return snap, nil
	}
	o.mu.Unlock()

	if q.Force {
		o.group.Forget(key)
	}

	fetchCtx := context.WithoutCancel(ctx)
	originated := false
	ch := o.group.DoChan(key, func() (any, error) {
		originated = true
		return o.fetch(fetchCtx, fp)
	})

	select {
	case <-ctx.Done():
		return o.Snapshot(), ctx.Err()
	case res := <-ch:
		if !originated {
			util.CacheLoadsTotal.WithLabelValues("orders", util.OutcomeJoined).Inc()
		}
		if res.Err != nil {
			return o.Snapshot(), res.Err
		}
		return res.Val.(OrdersSnapshot), nil
	}
}

func (o *Orders) fetch(ctx context.Context, fp models.Fingerprint) (OrdersSnapshot, error) {
	o.mu.Lock()
	o.issued++
	seq := o.issued
	o.status = StatusLoading
	o.err = ""
	o.inflight[fp]++
	o.mu.Unlock()

	page, err := o.api.ListMyOrders(ctx, fp)

	o.mu.Lock()
	defer o.mu.Unlock()

	o.inflight[fp]--
	if o.inflight[fp] <= 0 {
		delete(o.inflight, fp)
	}

	if seq <= o.written {
		util.StaleWritesDiscarded.WithLabelValues("orders").Inc()
		if err != nil {
			return OrdersSnapshot{}, err
		}
		return OrdersSnapshot{
			Items:         append([]models.Order{}, page.Content...),
			TotalPages:    page.TotalPages,
			TotalElements: page.TotalElements,
			Fingerprint:   &fp,
			Status:        StatusSucceeded,
		}, nil
	}
	latest := seq == o.issued

	if err != nil {
		util.CacheLoadsTotal.WithLabelValues("orders", util.OutcomeFailed).Inc()
		if latest {
			o.written = seq
			o.status = StatusFailed
			o.err = err.Error()
		}
		o.logger.Warn("Orders load failed", zap.Int("page", fp.Page), zap.Int("size", fp.Size), zap.Error(err))
		return OrdersSnapshot{}, err
	}

	o.written = seq
	o.items = nonNil(page.Content)
	o.totalPages = page.TotalPages
	o.totalElements = page.TotalElements
	o.last = &fp
	if latest {
		o.status = StatusSucceeded
	}
	util.CacheLoadsTotal.WithLabelValues("orders", util.OutcomeFetched).Inc()
	return o.snapshotLocked(), nil
}

// RecordCreated remembers the order produced by the last checkout
func (o *Orders) RecordCreated(order models.Order) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastCreated = &order
}

// LastCreatedOrder returns the order produced by the last checkout, if any
func (o *Orders) LastCreatedOrder() *models.Order {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lastCreated == nil {
		return nil
	}
	order := *o.lastCreated
	return &order
}

// Invalidate drops the cached page so the next Load refetches.
// Responses issued before the call are discarded and a later Load never
// joins a fetch that was already running.
func (o *Orders) Invalidate() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for fp := range o.inflight {
		o.group.Forget(fingerprintKey(fp))
	}
	o.items = []models.Order{}
	o.totalPages = 0
	o.totalElements = 0
	o.last = nil
	o.status = StatusIdle
	o.err = ""
	o.written = o.issued
}

// Reset invalidates the page and forgets the last created order
func (o *Orders) Reset() {
	o.Invalidate()
	o.mu.Lock()
	o.lastCreated = nil
	o.mu.Unlock()
}

// Snapshot returns a copy of the current state
func (o *Orders) Snapshot() OrdersSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orders) snapshotLocked() OrdersSnapshot {
	snap := OrdersSnapshot{
		Items:         append([]models.Order{}, o.items...),
		TotalPages:    o.totalPages,
		TotalElements: o.totalElements,
		Status:        o.status,
		Error:         o.err,
	}
	if o.last != nil {
		fp := *o.last
		snap.Fingerprint = &fp
	}
	if o.lastCreated != nil {
		order := *o.lastCreated
		snap.LastCreatedOrder = &order
	}
	return snap
}
