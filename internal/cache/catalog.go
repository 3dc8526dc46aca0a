package cache

import (
	"context"
	"sync"

	"phone-storefront/internal/models"
	"phone-storefront/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CatalogAPI is the part of the backend the catalog cache talks to
type CatalogAPI interface {
	ListBrands(ctx context.Context) ([]models.Brand, error)
	ListDeviceModels(ctx context.Context) ([]models.DeviceModel, error)
	ListVariants(ctx context.Context) ([]models.Variant, error)
	UpdateBrand(ctx context.Context, id int64, in models.BrandInput) (models.Brand, error)
	CreateDeviceModel(ctx context.Context, in models.DeviceModelInput) (models.DeviceModel, error)
	UpdateDeviceModel(ctx context.Context, id int64, in models.DeviceModelInput) (models.DeviceModel, error)
	CreateVariant(ctx context.Context, in models.VariantInput) (models.Variant, error)
	UpdateVariant(ctx context.Context, id int64, in models.VariantInput) (models.Variant, error)
}

// CatalogSnapshot is a copy of the catalog state
type CatalogSnapshot struct {
	Brands         []models.Brand       `json:"brands"`
	Models         []models.DeviceModel `json:"models"`
	Variants       []models.Variant     `json:"variants"`
	Status         Status               `json:"status"`
	Error          string               `json:"error,omitempty"`
	MutationStatus Status               `json:"mutationStatus"`
	MutationError  string               `json:"mutationError,omitempty"`
}

// Catalog caches brands, device models and variants.
// It loads once unless forced; new models and variants are kept most-recent-first.
type Catalog struct {
	api    CatalogAPI
	events EventPublisher
	logger *zap.Logger

	mu             sync.Mutex
	brands         []models.Brand
	deviceModels   []models.DeviceModel
	variants       []models.Variant
	status         Status
	err            string
	mutationStatus Status
	mutationErr    string
	issued         uint64
	written        uint64
}

// NewCatalog creates an idle catalog cache
func NewCatalog(api CatalogAPI, events EventPublisher) *Catalog {
	return &Catalog{
		api:            api,
		events:         events,
		logger:         util.Named("catalog"),
		brands:         []models.Brand{},
		deviceModels:   []models.DeviceModel{},
		variants:       []models.Variant{},
		status:         StatusIdle,
		mutationStatus: StatusIdle,
	}
}

// Load fetches brands, models and variants.
// Without force it is a no-op while a load is running or after one succeeded.
func (c *Catalog) Load(ctx context.Context, force bool) (CatalogSnapshot, error) {
	c.mu.Lock()
	if !force && (c.status == StatusLoading || c.status == StatusSucceeded) {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		util.CacheLoadsTotal.WithLabelValues("catalog", util.OutcomeSkipped).Inc()
		return snap, nil
	}
	c.issued++
	seq := c.issued
	c.status = StatusLoading
	c.err = ""
	c.mu.Unlock()

	var (
		brands   []models.Brand
		devices  []models.DeviceModel
		variants []models.Variant
	)
	g, gctx := errgroup.WithContext(context.WithoutCancel(ctx))
	g.Go(func() (err error) {
		brands, err = c.api.ListBrands(gctx)
		return err
	})
	g.Go(func() (err error) {
		devices, err = c.api.ListDeviceModels(gctx)
		return err
	})
	g.Go(func() (err error) {
		variants, err = c.api.ListVariants(gctx)
		return err
	})
	err := g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq < c.written {
		util.StaleWritesDiscarded.WithLabelValues("catalog").Inc()
		return c.snapshotLocked(), err
	}
	// an older load finishing first must not end a forced one that is still running
	latest := seq == c.issued

	if err != nil {
		util.CacheLoadsTotal.WithLabelValues("catalog", util.OutcomeFailed).Inc()
		if latest {
			c.written = seq
			c.status = StatusFailed
			c.err = err.Error()
		}
		c.logger.Warn("Catalog load failed", zap.Error(err))
		return c.snapshotLocked(), err
	}

	c.written = seq
	c.brands = nonNil(brands)
	c.deviceModels = nonNil(devices)
	c.variants = nonNil(variants)
	c.recomputeBrandNamesLocked()
	if latest {
		c.status = StatusSucceeded
	}
	util.CacheLoadsTotal.WithLabelValues("catalog", util.OutcomeFetched).Inc()

	c.logger.Debug("Catalog loaded",
		zap.Int("brands", len(c.brands)),
		zap.Int("models", len(c.deviceModels)),
		zap.Int("variants", len(c.variants)))
	return c.snapshotLocked(), nil
}

// CreateModel creates a device model and puts it first
func (c *Catalog) CreateModel(ctx context.Context, in models.DeviceModelInput) (models.DeviceModel, error) {
	c.beginMutation()
	m, err := c.api.CreateDeviceModel(ctx, in)
	if err != nil {
		c.failMutation("create_model", err)
		return models.DeviceModel{}, err
	}

	c.mu.Lock()
	m.BrandName = c.brandNameLocked(m.BrandID)
	c.deviceModels = prepend(c.deviceModels, m)
	c.mutationStatus = StatusSucceeded
	c.mu.Unlock()

	c.succeedMutation("create_model")
	c.publish(ctx, &models.DeviceModelUpdatedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeDeviceModelUpdated),
		Model:     m,
	})
	return m, nil
}

// UpdateModel updates a device model in place
func (c *Catalog) UpdateModel(ctx context.Context, id int64, in models.DeviceModelInput) (models.DeviceModel, error) {
	c.beginMutation()
	m, err := c.api.UpdateDeviceModel(ctx, id, in)
	if err != nil {
		c.failMutation("update_model", err)
		return models.DeviceModel{}, err
	}
	if m.ID == 0 {
		m.ID = id
	}

	c.mu.Lock()
	m.BrandName = c.brandNameLocked(m.BrandID)
	c.deviceModels = upsert(c.deviceModels, m, func(x models.DeviceModel) bool { return x.ID == m.ID })
	c.mutationStatus = StatusSucceeded
	c.mu.Unlock()

	c.succeedMutation("update_model")
	c.publish(ctx, &models.DeviceModelUpdatedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeDeviceModelUpdated),
		Model:     m,
	})
	return m, nil
}

// CreateVariant creates a variant and puts it first
func (c *Catalog) CreateVariant(ctx context.Context, in models.VariantInput) (models.Variant, error) {
	c.beginMutation()
	v, err := c.api.CreateVariant(ctx, in)
	if err != nil {
		c.failMutation("create_variant", err)
		return models.Variant{}, err
	}

	c.mu.Lock()
	c.variants = prepend(c.variants, v)
	c.mutationStatus = StatusSucceeded
	c.mu.Unlock()

	c.succeedMutation("create_variant")
	c.publish(ctx, &models.VariantUpdatedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeVariantUpdated),
		Variant:   v,
	})
	return v, nil
}

// UpdateVariant updates a variant in place
func (c *Catalog) UpdateVariant(ctx context.Context, id int64, in models.VariantInput) (models.Variant, error) {
	c.beginMutation()
	v, err := c.api.UpdateVariant(ctx, id, in)
	if err != nil {
		c.failMutation("update_variant", err)
		return models.Variant{}, err
	}
	if v.ID == 0 {
		v.ID = id
	}

	c.mu.Lock()
	c.variants = upsert(c.variants, v, func(x models.Variant) bool { return x.ID == v.ID })
	c.mutationStatus = StatusSucceeded
	c.mu.Unlock()

	c.succeedMutation("update_variant")
	c.publish(ctx, &models.VariantUpdatedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeVariantUpdated),
		Variant:   v,
	})
	return v, nil
}

// UpdateBrand renames a brand and refreshes the brandName of its models
func (c *Catalog) UpdateBrand(ctx context.Context, id int64, in models.BrandInput) (models.Brand, error) {
	c.beginMutation()
	b, err := c.api.UpdateBrand(ctx, id, in)
	if err != nil {
		c.failMutation("update_brand", err)
		return models.Brand{}, err
	}

	c.mu.Lock()
	c.brands = upsert(c.brands, b, func(x models.Brand) bool { return x.ID == b.ID })
	c.recomputeBrandNamesLocked()
	c.mutationStatus = StatusSucceeded
	c.mu.Unlock()

	c.succeedMutation("update_brand")
	c.publish(ctx, &models.BrandUpdatedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeBrandUpdated),
		Brand:     b,
	})
	return b, nil
}

// Snapshot returns a copy of the current state
func (c *Catalog) Snapshot() CatalogSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Brands returns the cached brands
func (c *Catalog) Brands() []models.Brand {
	return c.Snapshot().Brands
}

// Models returns the cached device models, most recent first
func (c *Catalog) Models() []models.DeviceModel {
	return c.Snapshot().Models
}

// Variants returns the cached variants, most recent first
func (c *Catalog) Variants() []models.Variant {
	return c.Snapshot().Variants
}

func (c *Catalog) beginMutation() {
	c.mu.Lock()
	c.mutationStatus = StatusLoading
	c.mutationErr = ""
	c.mu.Unlock()
}

func (c *Catalog) failMutation(op string, err error) {
	c.mu.Lock()
	c.mutationStatus = StatusFailed
	c.mutationErr = err.Error()
	c.mu.Unlock()

	util.CacheMutationsTotal.WithLabelValues("catalog", op, "failed").Inc()
	c.logger.Warn("Catalog mutation failed", zap.String("operation", op), zap.Error(err))
}

func (c *Catalog) succeedMutation(op string) {
	util.CacheMutationsTotal.WithLabelValues("catalog", op, "succeeded").Inc()
}

func (c *Catalog) publish(ctx context.Context, event models.Event) {
	if c.events == nil {
		return
	}
	if err := c.events.Publish(ctx, event); err != nil {
		c.logger.Error("Failed to publish catalog event",
			zap.String("event_type", event.Meta().EventType),
			zap.Error(err))
	}
}

func (c *Catalog) brandNameLocked(brandID int64) string {
	for _, b := range c.brands {
		if b.ID == brandID {
			return b.Name
		}
	}
	return ""
}

func (c *Catalog) recomputeBrandNamesLocked() {
	names := make(map[int64]string, len(c.brands))
	for _, b := range c.brands {
		names[b.ID] = b.Name
	}
	for i := range c.deviceModels {
		c.deviceModels[i].BrandName = names[c.deviceModels[i].BrandID]
	}
}

func (c *Catalog) snapshotLocked() CatalogSnapshot {
	return CatalogSnapshot{
		Brands:         append([]models.Brand{}, c.brands...),
		Models:         append([]models.DeviceModel{}, c.deviceModels...),
		Variants:       append([]models.Variant{}, c.variants...),
		Status:         c.status,
		Error:          c.err,
		MutationStatus: c.mutationStatus,
		MutationError:  c.mutationErr,
	}
}

func prepend[T any](items []T, item T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, item)
	return append(out, items...)
}

// upsert replaces the first match in place, or prepends when nothing matches
func upsert[T any](items []T, item T, match func(T) bool) []T {
	for i := range items {
		if match(items[i]) {
			out := append([]T{}, items...)
			out[i] = item
			return out
		}
	}
	return prepend(items, item)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
