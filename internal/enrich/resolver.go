// Package enrich joins listings with their variant, device model, brand and seller.
// Joins are best effort: a failed lookup leaves the relation nil.
package enrich

import (
	"context"
	"fmt"
	"time"

	"phone-storefront/internal/models"
	"phone-storefront/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

// Fetcher is the subset of the backend client needed for joins
type Fetcher interface {
	GetListing(ctx context.Context, id int64) (models.Listing, error)
	GetVariant(ctx context.Context, id int64) (models.Variant, error)
	GetDeviceModel(ctx context.Context, id int64) (models.DeviceModel, error)
	GetBrand(ctx context.Context, id int64) (models.Brand, error)
	GetSeller(ctx context.Context, id int64) (models.Seller, error)
}

// Resolver enriches listings
type Resolver struct {
	fetcher     Fetcher
	concurrency int
	logger      *zap.Logger
}

// NewResolver creates a new resolver. concurrency bounds the listings enriched at once.
func NewResolver(fetcher Fetcher, concurrency int) *Resolver {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Resolver{
		fetcher:     fetcher,
		concurrency: concurrency,
		logger:      util.Named("enrich"),
	}
}

// Resolve fetches a listing by id and enriches it.
// Only the listing fetch itself can fail.
func (r *Resolver) Resolve(ctx context.Context, id int64) (models.EnrichedListing, error) {
	listing, err := r.fetcher.GetListing(ctx, id)
	if err != nil {
		return models.EnrichedListing{}, fmt.Errorf("failed to fetch listing %d: %w", id, err)
	}
	return r.Enrich(ctx, listing), nil
}

// Enrich joins a listing with its relations.
// Variant and seller are fetched in parallel, then the model and the brand.
func (r *Resolver) Enrich(ctx context.Context, listing models.Listing) models.EnrichedListing {
	out := models.Bare(listing)

	var (
		variant *models.Variant
		seller  *models.Seller
		panics  [2]any
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer capturePanic(&panics[0])
		if listing.VariantID == 0 {
			return nil
		}
		v, err := r.fetcher.GetVariant(gctx, listing.VariantID)
		if err != nil {
			r.joinFailed("variant", listing.ID, listing.VariantID, err)
			return nil
		}
		variant = &v
		return nil
	})
	g.Go(func() error {
		defer capturePanic(&panics[1])
		if listing.SellerID == 0 {
			return nil
		}
		s, err := r.fetcher.GetSeller(gctx, listing.SellerID)
		if err != nil {
			r.joinFailed("seller", listing.ID, listing.SellerID, err)
			return nil
		}
		seller = &s
		return nil
	})
	// join goroutines never return errors
	_ = g.Wait()
	for _, p := range panics {
		if p != nil {
			panic(p)
		}
	}

	var brand *models.Brand
	if variant != nil && variant.DeviceModelID != 0 {
		model, err := r.fetcher.GetDeviceModel(ctx, variant.DeviceModelID)
		if err != nil {
			r.joinFailed("model", listing.ID, variant.DeviceModelID, err)
		} else {
			if model.BrandID != 0 {
				b, err := r.fetcher.GetBrand(ctx, model.BrandID)
				if err != nil {
					r.joinFailed("brand", listing.ID, model.BrandID, err)
				} else {
					brand = &b
					if model.BrandName == "" {
						model.BrandName = b.Name
					}
				}
			}
			variant.Model = &model
		}
	}

	out.Variant = variant
	out.Seller = seller
	out.Brand = brand
	return out
}

// EnrichAll enriches every listing concurrently. The result has the same
// length and order as the input; a listing whose enrichment panics is
// returned bare.
func (r *Resolver) EnrichAll(ctx context.Context, listings []models.Listing) []models.EnrichedListing {
	start := time.Now()
	defer func() {
		util.EnrichmentLatency.Observe(time.Since(start).Seconds())
	}()

	out := make([]models.EnrichedListing, len(listings))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i := range listings {
		i := i
		g.Go(func() error {
			out[i] = r.safeEnrich(ctx, listings[i])
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (r *Resolver) safeEnrich(ctx context.Context, listing models.Listing) (result models.EnrichedListing) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Listing enrichment panicked, keeping bare listing",
				zap.Int64("listing_id", listing.ID),
				zap.Any("panic", rec))
			result = models.Bare(listing)
		}
	}()
	return r.Enrich(ctx, listing)
}

// capturePanic moves a join goroutine panic to the calling goroutine
func capturePanic(dst *any) {
	if rec := recover(); rec != nil {
		*dst = rec
	}
}

func (r *Resolver) joinFailed(relation string, listingID, relationID int64, err error) {
	util.EnrichmentJoinFailures.WithLabelValues(relation).Inc()
	r.logger.Debug("Join failed, relation left empty",
		zap.String("relation", relation),
		zap.Int64("listing_id", listingID),
		zap.Int64("relation_id", relationID),
		zap.Error(err))
}
