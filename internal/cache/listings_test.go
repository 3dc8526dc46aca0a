package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"phone-storefront/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listing(id, seller, variant int64, stock int) models.Listing {
	return models.Listing{
		ID:           id,
		SellerID:     seller,
		VariantID:    variant,
		Price:        decimal.NewFromInt(100),
		Stock:        stock,
		Active:       true,
		DiscountType: models.DiscountNone,
	}
}

func pageOf(items ...models.Listing) models.Page[models.Listing] {
	return models.Page[models.Listing]{Content: items, TotalPages: 1, TotalElements: int64(len(items))}
}

func newTestEnricher() *stubEnricher {
	return &stubEnricher{
		variants: map[int64]models.Variant{
			10: {ID: 10, DeviceModelID: 20, Model: &models.DeviceModel{ID: 20, ModelName: "iPhone 13", BrandID: 30, BrandName: "Apple"}},
			11: {ID: 11, DeviceModelID: 21, Model: &models.DeviceModel{ID: 21, ModelName: "Galaxy S22", BrandID: 31, BrandName: "Samsung"}},
		},
		sellers: map[int64]models.Seller{
			1: {ID: 1, ShopName: "Phone Hub"},
			2: {ID: 2, ShopName: "Mobile Corner"},
		},
	}
}

func loadedListings(t *testing.T, items ...models.Listing) (*Listings, *fakeListingsAPI, *stubEnricher) {
	t.Helper()
	api := newFakeListingsAPI()
	api.pages[0] = pageOf(items...)
	enricher := newTestEnricher()
	l := NewListings(api, enricher)

	_, err := l.Load(context.Background(), Query{Page: 0, Size: 20})
	require.NoError(t, err)
	<-api.started
	return l, api, enricher
}

func ids(items []models.EnrichedListing) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestListingsConcurrentLoadsCollapse(t *testing.T) {
	api := newFakeListingsAPI()
	api.pages[0] = pageOf(listing(1, 1, 10, 5), listing(2, 2, 11, 3))
	gate := api.gate(0)
	l := NewListings(api, newTestEnricher())

	results := make([]ListingsSnapshot, 2)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = l.Load(context.Background(), Query{Page: 0, Size: 20})
	}()
	<-api.started

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = l.Load(context.Background(), Query{Page: 0, Size: 20})
	}()
	// let the second caller join the flight before releasing it
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), api.calls.Load())
	assert.Equal(t, []int64{1, 2}, ids(results[0].Items))
	assert.Equal(t, ids(results[0].Items), ids(results[1].Items))
}

func TestListingsLoadSkipsSucceededFingerprint(t *testing.T) {
	l, api, _ := loadedListings(t, listing(1, 1, 10, 5))
	ctx := context.Background()

	snap, err := l.Load(ctx, Query{Page: 0, Size: 20})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(snap.Items))
	assert.Equal(t, int32(1), api.calls.Load())

	// a different fingerprint fetches
	api.pages[1] = pageOf(listing(7, 1, 10, 1))
	snap, err = l.Load(ctx, Query{Page: 1, Size: 20})
	require.NoError(t, err)
	<-api.started
	assert.Equal(t, []int64{7}, ids(snap.Items))
	assert.Equal(t, &models.Fingerprint{Page: 1, Size: 20}, snap.Fingerprint)

	// force always fetches
	_, err = l.Load(ctx, Query{Page: 1, Size: 20, Force: true})
	require.NoError(t, err)
	<-api.started
	assert.Equal(t, int32(3), api.calls.Load())
}

func TestListingsLatestIssuedWins(t *testing.T) {
	tests := []struct {
		name        string
		releaseLast int
	}{
		{name: "newer completes first", releaseLast: 0},
		{name: "older completes first", releaseLast: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeListingsAPI()
			api.pages[0] = pageOf(listing(1, 1, 10, 5))
			api.pages[1] = pageOf(listing(2, 2, 11, 5))
			gates := []chan struct{}{api.gate(0), api.gate(1)}
			l := NewListings(api, newTestEnricher())

			var wg sync.WaitGroup
			for page := 0; page < 2; page++ {
				page := page
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _ = l.Load(context.Background(), Query{Page: page, Size: 20})
				}()
				require.Equal(t, page, <-api.started)
			}

			first := 1 - tt.releaseLast
			close(gates[first])
			time.Sleep(20 * time.Millisecond)
			close(gates[tt.releaseLast])
			wg.Wait()

			snap := l.Snapshot()
			assert.Equal(t, []int64{2}, ids(snap.Items))
			assert.Equal(t, &models.Fingerprint{Page: 1, Size: 20}, snap.Fingerprint)
			assert.Equal(t, StatusSucceeded, snap.Status)
			assert.Nil(t, snap.InFlight)
		})
	}
}

func TestListingsLoadFailure(t *testing.T) {
	api := newFakeListingsAPI()
	api.listErr = errors.New("Failed to load listings")
	l := NewListings(api, newTestEnricher())

	snap, err := l.Load(context.Background(), Query{Page: 0, Size: 20})
	require.Error(t, err)
	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "Failed to load listings", snap.Error)
	assert.Empty(t, snap.Items)
}

func TestListingsCreatePrependsEnriched(t *testing.T) {
	l, api, _ := loadedListings(t, listing(1, 1, 10, 5))
	api.created = listing(9, 2, 11, 4)

	got, err := l.Create(context.Background(), models.ListingInput{SellerID: 2, VariantID: 11, Stock: 4})
	require.NoError(t, err)
	require.NotNil(t, got.Seller)
	assert.Equal(t, "Mobile Corner", got.Seller.ShopName)

	assert.Equal(t, []int64{9, 1}, ids(l.Items()))
	assert.Equal(t, StatusSucceeded, l.Snapshot().MutationStatus)
}

func TestListingsUpdateMergesReturnedFields(t *testing.T) {
	l, api, enricher := loadedListings(t, listing(1, 1, 10, 5))
	before := enricher.calls.Load()

	api.patch = models.ListingPatch{
		Stock:          models.Some(8),
		DiscountType:   models.Some(models.DiscountPercent),
		DiscountValue:  models.Some(decimal.NewFromInt(10)),
		DiscountActive: models.Some(true),
	}
	stock := 8
	got, err := l.Update(context.Background(), 1, models.ListingUpdate{SellerID: 1, Stock: &stock})
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(100).Equal(got.Price), "omitted price keeps cached value")
	assert.True(t, decimal.NewFromInt(90).Equal(got.EffectivePrice))
	assert.Equal(t, models.StockLevel{Confirmed: 8, Projected: 8}, got.Stocks)
	assert.NotNil(t, got.Variant)
	assert.Equal(t, before, enricher.calls.Load(), "relations unchanged, no re-enrichment")

	cached, ok := l.Get(1)
	require.True(t, ok)
	assert.Equal(t, 8, cached.Stock)
}

func TestListingsUpdateReenrichesOnRelink(t *testing.T) {
	l, api, enricher := loadedListings(t, listing(1, 1, 10, 5))
	before := enricher.calls.Load()

	api.patch = models.ListingPatch{VariantID: models.Some(int64(11))}
	got, err := l.Update(context.Background(), 1, models.ListingUpdate{SellerID: 1})
	require.NoError(t, err)

	assert.Equal(t, before+1, enricher.calls.Load())
	require.NotNil(t, got.Variant)
	assert.Equal(t, int64(11), got.Variant.ID)
	require.NotNil(t, got.Brand)
	assert.Equal(t, "Samsung", got.Brand.Name)
}

func TestListingsUpdateNullResetsField(t *testing.T) {
	l, api, _ := loadedListings(t, listing(1, 1, 10, 5))

	api.patch = models.ListingPatch{Active: models.Null[bool]()}
	got, err := l.Update(context.Background(), 1, models.ListingUpdate{SellerID: 1})
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestListingsDeleteSellerResolution(t *testing.T) {
	t.Run("falls back to cached seller", func(t *testing.T) {
		l, api, _ := loadedListings(t, listing(1, 7, 10, 5), listing(2, 7, 10, 5))

		require.NoError(t, l.Delete(context.Background(), 1, 0))
		assert.Equal(t, []int64{1}, api.deleted)
		assert.Equal(t, []int64{7}, api.deleteSel)
		assert.Equal(t, []int64{2}, ids(l.Items()))
	})

	t.Run("conflicting seller is rejected", func(t *testing.T) {
		l, api, _ := loadedListings(t, listing(1, 7, 10, 5))

		err := l.Delete(context.Background(), 1, 8)
		assert.ErrorIs(t, err, ErrSellerMismatch)
		assert.Empty(t, api.deleted)
		assert.Equal(t, []int64{1}, ids(l.Items()))
		assert.Equal(t, StatusFailed, l.Snapshot().MutationStatus)
	})

	t.Run("unknown seller is rejected", func(t *testing.T) {
		l, api, _ := loadedListings(t, listing(1, 7, 10, 5))

		err := l.Delete(context.Background(), 99, 0)
		assert.ErrorIs(t, err, ErrSellerRequired)
		assert.Empty(t, api.deleted)
	})

	t.Run("explicit seller for uncached listing", func(t *testing.T) {
		l, api, _ := loadedListings(t, listing(1, 7, 10, 5))

		require.NoError(t, l.Delete(context.Background(), 99, 3))
		assert.Equal(t, []int64{3}, api.deleteSel)
		assert.Equal(t, []int64{1}, ids(l.Items()))
	})
}

func TestListingsApplyBrandPatchesInPlace(t *testing.T) {
	l, _, _ := loadedListings(t, listing(1, 1, 10, 5), listing(2, 2, 11, 3))
	before := l.Items()

	n := l.ApplyBrand(models.Brand{ID: 30, Name: "Apple Inc"})
	assert.Equal(t, 1, n)

	items := l.Items()
	assert.Equal(t, []int64{1, 2}, ids(items))
	assert.Equal(t, "Apple Inc", items[0].Brand.Name)
	assert.Equal(t, "Apple Inc", items[0].Variant.Model.BrandName)
	assert.Equal(t, "Samsung", items[1].Brand.Name)

	// earlier snapshots are not mutated
	assert.Equal(t, "Apple", before[0].Brand.Name)
	assert.Equal(t, "Apple", before[0].Variant.Model.BrandName)

	assert.Equal(t, 0, l.ApplyBrand(models.Brand{ID: 99, Name: "Nokia"}))
}

func TestListingsApplyDeviceModelAndVariant(t *testing.T) {
	l, _, _ := loadedListings(t, listing(1, 1, 10, 5), listing(2, 2, 11, 3))

	n := l.ApplyDeviceModel(models.DeviceModel{ID: 21, ModelName: "Galaxy S22 Ultra", BrandID: 31, BrandName: "Samsung"})
	assert.Equal(t, 1, n)
	assert.Equal(t, "Galaxy S22 Ultra", l.Items()[1].Variant.Model.ModelName)

	n = l.ApplyVariant(models.Variant{ID: 10, DeviceModelID: 20, Storage: "512GB", Condition: models.ConditionRefurb})
	assert.Equal(t, 1, n)
	v := l.Items()[0].Variant
	assert.Equal(t, "512GB", v.Storage)
	require.NotNil(t, v.Model, "model kept when the device model did not change")
	assert.Equal(t, "iPhone 13", v.Model.ModelName)
}

func TestListingsApplyCheckoutProjectsStock(t *testing.T) {
	l, _, _ := loadedListings(t, listing(5, 1, 10, 10), listing(6, 1, 10, 2))

	applied := l.ApplyCheckout(42, []models.StockLine{
		{ListingID: 5, Quantity: 3},
		{ListingID: 6, Quantity: 5},
		{ListingID: 404, Quantity: 1},
	})
	require.True(t, applied)

	first, _ := l.Get(5)
	assert.Equal(t, models.StockLevel{Confirmed: 10, Projected: 7}, first.Stocks)
	second, _ := l.Get(6)
	assert.Equal(t, models.StockLevel{Confirmed: 2, Projected: 0}, second.Stocks)

	// the same order never applies twice
	assert.False(t, l.ApplyCheckout(42, []models.StockLine{{ListingID: 5, Quantity: 3}}))
	first, _ = l.Get(5)
	assert.Equal(t, 7, first.Stocks.Projected)
}

func TestListingsApplyCheckoutWithoutOrderID(t *testing.T) {
	l, _, _ := loadedListings(t, listing(5, 1, 10, 10))

	assert.True(t, l.ApplyCheckout(0, []models.StockLine{{ListingID: 5, Quantity: 3}}))
	assert.True(t, l.ApplyCheckout(0, []models.StockLine{{ListingID: 5, Quantity: 2}}))

	got, _ := l.Get(5)
	assert.Equal(t, 5, got.Stocks.Projected)

	// an id-less order does not block a later order with an id
	assert.True(t, l.ApplyCheckout(43, []models.StockLine{{ListingID: 5, Quantity: 1}}))
	got, _ = l.Get(5)
	assert.Equal(t, 4, got.Stocks.Projected)
}

func TestListingsRefetchReconcilesProjection(t *testing.T) {
	l, api, _ := loadedListings(t, listing(5, 1, 10, 10))
	l.ApplyCheckout(42, []models.StockLine{{ListingID: 5, Quantity: 3}})

	api.pages[0] = pageOf(listing(5, 1, 10, 6))
	_, err := l.Load(context.Background(), Query{Page: 0, Size: 20, Force: true})
	require.NoError(t, err)
	<-api.started

	got, _ := l.Get(5)
	assert.Equal(t, models.StockLevel{Confirmed: 6, Projected: 6}, got.Stocks)
}

func TestListingsCallerCancellationDoesNotAbortFetch(t *testing.T) {
	api := newFakeListingsAPI()
	api.pages[0] = pageOf(listing(1, 1, 10, 5))
	gate := api.gate(0)
	l := NewListings(api, newTestEnricher())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := l.Load(ctx, Query{Page: 0, Size: 20})
		done <- err
	}()
	<-api.started
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(gate)
	assert.Eventually(t, func() bool {
		return l.Snapshot().Status == StatusSucceeded
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, []int64{1}, ids(l.Items()))
}
