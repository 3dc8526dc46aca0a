package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"phone-storefront/internal/models"

	"github.com/stretchr/testify/mock"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Meta().EventType)
	}
	return out
}

type staticTokens string

func (s staticTokens) Token(context.Context) (string, error) {
	return string(s), nil
}

type mockCatalogAPI struct {
	mock.Mock
}

func (m *mockCatalogAPI) ListBrands(ctx context.Context) ([]models.Brand, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Brand), args.Error(1)
}

func (m *mockCatalogAPI) ListDeviceModels(ctx context.Context) ([]models.DeviceModel, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.DeviceModel), args.Error(1)
}

func (m *mockCatalogAPI) ListVariants(ctx context.Context) ([]models.Variant, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Variant), args.Error(1)
}

func (m *mockCatalogAPI) UpdateBrand(ctx context.Context, id int64, in models.BrandInput) (models.Brand, error) {
	args := m.Called(ctx, id, in)
	return args.Get(0).(models.Brand), args.Error(1)
}

func (m *mockCatalogAPI) CreateDeviceModel(ctx context.Context, in models.DeviceModelInput) (models.DeviceModel, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(models.DeviceModel), args.Error(1)
}

func (m *mockCatalogAPI) UpdateDeviceModel(ctx context.Context, id int64, in models.DeviceModelInput) (models.DeviceModel, error) {
	args := m.Called(ctx, id, in)
	return args.Get(0).(models.DeviceModel), args.Error(1)
}

func (m *mockCatalogAPI) CreateVariant(ctx context.Context, in models.VariantInput) (models.Variant, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(models.Variant), args.Error(1)
}

func (m *mockCatalogAPI) UpdateVariant(ctx context.Context, id int64, in models.VariantInput) (models.Variant, error) {
	args := m.Called(ctx, id, in)
	return args.Get(0).(models.Variant), args.Error(1)
}

// fakeListingsAPI serves pages keyed by page number. A page with a gate
// blocks until the gate is closed; started receives the page number of
// every fetch that begins.
type fakeListingsAPI struct {
	mu      sync.Mutex
	pages   map[int]models.Page[models.Listing]
	gates   map[int]chan struct{}
	listErr error
	started chan int
	calls   atomic.Int32

	created   models.Listing
	patch     models.ListingPatch
	deleted   []int64
	deleteSel []int64
}

func newFakeListingsAPI() *fakeListingsAPI {
	return &fakeListingsAPI{
		pages:   make(map[int]models.Page[models.Listing]),
		gates:   make(map[int]chan struct{}),
		started: make(chan int, 16),
	}
}

func (f *fakeListingsAPI) gate(page int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := make(chan struct{})
	f.gates[page] = g
	return g
}

func (f *fakeListingsAPI) ListListings(_ context.Context, fp models.Fingerprint) (models.Page[models.Listing], error) {
	f.calls.Add(1)
	f.started <- fp.Page

	f.mu.Lock()
	g := f.gates[fp.Page]
	f.mu.Unlock()
	if g != nil {
		<-g
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return models.Page[models.Listing]{}, f.listErr
	}
	return f.pages[fp.Page], nil
}

func (f *fakeListingsAPI) CreateListing(_ context.Context, in models.ListingInput) (models.Listing, error) {
	return f.created, nil
}

func (f *fakeListingsAPI) UpdateListing(_ context.Context, id int64, in models.ListingUpdate) (models.ListingPatch, error) {
	p := f.patch
	p.ID = id
	return p, nil
}

func (f *fakeListingsAPI) DeleteListing(_ context.Context, id, sellerID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	f.deleteSel = append(f.deleteSel, sellerID)
	return nil
}

// stubEnricher attaches the variant and seller from its maps
type stubEnricher struct {
	variants map[int64]models.Variant
	sellers  map[int64]models.Seller
	calls    atomic.Int32
}

func (s *stubEnricher) Enrich(_ context.Context, l models.Listing) models.EnrichedListing {
	s.calls.Add(1)
	out := models.Bare(l)
	if v, ok := s.variants[l.VariantID]; ok {
		out.Variant = &v
		if v.Model != nil {
			out.Brand = &models.Brand{ID: v.Model.BrandID, Name: v.Model.BrandName}
		}
	}
	if sel, ok := s.sellers[l.SellerID]; ok {
		out.Seller = &sel
	}
	return out
}

func (s *stubEnricher) EnrichAll(ctx context.Context, ls []models.Listing) []models.EnrichedListing {
	out := make([]models.EnrichedListing, len(ls))
	for i := range ls {
		out[i] = s.Enrich(ctx, ls[i])
	}
	return out
}

type mockCartAPI struct {
	mock.Mock
}

func (m *mockCartAPI) GetMyCart(ctx context.Context) (models.Cart, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Cart), args.Error(1)
}

func (m *mockCartAPI) AddCartItem(ctx context.Context, in models.CartItemInput) (models.Cart, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(models.Cart), args.Error(1)
}

func (m *mockCartAPI) UpdateCartItem(ctx context.Context, listingID int64, quantity int) (models.Cart, error) {
	args := m.Called(ctx, listingID, quantity)
	return args.Get(0).(models.Cart), args.Error(1)
}

func (m *mockCartAPI) RemoveCartItem(ctx context.Context, listingID int64) (models.Cart, error) {
	args := m.Called(ctx, listingID)
	return args.Get(0).(models.Cart), args.Error(1)
}

func (m *mockCartAPI) ClearCart(ctx context.Context) (models.Cart, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Cart), args.Error(1)
}

type mockOrdersAPI struct {
	mock.Mock
}

func (m *mockOrdersAPI) ListMyOrders(ctx context.Context, fp models.Fingerprint) (models.Page[models.Order], error) {
	args := m.Called(ctx, fp)
	return args.Get(0).(models.Page[models.Order]), args.Error(1)
}
