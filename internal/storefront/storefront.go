// Package storefront assembles the caches, services and event wiring of one
// storefront instance.
package storefront

import (
	"context"
	"io"

	"phone-storefront/internal/broker"
	"phone-storefront/internal/cache"
	"phone-storefront/internal/enrich"
	"phone-storefront/internal/models"
	"phone-storefront/internal/service"
	"phone-storefront/internal/session"

	"github.com/google/uuid"
)

// API is everything the storefront needs from the marketplace backend.
// *backend.Client implements it.
type API interface {
	cache.CatalogAPI
	cache.ListingsAPI
	cache.CartAPI
	cache.OrdersAPI
	enrich.Fetcher
	service.CheckoutAPI
	service.AuthAPI

	ListSellers(ctx context.Context) ([]models.Seller, error)
	GetMySeller(ctx context.Context) (models.Seller, error)
	CreateSeller(ctx context.Context, in models.SellerInput) (models.Seller, error)
	UpdateSeller(ctx context.Context, id int64, in models.SellerInput) (models.Seller, error)
	ListVariantImages(ctx context.Context, variantID int64) ([]models.Image, error)
	UploadVariantImage(ctx context.Context, variantID int64, fileName string, r io.Reader, primary bool) (models.Image, error)
	SetPrimaryImage(ctx context.Context, id int64) error
	DeleteImage(ctx context.Context, id int64) error
	ImageBytes(ctx context.Context, id int64) ([]byte, string, error)
}

// Options configure a Storefront
type Options struct {
	API      API
	Sessions session.Store
	Ledger   service.Ledger
	// Relay mirrors local events to other instances, nil disables it
	Relay             broker.MessageProducer
	Origin            string
	EnrichConcurrency int
}

// Storefront is the explicit store object: one instance of every cache and
// the services that coordinate them
type Storefront struct {
	Backend  API
	Sessions session.Store
	Bus      *broker.Bus
	Resolver *enrich.Resolver

	Catalog  *cache.Catalog
	Listings *cache.Listings
	Cart     *cache.Cart
	Orders   *cache.Orders

	Checkout *service.CheckoutService
	Session  *service.SessionService
	Sync     *service.SyncOrchestrator
}

// New wires a storefront. Handlers are subscribed in a fixed order: the
// orchestrator first, then the relay.
func New(opts Options) *Storefront {
	if opts.Sessions == nil {
		opts.Sessions = session.NewMemory()
	}
	if opts.Ledger == nil {
		opts.Ledger = service.NewMemoryLedger()
	}
	if opts.Origin == "" {
		opts.Origin = uuid.New().String()
	}

	bus := broker.NewBus(opts.Origin)
	resolver := enrich.NewResolver(opts.API, opts.EnrichConcurrency)

	sf := &Storefront{
		Backend:  opts.API,
		Sessions: opts.Sessions,
		Bus:      bus,
		Resolver: resolver,
		Catalog:  cache.NewCatalog(opts.API, bus),
		Listings: cache.NewListings(opts.API, resolver),
		Cart:     cache.NewCart(opts.API, opts.Sessions),
		Orders:   cache.NewOrders(opts.API),
	}
	sf.Checkout = service.NewCheckoutService(opts.API, opts.Sessions, bus)
	sf.Session = service.NewSessionService(opts.API, opts.Sessions, bus)
	sf.Sync = service.NewSyncOrchestrator(
		opts.Ledger,
		sf.Listings,
		sf.Cart,
		sf.Orders,
		service.NewInventoryProjector(sf.Listings),
		opts.Origin,
	)

	handler := broker.NewEventHandler()
	sf.Sync.Register(handler)
	bus.Subscribe(handler.Handle)

	if opts.Relay != nil {
		bus.Subscribe(broker.NewEventPublisher(opts.Relay, opts.Origin).Forward)
	}

	return sf
}

// Origin returns the id stamped on events of this instance
func (sf *Storefront) Origin() string {
	return sf.Bus.Origin()
}
