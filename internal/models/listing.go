package models

import (
	"github.com/shopspring/decimal"
)

// DiscountType of a listing
type DiscountType string

// Discount types
const (
	DiscountNone    DiscountType = "NONE"
	DiscountPercent DiscountType = "PERCENT"
)

var hundred = decimal.NewFromInt(100)

// Listing is a seller's offer for a variant
type Listing struct {
	ID             int64           `json:"id"`
	SellerID       int64           `json:"sellerId"`
	VariantID      int64           `json:"variantId"`
	Title          string          `json:"title,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Stock          int             `json:"stock"`
	Active         bool            `json:"active"`
	DiscountType   DiscountType    `json:"discountType"`
	DiscountValue  decimal.Decimal `json:"discountValue"`
	DiscountActive bool            `json:"discountActive"`
	EffectivePrice decimal.Decimal `json:"effectivePrice"`
}

// ComputeEffectivePrice returns price with an active percent discount applied
func (l Listing) ComputeEffectivePrice() decimal.Decimal {
	if l.DiscountActive && l.DiscountType == DiscountPercent {
		return l.Price.Mul(decimal.NewFromInt(1).Sub(l.DiscountValue.Div(hundred)))
	}
	return l.Price
}

// StockLevel separates the server-confirmed stock from the client projection.
// Projected is only advisory until the next wholesale refetch.
type StockLevel struct {
	Confirmed int `json:"confirmed"`
	Projected int `json:"projected"`
}

// EnrichedListing is a listing joined with its related entities.
// A nil relation means the join was unavailable.
type EnrichedListing struct {
	Listing
	Variant *Variant   `json:"variant"`
	Seller  *Seller    `json:"seller"`
	Brand   *Brand     `json:"brand"`
	Stocks  StockLevel `json:"stocks"`
}

// Bare wraps a listing without relations
func Bare(l Listing) EnrichedListing {
	l.EffectivePrice = l.ComputeEffectivePrice()
	return EnrichedListing{
		Listing: l,
		Stocks:  StockLevel{Confirmed: l.Stock, Projected: l.Stock},
	}
}

// ListingInput is the request body for creating a listing
type ListingInput struct {
	SellerID       int64           `json:"sellerId"`
	VariantID      int64           `json:"variantId"`
	Price          decimal.Decimal `json:"price"`
	Stock          int             `json:"stock"`
	Active         bool            `json:"active"`
	DiscountType   DiscountType    `json:"discountType,omitempty"`
	DiscountValue  decimal.Decimal `json:"discountValue"`
	DiscountActive bool            `json:"discountActive"`
}

// ListingPatch is a partial listing as returned by an update.
// Omitted and explicitly null fields stay distinguishable.
type ListingPatch struct {
	ID             int64                     `json:"id"`
	SellerID       Optional[int64]           `json:"sellerId"`
	VariantID      Optional[int64]           `json:"variantId"`
	Title          Optional[string]          `json:"title"`
	Price          Optional[decimal.Decimal] `json:"price"`
	Stock          Optional[int]             `json:"stock"`
	Active         Optional[bool]            `json:"active"`
	DiscountType   Optional[DiscountType]    `json:"discountType"`
	DiscountValue  Optional[decimal.Decimal] `json:"discountValue"`
	DiscountActive Optional[bool]            `json:"discountActive"`
}

// MergeListing applies a patch field by field onto a cached listing.
// Omitted fields keep the cached value, explicit nulls reset to the zero value.
func MergeListing(dst EnrichedListing, p ListingPatch) EnrichedListing {
	l := dst.Listing
	l.SellerID = p.SellerID.Apply(l.SellerID)
	l.VariantID = p.VariantID.Apply(l.VariantID)
	l.Title = p.Title.Apply(l.Title)
	l.Price = p.Price.Apply(l.Price)
	l.Stock = p.Stock.Apply(l.Stock)
	l.Active = p.Active.Apply(l.Active)
	l.DiscountType = p.DiscountType.Apply(l.DiscountType)
	l.DiscountValue = p.DiscountValue.Apply(l.DiscountValue)
	l.DiscountActive = p.DiscountActive.Apply(l.DiscountActive)
	l.EffectivePrice = l.ComputeEffectivePrice()

	dst.Listing = l
	if p.Stock.Set {
		// a server stock value is authoritative and replaces the projection
		dst.Stocks = StockLevel{Confirmed: l.Stock, Projected: l.Stock}
	}
	return dst
}
