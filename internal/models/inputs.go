package models

import "github.com/shopspring/decimal"

// BrandInput is the request body for a brand update
type BrandInput struct {
	Name string `json:"name" binding:"required"`
}

// DeviceModelInput is the request body for creating or updating a device model
type DeviceModelInput struct {
	ModelName string `json:"modelName" binding:"required"`
	BrandID   int64  `json:"brandId" binding:"required"`
}

// VariantInput is the request body for creating or updating a variant
type VariantInput struct {
	DeviceModelID int64     `json:"deviceModelId" binding:"required"`
	RAM           string    `json:"ram"`
	Storage       string    `json:"storage"`
	Color         string    `json:"color"`
	Condition     Condition `json:"condition" binding:"required,oneof=NEW REFURB USED"`
}

// ListingUpdate is the request body for a listing update, nil fields are not sent
type ListingUpdate struct {
	SellerID       int64            `json:"sellerId"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	Stock          *int             `json:"stock,omitempty"`
	Active         *bool            `json:"active,omitempty"`
	DiscountType   *DiscountType    `json:"discountType,omitempty"`
	DiscountValue  *decimal.Decimal `json:"discountValue,omitempty"`
	DiscountActive *bool            `json:"discountActive,omitempty"`
}

// SellerInput is the request body for creating or updating a seller profile
type SellerInput struct {
	ShopName    string `json:"shopName" binding:"required"`
	Description string `json:"description,omitempty"`
}

// CartItemInput is the request body for adding a cart item
type CartItemInput struct {
	ListingID int64 `json:"listingId" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// QuantityInput is the request body for changing a cart item quantity
type QuantityInput struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// AuthRequest is the login request body
type AuthRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is the registration request body
type RegisterRequest struct {
	Firstname string `json:"firstname" binding:"required"`
	Lastname  string `json:"lastname" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

// AuthResponse is returned by authenticate and register
type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}
