package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Brand represents a phone manufacturer
type Brand struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DeviceModel represents a phone model of a brand.
// BrandName is derived from the brand collection when the model is cached.
type DeviceModel struct {
	ID        int64  `json:"id"`
	ModelName string `json:"modelName"`
	BrandID   int64  `json:"brandId"`
	BrandName string `json:"brandName,omitempty"`
}

// Variant represents a RAM/storage/color/condition configuration of a device model
type Variant struct {
	ID            int64        `json:"id"`
	DeviceModelID int64        `json:"deviceModelId"`
	RAM           string       `json:"ram"`
	Storage       string       `json:"storage"`
	Color         string       `json:"color"`
	Condition     Condition    `json:"condition"`
	Model         *DeviceModel `json:"model,omitempty"`
}

// Condition of a variant
type Condition string

// Variant conditions
const (
	ConditionNew    Condition = "NEW"
	ConditionRefurb Condition = "REFURB"
	ConditionUsed   Condition = "USED"
)

// Seller represents a shop selling listings
type Seller struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"userId"`
	ShopName    string          `json:"shopName"`
	Description string          `json:"description,omitempty"`
	Rating      decimal.Decimal `json:"rating"`
}

// User represents the authenticated account
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Role      string `json:"role"`
}

// Cart is the server-side cart of the authenticated user
type Cart struct {
	CartID int64           `json:"cartId"`
	Items  []CartItem      `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

// CartItem represents a line in the cart
type CartItem struct {
	ItemID    int64           `json:"itemId"`
	ListingID int64           `json:"listingId"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Order represents a placed order
type Order struct {
	ID            int64           `json:"id"`
	OrderNumber   string          `json:"orderNumber"`
	Status        OrderStatus     `json:"status"`
	Items         []OrderItem     `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discountTotal"`
	TaxTotal      decimal.Decimal `json:"taxTotal"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// OrderItem represents items in an order
type OrderItem struct {
	ID        int64           `json:"id"`
	ListingID int64           `json:"listingId"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// OrderStatus of an order
type OrderStatus string

// Order statuses
const (
	OrderStatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	OrderStatusPaid           OrderStatus = "PAID"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
	OrderStatusShipped        OrderStatus = "SHIPPED"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
)

// Image is metadata of a variant image
type Image struct {
	ID          int64  `json:"id"`
	VariantID   int64  `json:"variantId"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Primary     bool   `json:"primary"`
}

// Page is a paginated collection as returned by the backend
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
}

// Fingerprint identifies a paginated request
type Fingerprint struct {
	Page int `json:"page"`
	Size int `json:"size"`
}
