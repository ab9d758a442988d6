package model

import "github.com/shopspring/decimal"

// CartItem is one product variant in a user's cart. Quantity is clamped to
// the variant's current stock whenever the cart is read.
type CartItem struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id"`
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name,omitempty"`
	Price     decimal.Decimal `json:"price,omitempty"`
	Discount  decimal.Decimal `json:"discount,omitempty"`
	Image     string          `json:"image,omitempty"`
	Color     string          `json:"color,omitempty"`
	Size      string          `json:"size,omitempty"`
	Stock     int             `json:"stock,omitempty"`
	Category  string          `json:"category,omitempty"`
	IsActive  bool            `json:"-"`
}

// Cart holds one user's cart items.
type Cart struct {
	UserID string     `json:"user_id"`
	Items  []CartItem `json:"items"`
}

// AddToCartRequest is the DTO for POST /api/cart/add.
type AddToCartRequest struct {
	ProductID string `json:"product_id" validate:"required,notblank"`
	VariantID string `json:"variant_id" validate:"required,notblank"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// UpdateCartItemRequest is the DTO for PATCH /api/cart/update.
type UpdateCartItemRequest struct {
	VariantID string `json:"variant_id" validate:"required,notblank"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// RemoveCartItemRequest is the DTO for DELETE /api/cart/remove.
type RemoveCartItemRequest struct {
	VariantID string `json:"variant_id" validate:"required,notblank"`
}
