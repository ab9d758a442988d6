package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Variant is a sellable combination of color and size with its own stock.
type Variant struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	ColorID   string `json:"color_id"`
	SizeID    string `json:"size_id"`
	ColorName string `json:"color,omitempty"`
	SizeName  string `json:"size,omitempty"`
	Stock     int    `json:"stock"`
	Image     string `json:"image,omitempty"`
}

// Product is a catalog entry. Price is the base price; Discount is a
// storefront percentage applied before any voucher.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	CategoryID  string          `json:"category_id"`
	Category    string          `json:"category,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Variants    []Variant       `json:"variants,omitempty"`
	Sold        int             `json:"sold"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"-"`
}

// SaveVariantRequest is a variant definition inside a product create/update.
type SaveVariantRequest struct {
	ColorID string `json:"color_id" validate:"required,notblank"`
	SizeID  string `json:"size_id" validate:"required,notblank"`
	Stock   int    `json:"stock" validate:"gte=0"`
	Image   string `json:"image" validate:"omitempty,max=512"`
}

// SaveProductRequest is the DTO for product create/update. Variants must not
// repeat a (color, size) pair.
type SaveProductRequest struct {
	Name        string               `json:"name" validate:"required,notblank,max=255"`
	Description string               `json:"description" validate:"max=4000"`
	Price       decimal.Decimal      `json:"price"`
	Discount    decimal.Decimal      `json:"discount"`
	CategoryID  string               `json:"category_id" validate:"required,notblank"`
	Tags        []string             `json:"tags" validate:"omitempty,dive,notblank"`
	Variants    []SaveVariantRequest `json:"variants" validate:"required,min=1,dive"`
	IsActive    *bool                `json:"is_active"`
}

// ProductListResponse is the paginated product list DTO.
type ProductListResponse struct {
	Products   []Product `json:"products"`
	Page       int       `json:"page"`
	TotalDocs  int       `json:"total_docs"`
	TotalPages int       `json:"total_pages"`
}
