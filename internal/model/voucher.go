package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported voucher discount strategies.
type DiscountType string

const (
	// DiscountPercentage discounts a percentage of the order subtotal,
	// optionally capped by MaxDiscountAmount.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed discounts a flat currency amount.
	DiscountFixed DiscountType = "fixed"
)

// Voucher represents a voucher definition in the system.
//
// Code is globally unique and case-sensitive as stored. Name is unique only
// within the same IsOnlyForNewUser partition. MaxDiscountAmount is meaningful
// only for percentage vouchers and is forced to zero otherwise.
type Voucher struct {
	ID                string          `json:"id"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	DiscountType      DiscountType    `json:"discount_type"`
	VoucherDiscount   decimal.Decimal `json:"voucher_discount"`
	MaxDiscountAmount decimal.Decimal `json:"max_discount_amount"`
	MinimumOrderPrice decimal.Decimal `json:"minimum_order_price"`
	MaxUsage          int             `json:"max_usage"`
	TotalRedeemed     int             `json:"total_redeemed"`
	UsagePerUser      int             `json:"usage_per_user"`
	StartDate         time.Time       `json:"start_date"`
	EndDate           time.Time       `json:"end_date"`
	Status            bool            `json:"status"`
	IsOnlyForNewUser  bool            `json:"is_only_for_new_user"`
	CreatedAt         time.Time       `json:"-"` // Not exposed in API
}

// Redemption is a redemption-ledger entry keyed by (user, voucher code).
// UsageCount starts at 1 on first use and the row is deleted when a rollback
// would drop it to zero.
type Redemption struct {
	UserID      string    `json:"user_id"`
	VoucherCode string    `json:"voucher_code"`
	UsageCount  int       `json:"usage_count"`
	CreatedAt   time.Time `json:"-"`
}

// VoucherQuote is the result of pricing an order against a voucher code.
// Discount carries the computed discount amount, not the voucher magnitude.
type VoucherQuote struct {
	VoucherName       string          `json:"voucher_name"`
	Discount          decimal.Decimal `json:"voucher_discount"`
	Code              string          `json:"code"`
	DiscountType      DiscountType    `json:"discount_type"`
	MaxDiscountAmount decimal.Decimal `json:"max_discount_amount"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	IsNew             bool            `json:"is_new"`
}

// SaveVoucherRequest is the DTO shared by voucher create and update. The two
// paths apply the same rule set; only the start-date check differs (create
// requires it in the future, update does not).
type SaveVoucherRequest struct {
	Name              string           `json:"name" validate:"required,notblank,max=255"`
	DiscountType      DiscountType     `json:"discount_type" validate:"required,oneof=percentage fixed"`
	VoucherDiscount   decimal.Decimal  `json:"voucher_discount"`
	MaxDiscountAmount decimal.Decimal  `json:"max_discount_amount"`
	MinimumOrderPrice decimal.Decimal  `json:"minimum_order_price"`
	MaxUsage          *int             `json:"max_usage" validate:"required"`
	UsagePerUser      *int             `json:"usage_per_user" validate:"required"`
	StartDate         time.Time        `json:"start_date" validate:"required"`
	EndDate           time.Time        `json:"end_date" validate:"required"`
	Status            bool             `json:"status"`
	IsOnlyForNewUser  bool             `json:"is_only_for_new_user"`
	ResetCode         bool             `json:"reset_code,omitempty"` // update only
}

// UpdateVoucherStatusRequest is the DTO for PATCH /api/vouchers/update-status/:id.
type UpdateVoucherStatusRequest struct {
	Status *bool `json:"status" validate:"required"`
}

// PreviewVoucherRequest is the DTO for quoting a discount without redeeming.
type PreviewVoucherRequest struct {
	Code        string          `json:"code"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
}

// VoucherListResponse is the paginated list DTO for GET /api/vouchers/all.
type VoucherListResponse struct {
	Vouchers   []Voucher `json:"vouchers"`
	Page       int       `json:"page"`
	TotalDocs  int       `json:"total_docs"`
	TotalPages int       `json:"total_pages"`
}
