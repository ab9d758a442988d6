package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses form a simple machine:
// pending -> confirmed -> shipping -> delivered -> done, with cancelled
// reachable from pending/confirmed. Card orders start awaiting payment until
// the gateway callback settles them.
const (
	OrderAwaitingPayment = "awaiting_payment"
	OrderPending         = "pending"
	OrderConfirmed       = "confirmed"
	OrderShipping        = "shipping"
	OrderDelivered       = "delivered"
	OrderDone            = "done"
	OrderCancelled       = "cancelled"
)

// Payment methods.
const (
	PaymentCOD  = "cash"
	PaymentCard = "card"
)

// OrderItem is a priced snapshot of a cart line at checkout time.
type OrderItem struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
	Color     string          `json:"color,omitempty"`
	Size      string          `json:"size,omitempty"`
}

// OrderStatusLog records one status transition with who and why.
type OrderStatusLog struct {
	Status    string    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	Reason    string    `json:"reason,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// CustomerInfo is the delivery contact captured on the order.
type CustomerInfo struct {
	Name    string `json:"name" validate:"required,notblank,max=255"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required,max=20"`
	Address string `json:"address" validate:"required,notblank,max=512"`
}

// Order is a persisted order with its item snapshot and voucher accounting.
type Order struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	CustomerInfo    CustomerInfo     `json:"customer_info"`
	Items           []OrderItem      `json:"items"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	ShippingFee     decimal.Decimal  `json:"shipping_fee"`
	VoucherCode     string           `json:"voucher_code,omitempty"`
	VoucherDiscount decimal.Decimal  `json:"voucher_discount"`
	TotalPrice      decimal.Decimal  `json:"total_price"`
	PaymentMethod   string           `json:"payment_method"`
	IsPaid          bool             `json:"is_paid"`
	Status          string           `json:"status"`
	Description     string           `json:"description,omitempty"`
	StatusLogs      []OrderStatusLog `json:"status_logs,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// CheckoutItemRequest identifies one variant and quantity to purchase.
type CheckoutItemRequest struct {
	ProductID string `json:"product_id" validate:"required,notblank"`
	VariantID string `json:"variant_id" validate:"required,notblank"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// CheckoutRequest is the DTO for POST /api/checkout and /api/checkout/vnpay.
// ShippingFee is quoted by the shipping carrier upstream and passed through.
type CheckoutRequest struct {
	CustomerInfo CustomerInfo          `json:"customer_info" validate:"required"`
	Items        []CheckoutItemRequest `json:"items" validate:"required,min=1,dive"`
	ShippingFee  decimal.Decimal       `json:"shipping_fee"`
	VoucherCode  string                `json:"voucher_code"`
	Description  string                `json:"description" validate:"max=2000"`
}

// CheckoutResponse is returned by both checkout endpoints. PaymentURL is set
// only for card payments.
type CheckoutResponse struct {
	Order      *Order `json:"order,omitempty"`
	PaymentURL string `json:"checkout,omitempty"`
}

// OrderListResponse is the paginated order list DTO.
type OrderListResponse struct {
	Orders     []Order `json:"orders"`
	Page       int     `json:"page"`
	TotalDocs  int     `json:"total_docs"`
	TotalPages int     `json:"total_pages"`
}
