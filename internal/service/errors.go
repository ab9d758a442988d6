package service

import "errors"

// Voucher errors. Validation failures and state conflicts are distinct kinds
// so callers can branch on semantics rather than message text.
var (
	// ErrVoucherNotFound is returned when no voucher with the given code or id exists
	ErrVoucherNotFound = errors.New("voucher not found")

	// ErrVoucherNameExists is returned when a voucher name is taken within the
	// same new-user partition
	ErrVoucherNameExists = errors.New("voucher name already exists")

	// ErrVoucherCodeExists is returned when a voucher code is already taken
	ErrVoucherCodeExists = errors.New("voucher code already exists")

	// ErrVoucherExpired is returned when the current time is outside the
	// voucher's validity window
	ErrVoucherExpired = errors.New("voucher expired")

	// ErrVoucherInactive is returned when a voucher's status toggle is off
	ErrVoucherInactive = errors.New("voucher inactive")

	// ErrOrderBelowMinimum is returned when the pre-discount subtotal does not
	// reach the voucher's minimum order price
	ErrOrderBelowMinimum = errors.New("order below voucher minimum")

	// ErrUsageExhausted is returned when the per-user or the global usage cap
	// has been reached
	ErrUsageExhausted = errors.New("voucher usage exhausted")

	// ErrVoucherNewUserOnly is returned when a new-customer voucher is applied
	// by a user who has already placed an order
	ErrVoucherNewUserOnly = errors.New("voucher reserved for new customers")
)

// Account errors.
var (
	// ErrUserNotFound is returned when the referenced user does not exist
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists is returned when registering with a taken email
	ErrEmailExists = errors.New("email already registered")

	// ErrInvalidCredentials is returned on a failed login
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountInactive is returned when logging into a deactivated account
	ErrAccountInactive = errors.New("account not activated")
)

// Catalog, cart and order errors.
var (
	// ErrProductNotFound is returned when a product id does not exist
	ErrProductNotFound = errors.New("product not found")

	// ErrVariantNotFound is returned when a variant id does not exist on a product
	ErrVariantNotFound = errors.New("variant not found")

	// ErrCatalogItemNotFound is returned when a color/size/tag/category id does not exist
	ErrCatalogItemNotFound = errors.New("catalog item not found")

	// ErrCatalogNameExists is returned when a catalog entry name is taken
	ErrCatalogNameExists = errors.New("catalog name already exists")

	// ErrCartEmpty is returned when a user has no cart or no items in it
	ErrCartEmpty = errors.New("cart is empty")

	// ErrInsufficientStock is returned when a variant cannot cover the
	// requested quantity
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrOrderNotFound is returned when an order id does not exist
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidTransition is returned when an order status change is not
	// allowed from the current status
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrInvalidRequest is returned when request data is invalid or incomplete
	ErrInvalidRequest = errors.New("invalid request")
)

// RuleError is a voucher write-time rule violation (bad window, bad discount
// magnitude, non-positive caps). It maps to a 400 with its message.
type RuleError struct {
	Msg string
}

func (e *RuleError) Error() string { return e.Msg }
