package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/QuocDL/bitis-be/internal/model"
	"github.com/QuocDL/bitis-be/pkg/database"
)

// VoucherReaderInterface is the voucher access needed during redemption.
type VoucherReaderInterface interface {
	GetByCode(ctx context.Context, code string) (*model.Voucher, error)
	IncrementRedeemed(ctx context.Context, tx database.TxQuerier, code string) (bool, error)
	DecrementRedeemed(ctx context.Context, tx database.TxQuerier, code string) error
}

// LedgerInterface is the redemption-ledger access needed during redemption.
type LedgerInterface interface {
	Get(ctx context.Context, userID, code string) (*model.Redemption, error)
	RedeemOnce(ctx context.Context, tx database.TxQuerier, userID, code string, limit int) (bool, error)
	Release(ctx context.Context, tx database.TxQuerier, userID, code string) (bool, error)
}

// UserReaderInterface resolves users during validation.
type UserReaderInterface interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RedemptionService validates vouchers against an order context and records
// usage. Validation (PreviewDiscount) is read-only; the state change (Redeem)
// runs inside the caller's order transaction so an abort anywhere rolls the
// ledger back with it.
type RedemptionService struct {
	pool     TxBeginner
	vouchers VoucherReaderInterface
	ledger   LedgerInterface
	users    UserReaderInterface
	now      func() time.Time
}

// NewRedemptionService creates a RedemptionService with the given pool and
// repositories.
func NewRedemptionService(pool *pgxpool.Pool, vouchers VoucherReaderInterface, ledger LedgerInterface, users UserReaderInterface) *RedemptionService {
	return &RedemptionService{
		pool:     pool,
		vouchers: vouchers,
		ledger:   ledger,
		users:    users,
		now:      time.Now,
	}
}

// NewRedemptionServiceWithTxBeginner creates a RedemptionService with a custom
// TxBeginner. Primarily used for testing.
func NewRedemptionServiceWithTxBeginner(pool TxBeginner, vouchers VoucherReaderInterface, ledger LedgerInterface, users UserReaderInterface) *RedemptionService {
	return &RedemptionService{
		pool:     pool,
		vouchers: vouchers,
		ledger:   ledger,
		users:    users,
		now:      time.Now,
	}
}

// PreviewDiscount validates a voucher against an order and quotes the
// discounted total without touching the ledger, so it is safe to call while
// the user is still deciding.
//
// An empty code yields a neutral quote: zero discount, subtotal plus shipping.
// Returns:
//   - ErrVoucherNotFound if no voucher carries the code
//   - ErrUserNotFound if the user does not exist
//   - ErrVoucherNewUserOnly if a new-customer voucher meets a returning user
//   - ErrOrderBelowMinimum if the subtotal is under the voucher's minimum
//   - ErrVoucherExpired outside the validity window
//   - ErrVoucherInactive when the status toggle is off
//   - ErrUsageExhausted when the per-user or global cap is reached
func (s *RedemptionService) PreviewDiscount(ctx context.Context, code, userID string, subtotal, shippingFee decimal.Decimal) (*model.VoucherQuote, error) {
	if code == "" {
		return &model.VoucherQuote{
			Discount:          decimal.Zero,
			MaxDiscountAmount: decimal.Zero,
			TotalPrice:        subtotal.Add(shippingFee),
		}, nil
	}

	voucher, err := s.vouchers.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get voucher: %w", err)
	}
	if voucher == nil {
		return nil, ErrVoucherNotFound
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if voucher.IsOnlyForNewUser && user.OrderCount > 0 {
		return nil, ErrVoucherNewUserOnly
	}

	if subtotal.LessThan(voucher.MinimumOrderPrice) {
		return nil, ErrOrderBelowMinimum
	}

	now := s.now()
	if now.Before(voucher.StartDate) || now.After(voucher.EndDate) {
		return nil, ErrVoucherExpired
	}

	if !voucher.Status {
		return nil, ErrVoucherInactive
	}

	entry, err := s.ledger.Get(ctx, userID, code)
	if err != nil {
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	if entry != nil && entry.UsageCount >= voucher.UsagePerUser {
		return nil, ErrUsageExhausted
	}
	if voucher.TotalRedeemed >= voucher.MaxUsage {
		return nil, ErrUsageExhausted
	}

	discount := computeDiscount(voucher, subtotal)
	return &model.VoucherQuote{
		VoucherName:       voucher.Name,
		Discount:          discount,
		Code:              code,
		DiscountType:      voucher.DiscountType,
		MaxDiscountAmount: voucher.MaxDiscountAmount,
		TotalPrice:        subtotal.Sub(discount).Add(shippingFee),
		IsNew:             voucher.IsOnlyForNewUser,
	}, nil
}

// Redeem records one redemption inside tx: a conditional ledger upsert capped
// at usage_per_user plus a conditional bump of the voucher's aggregate counter
// capped at max_usage. Either cap failing returns ErrUsageExhausted and the
// surrounding transaction is expected to roll back.
func (s *RedemptionService) Redeem(ctx context.Context, tx database.TxQuerier, code, userID string) error {
	if code == "" {
		return nil
	}

	voucher, err := s.vouchers.GetByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("get voucher: %w", err)
	}
	if voucher == nil {
		return ErrVoucherNotFound
	}

	ok, err := s.ledger.RedeemOnce(ctx, tx, userID, code, voucher.UsagePerUser)
	if err != nil {
		return fmt.Errorf("redeem: %w", err)
	}
	if !ok {
		return ErrUsageExhausted
	}

	ok, err = s.vouchers.IncrementRedeemed(ctx, tx, code)
	if err != nil {
		return fmt.Errorf("increment total redeemed: %w", err)
	}
	if !ok {
		return ErrUsageExhausted
	}
	return nil
}

// Rollback reverses one recorded redemption for (user, code) after the order
// it belonged to failed post-commit (payment rejected, gateway redirect
// abandoned). Decrements the ledger entry or deletes it at zero, and reverses
// the aggregate counter. A missing entry is a benign no-op, so rollback is
// safe to call from every failure path.
func (s *RedemptionService) Rollback(ctx context.Context, code, userID string) error {
	if code == "" {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	released, err := s.ledger.Release(ctx, tx, userID, code)
	if err != nil {
		return fmt.Errorf("release redemption: %w", err)
	}
	if released {
		if err := s.vouchers.DecrementRedeemed(ctx, tx, code); err != nil {
			return fmt.Errorf("decrement total redeemed: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// computeDiscount applies the voucher's discount rule to the subtotal.
// Fixed vouchers discount their magnitude directly (already validated below
// the minimum order price at write time). Percentage vouchers discount
// subtotal * rate, capped by max_discount_amount when that cap is positive.
func computeDiscount(v *model.Voucher, subtotal decimal.Decimal) decimal.Decimal {
	if v.DiscountType != model.DiscountPercentage {
		return v.VoucherDiscount
	}

	discount := subtotal.Mul(v.VoucherDiscount).Div(decimal.NewFromInt(100))
	if v.MaxDiscountAmount.IsPositive() && discount.GreaterThan(v.MaxDiscountAmount) {
		return v.MaxDiscountAmount
	}
	return discount
}
