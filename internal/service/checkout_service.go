package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/QuocDL/bitis-be/internal/mailer"
	"github.com/QuocDL/bitis-be/internal/model"
	"github.com/QuocDL/bitis-be/internal/payment"
	"github.com/QuocDL/bitis-be/pkg/database"
)

// InventoryInterface is the product and stock access needed at checkout.
type InventoryInterface interface {
	GetVariant(ctx context.Context, variantID string) (*model.CartItem, error)
	AdjustStock(ctx context.Context, tx database.TxQuerier, variantID string, delta int) error
	AddSold(ctx context.Context, tx database.TxQuerier, productID string, qty int) error
}

// OrderStoreInterface is the order persistence needed at checkout and during
// payment settlement.
type OrderStoreInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, o *model.Order) error
	GetForUpdate(ctx context.Context, tx database.TxQuerier, id string) (*model.Order, error)
	SetStatus(ctx context.Context, tx database.TxQuerier, id, status string, isPaid bool, description string) error
	AppendStatusLog(ctx context.Context, tx database.TxQuerier, orderID string, lg model.OrderStatusLog) error
}

// CartClearerInterface removes purchased lines from the cart.
type CartClearerInterface interface {
	RemovePurchased(ctx context.Context, tx database.TxQuerier, userID string, variantIDs []string) error
}

// RedeemerInterface is the voucher workflow consumed by checkout.
type RedeemerInterface interface {
	PreviewDiscount(ctx context.Context, code, userID string, subtotal, shippingFee decimal.Decimal) (*model.VoucherQuote, error)
	Redeem(ctx context.Context, tx database.TxQuerier, code, userID string) error
	Rollback(ctx context.Context, code, userID string) error
}

// PaymentGateway builds and verifies VNPay payment exchanges.
type PaymentGateway interface {
	BuildPaymentURL(req payment.PaymentRequest) string
	VerifySignature(params map[string]string) bool
}

// CheckoutService turns a cart into an order. Stock decrement, voucher
// redemption, order insert and cart cleanup commit or roll back as one
// transaction, so a failure partway leaves nothing half-applied.
type CheckoutService struct {
	pool      TxBeginner
	inventory InventoryInterface
	orders    OrderStoreInterface
	cart      CartClearerInterface
	vouchers  RedeemerInterface
	gateway   PaymentGateway
	mail      mailer.Mailer
	now       func() time.Time
}

// NewCheckoutService creates a CheckoutService with the given pool and
// collaborators.
func NewCheckoutService(pool *pgxpool.Pool, inventory InventoryInterface, orders OrderStoreInterface, cart CartClearerInterface, vouchers RedeemerInterface, gateway PaymentGateway, mail mailer.Mailer) *CheckoutService {
	return &CheckoutService{
		pool:      pool,
		inventory: inventory,
		orders:    orders,
		cart:      cart,
		vouchers:  vouchers,
		gateway:   gateway,
		mail:      mail,
		now:       time.Now,
	}
}

// NewCheckoutServiceWithTxBeginner creates a CheckoutService with a custom
// TxBeginner. Primarily used for testing.
func NewCheckoutServiceWithTxBeginner(pool TxBeginner, inventory InventoryInterface, orders OrderStoreInterface, cart CartClearerInterface, vouchers RedeemerInterface, gateway PaymentGateway, mail mailer.Mailer) *CheckoutService {
	return &CheckoutService{
		pool:      pool,
		inventory: inventory,
		orders:    orders,
		cart:      cart,
		vouchers:  vouchers,
		gateway:   gateway,
		mail:      mail,
		now:       time.Now,
	}
}

// PlaceOrder prices the requested items server-side, applies the voucher and
// writes the order. COD orders start pending and get a confirmation email.
// Card orders start awaiting payment and the response carries the signed
// VNPay redirect URL; the stock and voucher holds they took are released by
// HandleVNPayReturn if the gateway reports failure.
func (s *CheckoutService) PlaceOrder(ctx context.Context, userID, clientIP string, req *model.CheckoutRequest, paymentMethod string) (*model.CheckoutResponse, error) {
	items, subtotal, err := s.priceItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	quote, err := s.vouchers.PreviewDiscount(ctx, req.VoucherCode, userID, subtotal, req.ShippingFee)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		ID:              uuid.New().String(),
		UserID:          userID,
		CustomerInfo:    req.CustomerInfo,
		Items:           items,
		Subtotal:        subtotal,
		ShippingFee:     req.ShippingFee,
		VoucherCode:     req.VoucherCode,
		VoucherDiscount: quote.Discount,
		TotalPrice:      quote.TotalPrice,
		PaymentMethod:   paymentMethod,
		Status:          model.OrderPending,
		Description:     req.Description,
		CreatedAt:       s.now(),
	}
	if paymentMethod == model.PaymentCard {
		order.Status = model.OrderAwaitingPayment
	}
	order.StatusLogs = []model.OrderStatusLog{{
		Status:    order.Status,
		ChangedBy: userID,
		Reason:    "order placed",
		ChangedAt: order.CreatedAt,
	}}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	if err := s.vouchers.Redeem(ctx, tx, req.VoucherCode, userID); err != nil {
		return nil, err
	}

	variantIDs := make([]string, 0, len(items))
	for _, it := range items {
		if err := s.inventory.AdjustStock(ctx, tx, it.VariantID, -it.Quantity); err != nil {
			return nil, err
		}
		if err := s.inventory.AddSold(ctx, tx, it.ProductID, it.Quantity); err != nil {
			return nil, err
		}
		variantIDs = append(variantIDs, it.VariantID)
	}

	if err := s.orders.Insert(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	if err := s.cart.RemovePurchased(ctx, tx, userID, variantIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit checkout: %w", err)
	}

	resp := &model.CheckoutResponse{Order: order}
	if paymentMethod == model.PaymentCard {
		resp.PaymentURL = s.gateway.BuildPaymentURL(payment.PaymentRequest{
			OrderID: order.ID,
			Amount:  order.TotalPrice,
			IPAddr:  clientIP,
		})
		return resp, nil
	}

	s.sendConfirmation(order)
	return resp, nil
}

// HandleVNPayReturn settles a card order from the gateway callback params.
// On success the order moves to pending and is marked paid. On failure the
// order is cancelled and its stock, sold counters and voucher redemption are
// restored. The returned code follows VNPay's response-code convention so the
// handler can echo it back to the gateway.
func (s *CheckoutService) HandleVNPayReturn(ctx context.Context, params map[string]string) (string, *model.Order, error) {
	if !s.gateway.VerifySignature(params) {
		return payment.CodeInvalidChecksum, nil, nil
	}

	orderID := params["vnp_TxnRef"]
	paid := params["vnp_ResponseCode"] == payment.CodeSuccess

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	order, err := s.orders.GetForUpdate(ctx, tx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return payment.CodeOrderNotFound, nil, nil
		}
		return "", nil, err
	}
	if order.Status != model.OrderAwaitingPayment {
		// Duplicate callback; the first one already settled the order.
		return payment.CodeSuccess, order, nil
	}

	if paid {
		if err := s.orders.SetStatus(ctx, tx, order.ID, model.OrderPending, true, order.Description); err != nil {
			return "", nil, err
		}
		if err := s.orders.AppendStatusLog(ctx, tx, order.ID, model.OrderStatusLog{
			Status:    model.OrderPending,
			ChangedBy: "vnpay",
			Reason:    "payment confirmed",
			ChangedAt: s.now(),
		}); err != nil {
			return "", nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return "", nil, fmt.Errorf("commit settlement: %w", err)
		}
		order.Status = model.OrderPending
		order.IsPaid = true
		s.sendConfirmation(order)
		return payment.CodeSuccess, order, nil
	}

	if err := s.restock(ctx, tx, order); err != nil {
		return "", nil, err
	}
	if err := s.orders.SetStatus(ctx, tx, order.ID, model.OrderCancelled, false, order.Description); err != nil {
		return "", nil, err
	}
	if err := s.orders.AppendStatusLog(ctx, tx, order.ID, model.OrderStatusLog{
		Status:    model.OrderCancelled,
		ChangedBy: "vnpay",
		Reason:    "payment failed",
		ChangedAt: s.now(),
	}); err != nil {
		return "", nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", nil, fmt.Errorf("commit cancellation: %w", err)
	}

	if err := s.vouchers.Rollback(ctx, order.VoucherCode, order.UserID); err != nil {
		log.Error().Err(err).Str("order_id", order.ID).Msg("failed to roll back voucher after payment failure")
	}
	order.Status = model.OrderCancelled
	return payment.CodeSuccess, order, nil
}

// priceItems resolves each requested variant and prices it from the stored
// product, never from the request. Inactive products and unknown variants are
// rejected up front; stock is only checked inside the transaction where the
// decrement is conditional anyway.
func (s *CheckoutService) priceItems(ctx context.Context, reqs []model.CheckoutItemRequest) ([]model.OrderItem, decimal.Decimal, error) {
	if len(reqs) == 0 {
		return nil, decimal.Zero, ErrCartEmpty
	}

	hundred := decimal.NewFromInt(100)
	items := make([]model.OrderItem, 0, len(reqs))
	subtotal := decimal.Zero
	for _, req := range reqs {
		v, err := s.inventory.GetVariant(ctx, req.VariantID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if v == nil || v.ProductID != req.ProductID {
			return nil, decimal.Zero, ErrVariantNotFound
		}
		if !v.IsActive {
			return nil, decimal.Zero, ErrProductNotFound
		}

		unit := v.Price.Mul(hundred.Sub(v.Discount)).Div(hundred)
		items = append(items, model.OrderItem{
			ProductID: v.ProductID,
			VariantID: v.VariantID,
			Name:      v.Name,
			Price:     unit,
			Quantity:  req.Quantity,
			Image:     v.Image,
			Color:     v.Color,
			Size:      v.Size,
		})
		subtotal = subtotal.Add(unit.Mul(decimal.NewFromInt(int64(req.Quantity))))
	}
	return items, subtotal, nil
}

// restock returns an order's quantities to inventory and reverses the sold
// counters, inside the caller's transaction.
func (s *CheckoutService) restock(ctx context.Context, tx database.TxQuerier, order *model.Order) error {
	for _, it := range order.Items {
		if err := s.inventory.AdjustStock(ctx, tx, it.VariantID, it.Quantity); err != nil {
			return err
		}
		if err := s.inventory.AddSold(ctx, tx, it.ProductID, -it.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *CheckoutService) sendConfirmation(order *model.Order) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.mail.SendOrderConfirmation(ctx, order); err != nil {
			log.Error().Err(err).Str("order_id", order.ID).Msg("failed to send order confirmation email")
		}
	}()
}
