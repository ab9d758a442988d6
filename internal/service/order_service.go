package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/QuocDL/bitis-be/internal/model"
	"github.com/QuocDL/bitis-be/pkg/database"
)

// OrderReaderInterface is the order access needed by the lifecycle service.
type OrderReaderInterface interface {
	GetByID(ctx context.Context, id string) (*model.Order, error)
	GetForUpdate(ctx context.Context, tx database.TxQuerier, id string) (*model.Order, error)
	SetStatus(ctx context.Context, tx database.TxQuerier, id, status string, isPaid bool, description string) error
	AppendStatusLog(ctx context.Context, tx database.TxQuerier, orderID string, lg model.OrderStatusLog) error
	List(ctx context.Context, userID, search string, limit, offset int) ([]model.Order, int, error)
}

// VoucherRollbackInterface releases a redemption after an order dies.
type VoucherRollbackInterface interface {
	Rollback(ctx context.Context, code, userID string) error
}

// transitions lists the allowed next statuses per current status. Cancelling
// is only possible before the parcel leaves; done is the customer confirming
// receipt after delivery.
var transitions = map[string][]string{
	model.OrderAwaitingPayment: {model.OrderCancelled},
	model.OrderPending:         {model.OrderConfirmed, model.OrderCancelled},
	model.OrderConfirmed:       {model.OrderShipping, model.OrderCancelled},
	model.OrderShipping:        {model.OrderDelivered},
	model.OrderDelivered:       {model.OrderDone},
}

func canTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// OrderService reads orders and walks them through the status machine.
// Cancellation restores stock and releases the voucher redemption the order
// held.
type OrderService struct {
	pool      TxBeginner
	orders    OrderReaderInterface
	inventory InventoryInterface
	vouchers  VoucherRollbackInterface
	now       func() time.Time
}

// NewOrderService creates an OrderService with the given pool and
// repositories.
func NewOrderService(pool *pgxpool.Pool, orders OrderReaderInterface, inventory InventoryInterface, vouchers VoucherRollbackInterface) *OrderService {
	return &OrderService{
		pool:      pool,
		orders:    orders,
		inventory: inventory,
		vouchers:  vouchers,
		now:       time.Now,
	}
}

// NewOrderServiceWithTxBeginner creates an OrderService with a custom
// TxBeginner. Primarily used for testing.
func NewOrderServiceWithTxBeginner(pool TxBeginner, orders OrderReaderInterface, inventory InventoryInterface, vouchers VoucherRollbackInterface) *OrderService {
	return &OrderService{
		pool:      pool,
		orders:    orders,
		inventory: inventory,
		vouchers:  vouchers,
		now:       time.Now,
	}
}

// Get retrieves one order. Non-admin requesters may only read their own.
func (s *OrderService) Get(ctx context.Context, id, requesterID, requesterRole string) (*model.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if requesterRole != model.RoleAdmin && order.UserID != requesterID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListMine returns a page of the requester's own orders.
func (s *OrderService) ListMine(ctx context.Context, userID string, page, pageSize int) (*model.OrderListResponse, error) {
	return s.list(ctx, userID, "", page, pageSize)
}

// ListAll returns a page of all orders, optionally filtered by customer name.
// Admin only; the handler enforces the role.
func (s *OrderService) ListAll(ctx context.Context, search string, page, pageSize int) (*model.OrderListResponse, error) {
	return s.list(ctx, "", search, page, pageSize)
}

func (s *OrderService) list(ctx context.Context, userID, search string, page, pageSize int) (*model.OrderListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	orders, total, err := s.orders.List(ctx, userID, search, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return &model.OrderListResponse{
		Orders:     orders,
		Page:       page,
		TotalDocs:  total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// SetStatus moves an order to the requested status, enforcing the machine.
// Customers can only cancel their own pending orders or confirm receipt of a
// delivered one; admins can drive every allowed transition. Moving to
// cancelled restores stock and releases the voucher.
func (s *OrderService) SetStatus(ctx context.Context, id, status, requesterID, requesterRole, reason string) (*model.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	order, err := s.orders.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if requesterRole != model.RoleAdmin {
		if order.UserID != requesterID {
			return nil, ErrOrderNotFound
		}
		userAllowed := (status == model.OrderCancelled && (order.Status == model.OrderPending || order.Status == model.OrderAwaitingPayment)) ||
			(status == model.OrderDone && order.Status == model.OrderDelivered)
		if !userAllowed {
			return nil, ErrInvalidTransition
		}
	}
	if !canTransition(order.Status, status) {
		return nil, ErrInvalidTransition
	}

	if status == model.OrderCancelled {
		if err := s.restock(ctx, tx, order); err != nil {
			return nil, err
		}
	}

	if err := s.orders.SetStatus(ctx, tx, id, status, order.IsPaid, order.Description); err != nil {
		return nil, err
	}
	if err := s.orders.AppendStatusLog(ctx, tx, id, model.OrderStatusLog{
		Status:    status,
		ChangedBy: requesterID,
		Reason:    reason,
		ChangedAt: s.now(),
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit status change: %w", err)
	}

	if status == model.OrderCancelled {
		if err := s.vouchers.Rollback(ctx, order.VoucherCode, order.UserID); err != nil {
			log.Error().Err(err).Str("order_id", order.ID).Msg("failed to roll back voucher after cancellation")
		}
	}

	order.Status = status
	return order, nil
}

func (s *OrderService) restock(ctx context.Context, tx database.TxQuerier, order *model.Order) error {
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
