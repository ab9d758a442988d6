package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/QuocDL/bitis-be/internal/model"
	"github.com/QuocDL/bitis-be/internal/service"
	"github.com/QuocDL/bitis-be/pkg/database"
)

const orderColumns = `id, user_id, customer_name, customer_email, customer_phone, customer_address,
	subtotal, shipping_fee, voucher_code, voucher_discount, total_price,
	payment_method, is_paid, status, description, created_at`

// OrderRepository provides data access for orders, their item snapshots and
// status logs.
type OrderRepository struct {
	pool PoolInterface
}

// NewOrderRepository creates a new OrderRepository with the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// NewOrderRepositoryWithPool creates an OrderRepository with a custom pool
// interface. This is primarily used for testing.
func NewOrderRepositoryWithPool(pool PoolInterface) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Insert persists an order with its items and the initial status log entry
// inside the checkout transaction.
func (r *OrderRepository) Insert(ctx context.Context, tx database.TxQuerier, o *model.Order) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO orders (id, user_id, customer_name, customer_email, customer_phone, customer_address,
			subtotal, shipping_fee, voucher_code, voucher_discount, total_price,
			payment_method, is_paid, status, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		o.ID, o.UserID, o.CustomerInfo.Name, o.CustomerInfo.Email, o.CustomerInfo.Phone, o.CustomerInfo.Address,
		o.Subtotal, o.ShippingFee, o.VoucherCode, o.VoucherDiscount, o.TotalPrice,
		o.PaymentMethod, o.IsPaid, o.Status, o.Description)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (order_id, product_id, variant_id, name, price, quantity, image, color_name, size_name)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			o.ID, it.ProductID, it.VariantID, it.Name, it.Price, it.Quantity, it.Image, it.Color, it.Size)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	for _, lg := range o.StatusLogs {
		if err := r.AppendStatusLog(ctx, tx, o.ID, lg); err != nil {
			return err
		}
	}
	return nil
}

// AppendStatusLog records one status transition.
func (r *OrderRepository) AppendStatusLog(ctx context.Context, tx database.TxQuerier, orderID string, lg model.OrderStatusLog) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO order_status_logs (order_id, status, changed_by, reason) VALUES ($1, $2, $3, $4)`,
		orderID, lg.Status, lg.ChangedBy, lg.Reason)
	if err != nil {
		return fmt.Errorf("append status log for %s: %w", orderID, err)
	}
	return nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.CustomerInfo.Name,
		&o.CustomerInfo.Email,
		&o.CustomerInfo.Phone,
		&o.CustomerInfo.Address,
		&o.Subtotal,
		&o.ShippingFee,
		&o.VoucherCode,
		&o.VoucherDiscount,
		&o.TotalPrice,
		&o.PaymentMethod,
		&o.IsPaid,
		&o.Status,
		&o.Description,
		&o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetByID retrieves an order with its items and status logs.
// Returns nil, nil if the order is not found.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}

	items, err := r.itemsFor(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	logs, err := r.logsFor(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.StatusLogs = logs
	return o, nil
}

// GetForUpdate retrieves an order with a row lock inside a transaction.
// Returns service.ErrOrderNotFound if the order doesn't exist.
func (r *OrderRepository) GetForUpdate(ctx context.Context, tx database.TxQuerier, id string) (*model.Order, error) {
	o, err := scanOrder(tx.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order for update %s: %w", id, err)
	}

	items, err := r.itemsForTx(ctx, tx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *OrderRepository) itemsFor(ctx context.Context, orderID string) ([]model.OrderItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT product_id, variant_id, name, price, quantity, image, color_name, size_name
		 FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items %s: %w", orderID, err)
	}
	return collectOrderItems(rows)
}

func (r *OrderRepository) itemsForTx(ctx context.Context, tx database.TxQuerier, orderID string) ([]model.OrderItem, error) {
	rows, err := tx.Query(ctx,
		`SELECT product_id, variant_id, name, price, quantity, image, color_name, size_name
		 FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items %s: %w", orderID, err)
	}
	return collectOrderItems(rows)
}

func collectOrderItems(rows pgx.Rows) ([]model.OrderItem, error) {
	defer rows.Close()
	items := []model.OrderItem{}
	for rows.Next() {
		var it model.OrderItem
		err := rows.Scan(&it.ProductID, &it.VariantID, &it.Name, &it.Price, &it.Quantity,
			&it.Image, &it.Color, &it.Size)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}

func (r *OrderRepository) logsFor(ctx context.Context, orderID string) ([]model.OrderStatusLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT status, changed_by, reason, changed_at
		 FROM order_status_logs WHERE order_id = $1 ORDER BY changed_at`, orderID)
	if err != nil {
		return nil, fmt.Errorf("get status logs %s: %w", orderID, err)
	}
	defer rows.Close()

	logs := []model.OrderStatusLog{}
	for rows.Next() {
		var lg model.OrderStatusLog
		if err := rows.Scan(&lg.Status, &lg.ChangedBy, &lg.Reason, &lg.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan status log: %w", err)
		}
		logs = append(logs, lg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status logs: %w", err)
	}
	return logs, nil
}

// SetStatus updates an order's status and paid flag inside the caller's
// transaction.
func (r *OrderRepository) SetStatus(ctx context.Context, tx database.TxQuerier, id, status string, isPaid bool, description string) error {
	tag, err := tx.Exec(ctx,
		`UPDATE orders SET status = $2, is_paid = $3, description = $4 WHERE id = $1`,
		id, status, isPaid, description)
	if err != nil {
		return fmt.Errorf("set order status %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrOrderNotFound
	}
	return nil
}

// List returns a page of orders, newest first, optionally filtered by a
// case-insensitive customer-name search and/or owning user.
func (r *OrderRepository) List(ctx context.Context, userID, search string, limit, offset int) ([]model.Order, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM orders
		 WHERE ($1 = '' OR user_id::text = $1)
		   AND ($2 = '' OR customer_name ILIKE '%' || $2 || '%')`, userID, search).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE ($1 = '' OR user_id::text = $1)
		   AND ($2 = '' OR customer_name ILIKE '%' || $2 || '%')
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`, userID, search, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, total, nil
}
