package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/QuocDL/bitis-be/internal/model"
	"github.com/QuocDL/bitis-be/pkg/database"
)

// CartRepository provides data access for per-user cart items.
type CartRepository struct {
	pool PoolInterface
}

// NewCartRepository creates a new CartRepository with the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// NewCartRepositoryWithPool creates a CartRepository with a custom pool
// interface. This is primarily used for testing.
func NewCartRepositoryWithPool(pool PoolInterface) *CartRepository {
	return &CartRepository{pool: pool}
}

// GetItems returns the user's cart lines joined with current product and
// variant data. On success, returns an empty slice (not nil) when the cart
// is empty.
func (r *CartRepository) GetItems(ctx context.Context, userID string) ([]model.CartItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT ci.product_id, ci.variant_id, ci.quantity,
			p.name, p.price, p.discount, v.image, co.name, s.name, v.stock, c.name, p.is_active
		 FROM cart_items ci
		 JOIN products p ON p.id = ci.product_id
		 JOIN variants v ON v.id = ci.variant_id
		 JOIN colors co ON co.id = v.color_id
		 JOIN sizes s ON s.id = v.size_id
		 JOIN categories c ON c.id = p.category_id
		 WHERE ci.user_id = $1
		 ORDER BY ci.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart items for %s: %w", userID, err)
	}
	defer rows.Close()

	items := []model.CartItem{}
	for rows.Next() {
		var it model.CartItem
		err := rows.Scan(&it.ProductID, &it.VariantID, &it.Quantity,
			&it.Name, &it.Price, &it.Discount, &it.Image, &it.Color, &it.Size,
			&it.Stock, &it.Category, &it.IsActive)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}
	return items, nil
}

// GetQuantity returns the current quantity of one cart line, or 0 when absent.
func (r *CartRepository) GetQuantity(ctx context.Context, userID, variantID string) (int, error) {
	var qty int
	err := r.pool.QueryRow(ctx,
		`SELECT coalesce(sum(quantity), 0) FROM cart_items WHERE user_id = $1 AND variant_id = $2`,
		userID, variantID).Scan(&qty)
	if err != nil {
		return 0, fmt.Errorf("get cart quantity %s/%s: %w", userID, variantID, err)
	}
	return qty, nil
}

// UpsertItem sets the quantity of one cart line, inserting it if absent.
func (r *CartRepository) UpsertItem(ctx context.Context, userID, productID, variantID string, quantity int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO cart_items (user_id, product_id, variant_id, quantity)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, variant_id) DO UPDATE SET quantity = $4`,
		userID, productID, variantID, quantity)
	if err != nil {
		return fmt.Errorf("upsert cart item %s/%s: %w", userID, variantID, err)
	}
	return nil
}

// SetQuantity updates one cart line quantity. Returns false when the line
// does not exist.
func (r *CartRepository) SetQuantity(ctx context.Context, userID, variantID string, quantity int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE cart_items SET quantity = $3 WHERE user_id = $1 AND variant_id = $2`,
		userID, variantID, quantity)
	if err != nil {
		return false, fmt.Errorf("set cart quantity %s/%s: %w", userID, variantID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveItem deletes one cart line. Missing lines are a no-op.
func (r *CartRepository) RemoveItem(ctx context.Context, userID, variantID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND variant_id = $2`, userID, variantID)
	if err != nil {
		return fmt.Errorf("remove cart item %s/%s: %w", userID, variantID, err)
	}
	return nil
}

// RemovePurchased clears the purchased variants from the user's cart inside
// the checkout transaction.
func (r *CartRepository) RemovePurchased(ctx context.Context, tx database.TxQuerier, userID string, variantIDs []string) error {
	if len(variantIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND variant_id = ANY($2)`, userID, variantIDs)
	if err != nil {
		return fmt.Errorf("remove purchased items for %s: %w", userID, err)
	}
	return nil
}
