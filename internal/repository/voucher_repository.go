package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/QuocDL/bitis-be/internal/model"
	"github.com/QuocDL/bitis-be/internal/service"
	"github.com/QuocDL/bitis-be/pkg/database"
)

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const voucherColumns = `id, code, name, discount_type, voucher_discount, max_discount_amount,
	minimum_order_price, max_usage, total_redeemed, usage_per_user,
	start_date, end_date, status, is_only_for_new_user, created_at`

// VoucherRepository provides data access for vouchers using pgx.
type VoucherRepository struct {
	pool PoolInterface
}

// NewVoucherRepository creates a new VoucherRepository with the given pool.
func NewVoucherRepository(pool *pgxpool.Pool) *VoucherRepository {
	return &VoucherRepository{pool: pool}
}

// NewVoucherRepositoryWithPool creates a new VoucherRepository with a custom
// pool interface. This is primarily used for testing.
func NewVoucherRepositoryWithPool(pool PoolInterface) *VoucherRepository {
	return &VoucherRepository{pool: pool}
}

func scanVoucher(row pgx.Row) (*model.Voucher, error) {
	var v model.Voucher
	err := row.Scan(
		&v.ID,
		&v.Code,
		&v.Name,
		&v.DiscountType,
		&v.VoucherDiscount,
		&v.MaxDiscountAmount,
		&v.MinimumOrderPrice,
		&v.MaxUsage,
		&v.TotalRedeemed,
		&v.UsagePerUser,
		&v.StartDate,
		&v.EndDate,
		&v.Status,
		&v.IsOnlyForNewUser,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// mapVoucherConstraint converts unique violations to the matching sentinel.
func mapVoucherConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if pgErr.ConstraintName == "vouchers_name_scope_key" {
			return service.ErrVoucherNameExists
		}
		return service.ErrVoucherCodeExists
	}
	return nil
}

// Insert inserts a new voucher.
// Returns service.ErrVoucherCodeExists / ErrVoucherNameExists on unique violations.
func (r *VoucherRepository) Insert(ctx context.Context, v *model.Voucher) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO vouchers (id, code, name, discount_type, voucher_discount, max_discount_amount,
			minimum_order_price, max_usage, usage_per_user, start_date, end_date, status, is_only_for_new_user)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		v.ID, v.Code, v.Name, v.DiscountType, v.VoucherDiscount, v.MaxDiscountAmount,
		v.MinimumOrderPrice, v.MaxUsage, v.UsagePerUser, v.StartDate, v.EndDate, v.Status, v.IsOnlyForNewUser)
	if err != nil {
		if mapped := mapVoucherConstraint(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert voucher: %w", err)
	}
	return nil
}

// Update persists all mutable voucher fields within the caller's transaction.
// Returns service.ErrVoucherNotFound if the id does not exist.
func (r *VoucherRepository) Update(ctx context.Context, tx database.TxQuerier, v *model.Voucher) error {
	tag, err := tx.Exec(ctx,
		`UPDATE vouchers SET code = $2, name = $3, discount_type = $4, voucher_discount = $5,
			max_discount_amount = $6, minimum_order_price = $7, max_usage = $8, usage_per_user = $9,
			start_date = $10, end_date = $11, status = $12, is_only_for_new_user = $13
		 WHERE id = $1`,
		v.ID, v.Code, v.Name, v.DiscountType, v.VoucherDiscount,
		v.MaxDiscountAmount, v.MinimumOrderPrice, v.MaxUsage, v.UsagePerUser,
		v.StartDate, v.EndDate, v.Status, v.IsOnlyForNewUser)
	if err != nil {
		if mapped := mapVoucherConstraint(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("update voucher %s: %w", v.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrVoucherNotFound
	}
	return nil
}

// UpdateStatus toggles a voucher's active flag.
func (r *VoucherRepository) UpdateStatus(ctx context.Context, id string, status bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE vouchers SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update voucher status %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrVoucherNotFound
	}
	return nil
}

// Delete removes a voucher definition.
func (r *VoucherRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM vouchers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete voucher %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrVoucherNotFound
	}
	return nil
}

// GetByCode retrieves a voucher by its code.
// Returns nil, nil if the voucher is not found (service layer handles this).
func (r *VoucherRepository) GetByCode(ctx context.Context, code string) (*model.Voucher, error) {
	v, err := scanVoucher(r.pool.QueryRow(ctx,
		`SELECT `+voucherColumns+` FROM vouchers WHERE code = $1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found - let service handle
		}
		return nil, fmt.Errorf("get voucher by code %s: %w", code, err)
	}
	return v, nil
}

// GetByID retrieves a voucher by its id.
// Returns nil, nil if the voucher is not found.
func (r *VoucherRepository) GetByID(ctx context.Context, id string) (*model.Voucher, error) {
	v, err := scanVoucher(r.pool.QueryRow(ctx,
		`SELECT `+voucherColumns+` FROM vouchers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get voucher by id %s: %w", id, err)
	}
	return v, nil
}

// ExistsByNameInScope reports whether another voucher uses the same name
// within the same is_only_for_new_user partition. excludeID may be empty.
func (r *VoucherRepository) ExistsByNameInScope(ctx context.Context, name string, isOnlyForNewUser bool, excludeID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM vouchers
			WHERE name = $1 AND is_only_for_new_user = $2 AND ($3 = '' OR id::text <> $3)
		)`, name, isOnlyForNewUser, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check voucher name %s: %w", name, err)
	}
	return exists, nil
}

// List returns a page of vouchers, newest first, optionally filtered by a
// case-insensitive name search.
func (r *VoucherRepository) List(ctx context.Context, search string, limit, offset int) ([]model.Voucher, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM vouchers WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')`, search).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count vouchers: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+voucherColumns+` FROM vouchers
		 WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, search, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list vouchers: %w", err)
	}
	defer rows.Close()

	vouchers := []model.Voucher{}
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan voucher row: %w", err)
		}
		vouchers = append(vouchers, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate voucher rows: %w", err)
	}
	return vouchers, total, nil
}

// IncrementRedeemed bumps the aggregate redemption counter, but only while it
// is still below max_usage. Returns false when the global cap is exhausted.
// Must be called within the redemption transaction.
func (r *VoucherRepository) IncrementRedeemed(ctx context.Context, tx database.TxQuerier, code string) (bool, error) {
	tag, err := tx.Exec(ctx,
		`UPDATE vouchers SET total_redeemed = total_redeemed + 1
		 WHERE code = $1 AND total_redeemed < max_usage`, code)
	if err != nil {
		return false, fmt.Errorf("increment redeemed for %s: %w", code, err)
	}
	return tag.RowsAffected() > 0, nil
}

// DecrementRedeemed reverses one aggregate redemption, never going below zero.
func (r *VoucherRepository) DecrementRedeemed(ctx context.Context, tx database.TxQuerier, code string) error {
	_, err := tx.Exec(ctx,
		`UPDATE vouchers SET total_redeemed = total_redeemed - 1
		 WHERE code = $1 AND total_redeemed > 0`, code)
	if err != nil {
		return fmt.Errorf("decrement redeemed for %s: %w", code, err)
	}
	return nil
}
