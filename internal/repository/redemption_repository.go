package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/QuocDL/bitis-be/internal/model"
	"github.com/QuocDL/bitis-be/pkg/database"
)

// RedemptionRepository provides data access for the redemption ledger.
type RedemptionRepository struct {
	pool PoolInterface
}

// NewRedemptionRepository creates a new RedemptionRepository with the given pool.
func NewRedemptionRepository(pool *pgxpool.Pool) *RedemptionRepository {
	return &RedemptionRepository{pool: pool}
}

// NewRedemptionRepositoryWithPool creates a new RedemptionRepository with a
// custom pool interface. This is primarily used for testing.
func NewRedemptionRepositoryWithPool(pool PoolInterface) *RedemptionRepository {
	return &RedemptionRepository{pool: pool}
}

// Get retrieves the ledger entry for a (user, voucher code) pair.
// Returns nil, nil if no entry exists.
func (r *RedemptionRepository) Get(ctx context.Context, userID, code string) (*model.Redemption, error) {
	var red model.Redemption
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, voucher_code, usage_count, created_at
		 FROM voucher_redemptions WHERE user_id = $1 AND voucher_code = $2`,
		userID, code).Scan(&red.UserID, &red.VoucherCode, &red.UsageCount, &red.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get redemption %s/%s: %w", userID, code, err)
	}
	return &red, nil
}

// RedeemOnce records one redemption atomically: it creates the ledger entry at
// usage_count 1, or increments it only while the count is still below limit.
// A single conditional upsert, so two concurrent redemptions cannot both slip
// past the cap. Returns false when the per-user limit is exhausted.
// Must be called within the order transaction.
func (r *RedemptionRepository) RedeemOnce(ctx context.Context, tx database.TxQuerier, userID, code string, limit int) (bool, error) {
	tag, err := tx.Exec(ctx,
		`INSERT INTO voucher_redemptions (user_id, voucher_code, usage_count)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (user_id, voucher_code)
		 DO UPDATE SET usage_count = voucher_redemptions.usage_count + 1
		 WHERE voucher_redemptions.usage_count < $3`,
		userID, code, limit)
	if err != nil {
		return false, fmt.Errorf("redeem voucher %s for user %s: %w", code, userID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Release reverses one redemption: decrements usage_count, deleting the entry
// when it would drop to zero. A missing entry is a benign no-op; the returned
// bool reports whether a redemption was actually released.
func (r *RedemptionRepository) Release(ctx context.Context, tx database.TxQuerier, userID, code string) (bool, error) {
	tag, err := tx.Exec(ctx,
		`UPDATE voucher_redemptions SET usage_count = usage_count - 1
		 WHERE user_id = $1 AND voucher_code = $2 AND usage_count > 1`,
		userID, code)
	if err != nil {
		return false, fmt.Errorf("release redemption %s/%s: %w", userID, code, err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	tag, err = tx.Exec(ctx,
		`DELETE FROM voucher_redemptions WHERE user_id = $1 AND voucher_code = $2`,
		userID, code)
	if err != nil {
		return false, fmt.Errorf("delete redemption %s/%s: %w", userID, code, err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteByCode drops every ledger entry for a voucher code. Used when a
// voucher's code is regenerated: the entries reference the retired code, and
// past redemptions must not count against the replacement.
func (r *RedemptionRepository) DeleteByCode(ctx context.Context, tx database.TxQuerier, code string) error {
	if _, err := tx.Exec(ctx,
		`DELETE FROM voucher_redemptions WHERE voucher_code = $1`, code); err != nil {
		return fmt.Errorf("delete redemptions for %s: %w", code, err)
	}
	return nil
}
