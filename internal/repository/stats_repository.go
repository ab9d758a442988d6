package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/QuocDL/bitis-be/internal/model"
)

// StatsRepository aggregates order, user and product activity for admin
// reports. All windows are half-open: [from, to).
type StatsRepository struct {
	pool PoolInterface
}

// NewStatsRepository creates a new StatsRepository with the given pool.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// NewStatsRepositoryWithPool creates a StatsRepository with a custom pool
// interface. This is primarily used for testing.
func NewStatsRepositoryWithPool(pool PoolInterface) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// OrderTotals counts orders created in the window, broken down into cancelled
// and successful subsets, with the revenue of the successful ones.
func (r *StatsRepository) OrderTotals(ctx context.Context, from, to time.Time) (*model.OrderTotals, error) {
	var t model.OrderTotals
	err := r.pool.QueryRow(ctx,
		`SELECT count(*),
		        count(*) FILTER (WHERE status = 'cancelled'),
		        count(*) FILTER (WHERE status = 'done' AND is_paid),
		        COALESCE(sum(total_price) FILTER (WHERE status = 'done' AND is_paid), 0)
		 FROM orders WHERE created_at >= $1 AND created_at < $2`,
		from, to).Scan(&t.Total, &t.Cancelled, &t.Successful, &t.Revenue)
	if err != nil {
		return nil, fmt.Errorf("aggregate order totals: %w", err)
	}
	return &t, nil
}

// CountUsersCreated counts accounts registered in the window.
func (r *StatsRepository) CountUsersCreated(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM users WHERE created_at >= $1 AND created_at < $2`,
		from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count new users: %w", err)
	}
	return n, nil
}

// CountProductsCreated counts products added in the window.
func (r *StatsRepository) CountProductsCreated(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM products WHERE created_at >= $1 AND created_at < $2`,
		from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count new products: %w", err)
	}
	return n, nil
}

// OrdersByDay groups order volume and revenue per calendar day. Days are cut
// in Vietnam local time regardless of the session timezone, so a late-night
// order lands on the day the customer placed it.
func (r *StatsRepository) OrdersByDay(ctx context.Context, from, to time.Time) ([]model.DailyOrderStat, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT to_char((created_at AT TIME ZONE 'Asia/Ho_Chi_Minh')::date, 'Mon DD'),
		        count(*), COALESCE(sum(total_price), 0)
		 FROM orders
		 WHERE created_at >= $1 AND created_at < $2
		 GROUP BY (created_at AT TIME ZONE 'Asia/Ho_Chi_Minh')::date
		 ORDER BY (created_at AT TIME ZONE 'Asia/Ho_Chi_Minh')::date`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("aggregate orders by day: %w", err)
	}
	defer rows.Close()

	stats := []model.DailyOrderStat{}
	for rows.Next() {
		var s model.DailyOrderStat
		if err := rows.Scan(&s.Date, &s.TotalOrders, &s.TotalRevenue); err != nil {
			return nil, fmt.Errorf("scan daily stat row: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily stat rows: %w", err)
	}
	return stats, nil
}
