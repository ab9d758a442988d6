package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsRepository_OrderTotals(t *testing.T) {
	var gotSQL string
	var gotArgs []any
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			gotSQL = sql
			gotArgs = args
			return &mockRow{scanFn: func(dest ...any) error {
				*dest[0].(*int) = 40
				*dest[1].(*int) = 4
				*dest[2].(*int) = 30
				*dest[3].(*decimal.Decimal) = decimal.NewFromInt(9300000)
				return nil
			}}
		},
	}
	repo := NewStatsRepositoryWithPool(mock)
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	totals, err := repo.OrderTotals(context.Background(), from, to)

	require.NoError(t, err)
	assert.Equal(t, 40, totals.Total)
	assert.Equal(t, 4, totals.Cancelled)
	assert.Equal(t, 30, totals.Successful)
	assert.True(t, totals.Revenue.Equal(decimal.NewFromInt(9300000)))
	assert.Contains(t, gotSQL, "FILTER (WHERE status = 'cancelled')")
	assert.Contains(t, gotSQL, "FILTER (WHERE status = 'done' AND is_paid)")
	assert.Equal(t, []any{from, to}, gotArgs)
}

func TestStatsRepository_CountUsersCreated(t *testing.T) {
	var gotSQL string
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			gotSQL = sql
			return &mockRow{scanFn: func(dest ...any) error {
				*dest[0].(*int) = 12
				return nil
			}}
		},
	}
	repo := NewStatsRepositoryWithPool(mock)

	n, err := repo.CountUsersCreated(context.Background(), time.Now().AddDate(0, -1, 0), time.Now())

	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Contains(t, gotSQL, "FROM users WHERE created_at >= $1 AND created_at < $2")
}

func TestStatsRepository_OrderTotals_DatabaseError(t *testing.T) {
	dbErr := errors.New("connection refused")
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error { return dbErr }}
		},
	}
	repo := NewStatsRepositoryWithPool(mock)

	_, err := repo.OrderTotals(context.Background(), time.Now(), time.Now())

	require.Error(t, err)
	assert.True(t, errors.Is(err, dbErr))
}
