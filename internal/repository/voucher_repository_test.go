package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QuocDL/bitis-be/internal/model"
	"github.com/QuocDL/bitis-be/internal/service"
)

// mockRow implements pgx.Row for testing single-row queries.
type mockRow struct {
	scanFn func(dest ...any) error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.scanFn != nil {
		return m.scanFn(dest...)
	}
	return nil
}

// mockPool implements PoolInterface (and database.TxQuerier) for testing.
type mockPool struct {
	execFn     func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	queryRowFn func(ctx context.Context, sql string, args ...any) pgx.Row
	queryFn    func(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (m *mockPool) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	if m.execFn != nil {
		return m.execFn(ctx, sql, arguments...)
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (m *mockPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.queryRowFn != nil {
		return m.queryRowFn(ctx, sql, args...)
	}
	return &mockRow{}
}

func (m *mockPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, sql, args...)
	}
	return nil, errors.New("query not mocked")
}

func TestVoucherRepository_Insert_Success(t *testing.T) {
	var capturedSQL string
	var capturedArgs []any

	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			capturedSQL = sql
			capturedArgs = arguments
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
	}

	repo := NewVoucherRepositoryWithPool(mock)
	v := &model.Voucher{
		ID:           "v-1",
		Code:         "SUMMER10",
		Name:         "Summer Sale",
		DiscountType: model.DiscountPercentage,
	}

	err := repo.Insert(context.Background(), v)

	require.NoError(t, err)
	assert.Contains(t, capturedSQL, "INSERT INTO vouchers")
	assert.Equal(t, "v-1", capturedArgs[0])
	assert.Equal(t, "SUMMER10", capturedArgs[1])
	assert.Equal(t, "Summer Sale", capturedArgs[2])
}

func TestVoucherRepository_Insert_DuplicateName(t *testing.T) {
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, &pgconn.PgError{
				Code:           "23505",
				ConstraintName: "vouchers_name_scope_key",
			}
		},
	}

	repo := NewVoucherRepositoryWithPool(mock)

	err := repo.Insert(context.Background(), &model.Voucher{Name: "Summer Sale"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrVoucherNameExists))
}

func TestVoucherRepository_Insert_DuplicateCode(t *testing.T) {
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.CommandTag{}, &pgconn.PgError{
				Code:           "23505",
				ConstraintName: "vouchers_code_key",
			}
		},
	}

	repo := NewVoucherRepositoryWithPool(mock)

	err := repo.Insert(context.Background(), &model.Voucher{Code: "SUMMER10"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrVoucherCodeExists))
}

func TestVoucherRepository_Update_NotFound(t *testing.T) {
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}

	repo := NewVoucherRepositoryWithPool(mock)

	err := repo.Update(context.Background(), mock, &model.Voucher{ID: "ghost"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrVoucherNotFound))
}

func TestVoucherRepository_GetByCode_NotFound(t *testing.T) {
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error {
				return pgx.ErrNoRows
			}}
		},
	}

	repo := NewVoucherRepositoryWithPool(mock)

	v, err := repo.GetByCode(context.Background(), "GHOST123")

	require.NoError(t, err, "not found should not be an error")
	assert.Nil(t, v)
}

func TestVoucherRepository_GetByCode_DatabaseError(t *testing.T) {
	dbErr := errors.New("connection refused")
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return &mockRow{scanFn: func(dest ...any) error {
				return dbErr
			}}
		},
	}

	repo := NewVoucherRepositoryWithPool(mock)

	_, err := repo.GetByCode(context.Background(), "SUMMER10")

	require.Error(t, err)
	assert.True(t, errors.Is(err, dbErr))
}

func TestVoucherRepository_Delete_NotFound(t *testing.T) {
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("DELETE 0"), nil
		},
	}

	repo := NewVoucherRepositoryWithPool(mock)

	err := repo.Delete(context.Background(), "ghost")

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrVoucherNotFound))
}

func TestVoucherRepository_IncrementRedeemed_GuardsCap(t *testing.T) {
	var capturedSQL string
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			capturedSQL = sql
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}

	repo := NewVoucherRepositoryWithPool(mock)

	ok, err := repo.IncrementRedeemed(context.Background(), mock, "SUMMER10")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, capturedSQL, "total_redeemed < max_usage",
		"the increment must be conditional on the cap")
}

func TestVoucherRepository_IncrementRedeemed_CapReached(t *testing.T) {
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
	}

	repo := NewVoucherRepositoryWithPool(mock)

	ok, err := repo.IncrementRedeemed(context.Background(), mock, "SUMMER10")

	require.NoError(t, err)
	assert.False(t, ok, "a zero-row update means the cap is exhausted")
}

func TestVoucherRepository_DecrementRedeemed_NeverNegative(t *testing.T) {
	var capturedSQL string
	mock := &mockPool{
		execFn: func(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
			capturedSQL = sql
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}

	repo := NewVoucherRepositoryWithPool(mock)

	err := repo.DecrementRedeemed(context.Background(), mock, "SUMMER10")

	require.NoError(t, err)
	assert.Contains(t, capturedSQL, "total_redeemed > 0")
}

func TestVoucherRepository_ExistsByNameInScope(t *testing.T) {
	var capturedArgs []any
	mock := &mockPool{
		queryRowFn: func(ctx context.Context, sql string, args ...any) pgx.Row {
			capturedArgs = args
			return &mockRow{scanFn: func(dest ...any) error {
				*dest[0].(*bool) = true
				return nil
			}}
		},
	}

	repo := NewVoucherRepositoryWithPool(mock)

	exists, err := repo.ExistsByNameInScope(context.Background(), "Summer Sale", true, "v-1")

	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, []any{"Summer Sale", true, "v-1"}, capturedArgs)
}
