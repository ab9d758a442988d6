package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QuocDL/bitis-be/internal/model"
	"github.com/QuocDL/bitis-be/pkg/database"
)

// mockVoucherRepository is a mock implementation of VoucherRepositoryInterface.
type mockVoucherRepository struct {
	insertFn       func(ctx context.Context, voucher *model.Voucher) error
	updateFn       func(ctx context.Context, tx database.TxQuerier, voucher *model.Voucher) error
	updateStatusFn func(ctx context.Context, id string, status bool) error
	deleteFn       func(ctx context.Context, id string) error
	getByIDFn      func(ctx context.Context, id string) (*model.Voucher, error)
	getByCodeFn    func(ctx context.Context, code string) (*model.Voucher, error)
	existsByNameFn func(ctx context.Context, name string, isOnlyForNewUser bool, excludeID string) (bool, error)
	listFn         func(ctx context.Context, search string, limit, offset int) ([]model.Voucher, int, error)
}

func (m *mockVoucherRepository) Insert(ctx context.Context, v *model.Voucher) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, v)
	}
	return nil
}

func (m *mockVoucherRepository) Update(ctx context.Context, tx database.TxQuerier, v *model.Voucher) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, tx, v)
	}
	return nil
}

// mockLedgerPurger is a mock implementation of LedgerPurgerInterface.
type mockLedgerPurger struct {
	deleteByCodeFn func(ctx context.Context, tx database.TxQuerier, code string) error
}

func (m *mockLedgerPurger) DeleteByCode(ctx context.Context, tx database.TxQuerier, code string) error {
	if m.deleteByCodeFn != nil {
		return m.deleteByCodeFn(ctx, tx, code)
	}
	return nil
}

func (m *mockVoucherRepository) UpdateStatus(ctx context.Context, id string, status bool) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockVoucherRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockVoucherRepository) GetByID(ctx context.Context, id string) (*model.Voucher, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockVoucherRepository) GetByCode(ctx context.Context, code string) (*model.Voucher, error) {
	if m.getByCodeFn != nil {
		return m.getByCodeFn(ctx, code)
	}
	return nil, nil
}

func (m *mockVoucherRepository) ExistsByNameInScope(ctx context.Context, name string, isOnlyForNewUser bool, excludeID string) (bool, error) {
	if m.existsByNameFn != nil {
		return m.existsByNameFn(ctx, name, isOnlyForNewUser, excludeID)
	}
	return false, nil
}

func (m *mockVoucherRepository) List(ctx context.Context, search string, limit, offset int) ([]model.Voucher, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, search, limit, offset)
	}
	return []model.Voucher{}, 0, nil
}

func intPtr(i int) *int {
	return &i
}

func percentageRequest(now time.Time) *model.SaveVoucherRequest {
	return &model.SaveVoucherRequest{
		Name:              "Summer Sale",
		DiscountType:      model.DiscountPercentage,
		VoucherDiscount:   decimal.NewFromInt(10),
		MaxDiscountAmount: decimal.NewFromInt(50000),
		MinimumOrderPrice: decimal.NewFromInt(500000),
		MaxUsage:          intPtr(100),
		UsagePerUser:      intPtr(2),
		StartDate:         now.Add(time.Hour),
		EndDate:           now.Add(48 * time.Hour),
		Status:            true,
	}
}

func newVoucherService(repo *mockVoucherRepository, now time.Time) *VoucherService {
	svc := NewVoucherServiceWithTxBeginner(&mockTxBeginner{}, repo, &mockLedgerPurger{})
	svc.now = func() time.Time { return now }
	return svc
}

func TestVoucherService_Create_Success(t *testing.T) {
	now := time.Now()
	var captured *model.Voucher
	repo := &mockVoucherRepository{
		insertFn: func(ctx context.Context, v *model.Voucher) error {
			captured = v
			return nil
		},
	}
	svc := newVoucherService(repo, now)

	voucher, err := svc.Create(context.Background(), percentageRequest(now))

	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, "Summer Sale", captured.Name)
	assert.Len(t, captured.Code, 8, "generated code should be 8 characters")
	assert.NotEmpty(t, captured.ID)
	assert.Equal(t, voucher.Code, captured.Code)
}

func TestVoucherService_Create_NameExists(t *testing.T) {
	now := time.Now()
	repo := &mockVoucherRepository{
		existsByNameFn: func(ctx context.Context, name string, isOnlyForNewUser bool, excludeID string) (bool, error) {
			return true, nil
		},
	}
	svc := newVoucherService(repo, now)

	_, err := svc.Create(context.Background(), percentageRequest(now))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVoucherNameExists))
}

func TestVoucherService_Create_StartDateInPast(t *testing.T) {
	now := time.Now()
	req := percentageRequest(now)
	req.StartDate = now.Add(-time.Hour)
	svc := newVoucherService(&mockVoucherRepository{}, now)

	_, err := svc.Create(context.Background(), req)

	require.Error(t, err)
	var ruleErr *RuleError
	assert.True(t, errors.As(err, &ruleErr), "a past start date should fail the write rules on create")
}

func TestVoucherService_Update_StartDateInPast_Allowed(t *testing.T) {
	// A running voucher has a past start date; editing it must stay possible.
	now := time.Now()
	req := percentageRequest(now)
	req.StartDate = now.Add(-24 * time.Hour)
	repo := &mockVoucherRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.Voucher, error) {
			return &model.Voucher{ID: id, Code: "KEEPME99"}, nil
		},
	}
	svc := newVoucherService(repo, now)

	voucher, err := svc.Update(context.Background(), "v-1", req)

	require.NoError(t, err)
	assert.Equal(t, "KEEPME99", voucher.Code, "code should survive an update without resetCode")
}

func TestVoucherService_Update_EndDateInPast(t *testing.T) {
	now := time.Now()
	req := percentageRequest(now)
	req.StartDate = now.Add(-48 * time.Hour)
	req.EndDate = now.Add(-time.Hour)
	svc := newVoucherService(&mockVoucherRepository{}, now)

	_, err := svc.Update(context.Background(), "v-1", req)

	require.Error(t, err)
	var ruleErr *RuleError
	assert.True(t, errors.As(err, &ruleErr))
}

func TestVoucherService_Create_PercentageOver100(t *testing.T) {
	now := time.Now()
	req := percentageRequest(now)
	req.VoucherDiscount = decimal.NewFromInt(120)
	svc := newVoucherService(&mockVoucherRepository{}, now)

	_, err := svc.Create(context.Background(), req)

	require.Error(t, err)
	var ruleErr *RuleError
	assert.True(t, errors.As(err, &ruleErr))
}

func TestVoucherService_Create_NonPositiveMinimum(t *testing.T) {
	now := time.Now()
	for _, min := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-1000)} {
		req := percentageRequest(now)
		req.MinimumOrderPrice = min
		svc := newVoucherService(&mockVoucherRepository{}, now)

		_, err := svc.Create(context.Background(), req)

		require.Error(t, err)
		var ruleErr *RuleError
		assert.True(t, errors.As(err, &ruleErr), "minimum order price %s must be rejected before the insert", min)
	}
}

func TestVoucherService_Create_PercentageWithoutCap(t *testing.T) {
	now := time.Now()
	req := percentageRequest(now)
	req.MaxDiscountAmount = decimal.Zero
	svc := newVoucherService(&mockVoucherRepository{}, now)

	_, err := svc.Create(context.Background(), req)

	require.Error(t, err)
	var ruleErr *RuleError
	assert.True(t, errors.As(err, &ruleErr))
}

func TestVoucherService_Create_FixedNotBelowMinimum(t *testing.T) {
	now := time.Now()
	req := percentageRequest(now)
	req.DiscountType = model.DiscountFixed
	req.VoucherDiscount = decimal.NewFromInt(500000)
	req.MinimumOrderPrice = decimal.NewFromInt(500000)
	svc := newVoucherService(&mockVoucherRepository{}, now)

	_, err := svc.Create(context.Background(), req)

	require.Error(t, err)
	var ruleErr *RuleError
	assert.True(t, errors.As(err, &ruleErr), "fixed discount equal to the minimum must be rejected")
}

func TestVoucherService_Create_FixedZeroesDiscountCap(t *testing.T) {
	now := time.Now()
	var captured *model.Voucher
	repo := &mockVoucherRepository{
		insertFn: func(ctx context.Context, v *model.Voucher) error {
			captured = v
			return nil
		},
	}
	req := percentageRequest(now)
	req.DiscountType = model.DiscountFixed
	req.VoucherDiscount = decimal.NewFromInt(20000)
	req.MaxDiscountAmount = decimal.NewFromInt(99999)
	svc := newVoucherService(repo, now)

	_, err := svc.Create(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, captured.MaxDiscountAmount.IsZero(), "cap is meaningless for fixed vouchers and must be stored as zero")
}

func TestVoucherService_Update_ResetCode(t *testing.T) {
	now := time.Now()
	repo := &mockVoucherRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.Voucher, error) {
			return &model.Voucher{ID: id, Code: "OLDCODE1"}, nil
		},
	}
	req := percentageRequest(now)
	req.ResetCode = true
	svc := newVoucherService(repo, now)

	voucher, err := svc.Update(context.Background(), "v-1", req)

	require.NoError(t, err)
	assert.NotEqual(t, "OLDCODE1", voucher.Code)
	assert.Len(t, voucher.Code, 8)
}

func TestVoucherService_Update_ResetCode_PurgesLedger(t *testing.T) {
	// Regenerating the code retires the old one; its ledger entries must be
	// dropped in the same transaction or the code update breaks the FK.
	now := time.Now()
	var calls []string
	var purgedCode string
	committed := false
	repo := &mockVoucherRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.Voucher, error) {
			return &model.Voucher{ID: id, Code: "OLDCODE1"}, nil
		},
		updateFn: func(ctx context.Context, tx database.TxQuerier, v *model.Voucher) error {
			calls = append(calls, "update")
			return nil
		},
	}
	ledger := &mockLedgerPurger{
		deleteByCodeFn: func(ctx context.Context, tx database.TxQuerier, code string) error {
			calls = append(calls, "purge")
			purgedCode = code
			return nil
		},
	}
	pool := &mockTxBeginner{beginFn: func(ctx context.Context) (pgx.Tx, error) {
		return &mockTx{commitFn: func(ctx context.Context) error {
			committed = true
			return nil
		}}, nil
	}}
	svc := NewVoucherServiceWithTxBeginner(pool, repo, ledger)
	svc.now = func() time.Time { return now }
	req := percentageRequest(now)
	req.ResetCode = true

	_, err := svc.Update(context.Background(), "v-1", req)

	require.NoError(t, err)
	assert.Equal(t, []string{"purge", "update"}, calls, "old-code entries must be removed before the voucher row changes")
	assert.Equal(t, "OLDCODE1", purgedCode)
	assert.True(t, committed)
}

func TestVoucherService_Update_SameCode_KeepsLedger(t *testing.T) {
	now := time.Now()
	purged := false
	repo := &mockVoucherRepository{
		getByIDFn: func(ctx context.Context, id string) (*model.Voucher, error) {
			return &model.Voucher{ID: id, Code: "KEEPME99"}, nil
		},
	}
	ledger := &mockLedgerPurger{
		deleteByCodeFn: func(ctx context.Context, tx database.TxQuerier, code string) error {
			purged = true
			return nil
		},
	}
	svc := NewVoucherServiceWithTxBeginner(&mockTxBeginner{}, repo, ledger)
	svc.now = func() time.Time { return now }

	_, err := svc.Update(context.Background(), "v-1", percentageRequest(now))

	require.NoError(t, err)
	assert.False(t, purged, "an edit that keeps the code must not touch the ledger")
}

func TestVoucherService_Update_NotFound(t *testing.T) {
	now := time.Now()
	svc := newVoucherService(&mockVoucherRepository{}, now)

	_, err := svc.Update(context.Background(), "nope", percentageRequest(now))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVoucherNotFound))
}

func TestVoucherService_Create_CodeCollisionRetries(t *testing.T) {
	now := time.Now()
	calls := 0
	repo := &mockVoucherRepository{
		getByCodeFn: func(ctx context.Context, code string) (*model.Voucher, error) {
			calls++
			if calls == 1 {
				return &model.Voucher{Code: code}, nil // first candidate taken
			}
			return nil, nil
		},
	}
	svc := newVoucherService(repo, now)

	_, err := svc.Create(context.Background(), percentageRequest(now))

	require.NoError(t, err)
	assert.Equal(t, 2, calls, "generator should retry once after a collision")
}

func TestVoucherService_List_Pagination(t *testing.T) {
	var gotLimit, gotOffset int
	repo := &mockVoucherRepository{
		listFn: func(ctx context.Context, search string, limit, offset int) ([]model.Voucher, int, error) {
			gotLimit, gotOffset = limit, offset
			return []model.Voucher{{Name: "A"}}, 41, nil
		},
	}
	svc := NewVoucherServiceWithTxBeginner(&mockTxBeginner{}, repo, &mockLedgerPurger{})

	resp, err := svc.List(context.Background(), "", 3, 10)

	require.NoError(t, err)
	assert.Equal(t, 10, gotLimit)
	assert.Equal(t, 20, gotOffset)
	assert.Equal(t, 41, resp.TotalDocs)
	assert.Equal(t, 5, resp.TotalPages)
	assert.Equal(t, 3, resp.Page)
}
