package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QuocDL/bitis-be/internal/model"
	"github.com/QuocDL/bitis-be/pkg/database"
)

// mockVoucherReader is a mock implementation of VoucherReaderInterface.
type mockVoucherReader struct {
	getByCodeFn func(ctx context.Context, code string) (*model.Voucher, error)
	incrementFn func(ctx context.Context, tx database.TxQuerier, code string) (bool, error)
	decrementFn func(ctx context.Context, tx database.TxQuerier, code string) error
}

func (m *mockVoucherReader) GetByCode(ctx context.Context, code string) (*model.Voucher, error) {
	if m.getByCodeFn != nil {
		return m.getByCodeFn(ctx, code)
	}
	return nil, nil
}

func (m *mockVoucherReader) IncrementRedeemed(ctx context.Context, tx database.TxQuerier, code string) (bool, error) {
	if m.incrementFn != nil {
		return m.incrementFn(ctx, tx, code)
	}
	return true, nil
}

func (m *mockVoucherReader) DecrementRedeemed(ctx context.Context, tx database.TxQuerier, code string) error {
	if m.decrementFn != nil {
		return m.decrementFn(ctx, tx, code)
	}
	return nil
}

// mockLedger is a mock implementation of LedgerInterface.
type mockLedger struct {
	getFn        func(ctx context.Context, userID, code string) (*model.Redemption, error)
	redeemOnceFn func(ctx context.Context, tx database.TxQuerier, userID, code string, limit int) (bool, error)
	releaseFn    func(ctx context.Context, tx database.TxQuerier, userID, code string) (bool, error)
}

func (m *mockLedger) Get(ctx context.Context, userID, code string) (*model.Redemption, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, code)
	}
	return nil, nil
}

func (m *mockLedger) RedeemOnce(ctx context.Context, tx database.TxQuerier, userID, code string, limit int) (bool, error) {
	if m.redeemOnceFn != nil {
		return m.redeemOnceFn(ctx, tx, userID, code, limit)
	}
	return true, nil
}

func (m *mockLedger) Release(ctx context.Context, tx database.TxQuerier, userID, code string) (bool, error) {
	if m.releaseFn != nil {
		return m.releaseFn(ctx, tx, userID, code)
	}
	return true, nil
}

// mockUserReader is a mock implementation of UserReaderInterface.
type mockUserReader struct {
	getByIDFn func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserReader) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &model.User{ID: id, IsActive: true}, nil
}

// mockTx is a mock implementation of pgx.Tx for testing transactions.
type mockTx struct {
	commitFn   func(ctx context.Context) error
	rollbackFn func(ctx context.Context) error
}

func (m *mockTx) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("nested transactions not supported")
}

func (m *mockTx) Commit(ctx context.Context) error {
	if m.commitFn != nil {
		return m.commitFn(ctx)
	}
	return nil
}

func (m *mockTx) Rollback(ctx context.Context) error {
	if m.rollbackFn != nil {
		return m.rollbackFn(ctx)
	}
	return nil
}

func (m *mockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}

func (m *mockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	return nil
}

func (m *mockTx) LargeObjects() pgx.LargeObjects {
	return pgx.LargeObjects{}
}

func (m *mockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}

func (m *mockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *mockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (m *mockTx) Conn() *pgx.Conn {
	return nil
}

// mockTxBeginner is a mock implementation of TxBeginner.
type mockTxBeginner struct {
	beginFn func(ctx context.Context) (pgx.Tx, error)
}

func (m *mockTxBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if m.beginFn != nil {
		return m.beginFn(ctx)
	}
	return &mockTx{}, nil
}

func dec(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// summerVoucher is a 10% voucher capped at 50000 with a 500000 minimum.
func summerVoucher(now time.Time) *model.Voucher {
	return &model.Voucher{
		ID:                "v-1",
		Code:              "SUMMER10",
		Name:              "Summer Sale",
		DiscountType:      model.DiscountPercentage,
		VoucherDiscount:   dec(10),
		MaxDiscountAmount: dec(50000),
		MinimumOrderPrice: dec(500000),
		MaxUsage:          100,
		TotalRedeemed:     3,
		UsagePerUser:      2,
		StartDate:         now.Add(-24 * time.Hour),
		EndDate:           now.Add(24 * time.Hour),
		Status:            true,
	}
}

func newPreviewService(vouchers *mockVoucherReader, ledger *mockLedger, users *mockUserReader, now time.Time) *RedemptionService {
	svc := NewRedemptionServiceWithTxBeginner(nil, vouchers, ledger, users)
	svc.now = func() time.Time { return now }
	return svc
}

func TestPreviewDiscount_EmptyCode_NeutralQuote(t *testing.T) {
	svc := newPreviewService(&mockVoucherReader{}, &mockLedger{}, &mockUserReader{}, time.Now())

	quote, err := svc.PreviewDiscount(context.Background(), "", "user-1", dec(600000), dec(30000))

	require.NoError(t, err)
	require.NotNil(t, quote)
	assert.True(t, quote.Discount.IsZero())
	assert.True(t, quote.TotalPrice.Equal(dec(630000)), "total should be subtotal plus shipping")
	assert.Empty(t, quote.Code)
}

func TestPreviewDiscount_PercentageCappedByMaxDiscount(t *testing.T) {
	now := time.Now()
	vouchers := &mockVoucherReader{
		getByCodeFn: func(ctx context.Context, code string) (*model.Voucher, error) {
			return summerVoucher(now), nil
		},
	}
	svc := newPreviewService(vouchers, &mockLedger{}, &mockUserReader{}, now)

	// 10% of 600000 is 60000, above the 50000 cap.
	quote, err := svc.PreviewDiscount(context.Background(), "SUMMER10", "user-1", dec(600000), dec(30000))

	require.NoError(t, err)
	assert.True(t, quote.Discount.Equal(dec(50000)), "discount should be capped at 50000, got %s", quote.Discount)
	assert.True(t, quote.TotalPrice.Equal(dec(580000)), "total should be 600000-50000+30000, got %s", quote.TotalPrice)
	assert.Equal(t, "Summer Sale", quote.VoucherName)
}

func TestPreviewDiscount_PercentageBelowCap(t *testing.T) {
	now := time.Now()
	vouchers := &mockVoucherReader{
		getByCodeFn: func(ctx context.Context, code string) (*model.Voucher, error) {
			v := summerVoucher(now)
			v.MaxDiscountAmount = dec(100000)
			return v, nil
		},
	}
	svc := newPreviewService(vouchers, &mockLedger{}, &mockUserReader{}, now)

	quote, err := svc.PreviewDiscount(context.Background(), "SUMMER10", "user-1", dec(600000), decimal.Zero)

	require.NoError(t, err)
	assert.True(t, quote.Discount.Equal(dec(60000)), "10%% of 600000 is 60000, got %s", quote.Discount)
}

func TestPreviewDiscount_FixedDiscount(t *testing.T) {
	now := time.Now()
	vouchers := &mockVoucherReader{
		getByCodeFn: func(ctx context.Context, code string) (*model.Voucher, error) {
			return &model.Voucher{
				Code:              "FLAT20K",
				Name:              "Flat 20k",
				DiscountType:      model.DiscountFixed,
				VoucherDiscount:   dec(20000),
				MinimumOrderPrice: dec(100000),
				MaxUsage:          10,
				UsagePerUser:      1,
				StartDate:         now.Add(-time.Hour),
				EndDate:           now.Add(time.Hour),
				Status:            true,
			}, nil
		},
	}
	svc := newPreviewService(vouchers, &mockLedger{}, &mockUserReader{}, now)

	quote, err := svc.PreviewDiscount(context.Background(), "FLAT20K", "user-1", dec(150000), dec(15000))

	require.NoError(t, err)
	assert.True(t, quote.Discount.Equal(dec(20000)))
	assert.True(t, quote.TotalPrice.Equal(dec(145000)))
}

func TestPreviewDiscount_VoucherNotFound(t *testing.T) {
	svc := newPreviewService(&mockVoucherReader{}, &mockLedger{}, &mockUserReader{}, time.Now())

	quote, err := svc.PreviewDiscount(context.Background(), "MISSING", "user-1", dec(600000), decimal.Zero)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVoucherNotFound))
	assert.Nil(t, quote)
}

func TestPreviewDiscount_UserNotFound(t *testing.T) {
	now := time.Now()
	vouchers := &mockVoucherReader{
		getByCodeFn: func(ctx context.Context, code string) (*model.Voucher, error) {
			return summerVoucher(now), nil
		},
	}
	users := &mockUserReader{
		getByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, nil
		},
	}
	svc := newPreviewService(vouchers, &mockLedger{}, users, now)

	_, err := svc.PreviewDiscount(context.Background(), "SUMMER10", "ghost", dec(600000), decimal.Zero)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUserNotFound))
}

func TestPreviewDiscount_BelowMinimum(t *testing.T) {
	now := time.Now()
	vouchers := &mockVoucherReader{
		getByCodeFn: func(ctx context.Context, code string) (*model.Voucher, error) {
			return summerVoucher(now), nil
		},
	}
	svc := newPreviewService(vouchers, &mockLedger{}, &mockUserReader{}, now)

	_, err := svc.PreviewDiscount(context.Background(), "SUMMER10", "user-1", dec(80000), decimal.Zero)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOrderBelowMinimum))
}

func TestPreviewDiscount_OutsideWindow(t *testing.T) {
	now := time.Now()
	vouchers := &mockVoucherReader{
		getByCodeFn: func(ctx context.Context, code string) (*model.Voucher, error) {
			v := summerVoucher(now)
			v.StartDate = now.Add(time.Hour)
			v.EndDate = now.Add(48 * time.Hour)
			return v, nil
		},
	}
	svc := newPreviewService(vouchers, &mockLedger{}, &mockUserReader{}, now)

	_, err := svc.PreviewDiscount(context.Background(), "SUMMER10", "user-1", dec(600000), decimal.Zero)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVoucherExpired), "not-yet-started voucher should read as expired")
}

func TestPreviewDiscount_Inactive(t *testing.T) {
	now := time.Now()
	vouchers := &mockVoucherReader{
		getByCodeFn: func(ctx context.Context, code string) (*model.Voucher, error) {
			v := summerVoucher(now)
			v.Status = false
			return v, nil
		},
	}
	svc := newPreviewService(vouchers, &mockLedger{}, &mockUserReader{}, now)

	_, err := svc.PreviewDiscount(context.Background(), "SUMMER10", "user-1", dec(600000), decimal.Zero)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVoucherInactive))
}

func TestPreviewDiscount_MinimumCheckedBeforeWindow(t *testing.T) {
	// Validation order: a too-small order on an expired voucher reports the
	// minimum first.
	now := time.Now()
	vouchers := &mockVoucherReader{
		getByCodeFn: func(ctx context.Context, code string) (*model.Voucher, error) {
			v := summerVoucher(now)
			v.EndDate = now.Add(-time.Hour)
			return v, nil
		},
	}
	svc := newPreviewService(vouchers, &mockLedger{}, &mockUserReader{}, now)

	_, err := svc.PreviewDiscount(context.Background(), "SUMMER10", "user-1", dec(80000), decimal.Zero)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOrderBelowMinimum))
}

func TestPreviewDiscount_PerUserExhausted(t *testing.T) {
	now := time.Now()
	vouchers := &mockVoucherReader{
		getByCodeFn: func(ctx context.Context, code string) (*model.Voucher, error) {
			return summerVoucher(now), nil
		},
	}
	ledger := &mockLedger{
		getFn: func(ctx context.Context, userID, code string) (*model.Redemption, error) {
			return &model.Redemption{UserID: userID, VoucherCode: code, UsageCount: 2}, nil
		},
	}
	svc := newPreviewService(vouchers, ledger, &mockUserReader{}, now)

	_, err := svc.PreviewDiscount(context.Background(), "SUMMER10", "user-1", dec(600000), decimal.Zero)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUsageExhausted))
}

func TestPreviewDiscount_GlobalExhausted(t *testing.T) {
	now := time.Now()
	vouchers := &mockVoucherReader{
		getByCodeFn: func(ctx context.Context, code string) (*model.Voucher, error) {
			v := summerVoucher(now)
			v.TotalRedeemed = v.MaxUsage
			return v, nil
		},
	}
	svc := newPreviewService(vouchers, &mockLedger{}, &mockUserReader{}, now)

	_, err := svc.PreviewDiscount(context.Background(), "SUMMER10", "user-1", dec(600000), decimal.Zero)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUsageExhausted))
}

func TestPreviewDiscount_NewUserOnly_ReturningCustomer(t *testing.T) {
	now := time.Now()
	vouchers := &mockVoucherReader{
		getByCodeFn: func(ctx context.Context, code string) (*model.Voucher, error) {
			v := summerVoucher(now)
			v.IsOnlyForNewUser = true
			return v, nil
		},
	}
	users := &mockUserReader{
		getByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, IsActive: true, OrderCount: 4}, nil
		},
	}
	svc := newPreviewService(vouchers, &mockLedger{}, users, now)

	_, err := svc.PreviewDiscount(context.Background(), "SUMMER10", "user-1", dec(600000), decimal.Zero)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrVoucherNewUserOnly))
}

func TestRedeem_Success(t *testing.T) {
	now := time.Now()
	var redeemedLimit int
	var incrementedCode string
	vouchers := &mockVoucherReader{
		getByCodeFn: func(ctx context.Context, code string) (*model.Voucher, error) {
			return summerVoucher(now), nil
		},
		incrementFn: func(ctx context.Context, tx database.TxQuerier, code string) (bool, error) {
			incrementedCode = code
			return true, nil
		},
	}
	ledger := &mockLedger{
		redeemOnceFn: func(ctx context.Context, tx database.TxQuerier, userID, code string, limit int) (bool, error) {
			redeemedLimit = limit
			return true, nil
		},
	}
	svc := newPreviewService(vouchers, ledger, &mockUserReader{}, now)

	err := svc.Redeem(context.Background(), &mockTx{}, "SUMMER10", "user-1")

	require.NoError(t, err)
	assert.Equal(t, 2, redeemedLimit, "per-user limit should come from the voucher")
	assert.Equal(t, "SUMMER10", incrementedCode)
}

func TestRedeem_PerUserCapHit(t *testing.T) {
	now := time.Now()
	incremented := false
	vouchers := &mockVoucherReader{
		getByCodeFn: func(ctx context.Context, code string) (*model.Voucher, error) {
			return summerVoucher(now), nil
		},
		incrementFn: func(ctx context.Context, tx database.TxQuerier, code string) (bool, error) {
			incremented = true
			return true, nil
		},
	}
	ledger := &mockLedger{
		redeemOnceFn: func(ctx context.Context, tx database.TxQuerier, userID, code string, limit int) (bool, error) {
			return false, nil
		},
	}
	svc := newPreviewService(vouchers, ledger, &mockUserReader{}, now)

	err := svc.Redeem(context.Background(), &mockTx{}, "SUMMER10", "user-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUsageExhausted))
	assert.False(t, incremented, "aggregate counter must not move when the ledger upsert is refused")
}

func TestRedeem_GlobalCapHit(t *testing.T) {
	now := time.Now()
	vouchers := &mockVoucherReader{
		getByCodeFn: func(ctx context.Context, code string) (*model.Voucher, error) {
			return summerVoucher(now), nil
		},
		incrementFn: func(ctx context.Context, tx database.TxQuerier, code string) (bool, error) {
			return false, nil
		},
	}
	svc := newPreviewService(vouchers, &mockLedger{}, &mockUserReader{}, now)

	err := svc.Redeem(context.Background(), &mockTx{}, "SUMMER10", "user-1")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUsageExhausted))
}

func TestRedeem_EmptyCode_NoOp(t *testing.T) {
	vouchers := &mockVoucherReader{
		getByCodeFn: func(ctx context.Context, code string) (*model.Voucher, error) {
			t.Fatal("voucher lookup should not happen for an empty code")
			return nil, nil
		},
	}
	svc := newPreviewService(vouchers, &mockLedger{}, &mockUserReader{}, time.Now())

	err := svc.Redeem(context.Background(), &mockTx{}, "", "user-1")

	require.NoError(t, err)
}

func TestRollback_ReleasesAndDecrements(t *testing.T) {
	committed := false
	pool := &mockTxBeginner{
		beginFn: func(ctx context.Context) (pgx.Tx, error) {
			return &mockTx{commitFn: func(ctx context.Context) error {
				committed = true
				return nil
			}}, nil
		},
	}
	decremented := false
	vouchers := &mockVoucherReader{
		decrementFn: func(ctx context.Context, tx database.TxQuerier, code string) error {
			decremented = true
			return nil
		},
	}
	ledger := &mockLedger{
		releaseFn: func(ctx context.Context, tx database.TxQuerier, userID, code string) (bool, error) {
			return true, nil
		},
	}
	svc := NewRedemptionServiceWithTxBeginner(pool, vouchers, ledger, &mockUserReader{})

	err := svc.Rollback(context.Background(), "SUMMER10", "user-1")

	require.NoError(t, err)
	assert.True(t, decremented, "aggregate counter should be released with the ledger entry")
	assert.True(t, committed)
}

func TestRollback_MissingEntry_Idempotent(t *testing.T) {
	pool := &mockTxBeginner{}
	decremented := false
	vouchers := &mockVoucherReader{
		decrementFn: func(ctx context.Context, tx database.TxQuerier, code string) error {
			decremented = true
			return nil
		},
	}
	ledger := &mockLedger{
		releaseFn: func(ctx context.Context, tx database.TxQuerier, userID, code string) (bool, error) {
			return false, nil
		},
	}
	svc := NewRedemptionServiceWithTxBeginner(pool, vouchers, ledger, &mockUserReader{})

	err := svc.Rollback(context.Background(), "SUMMER10", "user-1")

	require.NoError(t, err)
	assert.False(t, decremented, "a second rollback must not decrement the aggregate again")
}

func TestRollback_EmptyCode_NoOp(t *testing.T) {
	pool := &mockTxBeginner{
		beginFn: func(ctx context.Context) (pgx.Tx, error) {
			t.Fatal("no transaction should start for an empty code")
			return nil, nil
		},
	}
	svc := NewRedemptionServiceWithTxBeginner(pool, &mockVoucherReader{}, &mockLedger{}, &mockUserReader{})

	err := svc.Rollback(context.Background(), "", "user-1")

	require.NoError(t, err)
}
