package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/QuocDL/bitis-be/internal/model"
	"github.com/QuocDL/bitis-be/pkg/database"
)

// VoucherRepositoryInterface defines the voucher persistence operations used
// by VoucherService.
type VoucherRepositoryInterface interface {
	Insert(ctx context.Context, voucher *model.Voucher) error
	Update(ctx context.Context, tx database.TxQuerier, voucher *model.Voucher) error
	UpdateStatus(ctx context.Context, id string, status bool) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Voucher, error)
	GetByCode(ctx context.Context, code string) (*model.Voucher, error)
	ExistsByNameInScope(ctx context.Context, name string, isOnlyForNewUser bool, excludeID string) (bool, error)
	List(ctx context.Context, search string, limit, offset int) ([]model.Voucher, int, error)
}

// LedgerPurgerInterface removes redemption-ledger rows that reference a
// voucher code about to be replaced.
type LedgerPurgerInterface interface {
	DeleteByCode(ctx context.Context, tx database.TxQuerier, code string) error
}

const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 8
)

// VoucherService manages the voucher lifecycle: creation, edits, status
// toggling and deletion. Redemption-time checks live in RedemptionService.
type VoucherService struct {
	pool   TxBeginner
	repo   VoucherRepositoryInterface
	ledger LedgerPurgerInterface
	now    func() time.Time
}

// NewVoucherService creates a VoucherService with the given pool and
// repositories.
func NewVoucherService(pool *pgxpool.Pool, repo VoucherRepositoryInterface, ledger LedgerPurgerInterface) *VoucherService {
	return &VoucherService{pool: pool, repo: repo, ledger: ledger, now: time.Now}
}

// NewVoucherServiceWithTxBeginner creates a VoucherService with a custom
// TxBeginner. Primarily used for testing.
func NewVoucherServiceWithTxBeginner(pool TxBeginner, repo VoucherRepositoryInterface, ledger LedgerPurgerInterface) *VoucherService {
	return &VoucherService{pool: pool, repo: repo, ledger: ledger, now: time.Now}
}

// Create validates the request against the write-time rules and inserts a new
// voucher with a freshly generated code. Name collisions within the same
// audience scope surface as ErrVoucherNameExists.
func (s *VoucherService) Create(ctx context.Context, req *model.SaveVoucherRequest) (*model.Voucher, error) {
	if err := s.validateRules(req, false); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByNameInScope(ctx, req.Name, req.IsOnlyForNewUser, "")
	if err != nil {
		return nil, fmt.Errorf("check voucher name: %w", err)
	}
	if exists {
		return nil, ErrVoucherNameExists
	}

	code, err := s.freshCode(ctx)
	if err != nil {
		return nil, err
	}

	voucher := buildVoucher(req)
	voucher.ID = uuid.New().String()
	voucher.Code = code

	if err := s.repo.Insert(ctx, voucher); err != nil {
		return nil, fmt.Errorf("insert voucher: %w", err)
	}
	return voucher, nil
}

// Update applies the request to an existing voucher. Only the end date must
// still be in the future, so long-running vouchers remain editable. When the
// request sets resetCode, a new code replaces the old one and prior ledger
// entries stop counting against the voucher.
func (s *VoucherService) Update(ctx context.Context, id string, req *model.SaveVoucherRequest) (*model.Voucher, error) {
	if err := s.validateRules(req, true); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get voucher: %w", err)
	}
	if current == nil {
		return nil, ErrVoucherNotFound
	}

	exists, err := s.repo.ExistsByNameInScope(ctx, req.Name, req.IsOnlyForNewUser, id)
	if err != nil {
		return nil, fmt.Errorf("check voucher name: %w", err)
	}
	if exists {
		return nil, ErrVoucherNameExists
	}

	voucher := buildVoucher(req)
	voucher.ID = id
	voucher.Code = current.Code
	if req.ResetCode {
		voucher.Code, err = s.freshCode(ctx)
		if err != nil {
			return nil, err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	if voucher.Code != current.Code {
		// The ledger references the code, so entries for the retired code
		// must go before the voucher row can change.
		if err := s.ledger.DeleteByCode(ctx, tx, current.Code); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Update(ctx, tx, voucher); err != nil {
		return nil, fmt.Errorf("update voucher: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit voucher update: %w", err)
	}
	return voucher, nil
}

// UpdateStatus toggles a voucher active or inactive.
func (s *VoucherService) UpdateStatus(ctx context.Context, id string, status bool) error {
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("update voucher status: %w", err)
	}
	return nil
}

// Delete removes a voucher permanently.
func (s *VoucherService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete voucher: %w", err)
	}
	return nil
}

// GetByID retrieves a single voucher.
func (s *VoucherService) GetByID(ctx context.Context, id string) (*model.Voucher, error) {
	voucher, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get voucher: %w", err)
	}
	if voucher == nil {
		return nil, ErrVoucherNotFound
	}
	return voucher, nil
}

// List returns a page of vouchers matching the optional name search.
func (s *VoucherService) List(ctx context.Context, search string, page, pageSize int) (*model.VoucherListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	vouchers, total, err := s.repo.List(ctx, search, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list vouchers: %w", err)
	}

	return &model.VoucherListResponse{
		Vouchers:   vouchers,
		Page:       page,
		TotalDocs:  total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// validateRules enforces the write-time invariants that the validator tags
// cannot express. Creation requires the whole window to lie in the future;
// updates only require the end date to, so an already running voucher can
// still be edited.
func (s *VoucherService) validateRules(req *model.SaveVoucherRequest, isUpdate bool) error {
	now := s.now()

	if !req.EndDate.After(req.StartDate) {
		return &RuleError{Msg: "end date must be after start date"}
	}
	if req.EndDate.Before(now) {
		return &RuleError{Msg: "end date must not be in the past"}
	}
	if !isUpdate && req.StartDate.Before(now) {
		return &RuleError{Msg: "start date must not be in the past"}
	}
	if !req.MinimumOrderPrice.IsPositive() {
		return &RuleError{Msg: "minimum order price must be positive"}
	}

	switch req.DiscountType {
	case model.DiscountPercentage:
		if !req.VoucherDiscount.IsPositive() || req.VoucherDiscount.GreaterThan(decimal.NewFromInt(100)) {
			return &RuleError{Msg: "percentage discount must be between 0 and 100"}
		}
		if !req.MaxDiscountAmount.IsPositive() {
			return &RuleError{Msg: "percentage vouchers require a positive max discount amount"}
		}
	case model.DiscountFixed:
		if !req.VoucherDiscount.IsPositive() {
			return &RuleError{Msg: "fixed discount must be positive"}
		}
		if req.VoucherDiscount.GreaterThanOrEqual(req.MinimumOrderPrice) {
			return &RuleError{Msg: "fixed discount must be below the minimum order price"}
		}
	default:
		return &RuleError{Msg: "unknown discount type"}
	}

	if *req.MaxUsage < 1 {
		return &RuleError{Msg: "max usage must be at least 1"}
	}
	if *req.UsagePerUser < 1 {
		return &RuleError{Msg: "usage per user must be at least 1"}
	}
	return nil
}

// freshCode generates codes until one is unused. Collisions on an 8-character
// code over a 32-symbol alphabet are rare enough that a retry loop suffices.
func (s *VoucherService) freshCode(ctx context.Context) (string, error) {
	for {
		code, err := generateCode()
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		existing, err := s.repo.GetByCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check code uniqueness: %w", err)
		}
		if existing == nil {
			return code, nil
		}
	}
}

func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeAlphabet))))
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

func buildVoucher(req *model.SaveVoucherRequest) *model.Voucher {
	maxDiscount := req.MaxDiscountAmount
	if req.DiscountType == model.DiscountFixed {
		// Cap is meaningless for fixed amounts.
		maxDiscount = decimal.Zero
	}
	return &model.Voucher{
		Name:              req.Name,
		DiscountType:      req.DiscountType,
		VoucherDiscount:   req.VoucherDiscount,
		MaxDiscountAmount: maxDiscount,
		MinimumOrderPrice: req.MinimumOrderPrice,
		MaxUsage:          *req.MaxUsage,
		UsagePerUser:      *req.UsagePerUser,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		Status:            req.Status,
		IsOnlyForNewUser:  req.IsOnlyForNewUser,
	}
}
