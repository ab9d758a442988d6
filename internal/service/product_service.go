package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/QuocDL/bitis-be/internal/model"
	"github.com/QuocDL/bitis-be/pkg/database"
)

// ProductRepositoryInterface defines the product persistence operations used
// by ProductService.
type ProductRepositoryInterface interface {
	Insert(ctx context.Context, tx database.TxQuerier, p *model.Product) error
	Update(ctx context.Context, tx database.TxQuerier, p *model.Product) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Product, error)
	List(ctx context.Context, search, categoryID string, activeOnly bool, limit, offset int) ([]model.Product, int, error)
	TopSelling(ctx context.Context, n int) ([]model.Product, error)
	TopDiscounted(ctx context.Context, n int) ([]model.Product, error)
}

// ProductService manages the product catalog.
type ProductService struct {
	pool TxBeginner
	repo ProductRepositoryInterface
}

// NewProductService creates a ProductService with the given pool and
// repository.
func NewProductService(pool *pgxpool.Pool, repo ProductRepositoryInterface) *ProductService {
	return &ProductService{pool: pool, repo: repo}
}

// NewProductServiceWithTxBeginner creates a ProductService with a custom
// TxBeginner. Primarily used for testing.
func NewProductServiceWithTxBeginner(pool TxBeginner, repo ProductRepositoryInterface) *ProductService {
	return &ProductService{pool: pool, repo: repo}
}

// Create validates and inserts a product with its variants.
func (s *ProductService) Create(ctx context.Context, req *model.SaveProductRequest) (*model.Product, error) {
	if err := validateProductRules(req); err != nil {
		return nil, err
	}

	p := buildProduct(req)
	p.ID = uuid.New().String()
	for i := range p.Variants {
		p.Variants[i].ID = uuid.New().String()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	if err := s.repo.Insert(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit product insert: %w", err)
	}
	return p, nil
}

// Update rewrites a product. New (color, size) combinations get fresh variant
// ids; existing combinations keep theirs through the repository upsert.
func (s *ProductService) Update(ctx context.Context, id string, req *model.SaveProductRequest) (*model.Product, error) {
	if err := validateProductRules(req); err != nil {
		return nil, err
	}

	p := buildProduct(req)
	p.ID = id
	for i := range p.Variants {
		p.Variants[i].ID = uuid.New().String()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	if err := s.repo.Update(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit product update: %w", err)
	}
	return p, nil
}

// Delete removes a product and its variants.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// GetByID retrieves one product with variants and tags.
func (s *ProductService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}

// List returns a page of products. Non-admin callers see active ones only.
func (s *ProductService) List(ctx context.Context, search, categoryID string, activeOnly bool, page, pageSize int) (*model.ProductListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	products, total, err := s.repo.List(ctx, search, categoryID, activeOnly, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return &model.ProductListResponse{
		Products:   products,
		Page:       page,
		TotalDocs:  total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

// TopSelling returns the storefront's best sellers.
func (s *ProductService) TopSelling(ctx context.Context, n int) ([]model.Product, error) {
	if n < 1 || n > 50 {
		n = 10
	}
	return s.repo.TopSelling(ctx, n)
}

// TopDiscounted returns the products with the deepest storefront discount.
func (s *ProductService) TopDiscounted(ctx context.Context, n int) ([]model.Product, error) {
	if n < 1 || n > 50 {
		n = 10
	}
	return s.repo.TopDiscounted(ctx, n)
}

func validateProductRules(req *model.SaveProductRequest) error {
	if !req.Price.IsPositive() {
		return &RuleError{Msg: "price must be positive"}
	}
	if req.Discount.IsNegative() || req.Discount.GreaterThan(decimal.NewFromInt(100)) {
		return &RuleError{Msg: "discount must be between 0 and 100"}
	}

	seen := map[[2]string]bool{}
	for _, v := range req.Variants {
		key := [2]string{v.ColorID, v.SizeID}
		if seen[key] {
			return &RuleError{Msg: "duplicate color and size combination"}
		}
		seen[key] = true
	}
	return nil
}

func buildProduct(req *model.SaveProductRequest) *model.Product {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	variants := make([]model.Variant, len(req.Variants))
	for i, v := range req.Variants {
		variants[i] = model.Variant{
			ColorID: v.ColorID,
			SizeID:  v.SizeID,
			Stock:   v.Stock,
			Image:   v.Image,
		}
	}
	return &model.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Discount:    req.Discount,
		CategoryID:  req.CategoryID,
		Tags:        req.Tags,
		Variants:    variants,
		IsActive:    active,
	}
}
