package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/QuocDL/bitis-be/internal/model"
)

// CatalogRepositoryInterface defines the catalog persistence operations used
// by CatalogService.
type CatalogRepositoryInterface interface {
	Insert(ctx context.Context, kind model.CatalogKind, e *model.CatalogEntry) error
	Update(ctx context.Context, kind model.CatalogKind, e *model.CatalogEntry) error
	GetByID(ctx context.Context, kind model.CatalogKind, id string) (*model.CatalogEntry, error)
	List(ctx context.Context, kind model.CatalogKind, limit, offset int) ([]model.CatalogEntry, int, error)
}

// CatalogService manages the four name catalogs (colors, sizes, tags,
// categories) through one shared code path.
type CatalogService struct {
	repo CatalogRepositoryInterface
}

// NewCatalogService creates a CatalogService with the given repository.
func NewCatalogService(repo CatalogRepositoryInterface) *CatalogService {
	return &CatalogService{repo: repo}
}

// Create inserts a catalog entry.
func (s *CatalogService) Create(ctx context.Context, kind model.CatalogKind, req *model.SaveCatalogRequest) (*model.CatalogEntry, error) {
	e := &model.CatalogEntry{
		ID:      uuid.New().String(),
		Name:    req.Name,
		HexCode: req.HexCode,
	}
	if err := s.repo.Insert(ctx, kind, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Update renames a catalog entry.
func (s *CatalogService) Update(ctx context.Context, kind model.CatalogKind, id string, req *model.SaveCatalogRequest) (*model.CatalogEntry, error) {
	e := &model.CatalogEntry{
		ID:      id,
		Name:    req.Name,
		HexCode: req.HexCode,
	}
	if err := s.repo.Update(ctx, kind, e); err != nil {
		return nil, err
	}
	return e, nil
}

// GetByID retrieves one catalog entry.
func (s *CatalogService) GetByID(ctx context.Context, kind model.CatalogKind, id string) (*model.CatalogEntry, error) {
	e, err := s.repo.GetByID(ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", kind, err)
	}
	if e == nil {
		return nil, ErrCatalogItemNotFound
	}
	return e, nil
}

// List returns a page of catalog entries.
func (s *CatalogService) List(ctx context.Context, kind model.CatalogKind, page, pageSize int) (*model.CatalogListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	entries, total, err := s.repo.List(ctx, kind, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return &model.CatalogListResponse{
		Entries:    entries,
		Page:       page,
		TotalDocs:  total,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}
