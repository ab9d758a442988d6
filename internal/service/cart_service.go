package service

import (
	"context"
	"fmt"

	"github.com/QuocDL/bitis-be/internal/model"
)

// CartRepositoryInterface defines the cart persistence operations used by
// CartService.
type CartRepositoryInterface interface {
	GetItems(ctx context.Context, userID string) ([]model.CartItem, error)
	GetQuantity(ctx context.Context, userID, variantID string) (int, error)
	UpsertItem(ctx context.Context, userID, productID, variantID string, quantity int) error
	SetQuantity(ctx context.Context, userID, variantID string, quantity int) (bool, error)
	RemoveItem(ctx context.Context, userID, variantID string) error
}

// VariantReaderInterface resolves variants when validating cart writes.
type VariantReaderInterface interface {
	GetVariant(ctx context.Context, variantID string) (*model.CartItem, error)
}

// CartService manages a user's cart. Stock moves between reads, so quantities
// are clamped to current stock on every read and lines whose product went
// inactive are hidden rather than erroring the whole cart.
type CartService struct {
	repo     CartRepositoryInterface
	variants VariantReaderInterface
}

// NewCartService creates a CartService with the given repositories.
func NewCartService(repo CartRepositoryInterface, variants VariantReaderInterface) *CartService {
	return &CartService{repo: repo, variants: variants}
}

// Get returns the user's cart with quantities clamped to live stock.
func (s *CartService) Get(ctx context.Context, userID string) (*model.Cart, error) {
	items, err := s.repo.GetItems(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	visible := []model.CartItem{}
	for _, it := range items {
		if !it.IsActive || it.Stock == 0 {
			continue
		}
		if it.Quantity > it.Stock {
			it.Quantity = it.Stock
		}
		visible = append(visible, it)
	}
	return &model.Cart{UserID: userID, Items: visible}, nil
}

// Add puts a variant in the cart or merges into the existing line. The merged
// quantity is capped at the variant's current stock.
func (s *CartService) Add(ctx context.Context, userID string, req *model.AddToCartRequest) error {
	v, err := s.variants.GetVariant(ctx, req.VariantID)
	if err != nil {
		return err
	}
	if v == nil || v.ProductID != req.ProductID {
		return ErrVariantNotFound
	}
	if !v.IsActive {
		return ErrProductNotFound
	}
	if v.Stock == 0 {
		return ErrInsufficientStock
	}

	current, err := s.repo.GetQuantity(ctx, userID, req.VariantID)
	if err != nil {
		return fmt.Errorf("get cart quantity: %w", err)
	}
	quantity := current + req.Quantity
	if quantity > v.Stock {
		quantity = v.Stock
	}

	if err := s.repo.UpsertItem(ctx, userID, req.ProductID, req.VariantID, quantity); err != nil {
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return nil
}

// Update sets a cart line to an exact quantity, rejecting amounts the variant
// cannot cover.
func (s *CartService) Update(ctx context.Context, userID string, req *model.UpdateCartItemRequest) error {
	v, err := s.variants.GetVariant(ctx, req.VariantID)
	if err != nil {
		return err
	}
	if v == nil {
		return ErrVariantNotFound
	}
	if req.Quantity > v.Stock {
		return ErrInsufficientStock
	}

	updated, err := s.repo.SetQuantity(ctx, userID, req.VariantID, req.Quantity)
	if err != nil {
		return fmt.Errorf("set cart quantity: %w", err)
	}
	if !updated {
		return ErrVariantNotFound
	}
	return nil
}

// Remove deletes a cart line. Removing an absent line is a no-op.
func (s *CartService) Remove(ctx context.Context, userID, variantID string) error {
	if err := s.repo.RemoveItem(ctx, userID, variantID); err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}
