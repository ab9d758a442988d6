package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/QuocDL/bitis-be/internal/middleware"
	"github.com/QuocDL/bitis-be/internal/model"
)

// CartServiceInterface defines the cart operations consumed by the handler.
type CartServiceInterface interface {
	Get(ctx context.Context, userID string) (*model.Cart, error)
	Add(ctx context.Context, userID string, req *model.AddToCartRequest) error
	Update(ctx context.Context, userID string, req *model.UpdateCartItemRequest) error
	Remove(ctx context.Context, userID, variantID string) error
}

// CartHandler handles HTTP requests for the authenticated user's cart.
type CartHandler struct {
	service   CartServiceInterface
	validator *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(svc CartServiceInterface, v *validator.Validate) *CartHandler {
	return &CartHandler{service: svc, validator: v}
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(c *fiber.Ctx) error {
	cart, err := h.service.Get(c.Context(), middleware.UserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, cart, "")
}

// Add handles POST /api/cart/add.
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var req model.AddToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	if err := h.service.Add(c.Context(), middleware.UserID(c), &req); err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, nil, "item added to cart")
}

// Update handles PATCH /api/cart/update.
func (h *CartHandler) Update(c *fiber.Ctx) error {
	var req model.UpdateCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	if err := h.service.Update(c.Context(), middleware.UserID(c), &req); err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, nil, "cart item updated")
}

// Remove handles DELETE /api/cart/remove.
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	var req model.RemoveCartItemRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	if err := h.service.Remove(c.Context(), middleware.UserID(c), req.VariantID); err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, nil, "cart item removed")
}
