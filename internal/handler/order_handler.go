package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/QuocDL/bitis-be/internal/middleware"
	"github.com/QuocDL/bitis-be/internal/model"
)

// OrderServiceInterface defines the order lifecycle operations consumed by
// the handler.
type OrderServiceInterface interface {
	Get(ctx context.Context, id, requesterID, requesterRole string) (*model.Order, error)
	ListMine(ctx context.Context, userID string, page, pageSize int) (*model.OrderListResponse, error)
	ListAll(ctx context.Context, search string, page, pageSize int) (*model.OrderListResponse, error)
	SetStatus(ctx context.Context, id, status, requesterID, requesterRole, reason string) (*model.Order, error)
}

// UpdateOrderStatusRequest is the DTO for PATCH /api/orders/:id/status.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=awaiting_payment pending confirmed shipping delivered done cancelled"`
	Reason string `json:"reason" validate:"max=512"`
}

// OrderHandler handles HTTP requests for order queries and transitions.
type OrderHandler struct {
	service   OrderServiceInterface
	validator *validator.Validate
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServiceInterface, v *validator.Validate) *OrderHandler {
	return &OrderHandler{service: svc, validator: v}
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *fiber.Ctx) error {
	order, err := h.service.Get(c.Context(), c.Params("id"), middleware.UserID(c), middleware.Role(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, order, "")
}

// ListMine handles GET /api/orders.
func (h *OrderHandler) ListMine(c *fiber.Ctx) error {
	resp, err := h.service.ListMine(c.Context(),
		middleware.UserID(c), c.QueryInt("page", 1), c.QueryInt("page_size", 10))
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, resp, "")
}

// ListAll handles GET /api/orders/all (admin).
func (h *OrderHandler) ListAll(c *fiber.Ctx) error {
	resp, err := h.service.ListAll(c.Context(),
		c.Query("search"), c.QueryInt("page", 1), c.QueryInt("page_size", 10))
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, resp, "")
}

// SetStatus handles PATCH /api/orders/:id/status.
func (h *OrderHandler) SetStatus(c *fiber.Ctx) error {
	var req UpdateOrderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	order, err := h.service.SetStatus(c.Context(),
		c.Params("id"), req.Status, middleware.UserID(c), middleware.Role(c), req.Reason)
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, order, "order status updated")
}
