package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/QuocDL/bitis-be/internal/middleware"
	"github.com/QuocDL/bitis-be/internal/model"
)

// VoucherServiceInterface defines the voucher lifecycle operations consumed
// by the handler.
type VoucherServiceInterface interface {
	Create(ctx context.Context, req *model.SaveVoucherRequest) (*model.Voucher, error)
	Update(ctx context.Context, id string, req *model.SaveVoucherRequest) (*model.Voucher, error)
	UpdateStatus(ctx context.Context, id string, status bool) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Voucher, error)
	List(ctx context.Context, search string, page, pageSize int) (*model.VoucherListResponse, error)
}

// PreviewerInterface quotes a voucher against an order draft.
type PreviewerInterface interface {
	PreviewDiscount(ctx context.Context, code, userID string, subtotal, shippingFee decimal.Decimal) (*model.VoucherQuote, error)
}

// VoucherHandler handles HTTP requests for voucher operations.
type VoucherHandler struct {
	service   VoucherServiceInterface
	previewer PreviewerInterface
	validator *validator.Validate
}

// NewVoucherHandler creates a new VoucherHandler.
func NewVoucherHandler(svc VoucherServiceInterface, previewer PreviewerInterface, v *validator.Validate) *VoucherHandler {
	return &VoucherHandler{service: svc, previewer: previewer, validator: v}
}

// Create handles POST /api/vouchers.
func (h *VoucherHandler) Create(c *fiber.Ctx) error {
	var req model.SaveVoucherRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	voucher, err := h.service.Create(c.Context(), &req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusCreated, voucher, "voucher created")
}

// Update handles PUT /api/vouchers/:id.
func (h *VoucherHandler) Update(c *fiber.Ctx) error {
	var req model.SaveVoucherRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	voucher, err := h.service.Update(c.Context(), c.Params("id"), &req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, voucher, "voucher updated")
}

// UpdateStatus handles PATCH /api/vouchers/update-status/:id.
func (h *VoucherHandler) UpdateStatus(c *fiber.Ctx) error {
	var req model.UpdateVoucherStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	if err := h.service.UpdateStatus(c.Context(), c.Params("id"), *req.Status); err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, nil, "voucher status updated")
}

// Delete handles DELETE /api/vouchers/:id.
func (h *VoucherHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, nil, "voucher deleted")
}

// Get handles GET /api/vouchers/:id.
func (h *VoucherHandler) Get(c *fiber.Ctx) error {
	voucher, err := h.service.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, voucher, "")
}

// List handles GET /api/vouchers/all.
func (h *VoucherHandler) List(c *fiber.Ctx) error {
	resp, err := h.service.List(c.Context(),
		c.Query("search"), c.QueryInt("page", 1), c.QueryInt("page_size", 10))
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, resp, "")
}

// Preview handles POST /api/vouchers/preview. It quotes the discount for the
// authenticated user without consuming any usage.
func (h *VoucherHandler) Preview(c *fiber.Ctx) error {
	var req model.PreviewVoucherRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}

	quote, err := h.previewer.PreviewDiscount(c.Context(),
		req.Code, middleware.UserID(c), req.Subtotal, req.ShippingFee)
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, quote, "voucher applied")
}
