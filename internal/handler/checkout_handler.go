package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/QuocDL/bitis-be/internal/middleware"
	"github.com/QuocDL/bitis-be/internal/model"
	"github.com/QuocDL/bitis-be/internal/payment"
)

// CheckoutServiceInterface defines the checkout operations consumed by the
// handler.
type CheckoutServiceInterface interface {
	PlaceOrder(ctx context.Context, userID, clientIP string, req *model.CheckoutRequest, paymentMethod string) (*model.CheckoutResponse, error)
	HandleVNPayReturn(ctx context.Context, params map[string]string) (string, *model.Order, error)
}

// CheckoutHandler handles HTTP requests for placing and settling orders.
type CheckoutHandler struct {
	service   CheckoutServiceInterface
	validator *validator.Validate
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(svc CheckoutServiceInterface, v *validator.Validate) *CheckoutHandler {
	return &CheckoutHandler{service: svc, validator: v}
}

// CheckoutCOD handles POST /api/checkout. The order is payable on delivery.
func (h *CheckoutHandler) CheckoutCOD(c *fiber.Ctx) error {
	return h.checkout(c, model.PaymentCOD)
}

// CheckoutVNPay handles POST /api/checkout/vnpay. The response carries the
// signed gateway redirect URL.
func (h *CheckoutHandler) CheckoutVNPay(c *fiber.Ctx) error {
	return h.checkout(c, model.PaymentCard)
}

func (h *CheckoutHandler) checkout(c *fiber.Ctx, paymentMethod string) error {
	var req model.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	resp, err := h.service.PlaceOrder(c.Context(), middleware.UserID(c), c.IP(), &req, paymentMethod)
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusCreated, resp, "order placed")
}

// VNPayReturn handles GET /api/checkout/vnpay/return, the gateway's
// browser redirect and server callback. The response code follows VNPay's
// convention so the gateway stops retrying once acknowledged.
func (h *CheckoutHandler) VNPayReturn(c *fiber.Ctx) error {
	code, order, err := h.service.HandleVNPayReturn(c.Context(), c.Queries())
	if err != nil {
		return respondServiceError(c, err)
	}

	switch code {
	case payment.CodeInvalidChecksum:
		return respondError(c, fiber.StatusBadRequest, "invalid checksum")
	case payment.CodeOrderNotFound:
		return respondError(c, fiber.StatusNotFound, "order not found")
	}
	return respond(c, fiber.StatusOK, order, "payment processed")
}
