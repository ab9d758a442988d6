package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/QuocDL/bitis-be/internal/middleware"
	"github.com/QuocDL/bitis-be/internal/model"
)

// AuthServiceInterface defines the account operations consumed by the handler.
type AuthServiceInterface interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ListUsers(ctx context.Context, search string, page, pageSize int) (*model.UserListResponse, error)
}

// AuthHandler handles HTTP requests for registration and login.
type AuthHandler struct {
	service   AuthServiceInterface
	validator *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc AuthServiceInterface, v *validator.Validate) *AuthHandler {
	return &AuthHandler{service: svc, validator: v}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req model.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	user, err := h.service.Register(c.Context(), &req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusCreated, user, "account created")
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req model.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	resp, err := h.service.Login(c.Context(), &req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, resp, "logged in")
}

// ForgotPassword handles POST /api/auth/forgot-password.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req model.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	if err := h.service.ForgotPassword(c.Context(), req.Email); err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, nil, "a new password has been sent to your email")
}

// ListUsers handles GET /api/users/all.
func (h *AuthHandler) ListUsers(c *fiber.Ctx) error {
	resp, err := h.service.ListUsers(c.Context(),
		c.Query("search"), c.QueryInt("page", 1), c.QueryInt("page_size", 10))
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, resp, "")
}

// Profile handles GET /api/auth/me.
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	user, err := h.service.GetProfile(c.Context(), middleware.UserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, user, "")
}
