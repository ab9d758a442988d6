package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/QuocDL/bitis-be/internal/middleware"
	"github.com/QuocDL/bitis-be/internal/model"
)

// ProductServiceInterface defines the product catalog operations consumed by
// the handler.
type ProductServiceInterface interface {
	Create(ctx context.Context, req *model.SaveProductRequest) (*model.Product, error)
	Update(ctx context.Context, id string, req *model.SaveProductRequest) (*model.Product, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Product, error)
	List(ctx context.Context, search, categoryID string, activeOnly bool, page, pageSize int) (*model.ProductListResponse, error)
	TopSelling(ctx context.Context, n int) ([]model.Product, error)
	TopDiscounted(ctx context.Context, n int) ([]model.Product, error)
}

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	service   ProductServiceInterface
	validator *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(svc ProductServiceInterface, v *validator.Validate) *ProductHandler {
	return &ProductHandler{service: svc, validator: v}
}

// Create handles POST /api/products (admin).
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var req model.SaveProductRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	product, err := h.service.Create(c.Context(), &req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusCreated, product, "product created")
}

// Update handles PUT /api/products/:id (admin).
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var req model.SaveProductRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	product, err := h.service.Update(c.Context(), c.Params("id"), &req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, product, "product updated")
}

// Delete handles DELETE /api/products/:id (admin).
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("id")); err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, nil, "product deleted")
}

// Get handles GET /api/products/:id.
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	product, err := h.service.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, product, "")
}

// List handles GET /api/products. Admins see inactive products as well.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	activeOnly := middleware.Role(c) != model.RoleAdmin
	resp, err := h.service.List(c.Context(),
		c.Query("search"), c.Query("category_id"), activeOnly,
		c.QueryInt("page", 1), c.QueryInt("page_size", 10))
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, resp, "")
}

// TopSelling handles GET /api/products/top-selling.
func (h *ProductHandler) TopSelling(c *fiber.Ctx) error {
	products, err := h.service.TopSelling(c.Context(), c.QueryInt("limit", 10))
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, products, "")
}

// TopDiscounted handles GET /api/products/top-discounted.
func (h *ProductHandler) TopDiscounted(c *fiber.Ctx) error {
	products, err := h.service.TopDiscounted(c.Context(), c.QueryInt("limit", 10))
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, products, "")
}
