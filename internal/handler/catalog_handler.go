package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/QuocDL/bitis-be/internal/model"
)

// CatalogServiceInterface defines the name-catalog operations consumed by the
// handler.
type CatalogServiceInterface interface {
	Create(ctx context.Context, kind model.CatalogKind, req *model.SaveCatalogRequest) (*model.CatalogEntry, error)
	Update(ctx context.Context, kind model.CatalogKind, id string, req *model.SaveCatalogRequest) (*model.CatalogEntry, error)
	GetByID(ctx context.Context, kind model.CatalogKind, id string) (*model.CatalogEntry, error)
	List(ctx context.Context, kind model.CatalogKind, page, pageSize int) (*model.CatalogListResponse, error)
}

// CatalogHandler serves colors, sizes, tags and categories through one route
// set parameterized by kind.
type CatalogHandler struct {
	service   CatalogServiceInterface
	validator *validator.Validate
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(svc CatalogServiceInterface, v *validator.Validate) *CatalogHandler {
	return &CatalogHandler{service: svc, validator: v}
}

func catalogKind(c *fiber.Ctx) (model.CatalogKind, bool) {
	kind := model.CatalogKind(c.Params("kind"))
	return kind, kind.Valid()
}

// Create handles POST /api/catalog/:kind (admin).
func (h *CatalogHandler) Create(c *fiber.Ctx) error {
	kind, ok := catalogKind(c)
	if !ok {
		return respondError(c, fiber.StatusNotFound, "unknown catalog")
	}

	var req model.SaveCatalogRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	entry, err := h.service.Create(c.Context(), kind, &req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusCreated, entry, string(kind)+" created")
}

// Update handles PUT /api/catalog/:kind/:id (admin).
func (h *CatalogHandler) Update(c *fiber.Ctx) error {
	kind, ok := catalogKind(c)
	if !ok {
		return respondError(c, fiber.StatusNotFound, "unknown catalog")
	}

	var req model.SaveCatalogRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, formatValidationError(err))
	}

	entry, err := h.service.Update(c.Context(), kind, c.Params("id"), &req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, entry, string(kind)+" updated")
}

// Get handles GET /api/catalog/:kind/:id.
func (h *CatalogHandler) Get(c *fiber.Ctx) error {
	kind, ok := catalogKind(c)
	if !ok {
		return respondError(c, fiber.StatusNotFound, "unknown catalog")
	}

	entry, err := h.service.GetByID(c.Context(), kind, c.Params("id"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, entry, "")
}

// List handles GET /api/catalog/:kind.
func (h *CatalogHandler) List(c *fiber.Ctx) error {
	kind, ok := catalogKind(c)
	if !ok {
		return respondError(c, fiber.StatusNotFound, "unknown catalog")
	}

	resp, err := h.service.List(c.Context(), kind, c.QueryInt("page", 1), c.QueryInt("page_size", 50))
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, resp, "")
}
