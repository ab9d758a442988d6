package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/QuocDL/bitis-be/internal/model"
)

// StatsServiceInterface defines the reporting operations consumed by the
// handler.
type StatsServiceInterface interface {
	TotalStats(ctx context.Context, q *model.StatsQuery) (*model.TotalStats, error)
	OrdersByDay(ctx context.Context, month, year int) ([]model.DailyOrderStat, error)
}

// StatsHandler handles HTTP requests for admin activity reports.
type StatsHandler struct {
	service StatsServiceInterface
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(svc StatsServiceInterface) *StatsHandler {
	return &StatsHandler{service: svc}
}

// Total handles GET /api/stats/total.
func (h *StatsHandler) Total(c *fiber.Ctx) error {
	q := &model.StatsQuery{
		DateFilter: c.Query("date_filter"),
		StartDate:  c.Query("start_date"),
		EndDate:    c.Query("end_date"),
		Month:      c.QueryInt("month"),
		Year:       c.QueryInt("year"),
	}
	stats, err := h.service.TotalStats(c.Context(), q)
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, stats, "")
}

// OrdersByDay handles GET /api/stats/orders-by-day.
func (h *StatsHandler) OrdersByDay(c *fiber.Ctx) error {
	stats, err := h.service.OrdersByDay(c.Context(), c.QueryInt("month"), c.QueryInt("year"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return respond(c, fiber.StatusOK, stats, "")
}
