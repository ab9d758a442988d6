package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QuocDL/bitis-be/internal/model"
	"github.com/QuocDL/bitis-be/internal/service"
)

// mockStatsService is a mock implementation of StatsServiceInterface.
type mockStatsService struct {
	totalStatsFn  func(ctx context.Context, q *model.StatsQuery) (*model.TotalStats, error)
	ordersByDayFn func(ctx context.Context, month, year int) ([]model.DailyOrderStat, error)
}

func (m *mockStatsService) TotalStats(ctx context.Context, q *model.StatsQuery) (*model.TotalStats, error) {
	if m.totalStatsFn != nil {
		return m.totalStatsFn(ctx, q)
	}
	return &model.TotalStats{}, nil
}

func (m *mockStatsService) OrdersByDay(ctx context.Context, month, year int) ([]model.DailyOrderStat, error) {
	if m.ordersByDayFn != nil {
		return m.ordersByDayFn(ctx, month, year)
	}
	return []model.DailyOrderStat{}, nil
}

func setupStatsApp(svc *mockStatsService) *fiber.App {
	app := fiber.New()
	h := NewStatsHandler(svc)
	app.Get("/api/stats/total", h.Total)
	app.Get("/api/stats/orders-by-day", h.OrdersByDay)
	return app
}

func TestStatsHandler_Total_PassesFilter(t *testing.T) {
	var got *model.StatsQuery
	svc := &mockStatsService{
		totalStatsFn: func(ctx context.Context, q *model.StatsQuery) (*model.TotalStats, error) {
			got = q
			return &model.TotalStats{TotalOrders: 40}, nil
		},
	}
	app := setupStatsApp(svc)

	req := httptest.NewRequest(http.MethodGet,
		"/api/stats/total?date_filter=range&start_date=01-03-2025&end_date=05-03-2025", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, got)
	assert.Equal(t, "range", got.DateFilter)
	assert.Equal(t, "01-03-2025", got.StartDate)
	assert.Equal(t, "05-03-2025", got.EndDate)
}

func TestStatsHandler_Total_InvalidFilter(t *testing.T) {
	app := setupStatsApp(&mockStatsService{
		totalStatsFn: func(ctx context.Context, q *model.StatsQuery) (*model.TotalStats, error) {
			return nil, &service.RuleError{Msg: "invalid date filter"}
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/stats/total", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestStatsHandler_OrdersByDay_PassesMonthAndYear(t *testing.T) {
	var gotMonth, gotYear int
	svc := &mockStatsService{
		ordersByDayFn: func(ctx context.Context, month, year int) ([]model.DailyOrderStat, error) {
			gotMonth, gotYear = month, year
			return []model.DailyOrderStat{}, nil
		},
	}
	app := setupStatsApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/stats/orders-by-day?month=3&year=2025", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, gotMonth)
	assert.Equal(t, 2025, gotYear)
}
