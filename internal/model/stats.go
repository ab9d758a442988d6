package model

import "github.com/shopspring/decimal"

// StatsQuery carries the raw date-filter parameters of a stats request.
// Exactly one filter shape must be present: an explicit range, a single day,
// a month within a year, or a whole year.
type StatsQuery struct {
	DateFilter string
	StartDate  string
	EndDate    string
	Month      int
	Year       int
}

// OrderTotals is the aggregate order breakdown for a reporting window. An
// order counts as successful once it reached "done" and was paid; Revenue
// sums only those orders.
type OrderTotals struct {
	Total      int
	Cancelled  int
	Successful int
	Revenue    decimal.Decimal
}

// StatsDateRange echoes the resolved reporting window, formatted YYYY-MM-DD.
type StatsDateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TotalStats is the storefront activity summary for GET /api/stats/total.
type TotalStats struct {
	TotalOrders         int             `json:"total_orders"`
	SuccessfulOrders    int             `json:"successful_orders"`
	CancelledOrders     int             `json:"cancelled_orders"`
	OrderSuccessRate    float64         `json:"order_success_rate"`
	OrderCancelRate     float64         `json:"order_cancel_rate"`
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	AverageDailyRevenue decimal.Decimal `json:"average_daily_revenue"`
	NewUsers            int             `json:"new_users"`
	NewProducts         int             `json:"new_products"`
	DateRange           StatsDateRange  `json:"date_range"`
}

// DailyOrderStat is one day's order volume and revenue in the local timezone.
type DailyOrderStat struct {
	Date         string          `json:"date"`
	TotalOrders  int             `json:"total_orders"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
}
