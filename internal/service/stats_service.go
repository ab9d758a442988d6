package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/QuocDL/bitis-be/internal/model"
)

// StatsRepositoryInterface defines the aggregation queries used by
// StatsService.
type StatsRepositoryInterface interface {
	OrderTotals(ctx context.Context, from, to time.Time) (*model.OrderTotals, error)
	CountUsersCreated(ctx context.Context, from, to time.Time) (int, error)
	CountProductsCreated(ctx context.Context, from, to time.Time) (int, error)
	OrdersByDay(ctx context.Context, from, to time.Time) ([]model.DailyOrderStat, error)
}

// Dates in stats filters arrive as DD-MM-YYYY and are interpreted in Vietnam
// local time.
const statsDateLayout = "02-01-2006"

// StatsService produces the admin activity reports.
type StatsService struct {
	repo StatsRepositoryInterface
	loc  *time.Location
	now  func() time.Time
}

// NewStatsService creates a StatsService reporting in Vietnam local time.
func NewStatsService(repo StatsRepositoryInterface) *StatsService {
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		loc = time.FixedZone("ICT", 7*60*60) // host without tzdata
	}
	return &StatsService{repo: repo, loc: loc, now: time.Now}
}

// TotalStats summarizes orders, revenue and signups over the requested
// window. The window must resolve from the query's date filter; anything
// else is a RuleError.
func (s *StatsService) TotalStats(ctx context.Context, q *model.StatsQuery) (*model.TotalStats, error) {
	from, to, err := s.resolveRange(q)
	if err != nil {
		return nil, err
	}

	totals, err := s.repo.OrderTotals(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("order totals: %w", err)
	}
	newUsers, err := s.repo.CountUsersCreated(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("new users: %w", err)
	}
	newProducts, err := s.repo.CountProductsCreated(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("new products: %w", err)
	}

	days := int(to.Sub(from).Hours() / 24)
	if days < 1 {
		days = 1
	}

	stats := &model.TotalStats{
		TotalOrders:         totals.Total,
		SuccessfulOrders:    totals.Successful,
		CancelledOrders:     totals.Cancelled,
		TotalRevenue:        totals.Revenue,
		AverageDailyRevenue: totals.Revenue.Div(decimal.NewFromInt(int64(days))).Round(2),
		NewUsers:            newUsers,
		NewProducts:         newProducts,
		DateRange: model.StatsDateRange{
			Start: from.Format("2006-01-02"),
			End:   to.AddDate(0, 0, -1).Format("2006-01-02"),
		},
	}
	if totals.Total > 0 {
		stats.OrderSuccessRate = roundRate(totals.Successful, totals.Total)
		stats.OrderCancelRate = roundRate(totals.Cancelled, totals.Total)
	}
	return stats, nil
}

// OrdersByDay reports per-day order volume for one calendar month,
// defaulting to the current one.
func (s *StatsService) OrdersByDay(ctx context.Context, month, year int) ([]model.DailyOrderStat, error) {
	now := s.now().In(s.loc)
	if year <= 0 {
		year = now.Year()
	}
	if month <= 0 {
		month = int(now.Month())
	}
	if month > 12 {
		return nil, &RuleError{Msg: "month must be between 1 and 12"}
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.loc)
	stats, err := s.repo.OrdersByDay(ctx, from, from.AddDate(0, 1, 0))
	if err != nil {
		return nil, fmt.Errorf("orders by day: %w", err)
	}
	return stats, nil
}

// resolveRange maps the query's filter shape to a half-open [from, to)
// window. Filter precedence mirrors the query surface: explicit range, then
// month within a year, then whole year, then single day.
func (s *StatsService) resolveRange(q *model.StatsQuery) (time.Time, time.Time, error) {
	switch {
	case q.DateFilter == "range" && q.StartDate != "" && q.EndDate != "":
		from, err := s.parseDay(q.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to, err := s.parseDay(q.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if to.Before(from) {
			return time.Time{}, time.Time{}, &RuleError{Msg: "end date must not be before start date"}
		}
		return from, to.AddDate(0, 0, 1), nil
	case q.Month > 0 && q.Year > 0:
		if q.Month > 12 {
			return time.Time{}, time.Time{}, &RuleError{Msg: "month must be between 1 and 12"}
		}
		from := time.Date(q.Year, time.Month(q.Month), 1, 0, 0, 0, 0, s.loc)
		return from, from.AddDate(0, 1, 0), nil
	case q.Year > 0:
		from := time.Date(q.Year, 1, 1, 0, 0, 0, 0, s.loc)
		return from, from.AddDate(1, 0, 0), nil
	case q.DateFilter == "single" && q.StartDate != "":
		from, err := s.parseDay(q.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return from, from.AddDate(0, 0, 1), nil
	default:
		return time.Time{}, time.Time{}, &RuleError{Msg: "invalid date filter"}
	}
}

func (s *StatsService) parseDay(value string) (time.Time, error) {
	day, err := time.ParseInLocation(statsDateLayout, value, s.loc)
	if err != nil {
		return time.Time{}, &RuleError{Msg: "dates must use the DD-MM-YYYY format"}
	}
	return day, nil
}

func roundRate(part, total int) float64 {
	return math.Round(float64(part)/float64(total)*100*100) / 100
}
