package reporting

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// StorePort describes the aggregate queries the service depends on.
type StorePort interface {
	SumSales(ctx context.Context, w *Window) (decimal.Decimal, error)
	SumPurchases(ctx context.Context, w *Window) (decimal.Decimal, error)
	SumExpenses(ctx context.Context, w *Window) (decimal.Decimal, error)
	SumOutstandingSales(ctx context.Context) (decimal.Decimal, error)
	SumOutstandingPurchases(ctx context.Context) (decimal.Decimal, error)
}

// Service computes the daily summary and the dashboard series. Every series
// point is recomputed from raw records on each call; at admin-dashboard
// traffic the consistency is worth the extra aggregate queries.
type Service struct {
	store StorePort
	now   func() time.Time
}

// NewService constructs the service. A nil clock falls back to time.Now so
// tests can pin the current instant.
func NewService(store StorePort, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now}
}

// CalculateProfitLoss returns sales minus purchases minus expenses over the
// window. Empty windows produce zero, never an absent value.
func (s *Service) CalculateProfitLoss(ctx context.Context, w Window) (decimal.Decimal, error) {
	var sales, purchases, expenses decimal.Decimal

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sales, err = s.store.SumSales(gctx, &w)
		return err
	})
	g.Go(func() error {
		var err error
		purchases, err = s.store.SumPurchases(gctx, &w)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = s.store.SumExpenses(gctx, &w)
		return err
	})
	if err := g.Wait(); err != nil {
		return decimal.Decimal{}, err
	}

	return sales.Sub(purchases).Sub(expenses), nil
}

// DailySummary reports today's profit/loss, the month-to-date figure and the
// outstanding balances. Outstanding sums carry no date filter.
func (s *Service) DailySummary(ctx context.Context) (DailySummary, error) {
	now := s.now()
	today := DayWindow(now)

	sales, err := s.store.SumSales(ctx, &today)
	if err != nil {
		return DailySummary{}, err
	}
	purchases, err := s.store.SumPurchases(ctx, &today)
	if err != nil {
		return DailySummary{}, err
	}
	expenses, err := s.store.SumExpenses(ctx, &today)
	if err != nil {
		return DailySummary{}, err
	}

	monthToDate, err := s.CalculateProfitLoss(ctx, MonthToDate(now))
	if err != nil {
		return DailySummary{}, err
	}

	outstandingSales, err := s.store.SumOutstandingSales(ctx)
	if err != nil {
		return DailySummary{}, err
	}
	outstandingPurchases, err := s.store.SumOutstandingPurchases(ctx)
	if err != nil {
		return DailySummary{}, err
	}

	return DailySummary{
		DailyProfitLoss:          sales.Sub(purchases).Sub(expenses),
		TotalDailySales:          sales,
		TotalDailyPurchases:      purchases,
		ProfitLossMonth:          monthToDate,
		TotalOutstandingSales:    outstandingSales,
		TotalOutstandingExpenses: outstandingPurchases,
	}, nil
}

// Dashboard builds the trailing 12-month, 4-week and 7-day series, each
// oldest first and always fully populated regardless of data sparsity.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	now := s.now()
	local := now.In(BusinessTZ)
	today := DayWindow(now)

	dash := Dashboard{
		Yearly:  make([]MonthPoint, 0, 12),
		Monthly: make([]WeekPoint, 0, 4),
		Weekly:  make([]DayPoint, 0, 7),
	}

	for i := 11; i >= 0; i-- {
		first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, BusinessTZ).AddDate(0, -i, 0)
		w := Window{Start: first, End: first.AddDate(0, 1, 0)}
		pl, err := s.CalculateProfitLoss(ctx, w)
		if err != nil {
			return Dashboard{}, err
		}
		dash.Yearly = append(dash.Yearly, MonthPoint{Month: first.Format("2006-01"), ProfitLoss: pl})
	}

	for i := 3; i >= 0; i-- {
		end := today.End.AddDate(0, 0, -7*i)
		w := Window{Start: end.AddDate(0, 0, -7), End: end}
		pl, err := s.CalculateProfitLoss(ctx, w)
		if err != nil {
			return Dashboard{}, err
		}
		dash.Monthly = append(dash.Monthly, WeekPoint{Week: 4 - i, ProfitLoss: pl})
	}

	for i := 6; i >= 0; i-- {
		start := today.Start.AddDate(0, 0, -i)
		w := Window{Start: start, End: start.AddDate(0, 0, 1)}
		pl, err := s.CalculateProfitLoss(ctx, w)
		if err != nil {
			return Dashboard{}, err
		}
		dash.Weekly = append(dash.Weekly, DayPoint{Day: start.Format("2006-01-02"), ProfitLoss: pl})
	}

	return dash, nil
}
