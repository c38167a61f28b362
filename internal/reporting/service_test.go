package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStore serves fixed sums regardless of window, recording the windows it
// was asked about.
type stubStore struct {
	sales       decimal.Decimal
	purchases   decimal.Decimal
	expenses    decimal.Decimal
	outSales    decimal.Decimal
	outPurchase decimal.Decimal
	windows     []*Window
}

func (s *stubStore) SumSales(_ context.Context, w *Window) (decimal.Decimal, error) {
	s.windows = append(s.windows, w)
	return s.sales, nil
}

func (s *stubStore) SumPurchases(_ context.Context, w *Window) (decimal.Decimal, error) {
	return s.purchases, nil
}

func (s *stubStore) SumExpenses(_ context.Context, w *Window) (decimal.Decimal, error) {
	return s.expenses, nil
}

func (s *stubStore) SumOutstandingSales(context.Context) (decimal.Decimal, error) {
	return s.outSales, nil
}

func (s *stubStore) SumOutstandingPurchases(context.Context) (decimal.Decimal, error) {
	return s.outPurchase, nil
}

func fixedNow() time.Time {
	return time.Date(2025, time.March, 20, 12, 30, 0, 0, BusinessTZ)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculateProfitLoss(t *testing.T) {
	store := &stubStore{sales: dec("100"), purchases: dec("40"), expenses: dec("10.50")}
	svc := NewService(store, fixedNow)

	pl, err := svc.CalculateProfitLoss(context.Background(), DayWindow(fixedNow()))
	require.NoError(t, err)
	assert.True(t, pl.Equal(dec("49.5")), "got %s", pl)
}

func TestCalculateProfitLossEmptyData(t *testing.T) {
	svc := NewService(&stubStore{}, fixedNow)
	pl, err := svc.CalculateProfitLoss(context.Background(), DayWindow(fixedNow()))
	require.NoError(t, err)
	assert.True(t, pl.IsZero())
}

func TestDailySummary(t *testing.T) {
	store := &stubStore{
		sales:       dec("200"),
		purchases:   dec("80"),
		expenses:    dec("20"),
		outSales:    dec("55"),
		outPurchase: dec("33"),
	}
	svc := NewService(store, fixedNow)

	summary, err := svc.DailySummary(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.DailyProfitLoss.Equal(dec("100")))
	assert.True(t, summary.TotalDailySales.Equal(dec("200")))
	assert.True(t, summary.TotalDailyPurchases.Equal(dec("80")))
	assert.True(t, summary.ProfitLossMonth.Equal(dec("100")))
	assert.True(t, summary.TotalOutstandingSales.Equal(dec("55")))
	assert.True(t, summary.TotalOutstandingExpenses.Equal(dec("33")))
}

func TestDashboardShape(t *testing.T) {
	store := &stubStore{sales: dec("10"), purchases: dec("4"), expenses: dec("1")}
	svc := NewService(store, fixedNow)

	dash, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	require.Len(t, dash.Yearly, 12)
	require.Len(t, dash.Monthly, 4)
	require.Len(t, dash.Weekly, 7)

	// Oldest first in every series.
	assert.Equal(t, "2024-04", dash.Yearly[0].Month)
	assert.Equal(t, "2025-03", dash.Yearly[11].Month)
	assert.Equal(t, 1, dash.Monthly[0].Week)
	assert.Equal(t, 4, dash.Monthly[3].Week)
	assert.Equal(t, "2025-03-14", dash.Weekly[0].Day)
	assert.Equal(t, "2025-03-20", dash.Weekly[6].Day)

	for _, p := range dash.Yearly {
		assert.True(t, p.ProfitLoss.Equal(dec("5")))
	}
}

func TestDashboardWeekWindowsTileBackwards(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, fixedNow)

	_, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	// The four week windows end at the end of today and tile back seven days
	// at a time. SumSales sees the 12 month windows first.
	require.GreaterOrEqual(t, len(store.windows), 16)
	weeks := store.windows[12:16]
	endOfToday := DayWindow(fixedNow()).End
	for i, w := range weeks {
		require.NotNil(t, w)
		expectedEnd := endOfToday.AddDate(0, 0, -7*(3-i))
		assert.True(t, w.End.Equal(expectedEnd), "week %d end %s", i, w.End)
		assert.True(t, w.Start.Equal(expectedEnd.AddDate(0, 0, -7)))
	}
}
