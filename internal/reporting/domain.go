package reporting

import "github.com/shopspring/decimal"

// DailySummary is the composite daily report: today's result, month to date
// and the open balances that are still outstanding.
type DailySummary struct {
	DailyProfitLoss          decimal.Decimal `json:"dailyProfitLoss"`
	TotalDailySales          decimal.Decimal `json:"totalDailySales"`
	TotalDailyPurchases      decimal.Decimal `json:"totalDailyPurchases"`
	ProfitLossMonth          decimal.Decimal `json:"profitLossMonth"`
	TotalOutstandingSales    decimal.Decimal `json:"totalOutstandingSales"`
	TotalOutstandingExpenses decimal.Decimal `json:"totalOutstandingExpenses"`
}

// MonthPoint is one month of the trailing-year series.
type MonthPoint struct {
	Month      string          `json:"month"`
	ProfitLoss decimal.Decimal `json:"profitLoss"`
}

// WeekPoint is one seven-day bucket of the trailing-month series.
type WeekPoint struct {
	Week       int             `json:"week"`
	ProfitLoss decimal.Decimal `json:"profitLoss"`
}

// DayPoint is one day of the trailing-week series.
type DayPoint struct {
	Day        string          `json:"day"`
	ProfitLoss decimal.Decimal `json:"profitLoss"`
}

// Dashboard carries the three parallel series, each oldest first and always
// fully populated: 12 months, 4 weeks, 7 days.
type Dashboard struct {
	Yearly  []MonthPoint `json:"yearly"`
	Monthly []WeekPoint  `json:"monthly"`
	Weekly  []DayPoint   `json:"weekly"`
}
