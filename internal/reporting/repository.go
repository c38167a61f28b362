package reporting

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository runs the aggregate queries behind every report. Sums come back
// through text so numeric columns land in decimals without a float round
// trip.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) sum(ctx context.Context, query string, args ...any) (decimal.Decimal, error) {
	var text string
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&text); err != nil {
		return decimal.Decimal{}, fmt.Errorf("reporting: aggregate query: %w", err)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("reporting: parse aggregate %q: %w", text, err)
	}
	return d, nil
}

// SumSales totals sales value for orders dated inside the window; a nil
// window totals everything.
func (r *Repository) SumSales(ctx context.Context, w *Window) (decimal.Decimal, error) {
	if w == nil {
		return r.sum(ctx, `SELECT COALESCE(SUM(si.total_sales_value), 0)::text
			FROM sales_info si JOIN sales s ON s.id = si.sales_id`)
	}
	return r.sum(ctx, `SELECT COALESCE(SUM(si.total_sales_value), 0)::text
		FROM sales_info si JOIN sales s ON s.id = si.sales_id
		WHERE s.sales_date >= $1 AND s.sales_date < $2`, w.Start, w.End)
}

// SumPurchases totals purchase cost for orders dated inside the window.
func (r *Repository) SumPurchases(ctx context.Context, w *Window) (decimal.Decimal, error) {
	if w == nil {
		return r.sum(ctx, `SELECT COALESCE(SUM(pi.total_purchase_price), 0)::text
			FROM purchase_info pi JOIN purchases p ON p.id = pi.purchase_id`)
	}
	return r.sum(ctx, `SELECT COALESCE(SUM(pi.total_purchase_price), 0)::text
		FROM purchase_info pi JOIN purchases p ON p.id = pi.purchase_id
		WHERE p.purchase_date >= $1 AND p.purchase_date < $2`, w.Start, w.End)
}

// SumExpenses totals expenses dated inside the window.
func (r *Repository) SumExpenses(ctx context.Context, w *Window) (decimal.Decimal, error) {
	if w == nil {
		return r.sum(ctx, `SELECT COALESCE(SUM(expenses_amount), 0)::text FROM expenses`)
	}
	return r.sum(ctx, `SELECT COALESCE(SUM(expenses_amount), 0)::text
		FROM expenses WHERE date >= $1 AND date < $2`, w.Start, w.End)
}

// SumOutstandingSales totals sales value across OUTSTANDING orders only.
// Cancelled and completed orders stay in history but never count here.
func (r *Repository) SumOutstandingSales(ctx context.Context) (decimal.Decimal, error) {
	return r.sum(ctx, `SELECT COALESCE(SUM(si.total_sales_value), 0)::text
		FROM sales_info si JOIN sales s ON s.id = si.sales_id
		WHERE s.sales_status = 'OUTSTANDING'`)
}

// SumOutstandingPurchases totals purchase cost across OUTSTANDING orders.
func (r *Repository) SumOutstandingPurchases(ctx context.Context) (decimal.Decimal, error) {
	return r.sum(ctx, `SELECT COALESCE(SUM(pi.total_purchase_price), 0)::text
		FROM purchase_info pi JOIN purchases p ON p.id = pi.purchase_id
		WHERE p.purchase_status = 'OUTSTANDING'`)
}
