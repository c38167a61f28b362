// Package jobs runs the background tasks behind the API: currently the
// nightly scan that repairs line totals drifting from price times weight.
package jobs

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TaskTotalsIntegrity recomputes stored line totals that no longer equal
// price times quantity.
const TaskTotalsIntegrity = "reports:totals_integrity"

// IntegrityChecker repairs derived totals on the line item tables. Drift can
// only appear through manual database edits; the scan keeps the reports
// trustworthy anyway.
type IntegrityChecker struct {
	logger *slog.Logger
	pool   *pgxpool.Pool
}

// NewIntegrityChecker constructs a checker.
func NewIntegrityChecker(logger *slog.Logger, pool *pgxpool.Pool) *IntegrityChecker {
	return &IntegrityChecker{logger: logger, pool: pool}
}

// The repair statements compare against the product rounded to cents:
// totals store two decimal places while the raw product carries the combined
// scale of price and weight, so an unrounded comparison re-flags rows whose
// exact product has sub-cent digits on every run.
const (
	repairSalesTotals = `UPDATE sales_info
		SET total_sales_value = round(price_per_kg * kg_sales, 2)
		WHERE total_sales_value <> round(price_per_kg * kg_sales, 2)`
	repairPurchaseTotals = `UPDATE purchase_info
		SET total_purchase_price = round(price_per_kg * kg_purchased, 2)
		WHERE total_purchase_price <> round(price_per_kg * kg_purchased, 2)`
)

// ProcessTask repairs both line item tables in one pass.
func (c *IntegrityChecker) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	runID := uuid.NewString()
	logger := c.logger.With(slog.String("runId", runID), slog.String("task", TaskTotalsIntegrity))

	salesFixed, err := c.repair(ctx, repairSalesTotals)
	if err != nil {
		logger.Error("repair sales totals", slog.Any("error", err))
		return err
	}

	purchasesFixed, err := c.repair(ctx, repairPurchaseTotals)
	if err != nil {
		logger.Error("repair purchase totals", slog.Any("error", err))
		return err
	}

	logger.Info("totals integrity scan finished",
		slog.Int64("salesRepaired", salesFixed),
		slog.Int64("purchasesRepaired", purchasesFixed))
	return nil
}

func (c *IntegrityChecker) repair(ctx context.Context, query string) (int64, error) {
	tag, err := c.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
