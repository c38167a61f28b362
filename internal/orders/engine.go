package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/durianworks/backoffice/internal/platform/httpx"
)

// Store exposes the row writes the engine performs inside one transaction.
// The sales and purchasing repositories both implement it against their own
// tables.
type Store interface {
	UpdateOrder(ctx context.Context, id int64, fields Patch) error
	UpdateLineItem(ctx context.Context, id int64, fields Patch) error
	InsertBasket(ctx context.Context, lineItemID int64, fields Patch) error
	UpdateBasket(ctx context.Context, id int64, fields Patch) error
	DeleteBasket(ctx context.Context, id int64) error
}

// TxRunner opens a transaction and hands the engine a transactional Store.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, Store) error) error
}

// LineColumns names the entity-specific columns of a line item so one engine
// serves both order kinds.
type LineColumns struct {
	Price   string
	Qty     string
	Total   string
	Variety string
}

// LineInput is a sparse update for one line item plus its basket entries.
type LineInput struct {
	LineID  Field
	Variety Field
	Price   Field
	Qty     Field
	Total   Field
	Baskets []BasketInput
}

// Input is one order update request.
type Input struct {
	OrderID int64
	Fields  Patch
	Lines   []LineInput
}

// StepResult records the outcome of one write inside the update.
type StepResult struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	UpdatedFields map[string]any `json:"updatedFields,omitempty"`
}

// Result is the ordered log of an applied update. Success is true only when
// every step succeeded; skipped no-op entries count as failures in the log
// without aborting the transaction.
type Result struct {
	Success bool         `json:"success"`
	Results []StepResult `json:"results"`
}

// Engine applies nested order updates atomically.
type Engine struct {
	runner      TxRunner
	cols        LineColumns
	stepTimeout time.Duration
}

const defaultStepTimeout = 2 * time.Second

// NewEngine builds an engine over the given transaction runner and column
// mapping. stepTimeout bounds each pending write; zero selects the default.
func NewEngine(runner TxRunner, cols LineColumns, stepTimeout time.Duration) *Engine {
	if stepTimeout <= 0 {
		stepTimeout = defaultStepTimeout
	}
	return &Engine{runner: runner, cols: cols, stepTimeout: stepTimeout}
}

// Apply runs the update as one transaction: order fields first, then each
// line item in input order, then that line's baskets in input order. Any
// write error rolls the whole transaction back.
func (e *Engine) Apply(ctx context.Context, in Input) (Result, error) {
	if in.OrderID == 0 {
		return Result{}, fmt.Errorf("orders: order id is required: %w", httpx.ErrValidation)
	}

	// The transaction grows with the payload, so the deadline does too.
	steps := 1 + len(in.Lines)
	for _, line := range in.Lines {
		steps += len(line.Baskets)
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(steps)*e.stepTimeout)
	defer cancel()

	var out Result
	err := e.runner.WithTx(ctx, func(ctx context.Context, store Store) error {
		if !in.Fields.Empty() {
			if err := store.UpdateOrder(ctx, in.OrderID, in.Fields); err != nil {
				return fmt.Errorf("orders: update order %d: %w", in.OrderID, err)
			}
			out.Results = append(out.Results, StepResult{
				Success:       true,
				Message:       "order updated",
				UpdatedFields: in.Fields,
			})
		}

		for _, line := range in.Lines {
			if err := e.applyLine(ctx, store, line, &out); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("orders: order update failed: %w", err)
	}

	out.Success = true
	for _, step := range out.Results {
		if !step.Success {
			out.Success = false
			break
		}
	}
	return out, nil
}

func (e *Engine) applyLine(ctx context.Context, store Store, line LineInput, out *Result) error {
	patch, err := e.linePatch(line)
	if err != nil {
		return err
	}

	if !patch.Empty() {
		if !line.LineID.Present() {
			return fmt.Errorf("orders: line item id is required: %w", httpx.ErrValidation)
		}
		lineID, err := line.LineID.Int64()
		if err != nil {
			return fmt.Errorf("%v: %w", err, httpx.ErrValidation)
		}
		if err := store.UpdateLineItem(ctx, lineID, patch); err != nil {
			return fmt.Errorf("orders: update line item %d: %w", lineID, err)
		}
		out.Results = append(out.Results, StepResult{
			Success:       true,
			Message:       "line item updated",
			UpdatedFields: patch,
		})
	} else {
		out.Results = append(out.Results, StepResult{
			Success: false,
			Message: "no valid fields provided for this line item",
		})
	}

	for _, basket := range line.Baskets {
		if err := e.applyBasket(ctx, store, line, basket, out); err != nil {
			return err
		}
	}
	return nil
}

// linePatch builds the sparse update for a line item. When both factors are
// present the stored total is always recomputed as price times quantity;
// caller-supplied totals only apply when a factor is missing, and a fully
// absent trio leaves the stored total untouched.
func (e *Engine) linePatch(line LineInput) (Patch, error) {
	patch := Patch{}
	if err := patch.PutDecimal(e.cols.Price, line.Price); err != nil {
		return nil, fmt.Errorf("%v: %w", err, httpx.ErrValidation)
	}
	if err := patch.PutDecimal(e.cols.Qty, line.Qty); err != nil {
		return nil, fmt.Errorf("%v: %w", err, httpx.ErrValidation)
	}
	if err := patch.PutInt64(e.cols.Variety, line.Variety); err != nil {
		return nil, fmt.Errorf("%v: %w", err, httpx.ErrValidation)
	}

	if line.Price.Present() && line.Qty.Present() {
		price, err := line.Price.Decimal()
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, httpx.ErrValidation)
		}
		qty, err := line.Qty.Decimal()
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, httpx.ErrValidation)
		}
		patch[e.cols.Total] = price.Mul(qty)
	} else if err := patch.PutDecimal(e.cols.Total, line.Total); err != nil {
		return nil, fmt.Errorf("%v: %w", err, httpx.ErrValidation)
	}
	return patch, nil
}

func (e *Engine) applyBasket(ctx context.Context, store Store, line LineInput, in BasketInput, out *Result) error {
	op, err := ClassifyBasket(in)
	if err != nil {
		return fmt.Errorf("%v: %w", err, httpx.ErrValidation)
	}

	switch op.Kind {
	case BasketCreate:
		if !line.LineID.Present() {
			return fmt.Errorf("orders: line item id is required to create a basket: %w", httpx.ErrValidation)
		}
		lineID, err := line.LineID.Int64()
		if err != nil {
			return fmt.Errorf("%v: %w", err, httpx.ErrValidation)
		}
		if err := store.InsertBasket(ctx, lineID, op.Fields); err != nil {
			return fmt.Errorf("orders: create basket under line %d: %w", lineID, err)
		}
		out.Results = append(out.Results, StepResult{
			Success:       true,
			Message:       "basket created",
			UpdatedFields: op.Fields,
		})
	case BasketUpdate:
		if err := store.UpdateBasket(ctx, op.ID, op.Fields); err != nil {
			return fmt.Errorf("orders: update basket %d: %w", op.ID, err)
		}
		out.Results = append(out.Results, StepResult{
			Success:       true,
			Message:       "basket updated",
			UpdatedFields: op.Fields,
		})
	case BasketDelete:
		if err := store.DeleteBasket(ctx, op.ID); err != nil {
			return fmt.Errorf("orders: delete basket %d: %w", op.ID, err)
		}
		out.Results = append(out.Results, StepResult{
			Success: true,
			Message: "basket deleted",
		})
	default:
		out.Results = append(out.Results, StepResult{
			Success: false,
			Message: "no valid fields provided for this basket entry",
		})
	}
	return nil
}
