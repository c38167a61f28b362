package expenses

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/durianworks/backoffice/internal/platform/httpx"
	"github.com/durianworks/backoffice/internal/reporting"
	"github.com/durianworks/backoffice/internal/shared"
)

// CreateInput is one expense in a create batch. Amount arrives as a string
// or a number depending on the client, so it is parsed manually.
type CreateInput struct {
	ExpensesType   string `json:"expensesType" validate:"required"`
	ExpensesAmount string `json:"expensesAmount" validate:"required"`
	Date           string `json:"date"`
	Remark         string `json:"remark"`
}

// TxRunner abstracts the transactional store for tests.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error
}

// ListStore abstracts the read side for tests.
type ListStore interface {
	ListWindow(ctx context.Context, w *reporting.Window, limit, offset int, paginate bool) ([]Expense, error)
	CountAll(ctx context.Context) (int, error)
}

// Service implements the expense operations.
type Service struct {
	runner   TxRunner
	store    ListStore
	validate *validator.Validate
	now      func() time.Time
}

// NewService constructs the service. A nil clock falls back to time.Now.
func NewService(runner TxRunner, store ListStore, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		runner:   runner,
		store:    store,
		validate: validator.New(),
		now:      now,
	}
}

// CreateBatch records a batch of expenses in one transaction. An expense of
// a type already recorded on the same business day is merged into the
// existing row by adding the amounts, so each (type, day) pair stays unique.
func (s *Service) CreateBatch(ctx context.Context, inputs []CreateInput) ([]Expense, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one expense is required", httpx.ErrValidation)
	}

	pending := make([]Expense, 0, len(inputs))
	for i, in := range inputs {
		if err := s.validate.Struct(in); err != nil {
			return nil, fmt.Errorf("%w: expense %d: %v", httpx.ErrValidation, i, err)
		}
		amount, err := decimal.NewFromString(in.ExpensesAmount)
		if err != nil {
			return nil, fmt.Errorf("%w: expense %d: invalid amount %q", httpx.ErrValidation, i, in.ExpensesAmount)
		}
		date := s.now()
		if in.Date != "" {
			date, err = shared.ParseDate(in.Date)
			if err != nil {
				return nil, fmt.Errorf("%w: expense %d: invalid date %q", httpx.ErrValidation, i, in.Date)
			}
		}
		pending = append(pending, Expense{
			ExpensesType:   in.ExpensesType,
			ExpensesAmount: amount,
			Date:           date,
			Remark:         in.Remark,
		})
	}

	var saved []Expense
	err := s.runner.WithTx(ctx, func(ctx context.Context, store TxStore) error {
		for _, e := range pending {
			merged, err := UpsertExpense(ctx, store, e)
			if err != nil {
				return err
			}
			saved = append(saved, merged)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("expenses: create batch: %w", err)
	}
	return saved, nil
}

// UpsertExpense merges e into the existing same-type row of the same
// business day, or inserts a new row when none exists. Exported so salary
// advances can record their expense through the same rule.
func UpsertExpense(ctx context.Context, store TxStore, e Expense) (Expense, error) {
	day := reporting.DayWindow(e.Date)
	existing, found, err := store.FindByTypeInWindow(ctx, e.ExpensesType, day)
	if err != nil {
		return Expense{}, err
	}
	if found {
		return store.AddAmount(ctx, existing.ID, e.ExpensesAmount)
	}
	return store.Insert(ctx, e)
}

// Today lists the current business day's expenses.
func (s *Service) Today(ctx context.Context) ([]Expense, error) {
	day := reporting.DayWindow(s.now())
	rows, err := s.store.ListWindow(ctx, &day, 0, 0, false)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []Expense{}
	}
	return rows, nil
}

// Grouped returns expenses grouped by business day, oldest day first,
// optionally filtered by month/week and paginated. Pagination applies to the
// raw rows before grouping and totalRecords counts every expense on record.
func (s *Service) Grouped(ctx context.Context, q shared.PageQuery, month, week *int) ([]Group, shared.PageMeta, error) {
	w, err := reporting.Resolve(s.now(), month, week)
	if err != nil {
		return nil, shared.PageMeta{}, err
	}

	limit, offset, paginate := q.LimitOffset()
	rows, err := s.store.ListWindow(ctx, w, limit, offset, paginate)
	if err != nil {
		return nil, shared.PageMeta{}, err
	}
	total, err := s.store.CountAll(ctx)
	if err != nil {
		return nil, shared.PageMeta{}, err
	}

	groups := make([]Group, 0)
	index := make(map[string]int)
	for _, e := range rows {
		day := e.Date.In(reporting.BusinessTZ).Format("2006-01-02")
		at, ok := index[day]
		if !ok {
			at = len(groups)
			index[day] = at
			groups = append(groups, Group{Date: day, ExpensesType: []Expense{}})
		}
		groups[at].ExpensesType = append(groups[at].ExpensesType, e)
	}

	return groups, shared.NewPageMeta(q, total), nil
}
