package expenses

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/durianworks/backoffice/internal/platform/db"
	"github.com/durianworks/backoffice/internal/reporting"
)

// Repository provides PostgreSQL backed persistence for expenses.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxStore exposes the writes used inside an expense batch transaction.
type TxStore interface {
	FindByTypeInWindow(ctx context.Context, expensesType string, w reporting.Window) (Expense, bool, error)
	AddAmount(ctx context.Context, id int64, amount decimal.Decimal) (Expense, error)
	Insert(ctx context.Context, e Expense) (Expense, error)
}

type txStore struct {
	tx pgx.Tx
}

// NewTxStore binds a TxStore to an existing transaction so other modules can
// record expenses atomically with their own writes.
func NewTxStore(tx pgx.Tx) TxStore {
	return &txStore{tx: tx}
}

// WithTx wraps fn in a transaction so a batch of expenses lands atomically.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txStore{tx: tx})
	})
}

const expenseColumns = `id, expenses_type, expenses_amount::text, date, remark`

func scanExpense(row pgx.Row) (Expense, error) {
	var e Expense
	var amount string
	if err := row.Scan(&e.ID, &e.ExpensesType, &amount, &e.Date, &e.Remark); err != nil {
		return Expense{}, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Expense{}, fmt.Errorf("expenses: parse amount %q: %w", amount, err)
	}
	e.ExpensesAmount = d
	return e, nil
}

func (s *txStore) FindByTypeInWindow(ctx context.Context, expensesType string, w reporting.Window) (Expense, bool, error) {
	row := s.tx.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses
		WHERE expenses_type = $1 AND date >= $2 AND date < $3
		ORDER BY id LIMIT 1`, expensesType, w.Start, w.End)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Expense{}, false, nil
		}
		return Expense{}, false, fmt.Errorf("expenses: find by type: %w", err)
	}
	return e, true, nil
}

func (s *txStore) AddAmount(ctx context.Context, id int64, amount decimal.Decimal) (Expense, error) {
	row := s.tx.QueryRow(ctx, `UPDATE expenses
		SET expenses_amount = expenses_amount + $1
		WHERE id = $2
		RETURNING `+expenseColumns, amount, id)
	e, err := scanExpense(row)
	if err != nil {
		return Expense{}, fmt.Errorf("expenses: accumulate amount: %w", err)
	}
	return e, nil
}

func (s *txStore) Insert(ctx context.Context, e Expense) (Expense, error) {
	row := s.tx.QueryRow(ctx, `INSERT INTO expenses (expenses_type, expenses_amount, date, remark)
		VALUES ($1, $2, $3, $4)
		RETURNING `+expenseColumns, e.ExpensesType, e.ExpensesAmount, e.Date, e.Remark)
	created, err := scanExpense(row)
	if err != nil {
		return Expense{}, fmt.Errorf("expenses: insert: %w", err)
	}
	return created, nil
}

// ListWindow returns expenses sorted ascending by date, optionally filtered
// by window and paginated.
func (r *Repository) ListWindow(ctx context.Context, w *reporting.Window, limit, offset int, paginate bool) ([]Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses`
	args := []any{}
	if w != nil {
		query += ` WHERE date >= $1 AND date < $2`
		args = append(args, w.Start, w.End)
	}
	query += ` ORDER BY date ASC, id ASC`
	if paginate {
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("expenses: list: %w", err)
	}
	defer rows.Close()

	var out []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("expenses: scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("expenses: rows: %w", err)
	}
	return out, nil
}

// CountAll returns the total number of expense rows.
func (r *Repository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM expenses`).Scan(&total); err != nil {
		return 0, fmt.Errorf("expenses: count: %w", err)
	}
	return total, nil
}
