package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/durianworks/backoffice/internal/expenses"
	"github.com/durianworks/backoffice/internal/platform/db"
	"github.com/durianworks/backoffice/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for admin accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const adminColumns = `id, username, login_id, password_hash, role, salary::text, created_at`

func scanAdmin(row pgx.Row) (Admin, error) {
	var a Admin
	var salary string
	if err := row.Scan(&a.ID, &a.Username, &a.LoginID, &a.PasswordHash, &a.Role, &salary, &a.CreatedAt); err != nil {
		return Admin{}, err
	}
	d, err := decimal.NewFromString(salary)
	if err != nil {
		return Admin{}, fmt.Errorf("auth: parse salary %q: %w", salary, err)
	}
	a.Salary = d
	return a, nil
}

// Create inserts a new admin account. A taken login id maps to ErrDuplicate.
func (r *Repository) Create(ctx context.Context, a Admin) (Admin, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO admins (username, login_id, password_hash, role, salary)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+adminColumns, a.Username, a.LoginID, a.PasswordHash, a.Role, a.Salary)
	created, err := scanAdmin(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Admin{}, fmt.Errorf("auth: login id %q taken: %w", a.LoginID, httpx.ErrDuplicate)
		}
		return Admin{}, fmt.Errorf("auth: create admin: %w", err)
	}
	return created, nil
}

// FindByLoginID looks an admin up by login id.
func (r *Repository) FindByLoginID(ctx context.Context, loginID string) (Admin, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE login_id = $1`, loginID)
	a, err := scanAdmin(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Admin{}, fmt.Errorf("auth: login id %q: %w", loginID, httpx.ErrNotFound)
		}
		return Admin{}, fmt.Errorf("auth: find admin: %w", err)
	}
	return a, nil
}

// FindByID looks an admin up by id.
func (r *Repository) FindByID(ctx context.Context, id int64) (Admin, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
	a, err := scanAdmin(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Admin{}, fmt.Errorf("auth: admin %d: %w", id, httpx.ErrNotFound)
		}
		return Admin{}, fmt.Errorf("auth: find admin: %w", err)
	}
	return a, nil
}

// RecordSalaryAdvance stores the advance and its SALARY expense in one
// transaction. The expense goes through the same-day merge rule, so repeated
// advances on one day accumulate into a single expense row.
func (r *Repository) RecordSalaryAdvance(ctx context.Context, adminID int64, amount decimal.Decimal, at time.Time, remark string) (expenses.Expense, error) {
	var recorded expenses.Expense
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO salary_advances (admin_id, amount, requested_at)
			VALUES ($1, $2, $3)`, adminID, amount, at); err != nil {
			return fmt.Errorf("insert salary advance: %w", err)
		}
		e, err := expenses.UpsertExpense(ctx, expenses.NewTxStore(tx), expenses.Expense{
			ExpensesType:   "SALARY",
			ExpensesAmount: amount,
			Date:           at,
			Remark:         remark,
		})
		if err != nil {
			return fmt.Errorf("record salary expense: %w", err)
		}
		recorded = e
		return nil
	})
	if err != nil {
		return expenses.Expense{}, fmt.Errorf("auth: salary advance: %w", err)
	}
	return recorded, nil
}
