// Package expenses records operating costs and serves the grouped expense
// reports. Same-day entries of the same type are accumulated into one row
// rather than duplicated.
package expenses

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is one cost row. ExpensesType is categorical (SALARY, FUEL, ...).
type Expense struct {
	ID             int64           `json:"id"`
	ExpensesType   string          `json:"expensesType"`
	ExpensesAmount decimal.Decimal `json:"expensesAmount"`
	Date           time.Time       `json:"date"`
	Remark         string          `json:"remark"`
}

// Group is one calendar day of expenses in the grouped report.
type Group struct {
	Date         string    `json:"date"`
	ExpensesType []Expense `json:"expensesType"`
}
