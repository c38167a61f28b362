package expenses

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/durianworks/backoffice/internal/platform/httpx"
	"github.com/durianworks/backoffice/internal/reporting"
	"github.com/durianworks/backoffice/internal/shared"
)

// memStore keeps expenses in memory and implements both the transactional
// and the read-side store.
type memStore struct {
	rows   []Expense
	nextID int64
}

func (s *memStore) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	return fn(ctx, s)
}

func (s *memStore) FindByTypeInWindow(_ context.Context, expensesType string, w reporting.Window) (Expense, bool, error) {
	for _, e := range s.rows {
		if e.ExpensesType == expensesType && w.Contains(e.Date) {
			return e, true, nil
		}
	}
	return Expense{}, false, nil
}

func (s *memStore) AddAmount(_ context.Context, id int64, amount decimal.Decimal) (Expense, error) {
	for i, e := range s.rows {
		if e.ID == id {
			s.rows[i].ExpensesAmount = e.ExpensesAmount.Add(amount)
			return s.rows[i], nil
		}
	}
	return Expense{}, httpx.ErrNotFound
}

func (s *memStore) Insert(_ context.Context, e Expense) (Expense, error) {
	s.nextID++
	e.ID = s.nextID
	s.rows = append(s.rows, e)
	return e, nil
}

func (s *memStore) ListWindow(_ context.Context, w *reporting.Window, limit, offset int, paginate bool) ([]Expense, error) {
	out := []Expense{}
	for _, e := range s.rows {
		if w == nil || w.Contains(e.Date) {
			out = append(out, e)
		}
	}
	if paginate {
		if offset >= len(out) {
			return []Expense{}, nil
		}
		out = out[offset:]
		if limit < len(out) {
			out = out[:limit]
		}
	}
	return out, nil
}

func (s *memStore) CountAll(context.Context) (int, error) {
	return len(s.rows), nil
}

func fixedNow() time.Time {
	return time.Date(2025, time.March, 20, 12, 0, 0, 0, shared.BusinessTZ)
}

func newTestService(store *memStore) *Service {
	return NewService(store, store, fixedNow)
}

func TestCreateBatchMergesSameDaySameType(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store)

	first, err := svc.CreateBatch(context.Background(), []CreateInput{
		{ExpensesType: "SALARY", ExpensesAmount: "100"},
	})
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.CreateBatch(context.Background(), []CreateInput{
		{ExpensesType: "SALARY", ExpensesAmount: "50"},
	})
	require.NoError(t, err)
	require.Len(t, second, 1)

	require.Len(t, store.rows, 1)
	assert.True(t, store.rows[0].ExpensesAmount.Equal(decimal.RequireFromString("150")))
	assert.Equal(t, first[0].ID, second[0].ID)
}

func TestCreateBatchDifferentTypesStaySeparate(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store)

	_, err := svc.CreateBatch(context.Background(), []CreateInput{
		{ExpensesType: "SALARY", ExpensesAmount: "100"},
		{ExpensesType: "FUEL", ExpensesAmount: "30"},
	})
	require.NoError(t, err)
	assert.Len(t, store.rows, 2)
}

func TestCreateBatchDifferentDaysStaySeparate(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store)

	_, err := svc.CreateBatch(context.Background(), []CreateInput{
		{ExpensesType: "SALARY", ExpensesAmount: "100", Date: "2025-03-19"},
		{ExpensesType: "SALARY", ExpensesAmount: "50", Date: "2025-03-20"},
	})
	require.NoError(t, err)
	assert.Len(t, store.rows, 2)
}

func TestCreateBatchValidation(t *testing.T) {
	svc := newTestService(&memStore{})

	_, err := svc.CreateBatch(context.Background(), nil)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateBatch(context.Background(), []CreateInput{{ExpensesType: "SALARY"}})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateBatch(context.Background(), []CreateInput{
		{ExpensesType: "SALARY", ExpensesAmount: "not-a-number"},
	})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateBatch(context.Background(), []CreateInput{
		{ExpensesType: "SALARY", ExpensesAmount: "10", Date: "20/03/2025"},
	})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestTodayFiltersToBusinessDay(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store)

	_, err := svc.CreateBatch(context.Background(), []CreateInput{
		{ExpensesType: "SALARY", ExpensesAmount: "100", Date: "2025-03-19"},
		{ExpensesType: "FUEL", ExpensesAmount: "30", Date: "2025-03-20"},
	})
	require.NoError(t, err)

	rows, err := svc.Today(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "FUEL", rows[0].ExpensesType)
}

func TestGroupedByDay(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store)

	_, err := svc.CreateBatch(context.Background(), []CreateInput{
		{ExpensesType: "SALARY", ExpensesAmount: "100", Date: "2025-03-19"},
		{ExpensesType: "FUEL", ExpensesAmount: "30", Date: "2025-03-19"},
		{ExpensesType: "FUEL", ExpensesAmount: "20", Date: "2025-03-20"},
	})
	require.NoError(t, err)

	groups, meta, err := svc.Grouped(context.Background(), shared.PageQuery{}, nil, nil)
	require.NoError(t, err)

	require.Len(t, groups, 2)
	assert.Equal(t, "2025-03-19", groups[0].Date)
	assert.Len(t, groups[0].ExpensesType, 2)
	assert.Equal(t, "2025-03-20", groups[1].Date)
	assert.Len(t, groups[1].ExpensesType, 1)

	assert.Equal(t, 3, meta.TotalRecords)
	assert.Equal(t, 1, meta.TotalPages)
}

func TestGroupedPaginatesRawRows(t *testing.T) {
	store := &memStore{}
	svc := newTestService(store)

	_, err := svc.CreateBatch(context.Background(), []CreateInput{
		{ExpensesType: "SALARY", ExpensesAmount: "100", Date: "2025-03-18"},
		{ExpensesType: "FUEL", ExpensesAmount: "30", Date: "2025-03-19"},
		{ExpensesType: "WATER", ExpensesAmount: "20", Date: "2025-03-20"},
	})
	require.NoError(t, err)

	page, size := 0, 2
	groups, meta, err := svc.Grouped(context.Background(), shared.PageQuery{Page: &page, Size: &size}, nil, nil)
	require.NoError(t, err)

	require.Len(t, groups, 2)
	assert.Equal(t, 3, meta.TotalRecords)
	assert.Equal(t, 2, meta.TotalPages)
}

func TestGroupedRejectsBadWindow(t *testing.T) {
	svc := newTestService(&memStore{})
	bad := 13
	_, _, err := svc.Grouped(context.Background(), shared.PageQuery{}, &bad, nil)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}
