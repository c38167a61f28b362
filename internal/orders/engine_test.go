package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/durianworks/backoffice/internal/platform/httpx"
)

type call struct {
	op     string
	id     int64
	fields Patch
}

// memStore records every write so tests can assert on ordering and payloads.
type memStore struct {
	calls   []call
	failOp  string
	failErr error
}

func (s *memStore) record(op string, id int64, fields Patch) error {
	if s.failOp == op {
		return s.failErr
	}
	s.calls = append(s.calls, call{op: op, id: id, fields: fields})
	return nil
}

func (s *memStore) UpdateOrder(_ context.Context, id int64, fields Patch) error {
	return s.record("order", id, fields)
}

func (s *memStore) UpdateLineItem(_ context.Context, id int64, fields Patch) error {
	return s.record("line", id, fields)
}

func (s *memStore) InsertBasket(_ context.Context, lineItemID int64, fields Patch) error {
	return s.record("basket_create", lineItemID, fields)
}

func (s *memStore) UpdateBasket(_ context.Context, id int64, fields Patch) error {
	return s.record("basket_update", id, fields)
}

func (s *memStore) DeleteBasket(_ context.Context, id int64) error {
	return s.record("basket_delete", id, nil)
}

// memRunner hands the engine its store and reports whether the transaction
// callback failed, standing in for a rollback.
type memRunner struct {
	store      *memStore
	rolledBack bool
}

func (r *memRunner) WithTx(ctx context.Context, fn func(context.Context, Store) error) error {
	if err := fn(ctx, r.store); err != nil {
		r.rolledBack = true
		return err
	}
	return nil
}

var testCols = LineColumns{
	Price:   "price_per_kg",
	Qty:     "kg_purchased",
	Total:   "total_purchase_price",
	Variety: "durian_variety_id",
}

func newTestEngine(store *memStore) (*Engine, *memRunner) {
	runner := &memRunner{store: store}
	return NewEngine(runner, testCols, 0), runner
}

func TestApplyRequiresOrderID(t *testing.T) {
	engine, _ := newTestEngine(&memStore{})
	_, err := engine.Apply(context.Background(), Input{})
	require.Error(t, err)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestApplyDerivesLineTotal(t *testing.T) {
	store := &memStore{}
	engine, _ := newTestEngine(store)

	result, err := engine.Apply(context.Background(), Input{
		OrderID: 1,
		Lines: []LineInput{{
			LineID: NewField("10"),
			Price:  NewField("2.50"),
			Qty:    NewField("4"),
			Total:  NewField("999"),
		}},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)

	require.Len(t, store.calls, 1)
	c := store.calls[0]
	assert.Equal(t, "line", c.op)
	assert.Equal(t, int64(10), c.id)
	total, ok := c.fields["total_purchase_price"].(decimal.Decimal)
	require.True(t, ok)
	assert.True(t, total.Equal(decimal.RequireFromString("10")), "got %s", total)
}

func TestApplyKeepsVerbatimTotalWhenFactorMissing(t *testing.T) {
	store := &memStore{}
	engine, _ := newTestEngine(store)

	_, err := engine.Apply(context.Background(), Input{
		OrderID: 1,
		Lines: []LineInput{{
			LineID: NewField("10"),
			Price:  NewField("2.50"),
			Total:  NewField("999"),
		}},
	})
	require.NoError(t, err)

	require.Len(t, store.calls, 1)
	total := store.calls[0].fields["total_purchase_price"].(decimal.Decimal)
	assert.True(t, total.Equal(decimal.RequireFromString("999")))
}

func TestApplyLeavesTotalUntouchedWhenAllAbsent(t *testing.T) {
	store := &memStore{}
	engine, _ := newTestEngine(store)

	_, err := engine.Apply(context.Background(), Input{
		OrderID: 1,
		Lines: []LineInput{{
			LineID:  NewField("10"),
			Variety: NewField("3"),
		}},
	})
	require.NoError(t, err)

	require.Len(t, store.calls, 1)
	assert.NotContains(t, store.calls[0].fields, "total_purchase_price")
	assert.Equal(t, int64(3), store.calls[0].fields["durian_variety_id"])
}

func TestApplyEmptyLineStillProcessesBaskets(t *testing.T) {
	store := &memStore{}
	engine, _ := newTestEngine(store)

	result, err := engine.Apply(context.Background(), Input{
		OrderID: 1,
		Lines: []LineInput{{
			LineID:  NewField("10"),
			Baskets: []BasketInput{{Kg: NewField("5")}},
		}},
	})
	require.NoError(t, err)

	// The skipped line is logged as a failed step but the basket lands.
	assert.False(t, result.Success)
	require.Len(t, result.Results, 2)
	assert.False(t, result.Results[0].Success)
	assert.Equal(t, "no valid fields provided for this line item", result.Results[0].Message)
	assert.True(t, result.Results[1].Success)

	require.Len(t, store.calls, 1)
	assert.Equal(t, "basket_create", store.calls[0].op)
	assert.Equal(t, int64(10), store.calls[0].id)
}

func TestApplyBasketDispatch(t *testing.T) {
	store := &memStore{}
	engine, _ := newTestEngine(store)

	result, err := engine.Apply(context.Background(), Input{
		OrderID: 1,
		Lines: []LineInput{{
			LineID: NewField("10"),
			Price:  NewField("1"),
			Qty:    NewField("1"),
			Baskets: []BasketInput{
				{Kg: NewField("5")},
				{BasketID: NewField("7"), Kg: NewField("6")},
				{BasketID: NewField("8")},
			},
		}},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)

	require.Len(t, store.calls, 4)
	assert.Equal(t, "line", store.calls[0].op)
	assert.Equal(t, "basket_create", store.calls[1].op)
	assert.Equal(t, "basket_update", store.calls[2].op)
	assert.Equal(t, int64(7), store.calls[2].id)
	assert.Equal(t, "basket_delete", store.calls[3].op)
	assert.Equal(t, int64(8), store.calls[3].id)
}

func TestApplyOrderFieldsFirst(t *testing.T) {
	store := &memStore{}
	engine, _ := newTestEngine(store)

	fields := Patch{"remark": "updated"}
	result, err := engine.Apply(context.Background(), Input{
		OrderID: 9,
		Fields:  fields,
		Lines: []LineInput{{
			LineID: NewField("10"),
			Qty:    NewField("2"),
		}},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)

	require.Len(t, store.calls, 2)
	assert.Equal(t, "order", store.calls[0].op)
	assert.Equal(t, int64(9), store.calls[0].id)
	assert.Equal(t, "line", store.calls[1].op)
}

func TestApplyRollsBackOnWriteFailure(t *testing.T) {
	boom := errors.New("write failed")
	store := &memStore{failOp: "basket_update", failErr: boom}
	engine, runner := newTestEngine(store)

	_, err := engine.Apply(context.Background(), Input{
		OrderID: 1,
		Fields:  Patch{"remark": "x"},
		Lines: []LineInput{{
			LineID:  NewField("10"),
			Qty:     NewField("2"),
			Baskets: []BasketInput{{BasketID: NewField("7"), Kg: NewField("6")}},
		}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, runner.rolledBack)
}
