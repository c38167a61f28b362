package purchasing

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/durianworks/backoffice/internal/orders"
	"github.com/durianworks/backoffice/internal/platform/httpx"
	"github.com/durianworks/backoffice/internal/reporting"
	"github.com/durianworks/backoffice/internal/shared"
)

// memStore records the calls the service makes.
type memStore struct {
	created       []Purchase
	createdLines  [][]LineDraft
	statusUpdates map[int64]string
	outstanding   int
	all           int
	listWindows   []*reporting.Window
	invoices      map[int64]int
}

func newMemStore() *memStore {
	return &memStore{statusUpdates: map[int64]string{}, invoices: map[int64]int{}}
}

func (s *memStore) CreateOrder(_ context.Context, p Purchase, lines []LineDraft, _ [][]byte) (int64, error) {
	s.created = append(s.created, p)
	s.createdLines = append(s.createdLines, lines)
	return int64(len(s.created)), nil
}

func (s *memStore) ListByStatus(_ context.Context, status string, w *reporting.Window, _, _ int, _ bool) ([]OrderView, error) {
	s.listWindows = append(s.listWindows, w)
	return []OrderView{}, nil
}

func (s *memStore) ListAll(_ context.Context, w *reporting.Window, _, _ int, _ bool) ([]OrderView, error) {
	s.listWindows = append(s.listWindows, w)
	return []OrderView{}, nil
}

func (s *memStore) CountByStatus(_ context.Context, status string) (int, error) {
	if status == StatusOutstanding {
		return s.outstanding, nil
	}
	return 0, nil
}

func (s *memStore) CountAll(context.Context) (int, error) {
	return s.all, nil
}

func (s *memStore) SetStatus(_ context.Context, id int64, status string) error {
	if id == 404 {
		return httpx.ErrNotFound
	}
	s.statusUpdates[id] = status
	return nil
}

func (s *memStore) AddInvoices(_ context.Context, orderID int64, images [][]byte) error {
	s.invoices[orderID] += len(images)
	return nil
}

// engineStore implements the order engine's store, recording writes.
type engineStore struct {
	ops []string
	ids []int64
}

func (s *engineStore) UpdateOrder(_ context.Context, id int64, _ orders.Patch) error {
	s.ops = append(s.ops, "order")
	s.ids = append(s.ids, id)
	return nil
}

func (s *engineStore) UpdateLineItem(_ context.Context, id int64, _ orders.Patch) error {
	s.ops = append(s.ops, "line")
	s.ids = append(s.ids, id)
	return nil
}

func (s *engineStore) InsertBasket(_ context.Context, lineItemID int64, _ orders.Patch) error {
	s.ops = append(s.ops, "basket_create")
	s.ids = append(s.ids, lineItemID)
	return nil
}

func (s *engineStore) UpdateBasket(_ context.Context, id int64, _ orders.Patch) error {
	s.ops = append(s.ops, "basket_update")
	s.ids = append(s.ids, id)
	return nil
}

func (s *engineStore) DeleteBasket(_ context.Context, id int64) error {
	s.ops = append(s.ops, "basket_delete")
	s.ids = append(s.ids, id)
	return nil
}

type engineRunner struct {
	store *engineStore
}

func (r *engineRunner) WithTx(ctx context.Context, fn func(context.Context, orders.Store) error) error {
	return fn(ctx, r.store)
}

func fixedNow() time.Time {
	return time.Date(2025, time.March, 20, 12, 0, 0, 0, shared.BusinessTZ)
}

func newTestService(store *memStore, engineStore *engineStore) *Service {
	engine := orders.NewEngine(&engineRunner{store: engineStore}, Columns, 0)
	return NewService(store, engine, fixedNow)
}

func TestCreateOrderDerivesTotals(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &engineStore{})

	id, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		SupplierID: orders.NewField("3"),
		LorryPlate: "WXY 1234",
		PurchaseInfo: []CreateLineInput{{
			DurianVarietyID:    orders.NewField("1"),
			PricePerKg:         orders.NewField("12.50"),
			KgPurchased:        orders.NewField("100"),
			TotalPurchasePrice: orders.NewField("999"),
			Buckets:            []CreateBucketInput{{Kg: orders.NewField("25")}, {Kg: orders.NewField("75")}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	require.Len(t, store.created, 1)
	p := store.created[0]
	assert.Equal(t, StatusOutstanding, p.PurchaseStatus)
	require.NotNil(t, p.SupplierID)
	assert.Equal(t, int64(3), *p.SupplierID)

	lines := store.createdLines[0]
	require.Len(t, lines, 1)
	assert.True(t, lines[0].TotalPurchasePrice.Equal(decimal.RequireFromString("1250")))
	assert.Len(t, lines[0].Buckets, 2)
}

func TestCreateOrderVerbatimTotalWhenFactorMissing(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &engineStore{})

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		PurchaseInfo: []CreateLineInput{{
			PricePerKg:         orders.NewField("12.50"),
			TotalPurchasePrice: orders.NewField("999"),
		}},
	})
	require.NoError(t, err)
	assert.True(t, store.createdLines[0][0].TotalPurchasePrice.Equal(decimal.RequireFromString("999")))
}

func TestCreateOrderValidation(t *testing.T) {
	svc := newTestService(newMemStore(), &engineStore{})

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateOrder(context.Background(), CreateOrderInput{
		PurchaseStatus: "UNKNOWN",
		PurchaseInfo:   []CreateLineInput{{PricePerKg: orders.NewField("1")}},
	})
	assert.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateOrder(context.Background(), CreateOrderInput{
		PurchaseDate: "20/03/2025",
		PurchaseInfo: []CreateLineInput{{PricePerKg: orders.NewField("1")}},
	})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateRoutesThroughEngine(t *testing.T) {
	engineStore := &engineStore{}
	svc := newTestService(newMemStore(), engineStore)

	result, err := svc.Update(context.Background(), UpdateInput{
		PurchaseID: orders.NewField("5"),
		Remark:     orders.NewField("checked"),
		PurchaseInfo: []UpdateLineInput{{
			PurchaseInfoID: orders.NewField("10"),
			PricePerKg:     orders.NewField("2"),
			KgPurchased:    orders.NewField("3"),
			Buckets:        []orders.BasketInput{{BasketID: orders.NewField("7")}},
		}},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, []string{"order", "line", "basket_delete"}, engineStore.ops)
	assert.Equal(t, []int64{5, 10, 7}, engineStore.ids)
}

func TestUpdatePatchesPurchaseName(t *testing.T) {
	svc := newTestService(newMemStore(), &engineStore{})

	var in UpdateInput
	body := `{"purchaseId":"1","purchaseName":"Morning load","purchaseStatus":"PAID"}`
	require.NoError(t, json.Unmarshal([]byte(body), &in))

	input, err := svc.buildEngineInput(in)
	require.NoError(t, err)
	assert.Equal(t, "Morning load", input.Fields["purchase_name"])
	assert.Equal(t, StatusPaid, input.Fields["purchase_status"])
}

func TestCreateOrderKeepsPurchaseName(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &engineStore{})

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		PurchaseName: "Morning load",
		PurchaseInfo: []CreateLineInput{{PricePerKg: orders.NewField("1")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Morning load", store.created[0].PurchaseName)
}

func TestUpdateRequiresOrderID(t *testing.T) {
	svc := newTestService(newMemStore(), &engineStore{})
	_, err := svc.Update(context.Background(), UpdateInput{})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUpdateRejectsBadStatus(t *testing.T) {
	svc := newTestService(newMemStore(), &engineStore{})
	_, err := svc.Update(context.Background(), UpdateInput{
		PurchaseID:     orders.NewField("5"),
		PurchaseStatus: orders.NewField("UNKNOWN"),
	})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestOutstandingCountsIgnoreDateFilter(t *testing.T) {
	store := newMemStore()
	store.outstanding = 9
	svc := newTestService(store, &engineStore{})

	month := 3
	page, size := 0, 5
	_, meta, err := svc.Outstanding(context.Background(), shared.PageQuery{Page: &page, Size: &size}, &month, nil)
	require.NoError(t, err)

	assert.Equal(t, 9, meta.TotalRecords)
	assert.Equal(t, 2, meta.TotalPages)
	require.Len(t, store.listWindows, 1)
	assert.NotNil(t, store.listWindows[0])
}

func TestListWithoutFilters(t *testing.T) {
	store := newMemStore()
	store.all = 3
	svc := newTestService(store, &engineStore{})

	_, meta, err := svc.List(context.Background(), shared.PageQuery{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, meta.TotalRecords)
	assert.Equal(t, 1, meta.TotalPages)
	require.Len(t, store.listWindows, 1)
	assert.Nil(t, store.listWindows[0])
}

func TestCancel(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &engineStore{})

	require.NoError(t, svc.Cancel(context.Background(), 5))
	assert.Equal(t, StatusCancelled, store.statusUpdates[5])

	err := svc.Cancel(context.Background(), 404)
	assert.ErrorIs(t, err, httpx.ErrNotFound)

	err = svc.Cancel(context.Background(), 0)
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestAddInvoices(t *testing.T) {
	store := newMemStore()
	svc := newTestService(store, &engineStore{})

	require.NoError(t, svc.AddInvoices(context.Background(), 5, [][]byte{{1}, {2}}))
	assert.Equal(t, 2, store.invoices[5])

	err := svc.AddInvoices(context.Background(), 5, nil)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	err = svc.AddInvoices(context.Background(), 0, [][]byte{{1}})
	assert.ErrorIs(t, err, httpx.ErrValidation)
}
