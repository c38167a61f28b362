package purchasing

import (
	"context"
	"fmt"
	"time"

	"github.com/durianworks/backoffice/internal/orders"
	"github.com/durianworks/backoffice/internal/platform/httpx"
	"github.com/durianworks/backoffice/internal/reporting"
	"github.com/durianworks/backoffice/internal/shared"
)

// StorePort describes the persistence the service depends on.
type StorePort interface {
	CreateOrder(ctx context.Context, p Purchase, lines []LineDraft, invoices [][]byte) (int64, error)
	ListByStatus(ctx context.Context, status string, w *reporting.Window, limit, offset int, paginate bool) ([]OrderView, error)
	ListAll(ctx context.Context, w *reporting.Window, limit, offset int, paginate bool) ([]OrderView, error)
	CountByStatus(ctx context.Context, status string) (int, error)
	CountAll(ctx context.Context) (int, error)
	SetStatus(ctx context.Context, id int64, status string) error
	AddInvoices(ctx context.Context, orderID int64, images [][]byte) error
}

// Service implements the purchase order operations.
type Service struct {
	store  StorePort
	engine *orders.Engine
	now    func() time.Time
}

// Columns wires the order engine onto the purchasing line item schema.
var Columns = orders.LineColumns{
	Price:   "price_per_kg",
	Qty:     "kg_purchased",
	Total:   "total_purchase_price",
	Variety: "durian_variety_id",
}

// NewService constructs the service. A nil clock falls back to time.Now.
func NewService(store StorePort, engine *orders.Engine, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, engine: engine, now: now}
}

// CreateBucketInput is one bucket weight on a new order line.
type CreateBucketInput struct {
	Kg orders.Field `json:"kg"`
}

// CreateLineInput is one variety line on a new order.
type CreateLineInput struct {
	DurianVarietyID    orders.Field        `json:"durianVarietyId"`
	PricePerKg         orders.Field        `json:"pricePerKg"`
	KgPurchased        orders.Field        `json:"kgPurchased"`
	TotalPurchasePrice orders.Field        `json:"totalPurchasePrice"`
	Buckets            []CreateBucketInput `json:"buckets"`
}

// CreateOrderInput is the create-purchase-order request body. Invoices are
// base64 encoded images.
type CreateOrderInput struct {
	PurchaseName   string            `json:"purchaseName"`
	SupplierID     orders.Field      `json:"supplierId"`
	LorryPlate     string            `json:"lorryPlate"`
	PurchaseDate   string            `json:"purchaseDate"`
	PurchaseStatus string            `json:"purchaseStatus"`
	Remark         string            `json:"remark"`
	PurchaseInfo   []CreateLineInput `json:"purchaseInfo"`
	Invoices       []string          `json:"invoices"`
}

// CreateOrder validates and persists a new purchase order. Line totals are
// derived from price and weight whenever both are given; a client-supplied
// total only stands in when a factor is missing.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (int64, error) {
	if len(in.PurchaseInfo) == 0 {
		return 0, fmt.Errorf("%w: at least one purchase line is required", httpx.ErrValidation)
	}

	p := Purchase{
		PurchaseName:   in.PurchaseName,
		LorryPlate:     in.LorryPlate,
		PurchaseDate:   s.now(),
		PurchaseStatus: StatusOutstanding,
		Remark:         in.Remark,
	}
	if in.SupplierID.Present() {
		id, err := in.SupplierID.Int64()
		if err != nil {
			return 0, fmt.Errorf("%v: %w", err, httpx.ErrValidation)
		}
		p.SupplierID = &id
	}
	if in.PurchaseDate != "" {
		t, err := shared.ParseDate(in.PurchaseDate)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid purchaseDate %q", httpx.ErrValidation, in.PurchaseDate)
		}
		p.PurchaseDate = t
	}
	if in.PurchaseStatus != "" {
		if !validStatus(in.PurchaseStatus) {
			return 0, fmt.Errorf("%w: invalid status %q", httpx.ErrValidation, in.PurchaseStatus)
		}
		p.PurchaseStatus = in.PurchaseStatus
	}

	lines := make([]LineDraft, 0, len(in.PurchaseInfo))
	for i, li := range in.PurchaseInfo {
		draft, err := buildLineDraft(li)
		if err != nil {
			return 0, fmt.Errorf("%w: line %d: %v", httpx.ErrValidation, i, err)
		}
		lines = append(lines, draft)
	}

	invoices, err := shared.DecodeImages(in.Invoices)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}

	return s.store.CreateOrder(ctx, p, lines, invoices)
}

func buildLineDraft(li CreateLineInput) (LineDraft, error) {
	var draft LineDraft
	if li.DurianVarietyID.Present() {
		id, err := li.DurianVarietyID.Int64()
		if err != nil {
			return LineDraft{}, err
		}
		draft.DurianVarietyID = &id
	}
	var err error
	if li.PricePerKg.Present() {
		if draft.PricePerKg, err = li.PricePerKg.Decimal(); err != nil {
			return LineDraft{}, err
		}
	}
	if li.KgPurchased.Present() {
		if draft.KgPurchased, err = li.KgPurchased.Decimal(); err != nil {
			return LineDraft{}, err
		}
	}
	switch {
	case li.PricePerKg.Present() && li.KgPurchased.Present():
		draft.TotalPurchasePrice = draft.PricePerKg.Mul(draft.KgPurchased)
	case li.TotalPurchasePrice.Present():
		if draft.TotalPurchasePrice, err = li.TotalPurchasePrice.Decimal(); err != nil {
			return LineDraft{}, err
		}
	}
	for _, b := range li.Buckets {
		if !b.Kg.Present() {
			continue
		}
		kg, err := b.Kg.Decimal()
		if err != nil {
			return LineDraft{}, err
		}
		draft.Buckets = append(draft.Buckets, kg)
	}
	return draft, nil
}

// UpdateLineInput is one sparse line update under an order update.
type UpdateLineInput struct {
	PurchaseInfoID     orders.Field         `json:"purchaseInfoId"`
	DurianVarietyID    orders.Field         `json:"durianVarietyId"`
	PricePerKg         orders.Field         `json:"pricePerKg"`
	KgPurchased        orders.Field         `json:"kgPurchased"`
	TotalPurchasePrice orders.Field         `json:"totalPurchasePrice"`
	Buckets            []orders.BasketInput `json:"buckets"`
}

// UpdateInput is the update-purchase-info request body. Absent, null and
// empty-string fields all leave the stored value untouched.
type UpdateInput struct {
	PurchaseID     orders.Field      `json:"purchaseId"`
	PurchaseName   orders.Field      `json:"purchaseName"`
	SupplierID     orders.Field      `json:"supplierId"`
	LorryPlate     orders.Field      `json:"lorryPlate"`
	PurchaseDate   orders.Field      `json:"purchaseDate"`
	PurchaseStatus orders.Field      `json:"purchaseStatus"`
	Remark         orders.Field      `json:"remark"`
	PurchaseInfo   []UpdateLineInput `json:"purchaseInfo"`
}

// Update applies a nested sparse update through the order engine.
func (s *Service) Update(ctx context.Context, in UpdateInput) (orders.Result, error) {
	input, err := s.buildEngineInput(in)
	if err != nil {
		return orders.Result{}, err
	}
	return s.engine.Apply(ctx, input)
}

func (s *Service) buildEngineInput(in UpdateInput) (orders.Input, error) {
	if !in.PurchaseID.Present() {
		return orders.Input{}, fmt.Errorf("purchase id is required: %w", httpx.ErrValidation)
	}
	orderID, err := in.PurchaseID.Int64()
	if err != nil {
		return orders.Input{}, fmt.Errorf("%v: %w", err, httpx.ErrValidation)
	}

	fields := orders.Patch{}
	if err := fields.PutInt64("supplier_id", in.SupplierID); err != nil {
		return orders.Input{}, fmt.Errorf("%v: %w", err, httpx.ErrValidation)
	}
	fields.PutString("purchase_name", in.PurchaseName)
	fields.PutString("lorry_plate", in.LorryPlate)
	fields.PutString("remark", in.Remark)
	if in.PurchaseDate.Present() {
		t, err := shared.ParseDate(in.PurchaseDate.String())
		if err != nil {
			return orders.Input{}, fmt.Errorf("%w: invalid purchaseDate %q", httpx.ErrValidation, in.PurchaseDate.String())
		}
		fields["purchase_date"] = t
	}
	if in.PurchaseStatus.Present() {
		if !validStatus(in.PurchaseStatus.String()) {
			return orders.Input{}, fmt.Errorf("%w: invalid status %q", httpx.ErrValidation, in.PurchaseStatus.String())
		}
		fields["purchase_status"] = in.PurchaseStatus.String()
	}

	lines := make([]orders.LineInput, 0, len(in.PurchaseInfo))
	for _, li := range in.PurchaseInfo {
		lines = append(lines, orders.LineInput{
			LineID:  li.PurchaseInfoID,
			Variety: li.DurianVarietyID,
			Price:   li.PricePerKg,
			Qty:     li.KgPurchased,
			Total:   li.TotalPurchasePrice,
			Baskets: li.Buckets,
		})
	}

	return orders.Input{OrderID: orderID, Fields: fields, Lines: lines}, nil
}

// Outstanding pages through unpaid orders. The pagination total counts every
// outstanding order, ignoring the date filter.
func (s *Service) Outstanding(ctx context.Context, q shared.PageQuery, month, week *int) ([]OrderView, shared.PageMeta, error) {
	w, err := reporting.Resolve(s.now(), month, week)
	if err != nil {
		return nil, shared.PageMeta{}, err
	}
	limit, offset, paginate := q.LimitOffset()
	views, err := s.store.ListByStatus(ctx, StatusOutstanding, w, limit, offset, paginate)
	if err != nil {
		return nil, shared.PageMeta{}, err
	}
	total, err := s.store.CountByStatus(ctx, StatusOutstanding)
	if err != nil {
		return nil, shared.PageMeta{}, err
	}
	return views, shared.NewPageMeta(q, total), nil
}

// List pages through every order regardless of status.
func (s *Service) List(ctx context.Context, q shared.PageQuery, month, week *int) ([]OrderView, shared.PageMeta, error) {
	w, err := reporting.Resolve(s.now(), month, week)
	if err != nil {
		return nil, shared.PageMeta{}, err
	}
	limit, offset, paginate := q.LimitOffset()
	views, err := s.store.ListAll(ctx, w, limit, offset, paginate)
	if err != nil {
		return nil, shared.PageMeta{}, err
	}
	total, err := s.store.CountAll(ctx)
	if err != nil {
		return nil, shared.PageMeta{}, err
	}
	return views, shared.NewPageMeta(q, total), nil
}

// Cancel marks an order CANCELLED, removing it from reports without erasing
// its history.
func (s *Service) Cancel(ctx context.Context, orderID int64) error {
	if orderID == 0 {
		return fmt.Errorf("purchase id is required: %w", httpx.ErrValidation)
	}
	return s.store.SetStatus(ctx, orderID, StatusCancelled)
}

// AddInvoices attaches invoice images to an existing order.
func (s *Service) AddInvoices(ctx context.Context, orderID int64, images [][]byte) error {
	if orderID == 0 {
		return fmt.Errorf("purchase id is required: %w", httpx.ErrValidation)
	}
	if len(images) == 0 {
		return fmt.Errorf("%w: at least one invoice image is required", httpx.ErrValidation)
	}
	return s.store.AddInvoices(ctx, orderID, images)
}

func validStatus(s string) bool {
	switch s {
	case StatusOutstanding, StatusPaid, StatusCancelled:
		return true
	}
	return false
}
