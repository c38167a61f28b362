package sales

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
	CreateOrder(ctx context.Context, s Sale, lines []LineDraft, invoices [][]byte) (int64, error)
	ListByStatus(ctx context.Context, status string, w *reporting.Window, limit, offset int, paginate bool) ([]OrderView, error)
	ListAll(ctx context.Context, w *reporting.Window, limit, offset int, paginate bool) ([]OrderView, error)
	CountByStatus(ctx context.Context, status string) (int, error)
	CountAll(ctx context.Context) (int, error)
	SetStatus(ctx context.Context, id int64, status string) error
	AddInvoices(ctx context.Context, orderID int64, images [][]byte) error
}

// Service implements the sales order operations.
type Service struct {
	store  StorePort
	engine *orders.Engine
	now    func() time.Time
}

// Columns wires the order engine onto the sales line item schema.
var Columns = orders.LineColumns{
	Price:   "price_per_kg",
	Qty:     "kg_sales",
	Total:   "total_sales_value",
	Variety: "durian_variety_id",
}

// NewService constructs the service. A nil clock falls back to time.Now.
func NewService(store StorePort, engine *orders.Engine, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, engine: engine, now: now}
}

// CreateBucketInput is one bucket on a new order line.
type CreateBucketInput struct {
	Kg         orders.Field `json:"kg"`
	SalesValue orders.Field `json:"salesValue"`
}

// CreateLineInput is one variety line on a new order.
type CreateLineInput struct {
	DurianVarietyID orders.Field        `json:"durianVarietyId"`
	PricePerKg      orders.Field        `json:"pricePerKg"`
	KgSales         orders.Field        `json:"kgSales"`
	TotalSalesValue orders.Field        `json:"totalSalesValue"`
	Buckets         []CreateBucketInput `json:"buckets"`
}

// CreateOrderInput is the create-sales-order request body. Invoices are
// base64 encoded images.
type CreateOrderInput struct {
	CompanyName string            `json:"companyName"`
	SalesDate   string            `json:"salesDate"`
	SalesStatus string            `json:"salesStatus"`
	Remark      string            `json:"remark"`
	SalesInfo   []CreateLineInput `json:"salesInfo"`
	Invoices    []string          `json:"invoices"`
}

// CreateOrder validates and persists a new sales order. Line totals are
// derived from price and weight whenever both are given.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (int64, error) {
	if in.CompanyName == "" {
		return 0, fmt.Errorf("%w: companyName is required", httpx.ErrValidation)
	}
	if len(in.SalesInfo) == 0 {
		return 0, fmt.Errorf("%w: at least one sales line is required", httpx.ErrValidation)
	}

	sale := Sale{
		CompanyName: in.CompanyName,
		SalesDate:   s.now(),
		SalesStatus: StatusOutstanding,
		Remark:      in.Remark,
	}
	if in.SalesDate != "" {
		t, err := shared.ParseDate(in.SalesDate)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid salesDate %q", httpx.ErrValidation, in.SalesDate)
		}
		sale.SalesDate = t
	}
	if in.SalesStatus != "" {
		if !validStatus(in.SalesStatus) {
			return 0, fmt.Errorf("%w: invalid status %q", httpx.ErrValidation, in.SalesStatus)
		}
		sale.SalesStatus = in.SalesStatus
	}

	lines := make([]LineDraft, 0, len(in.SalesInfo))
	for i, li := range in.SalesInfo {
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

	return s.store.CreateOrder(ctx, sale, lines, invoices)
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
	if li.KgSales.Present() {
		if draft.KgSales, err = li.KgSales.Decimal(); err != nil {
			return LineDraft{}, err
		}
	}
	switch {
	case li.PricePerKg.Present() && li.KgSales.Present():
		draft.TotalSalesValue = draft.PricePerKg.Mul(draft.KgSales)
	case li.TotalSalesValue.Present():
		if draft.TotalSalesValue, err = li.TotalSalesValue.Decimal(); err != nil {
			return LineDraft{}, err
		}
	}
	for _, b := range li.Buckets {
		var bd BucketDraft
		if b.Kg.Present() {
			if bd.Kg, err = b.Kg.Decimal(); err != nil {
				return LineDraft{}, err
			}
		}
		if b.SalesValue.Present() {
			if bd.KgSales, err = b.SalesValue.Decimal(); err != nil {
				return LineDraft{}, err
			}
		}
		if b.Kg.Present() || b.SalesValue.Present() {
			draft.Buckets = append(draft.Buckets, bd)
		}
	}
	return draft, nil
}

// UpdateLineInput is one sparse line update under an order update.
type UpdateLineInput struct {
	SalesInfoID     orders.Field         `json:"salesInfoId"`
	DurianVarietyID orders.Field         `json:"durianVarietyId"`
	PricePerKg      orders.Field         `json:"pricePerKg"`
	KgSales         orders.Field         `json:"kgSales"`
	TotalSalesValue orders.Field         `json:"totalSalesValue"`
	Buckets         []orders.BasketInput `json:"buckets"`
}

// UpdateInput is the update-sales-info request body. Absent, null and
// empty-string fields all leave the stored value untouched.
type UpdateInput struct {
	SalesID     orders.Field      `json:"salesId"`
	CompanyName orders.Field      `json:"companyName"`
	SalesDate   orders.Field      `json:"salesDate"`
	SalesStatus orders.Field      `json:"salesStatus"`
	Remark      orders.Field      `json:"remark"`
	SalesInfo   []UpdateLineInput `json:"salesInfo"`
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
	if !in.SalesID.Present() {
		return orders.Input{}, fmt.Errorf("sales id is required: %w", httpx.ErrValidation)
	}
	orderID, err := in.SalesID.Int64()
	if err != nil {
		return orders.Input{}, fmt.Errorf("%v: %w", err, httpx.ErrValidation)
	}

	fields := orders.Patch{}
	fields.PutString("company_name", in.CompanyName)
	fields.PutString("remark", in.Remark)
	if in.SalesDate.Present() {
		t, err := shared.ParseDate(in.SalesDate.String())
		if err != nil {
			return orders.Input{}, fmt.Errorf("%w: invalid salesDate %q", httpx.ErrValidation, in.SalesDate.String())
		}
		fields["sales_date"] = t
	}
	if in.SalesStatus.Present() {
		if !validStatus(in.SalesStatus.String()) {
			return orders.Input{}, fmt.Errorf("%w: invalid status %q", httpx.ErrValidation, in.SalesStatus.String())
		}
		fields["sales_status"] = in.SalesStatus.String()
	}

	lines := make([]orders.LineInput, 0, len(in.SalesInfo))
	for _, li := range in.SalesInfo {
		lines = append(lines, orders.LineInput{
			LineID:  li.SalesInfoID,
			Variety: li.DurianVarietyID,
			Price:   li.PricePerKg,
			Qty:     li.KgSales,
			Total:   li.TotalSalesValue,
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
		return fmt.Errorf("sales id is required: %w", httpx.ErrValidation)
	}
	return s.store.SetStatus(ctx, orderID, StatusCancelled)
}

// AddInvoices attaches invoice images to an existing order.
func (s *Service) AddInvoices(ctx context.Context, orderID int64, images [][]byte) error {
	if orderID == 0 {
		return fmt.Errorf("sales id is required: %w", httpx.ErrValidation)
	}
	if len(images) == 0 {
		return fmt.Errorf("%w: at least one invoice image is required", httpx.ErrValidation)
	}
	return s.store.AddInvoices(ctx, orderID, images)
}

func validStatus(s string) bool {
	switch s {
	case StatusOutstanding, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}
