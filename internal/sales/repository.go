package sales

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/durianworks/backoffice/internal/orders"
	"github.com/durianworks/backoffice/internal/platform/db"
	"github.com/durianworks/backoffice/internal/platform/httpx"
	"github.com/durianworks/backoffice/internal/reporting"
)

// Repository provides PostgreSQL backed persistence for sales orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// BucketDraft is one bucket on a new sales line.
type BucketDraft struct {
	Kg      decimal.Decimal
	KgSales decimal.Decimal
}

// LineDraft is one line of a new sales order with its buckets.
type LineDraft struct {
	DurianVarietyID *int64
	PricePerKg      decimal.Decimal
	KgSales         decimal.Decimal
	TotalSalesValue decimal.Decimal
	Buckets         []BucketDraft
}

// CreateOrder inserts the order header, lines, buckets and invoice images in
// one transaction and returns the new order id.
func (r *Repository) CreateOrder(ctx context.Context, s Sale, lines []LineDraft, invoices [][]byte) (int64, error) {
	var orderID int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO sales (company_name, sales_date, sales_status, remark)
			VALUES ($1, $2, $3, $4) RETURNING id`,
			s.CompanyName, s.SalesDate, s.SalesStatus, s.Remark).Scan(&orderID)
		if err != nil {
			return fmt.Errorf("insert sale: %w", err)
		}

		for _, line := range lines {
			var lineID int64
			err := tx.QueryRow(ctx, `INSERT INTO sales_info (sales_id, durian_variety_id, price_per_kg, kg_sales, total_sales_value)
				VALUES ($1, $2, $3, $4, $5) RETURNING id`,
				orderID, line.DurianVarietyID, line.PricePerKg, line.KgSales, line.TotalSalesValue).Scan(&lineID)
			if err != nil {
				return fmt.Errorf("insert sales line: %w", err)
			}
			for _, b := range line.Buckets {
				if _, err := tx.Exec(ctx, `INSERT INTO buckets (sales_info_id, kg, kg_sales) VALUES ($1, $2, $3)`,
					lineID, b.Kg, b.KgSales); err != nil {
					return fmt.Errorf("insert bucket: %w", err)
				}
			}
		}

		for _, image := range invoices {
			if _, err := tx.Exec(ctx, `INSERT INTO sales_invoices (sales_id, image) VALUES ($1, $2)`, orderID, image); err != nil {
				return fmt.Errorf("insert invoice: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("sales: create order: %w", err)
	}
	return orderID, nil
}

// WithTx opens a transaction and hands the order engine a store bound to the
// sales tables.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, orders.Store) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txStore{tx: tx})
	})
}

// txStore maps the generic order engine writes onto the sales tables.
type txStore struct {
	tx pgx.Tx
}

func (s *txStore) exec(ctx context.Context, query string, args []any) error {
	tag, err := s.tx.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (s *txStore) UpdateOrder(ctx context.Context, id int64, fields orders.Patch) error {
	query, args := db.BuildUpdate("sales", fields, id)
	return s.exec(ctx, query, args)
}

func (s *txStore) UpdateLineItem(ctx context.Context, id int64, fields orders.Patch) error {
	query, args := db.BuildUpdate("sales_info", fields, id)
	return s.exec(ctx, query, args)
}

func (s *txStore) InsertBasket(ctx context.Context, lineItemID int64, fields orders.Patch) error {
	kg, hasKg := fields["kg"]
	kgSales, hasKgSales := fields["kg_sales"]
	if !hasKg && !hasKgSales {
		return fmt.Errorf("bucket values are required: %w", httpx.ErrValidation)
	}
	if !hasKg {
		kg = decimal.Zero
	}
	if !hasKgSales {
		kgSales = decimal.Zero
	}
	_, err := s.tx.Exec(ctx, `INSERT INTO buckets (sales_info_id, kg, kg_sales) VALUES ($1, $2, $3)`,
		lineItemID, kg, kgSales)
	return err
}

func (s *txStore) UpdateBasket(ctx context.Context, id int64, fields orders.Patch) error {
	query, args := db.BuildUpdate("buckets", fields, id)
	return s.exec(ctx, query, args)
}

func (s *txStore) DeleteBasket(ctx context.Context, id int64) error {
	tag, err := s.tx.Exec(ctx, `DELETE FROM buckets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

const saleColumns = `id, company_name, sales_date, sales_status, remark, created_at`

func scanOrder(rows pgx.Rows) (OrderView, error) {
	var v OrderView
	if err := rows.Scan(&v.ID, &v.CompanyName, &v.SalesDate, &v.SalesStatus, &v.Remark, &v.CreatedAt); err != nil {
		return OrderView{}, err
	}
	v.SalesInfo = []LineView{}
	v.Invoices = []string{}
	return v, nil
}

// ListByStatus pages through orders of one status, newest first, with lines,
// buckets and base64 invoices attached. A nil window skips the date filter.
func (r *Repository) ListByStatus(ctx context.Context, status string, w *reporting.Window, limit, offset int, paginate bool) ([]OrderView, error) {
	query := `SELECT ` + saleColumns + ` FROM sales WHERE sales_status = $1`
	args := []any{status}
	if w != nil {
		query += fmt.Sprintf(` AND sales_date >= $%d AND sales_date < $%d`, len(args)+1, len(args)+2)
		args = append(args, w.Start, w.End)
	}
	query += ` ORDER BY sales_date DESC, id DESC`
	if paginate {
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}
	return r.listOrders(ctx, query, args)
}

// ListAll pages through every order regardless of status.
func (r *Repository) ListAll(ctx context.Context, w *reporting.Window, limit, offset int, paginate bool) ([]OrderView, error) {
	query := `SELECT ` + saleColumns + ` FROM sales`
	args := []any{}
	if w != nil {
		query += ` WHERE sales_date >= $1 AND sales_date < $2`
		args = append(args, w.Start, w.End)
	}
	query += ` ORDER BY sales_date DESC, id DESC`
	if paginate {
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}
	return r.listOrders(ctx, query, args)
}

func (r *Repository) listOrders(ctx context.Context, query string, args []any) ([]OrderView, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sales: list orders: %w", err)
	}
	defer rows.Close()

	views := []OrderView{}
	byID := map[int64]int{}
	ids := []int64{}
	for rows.Next() {
		v, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("sales: scan order: %w", err)
		}
		byID[v.ID] = len(views)
		ids = append(ids, v.ID)
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sales: order rows: %w", err)
	}
	if len(views) == 0 {
		return views, nil
	}

	if err := r.attachLines(ctx, ids, byID, views); err != nil {
		return nil, err
	}
	if err := r.attachInvoices(ctx, ids, byID, views); err != nil {
		return nil, err
	}
	return views, nil
}

func (r *Repository) attachLines(ctx context.Context, orderIDs []int64, byOrder map[int64]int, views []OrderView) error {
	rows, err := r.pool.Query(ctx, `SELECT id, sales_id, durian_variety_id,
			price_per_kg::text, kg_sales::text, total_sales_value::text
		FROM sales_info WHERE sales_id = ANY($1) ORDER BY id`, orderIDs)
	if err != nil {
		return fmt.Errorf("sales: list lines: %w", err)
	}
	defer rows.Close()

	lineIDs := []int64{}
	byLine := map[int64][2]int{}
	for rows.Next() {
		var line Line
		var price, kg, total string
		if err := rows.Scan(&line.ID, &line.SalesID, &line.DurianVarietyID, &price, &kg, &total); err != nil {
			return fmt.Errorf("sales: scan line: %w", err)
		}
		if line.PricePerKg, err = decimal.NewFromString(price); err != nil {
			return fmt.Errorf("sales: parse price: %w", err)
		}
		if line.KgSales, err = decimal.NewFromString(kg); err != nil {
			return fmt.Errorf("sales: parse kg: %w", err)
		}
		if line.TotalSalesValue, err = decimal.NewFromString(total); err != nil {
			return fmt.Errorf("sales: parse total: %w", err)
		}

		at := byOrder[line.SalesID]
		byLine[line.ID] = [2]int{at, len(views[at].SalesInfo)}
		views[at].SalesInfo = append(views[at].SalesInfo, LineView{Line: line, Buckets: []Bucket{}})
		lineIDs = append(lineIDs, line.ID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sales: line rows: %w", err)
	}
	if len(lineIDs) == 0 {
		return nil
	}

	brows, err := r.pool.Query(ctx, `SELECT id, sales_info_id, kg::text, kg_sales::text
		FROM buckets WHERE sales_info_id = ANY($1) ORDER BY id`, lineIDs)
	if err != nil {
		return fmt.Errorf("sales: list buckets: %w", err)
	}
	defer brows.Close()

	for brows.Next() {
		var b Bucket
		var lineID int64
		var kg, kgSales string
		if err := brows.Scan(&b.ID, &lineID, &kg, &kgSales); err != nil {
			return fmt.Errorf("sales: scan bucket: %w", err)
		}
		if b.Kg, err = decimal.NewFromString(kg); err != nil {
			return fmt.Errorf("sales: parse bucket kg: %w", err)
		}
		if b.KgSales, err = decimal.NewFromString(kgSales); err != nil {
			return fmt.Errorf("sales: parse bucket kg sales: %w", err)
		}
		at := byLine[lineID]
		views[at[0]].SalesInfo[at[1]].Buckets = append(views[at[0]].SalesInfo[at[1]].Buckets, b)
	}
	return brows.Err()
}

func (r *Repository) attachInvoices(ctx context.Context, orderIDs []int64, byOrder map[int64]int, views []OrderView) error {
	rows, err := r.pool.Query(ctx, `SELECT sales_id, image
		FROM sales_invoices WHERE sales_id = ANY($1) ORDER BY id`, orderIDs)
	if err != nil {
		return fmt.Errorf("sales: list invoices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID int64
		var image []byte
		if err := rows.Scan(&orderID, &image); err != nil {
			return fmt.Errorf("sales: scan invoice: %w", err)
		}
		at := byOrder[orderID]
		views[at].Invoices = append(views[at].Invoices, base64.StdEncoding.EncodeToString(image))
	}
	return rows.Err()
}

// CountByStatus counts orders of one status, ignoring any date filter so
// pagination stays stable across filtered views.
func (r *Repository) CountByStatus(ctx context.Context, status string) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales WHERE sales_status = $1`, status).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sales: count by status: %w", err)
	}
	return total, nil
}

// CountAll counts every sales order.
func (r *Repository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sales: count: %w", err)
	}
	return total, nil
}

// SetStatus updates one order's status.
func (r *Repository) SetStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE sales SET sales_status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("sales: set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sales: order %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

// AddInvoices stores invoice images against an existing order.
func (r *Repository) AddInvoices(ctx context.Context, orderID int64, images [][]byte) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM sales WHERE id = $1)`, orderID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("sales: check order: %w", err)
	}
	if !exists {
		return fmt.Errorf("sales: order %d: %w", orderID, httpx.ErrNotFound)
	}

	err = db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, image := range images {
			if _, err := tx.Exec(ctx, `INSERT INTO sales_invoices (sales_id, image) VALUES ($1, $2)`, orderID, image); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sales: add invoices: %w", err)
	}
	return nil
}

var _ orders.TxRunner = (*Repository)(nil)
var _ orders.Store = (*txStore)(nil)
