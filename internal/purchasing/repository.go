package purchasing

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

// Repository provides PostgreSQL backed persistence for purchase orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LineDraft is one line of a new purchase order with its bucket weights.
type LineDraft struct {
	DurianVarietyID    *int64
	PricePerKg         decimal.Decimal
	KgPurchased        decimal.Decimal
	TotalPurchasePrice decimal.Decimal
	Buckets            []decimal.Decimal
}

// CreateOrder inserts the order header, lines, buckets and invoice images in
// one transaction and returns the new order id.
func (r *Repository) CreateOrder(ctx context.Context, p Purchase, lines []LineDraft, invoices [][]byte) (int64, error) {
	var orderID int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO purchases (purchase_name, supplier_id, lorry_plate, purchase_date, purchase_status, remark)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			p.PurchaseName, p.SupplierID, p.LorryPlate, p.PurchaseDate, p.PurchaseStatus, p.Remark).Scan(&orderID)
		if err != nil {
			return fmt.Errorf("insert purchase: %w", err)
		}

		for _, line := range lines {
			var lineID int64
			err := tx.QueryRow(ctx, `INSERT INTO purchase_info (purchase_id, durian_variety_id, price_per_kg, kg_purchased, total_purchase_price)
				VALUES ($1, $2, $3, $4, $5) RETURNING id`,
				orderID, line.DurianVarietyID, line.PricePerKg, line.KgPurchased, line.TotalPurchasePrice).Scan(&lineID)
			if err != nil {
				return fmt.Errorf("insert purchase line: %w", err)
			}
			for _, kg := range line.Buckets {
				if _, err := tx.Exec(ctx, `INSERT INTO buckets (purchase_info_id, kg) VALUES ($1, $2)`, lineID, kg); err != nil {
					return fmt.Errorf("insert bucket: %w", err)
				}
			}
		}

		for _, image := range invoices {
			if _, err := tx.Exec(ctx, `INSERT INTO purchase_invoices (purchase_id, image) VALUES ($1, $2)`, orderID, image); err != nil {
				return fmt.Errorf("insert invoice: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("purchasing: create order: %w", err)
	}
	return orderID, nil
}

// WithTx opens a transaction and hands the order engine a store bound to the
// purchasing tables.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, orders.Store) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txStore{tx: tx})
	})
}

// txStore maps the generic order engine writes onto the purchasing tables.
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
	query, args := db.BuildUpdate("purchases", fields, id)
	return s.exec(ctx, query, args)
}

func (s *txStore) UpdateLineItem(ctx context.Context, id int64, fields orders.Patch) error {
	query, args := db.BuildUpdate("purchase_info", fields, id)
	return s.exec(ctx, query, args)
}

func (s *txStore) InsertBasket(ctx context.Context, lineItemID int64, fields orders.Patch) error {
	kg, ok := fields["kg"]
	if !ok {
		return fmt.Errorf("bucket weight is required: %w", httpx.ErrValidation)
	}
	_, err := s.tx.Exec(ctx, `INSERT INTO buckets (purchase_info_id, kg) VALUES ($1, $2)`, lineItemID, kg)
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

const purchaseColumns = `p.id, p.purchase_name, p.supplier_id, p.lorry_plate, p.purchase_date, p.purchase_status, p.remark, p.created_at,
	COALESCE(s.supplier_name, '')`

func scanOrder(rows pgx.Rows) (OrderView, error) {
	var v OrderView
	if err := rows.Scan(&v.ID, &v.PurchaseName, &v.SupplierID, &v.LorryPlate, &v.PurchaseDate, &v.PurchaseStatus,
		&v.Remark, &v.CreatedAt, &v.SupplierName); err != nil {
		return OrderView{}, err
	}
	v.PurchaseInfo = []LineView{}
	v.Invoices = []string{}
	return v, nil
}

// ListByStatus pages through orders of one status, newest first, with lines,
// buckets and base64 invoices attached. A nil window skips the date filter.
func (r *Repository) ListByStatus(ctx context.Context, status string, w *reporting.Window, limit, offset int, paginate bool) ([]OrderView, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases p
		LEFT JOIN suppliers s ON s.id = p.supplier_id
		WHERE p.purchase_status = $1`
	args := []any{status}
	if w != nil {
		query += fmt.Sprintf(` AND p.purchase_date >= $%d AND p.purchase_date < $%d`, len(args)+1, len(args)+2)
		args = append(args, w.Start, w.End)
	}
	query += ` ORDER BY p.purchase_date DESC, p.id DESC`
	if paginate {
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}
	return r.listOrders(ctx, query, args)
}

// ListAll pages through every order regardless of status.
func (r *Repository) ListAll(ctx context.Context, w *reporting.Window, limit, offset int, paginate bool) ([]OrderView, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases p
		LEFT JOIN suppliers s ON s.id = p.supplier_id`
	args := []any{}
	if w != nil {
		query += ` WHERE p.purchase_date >= $1 AND p.purchase_date < $2`
		args = append(args, w.Start, w.End)
	}
	query += ` ORDER BY p.purchase_date DESC, p.id DESC`
	if paginate {
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}
	return r.listOrders(ctx, query, args)
}

func (r *Repository) listOrders(ctx context.Context, query string, args []any) ([]OrderView, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("purchasing: list orders: %w", err)
	}
	defer rows.Close()

	views := []OrderView{}
	byID := map[int64]int{}
	ids := []int64{}
	for rows.Next() {
		v, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("purchasing: scan order: %w", err)
		}
		byID[v.ID] = len(views)
		ids = append(ids, v.ID)
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("purchasing: order rows: %w", err)
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
	rows, err := r.pool.Query(ctx, `SELECT id, purchase_id, durian_variety_id,
			price_per_kg::text, kg_purchased::text, total_purchase_price::text
		FROM purchase_info WHERE purchase_id = ANY($1) ORDER BY id`, orderIDs)
	if err != nil {
		return fmt.Errorf("purchasing: list lines: %w", err)
	}
	defer rows.Close()

	lineIDs := []int64{}
	byLine := map[int64][2]int{}
	for rows.Next() {
		var line Line
		var price, kg, total string
		if err := rows.Scan(&line.ID, &line.PurchaseID, &line.DurianVarietyID, &price, &kg, &total); err != nil {
			return fmt.Errorf("purchasing: scan line: %w", err)
		}
		if line.PricePerKg, err = decimal.NewFromString(price); err != nil {
			return fmt.Errorf("purchasing: parse price: %w", err)
		}
		if line.KgPurchased, err = decimal.NewFromString(kg); err != nil {
			return fmt.Errorf("purchasing: parse kg: %w", err)
		}
		if line.TotalPurchasePrice, err = decimal.NewFromString(total); err != nil {
			return fmt.Errorf("purchasing: parse total: %w", err)
		}

		at := byOrder[line.PurchaseID]
		byLine[line.ID] = [2]int{at, len(views[at].PurchaseInfo)}
		views[at].PurchaseInfo = append(views[at].PurchaseInfo, LineView{Line: line, Buckets: []Bucket{}})
		lineIDs = append(lineIDs, line.ID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("purchasing: line rows: %w", err)
	}
	if len(lineIDs) == 0 {
		return nil
	}

	brows, err := r.pool.Query(ctx, `SELECT id, purchase_info_id, kg::text
		FROM buckets WHERE purchase_info_id = ANY($1) ORDER BY id`, lineIDs)
	if err != nil {
		return fmt.Errorf("purchasing: list buckets: %w", err)
	}
	defer brows.Close()

	for brows.Next() {
		var b Bucket
		var lineID int64
		var kg string
		if err := brows.Scan(&b.ID, &lineID, &kg); err != nil {
			return fmt.Errorf("purchasing: scan bucket: %w", err)
		}
		if b.Kg, err = decimal.NewFromString(kg); err != nil {
			return fmt.Errorf("purchasing: parse bucket kg: %w", err)
		}
		at := byLine[lineID]
		views[at[0]].PurchaseInfo[at[1]].Buckets = append(views[at[0]].PurchaseInfo[at[1]].Buckets, b)
	}
	return brows.Err()
}

func (r *Repository) attachInvoices(ctx context.Context, orderIDs []int64, byOrder map[int64]int, views []OrderView) error {
	rows, err := r.pool.Query(ctx, `SELECT purchase_id, image
		FROM purchase_invoices WHERE purchase_id = ANY($1) ORDER BY id`, orderIDs)
	if err != nil {
		return fmt.Errorf("purchasing: list invoices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var orderID int64
		var image []byte
		if err := rows.Scan(&orderID, &image); err != nil {
			return fmt.Errorf("purchasing: scan invoice: %w", err)
		}
		at := byOrder[orderID]
		views[at].Invoices = append(views[at].Invoices, base64.StdEncoding.EncodeToString(image))
	}
	return rows.Err()
}

// CountByStatus counts orders of one status; the count deliberately ignores
// any date filter so pagination stays stable across filtered views.
func (r *Repository) CountByStatus(ctx context.Context, status string) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchases WHERE purchase_status = $1`, status).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("purchasing: count by status: %w", err)
	}
	return total, nil
}

// CountAll counts every purchase order.
func (r *Repository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchases`).Scan(&total); err != nil {
		return 0, fmt.Errorf("purchasing: count: %w", err)
	}
	return total, nil
}

// SetStatus updates one order's status.
func (r *Repository) SetStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE purchases SET purchase_status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("purchasing: set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("purchasing: order %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

// AddInvoices stores invoice images against an existing order.
func (r *Repository) AddInvoices(ctx context.Context, orderID int64, images [][]byte) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM purchases WHERE id = $1)`, orderID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("purchasing: check order: %w", err)
	}
	if !exists {
		return fmt.Errorf("purchasing: order %d: %w", orderID, httpx.ErrNotFound)
	}

	err = db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, image := range images {
			if _, err := tx.Exec(ctx, `INSERT INTO purchase_invoices (purchase_id, image) VALUES ($1, $2)`, orderID, image); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("purchasing: add invoices: %w", err)
	}
	return nil
}

var _ orders.TxRunner = (*Repository)(nil)
var _ orders.Store = (*txStore)(nil)
