package suppliers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/durianworks/backoffice/internal/platform/db"
	"github.com/durianworks/backoffice/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for suppliers.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateBatch inserts suppliers and their lorries in one transaction and
// returns them with generated ids.
func (r *Repository) CreateBatch(ctx context.Context, batch []Supplier) ([]Supplier, error) {
	created := make([]Supplier, 0, len(batch))
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, s := range batch {
			err := tx.QueryRow(ctx, `INSERT INTO suppliers (supplier_name, contact_number, address)
				VALUES ($1, $2, $3) RETURNING id`, s.SupplierName, s.ContactNumber, s.Address).Scan(&s.ID)
			if err != nil {
				return fmt.Errorf("insert supplier: %w", err)
			}
			lorries := make([]Lorry, 0, len(s.Lorries))
			for _, l := range s.Lorries {
				err := tx.QueryRow(ctx, `INSERT INTO supplier_lorries (supplier_id, lorry_plate)
					VALUES ($1, $2) RETURNING id`, s.ID, l.LorryPlate).Scan(&l.ID)
				if err != nil {
					return fmt.Errorf("insert lorry: %w", err)
				}
				lorries = append(lorries, l)
			}
			s.Lorries = lorries
			created = append(created, s)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("suppliers: create batch: %w", err)
	}
	return created, nil
}

// List returns every supplier with lorries attached, alphabetically.
func (r *Repository) List(ctx context.Context) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, supplier_name, contact_number, address
		FROM suppliers ORDER BY supplier_name, id`)
	if err != nil {
		return nil, fmt.Errorf("suppliers: list: %w", err)
	}
	defer rows.Close()

	out := []Supplier{}
	byID := map[int64]int{}
	ids := []int64{}
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.SupplierName, &s.ContactNumber, &s.Address); err != nil {
			return nil, fmt.Errorf("suppliers: scan: %w", err)
		}
		s.Lorries = []Lorry{}
		byID[s.ID] = len(out)
		ids = append(ids, s.ID)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("suppliers: rows: %w", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	lrows, err := r.pool.Query(ctx, `SELECT id, supplier_id, lorry_plate
		FROM supplier_lorries WHERE supplier_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("suppliers: list lorries: %w", err)
	}
	defer lrows.Close()

	for lrows.Next() {
		var l Lorry
		var supplierID int64
		if err := lrows.Scan(&l.ID, &supplierID, &l.LorryPlate); err != nil {
			return nil, fmt.Errorf("suppliers: scan lorry: %w", err)
		}
		at := byID[supplierID]
		out[at].Lorries = append(out[at].Lorries, l)
	}
	if err := lrows.Err(); err != nil {
		return nil, fmt.Errorf("suppliers: lorry rows: %w", err)
	}
	return out, nil
}

// Get returns one supplier with lorries attached.
func (r *Repository) Get(ctx context.Context, id int64) (Supplier, error) {
	var s Supplier
	err := r.pool.QueryRow(ctx, `SELECT id, supplier_name, contact_number, address
		FROM suppliers WHERE id = $1`, id).Scan(&s.ID, &s.SupplierName, &s.ContactNumber, &s.Address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, fmt.Errorf("suppliers: supplier %d: %w", id, httpx.ErrNotFound)
		}
		return Supplier{}, fmt.Errorf("suppliers: get: %w", err)
	}

	s.Lorries = []Lorry{}
	rows, err := r.pool.Query(ctx, `SELECT id, lorry_plate FROM supplier_lorries
		WHERE supplier_id = $1 ORDER BY id`, id)
	if err != nil {
		return Supplier{}, fmt.Errorf("suppliers: list lorries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l Lorry
		if err := rows.Scan(&l.ID, &l.LorryPlate); err != nil {
			return Supplier{}, fmt.Errorf("suppliers: scan lorry: %w", err)
		}
		s.Lorries = append(s.Lorries, l)
	}
	if err := rows.Err(); err != nil {
		return Supplier{}, fmt.Errorf("suppliers: lorry rows: %w", err)
	}
	return s, nil
}
