package varieties

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/durianworks/backoffice/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for varieties.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpsertBatch inserts or updates varieties by durian code in one transaction.
func (r *Repository) UpsertBatch(ctx context.Context, batch []Variety) ([]Variety, error) {
	saved := make([]Variety, 0, len(batch))
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, v := range batch {
			err := tx.QueryRow(ctx, `INSERT INTO durian_varieties (durian_code, durian_name)
				VALUES ($1, $2)
				ON CONFLICT (durian_code) DO UPDATE SET durian_name = EXCLUDED.durian_name
				RETURNING id`, v.DurianCode, v.DurianName).Scan(&v.ID)
			if err != nil {
				return fmt.Errorf("upsert variety %q: %w", v.DurianCode, err)
			}
			saved = append(saved, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("varieties: upsert batch: %w", err)
	}
	return saved, nil
}

// List returns the catalogue ordered by code.
func (r *Repository) List(ctx context.Context) ([]Variety, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, durian_code, durian_name
		FROM durian_varieties ORDER BY durian_code`)
	if err != nil {
		return nil, fmt.Errorf("varieties: list: %w", err)
	}
	defer rows.Close()

	out := []Variety{}
	for rows.Next() {
		var v Variety
		if err := rows.Scan(&v.ID, &v.DurianCode, &v.DurianName); err != nil {
			return nil, fmt.Errorf("varieties: scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("varieties: rows: %w", err)
	}
	return out, nil
}
