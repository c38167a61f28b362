package varieties

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/durianworks/backoffice/internal/platform/httpx"
)

// StorePort describes the persistence the service depends on.
type StorePort interface {
	UpsertBatch(ctx context.Context, batch []Variety) ([]Variety, error)
	List(ctx context.Context) ([]Variety, error)
}

// CreateInput is one variety in an upsert batch.
type CreateInput struct {
	DurianCode string `json:"durianCode" validate:"required"`
	DurianName string `json:"durianName"`
}

// Service implements the variety operations.
type Service struct {
	store    StorePort
	validate *validator.Validate
}

// NewService constructs the service.
func NewService(store StorePort) *Service {
	return &Service{store: store, validate: validator.New()}
}

// UpsertBatch validates and upserts a batch of varieties by code.
func (s *Service) UpsertBatch(ctx context.Context, inputs []CreateInput) ([]Variety, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one variety is required", httpx.ErrValidation)
	}
	batch := make([]Variety, 0, len(inputs))
	for i, in := range inputs {
		if err := s.validate.Struct(in); err != nil {
			return nil, fmt.Errorf("%w: variety %d: %v", httpx.ErrValidation, i, err)
		}
		batch = append(batch, Variety{DurianCode: in.DurianCode, DurianName: in.DurianName})
	}
	return s.store.UpsertBatch(ctx, batch)
}

// List returns the catalogue.
func (s *Service) List(ctx context.Context) ([]Variety, error) {
	return s.store.List(ctx)
}
