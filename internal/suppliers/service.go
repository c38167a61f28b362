package suppliers

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/durianworks/backoffice/internal/platform/httpx"
)

// StorePort describes the persistence the service depends on.
type StorePort interface {
	CreateBatch(ctx context.Context, batch []Supplier) ([]Supplier, error)
	List(ctx context.Context) ([]Supplier, error)
	Get(ctx context.Context, id int64) (Supplier, error)
}

// CreateInput is one supplier in a create batch.
type CreateInput struct {
	SupplierName  string   `json:"supplierName" validate:"required"`
	ContactNumber string   `json:"contactNumber"`
	Address       string   `json:"address"`
	Lorries       []string `json:"lorries"`
}

// Service implements the supplier operations.
type Service struct {
	store    StorePort
	validate *validator.Validate
}

// NewService constructs the service.
func NewService(store StorePort) *Service {
	return &Service{store: store, validate: validator.New()}
}

// CreateBatch validates and persists a batch of suppliers with their lorries.
func (s *Service) CreateBatch(ctx context.Context, inputs []CreateInput) ([]Supplier, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one supplier is required", httpx.ErrValidation)
	}
	batch := make([]Supplier, 0, len(inputs))
	for i, in := range inputs {
		if err := s.validate.Struct(in); err != nil {
			return nil, fmt.Errorf("%w: supplier %d: %v", httpx.ErrValidation, i, err)
		}
		sup := Supplier{
			SupplierName:  in.SupplierName,
			ContactNumber: in.ContactNumber,
			Address:       in.Address,
		}
		for _, plate := range in.Lorries {
			if plate == "" {
				continue
			}
			sup.Lorries = append(sup.Lorries, Lorry{LorryPlate: plate})
		}
		batch = append(batch, sup)
	}
	return s.store.CreateBatch(ctx, batch)
}

// List returns every supplier.
func (s *Service) List(ctx context.Context) ([]Supplier, error) {
	return s.store.List(ctx)
}

// Get returns one supplier by id.
func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	return s.store.Get(ctx, id)
}
