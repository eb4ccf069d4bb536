package product

import (
	"context"

	"storefront/internal/domain"
)

type CreateInput struct {
	Name        string
	Description string
	PriceCents  int64
	Stock       int
}

type UpdateInput struct {
	Name        *string
	Description *string
	PriceCents  *int64
	Stock       *int
}

type ListFilter struct {
	Search string
	Limit  int
	Offset int
}

// Repository covers catalog reads and writes. Quantity mutations do not live
// here; they go through the ledger repository.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]domain.Product, int, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, in CreateInput) (*domain.Product, error)
	Update(ctx context.Context, id string, in UpdateInput) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	Upsert(ctx context.Context, in CreateInput) (*domain.Product, error)
}
