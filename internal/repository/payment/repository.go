package payment

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/store"
)

// Repository persists settlement receipts. Receipts are append-only; there is
// no update path.
type Repository interface {
	Create(ctx context.Context, db store.Querier, p domain.Payment) (*domain.Payment, error)
	// GetByOrder returns the successful receipt for an order, or
	// domain.ErrNotFound when the order was never settled successfully.
	GetByOrder(ctx context.Context, db store.Querier, orderID string) (*domain.Payment, error)
}
