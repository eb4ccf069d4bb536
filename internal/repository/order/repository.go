package order

import (
	"context"
	"time"

	"storefront/internal/domain"
	"storefront/internal/store"
)

// Repository persists orders and their immutable item snapshots. All methods
// take a store.Querier: order writes never stand alone, they are grouped with
// ledger and payment writes by the calling service.
type Repository interface {
	Create(ctx context.Context, db store.Querier, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, db store.Querier, id string) (*domain.Order, error)
	// GetByIDForUpdate locks the order row for the duration of the enclosing
	// transaction, serializing settlement against the sweeper.
	GetByIDForUpdate(ctx context.Context, db store.Querier, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, db store.Querier, userID string, limit, offset int) ([]domain.Order, int, error)
	// UpdateStatus stores to only if the order is still in from, returning
	// domain.ErrInvalidState otherwise. The allowed-transition check is the
	// caller's job via domain.CanTransition.
	UpdateStatus(ctx context.Context, db store.Querier, id string, from, to domain.OrderStatus) error
	// ListExpiredIDs returns ids of pending-payment orders whose deadline
	// passed before now, oldest first, at most limit.
	ListExpiredIDs(ctx context.Context, db store.Querier, now time.Time, limit int) ([]string, error)
}
