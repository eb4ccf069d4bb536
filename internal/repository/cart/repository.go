package cart

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/store"
)

// Repository stores one cart per user as a set of (product, quantity) lines.
// Lines and Clear take a store.Querier so checkout can read and empty the cart
// inside the same atomic unit that reserves stock and creates the order.
type Repository interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) error
	SetItemQuantity(ctx context.Context, userID, productID string, quantity int) error
	RemoveItem(ctx context.Context, userID, productID string) error
	RemoveAll(ctx context.Context, userID string) error
	Lines(ctx context.Context, db store.Querier, userID string) ([]domain.CartLine, error)
	Clear(ctx context.Context, db store.Querier, userID string) error
}
