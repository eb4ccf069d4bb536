package ledger

import (
	"context"

	"storefront/internal/store"
)

// Repository mutates per-product stock quantities. Every method is a single
// atomic statement against the products row, so concurrent callers on the same
// product serialize at the store; methods take a store.Querier so checkout and
// settlement can group them with order and payment writes in one unit.
type Repository interface {
	// Reserve earmarks qty units for a pending order. Fails with
	// domain.ErrInsufficientStock when available stock is short, leaving the
	// row untouched.
	Reserve(ctx context.Context, db store.Querier, productID string, qty int) error
	// Release returns qty previously reserved units, clamping at zero so a
	// double release never drives reserved negative.
	Release(ctx context.Context, db store.Querier, productID string, qty int) error
	// Commit converts a prior reservation into a permanent stock deduction.
	// It assumes qty was reserved earlier and does not re-check availability.
	Commit(ctx context.Context, db store.Querier, productID string, qty int) error
}
