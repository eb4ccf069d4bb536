package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrEmptyCart indicates a checkout was attempted with no cart lines.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrInsufficientStock indicates available stock cannot cover the requested
	// quantity. A legitimate business outcome, not a bug.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidTransition indicates the target status is not reachable from the
	// order's current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidState indicates the order is not in the status the operation
	// requires (already settled, cancelled, ...).
	ErrInvalidState = errors.New("order not in required state")

	// ErrUnauthorized indicates the caller does not own the order.
	ErrUnauthorized = errors.New("unauthorized access to order")

	// ErrPaymentExpired indicates the payment window lapsed before settlement;
	// the order has been cancelled and its reservations released.
	ErrPaymentExpired = errors.New("payment window expired")

	// ErrTxConflict surfaces after transactional retries are exhausted. Callers
	// may retry the whole operation.
	ErrTxConflict = errors.New("transient store conflict")

	// ErrValidation indicates rejected caller input.
	ErrValidation = errors.New("invalid input")
)
