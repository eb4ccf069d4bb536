package domain

import "time"

// OrderStatus is the closed set of order lifecycle states.
type OrderStatus string

const (
	StatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	StatusPaid           OrderStatus = "PAID"
	StatusShipped        OrderStatus = "SHIPPED"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusCancelled      OrderStatus = "CANCELLED"
)

// statusTransitions is the full adjacency map of the order state machine.
// DELIVERED and CANCELLED are terminal.
var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusPendingPayment: {StatusPaid, StatusCancelled},
	StatusPaid:           {StatusShipped, StatusCancelled},
	StatusShipped:        {StatusDelivered},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

// ValidStatus reports whether s is a member of the closed enum.
func ValidStatus(s OrderStatus) bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order is an immutable item snapshot plus a mutable status and a payment
// deadline. Orders are never deleted; cancellation is a status, not a removal.
type Order struct {
	ID               string      `json:"id"`
	UserID           string      `json:"userId"`
	Items            []OrderItem `json:"items"`
	TotalCents       int64       `json:"totalCents"`
	Status           OrderStatus `json:"status"`
	PaymentExpiresAt time.Time   `json:"paymentExpiresAt"`
	CreatedAt        time.Time   `json:"createdAt"`
}

// OrderItem snapshots quantity and unit price at checkout time, immune to
// later product edits.
type OrderItem struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
	PriceCents  int64  `json:"priceAtPurchaseCents"`
}

// IsExpired reports whether the payment window has lapsed. Only
// pending-payment orders can expire; expiry is a lazily evaluated predicate,
// not a separate status.
func (o Order) IsExpired(now time.Time) bool {
	return o.Status == StatusPendingPayment && now.After(o.PaymentExpiresAt)
}
