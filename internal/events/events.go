package events

import "time"

// PaymentSettled is published once per successful settlement, consumed
// asynchronously by the notification collaborator.
type PaymentSettled struct {
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	TotalCents int64     `json:"total_cents"`
	OccurredAt time.Time `json:"occurred_at"`
}
