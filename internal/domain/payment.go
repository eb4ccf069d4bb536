package domain

import "time"

// PaymentStatus is the outcome recorded on a settlement attempt.
type PaymentStatus string

const (
	PaymentSuccess PaymentStatus = "Success"
	PaymentFailed  PaymentStatus = "Failed"
)

// Payment is an immutable settlement receipt. An order may accumulate several
// failed receipts but at most one successful one.
type Payment struct {
	ID            string        `json:"id"`
	OrderID       string        `json:"orderId"`
	TransactionID string        `json:"transactionId"`
	AmountCents   int64         `json:"amountCents"`
	Status        PaymentStatus `json:"status"`
	Method        string        `json:"method"`
	CreatedAt     time.Time     `json:"createdAt"`
}
