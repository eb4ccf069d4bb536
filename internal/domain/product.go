package domain

import "time"

// Product is a purchasable catalog entry plus its stock ledger state. Stock and
// Reserved are the only persisted quantities; available stock is always derived.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"priceCents"`
	Stock       int       `json:"stock"`
	Reserved    int       `json:"reserved"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Available returns the sellable units right now: stock minus reserved.
// Never persisted as independent truth.
func (p Product) Available() int {
	return p.Stock - p.Reserved
}
