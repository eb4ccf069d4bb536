package domain

import "time"

// Cart holds a user's not-yet-ordered lines. Exactly one cart per user; an
// empty cart and a missing cart are the same thing.
type Cart struct {
	UserID string     `json:"userId"`
	Lines  []CartLine `json:"items"`
}

// CartLine references a product by id; price and availability come from the
// product at read time, they are never stored on the cart.
type CartLine struct {
	ProductID      string    `json:"productId"`
	ProductName    string    `json:"productName,omitempty"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents,omitempty"`
	Available      int       `json:"available,omitempty"`
	AddedAt        time.Time `json:"addedAt"`
}
