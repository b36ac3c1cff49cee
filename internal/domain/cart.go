package domain

import "time"

// Cart is the customer's mutable shopping cart. It never stores prices;
// prices are resolved from the catalog when the cart is read or placed.
type Cart struct {
	CustomerID string
	Lines      []CartLine
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CartLine is one product-quantity pair. Quantity is always positive;
// a line that would drop to zero is deleted instead.
type CartLine struct {
	ProductID int64
	Qty       int
	AddedAt   time.Time
}
