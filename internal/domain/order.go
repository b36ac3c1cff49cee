package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusRejected  OrderStatus = "REJECTED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusConfirmed || s == OrderStatusRejected || s == OrderStatusCancelled
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether the status machine allows moving from s
// to target. Only PENDING has outgoing edges; the rest are terminal.
func CanTransitionTo(s, target OrderStatus) bool {
	if s != OrderStatusPending {
		return false
	}
	switch target {
	case OrderStatusConfirmed, OrderStatusRejected, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

type PaymentMode string

const (
	PaymentModeUnset   PaymentMode = "UNSET"
	PaymentModeCash    PaymentMode = "CASH"
	PaymentModeGateway PaymentMode = "GATEWAY"
)

func (m PaymentMode) String() string {
	return string(m)
}

// OrderItem is the frozen snapshot of one cart line. UnitPrice is copied
// from the catalog at placement time and never recomputed afterwards.
type OrderItem struct {
	ProductID int64
	Qty       int
	UnitPrice decimal.Decimal
}

// Order is created exactly once per checkout from a non-empty cart.
// CustomerID and Items are immutable after creation; only the status and
// payment fields change, and only through the placement and payment
// services.
type Order struct {
	ID              uuid.UUID
	CustomerID      string
	Status          OrderStatus
	PaymentMode     PaymentMode
	IsPaid          bool
	TransactionRef  *string
	DeliveryAddress string
	Items           []OrderItem
	PlacedAt        time.Time
	UpdatedAt       time.Time
}

// Total is the order amount before fees: sum of unit price times quantity
// over the frozen items.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Qty))))
	}
	return total
}

// Product is a catalog entry. The catalog is read-only from the order
// core's perspective; placement copies UnitPrice into order items.
type Product struct {
	ID        int64
	Name      string
	UnitPrice decimal.Decimal
	StockQty  int
	CreatedAt time.Time
	UpdatedAt time.Time
}
