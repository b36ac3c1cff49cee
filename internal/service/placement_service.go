package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
)

// PlacementService converts a customer's mutable cart into an immutable
// order. The whole conversion is one transaction: snapshot prices, write
// order and items, clear the cart. Either all of it lands or none of it.
type PlacementService struct {
	store repository.Store
	newID func() uuid.UUID
}

func NewPlacementService(store repository.Store) *PlacementService {
	return &PlacementService{
		store: store,
		newID: uuid.New,
	}
}

func (s *PlacementService) Place(ctx context.Context, customerID, deliveryAddress string) (*domain.Order, error) {
	var order *domain.Order

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		lines, err := tx.CartLinesForUpdate(ctx, customerID)
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		items := make([]domain.OrderItem, 0, len(lines))
		for _, line := range lines {
			// Price is fetched at this instant inside the transaction;
			// later catalog changes never touch this order.
			product, err := tx.ProductByID(ctx, line.ProductID)
			if err != nil {
				return fmt.Errorf("resolve price for product %d: %w", line.ProductID, err)
			}
			items = append(items, domain.OrderItem{
				ProductID: line.ProductID,
				Qty:       line.Qty,
				UnitPrice: product.UnitPrice,
			})
		}

		order = &domain.Order{
			ID:              s.newID(),
			CustomerID:      customerID,
			Status:          domain.OrderStatusPending,
			PaymentMode:     domain.PaymentModeUnset,
			IsPaid:          false,
			DeliveryAddress: deliveryAddress,
			Items:           items,
		}

		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		if err := tx.ClearCart(ctx, customerID); err != nil {
			return err
		}

		payload, err := json.Marshal(map[string]any{
			"order_id":     order.ID.String(),
			"customer_id":  customerID,
			"total_amount": domain.FormatAmount(order.Total()),
			"item_count":   len(items),
		})
		if err != nil {
			return fmt.Errorf("marshal placed event: %w", err)
		}
		return tx.AppendEvent(ctx, order.ID.String(), "order.placed", payload)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}
