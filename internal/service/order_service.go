package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
)

// OrderService drives the order status machine: listing, cancellation,
// payment mode selection and the operator-side cash settlement.
type OrderService struct {
	store repository.Store
}

func NewOrderService(store repository.Store) *OrderService {
	return &OrderService{store: store}
}

func (s *OrderService) ListMyOrders(ctx context.Context, customerID string) ([]domain.Order, error) {
	return s.store.OrdersByCustomer(ctx, customerID)
}

func (s *OrderService) GetOrder(ctx context.Context, customerID string, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, ErrUnauthorized
	}
	return order, nil
}

// Cancel moves a PENDING order to CANCELLED. Terminal orders stay put.
func (s *OrderService) Cancel(ctx context.Context, customerID string, orderID uuid.UUID) (*domain.Order, error) {
	var order *domain.Order

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		o, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.CustomerID != customerID {
			return ErrUnauthorized
		}
		if !domain.CanTransitionTo(o.Status, domain.OrderStatusCancelled) {
			return ErrInvalidState
		}

		if err := tx.UpdateOrderState(ctx, orderID, domain.OrderStatusCancelled, o.PaymentMode, o.IsPaid); err != nil {
			return err
		}

		o.Status = domain.OrderStatusCancelled
		order = o

		payload, err := json.Marshal(map[string]any{
			"order_id":    orderID.String(),
			"customer_id": customerID,
		})
		if err != nil {
			return fmt.Errorf("marshal cancelled event: %w", err)
		}
		return tx.AppendEvent(ctx, orderID.String(), "order.cancelled", payload)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// SelectPaymentMode records how the customer intends to pay. Cash confirms
// the order immediately but leaves it unpaid until an operator settles it;
// gateway only records intent; paid status is asserted exclusively by the
// payment service after provider verification.
func (s *OrderService) SelectPaymentMode(ctx context.Context, customerID string, orderID uuid.UUID, mode domain.PaymentMode) (*domain.Order, error) {
	if mode != domain.PaymentModeCash && mode != domain.PaymentModeGateway {
		return nil, ErrInvalidState
	}

	var order *domain.Order

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		o, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.CustomerID != customerID {
			return ErrUnauthorized
		}
		if o.Status != domain.OrderStatusPending || o.IsPaid {
			return ErrInvalidState
		}

		status := o.Status
		if mode == domain.PaymentModeCash {
			status = domain.OrderStatusConfirmed
		}

		if err := tx.UpdateOrderState(ctx, orderID, status, mode, o.IsPaid); err != nil {
			return err
		}

		o.Status = status
		o.PaymentMode = mode
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// MarkCashPaid is the operator action that settles a cash-on-delivery
// order. Calling it twice is a no-op, not an error; calling it on a
// non-cash order is.
func (s *OrderService) MarkCashPaid(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	var order *domain.Order

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		o, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.PaymentMode != domain.PaymentModeCash {
			return ErrInvalidState
		}
		if o.IsPaid {
			order = o
			return nil
		}

		if err := tx.UpdateOrderState(ctx, orderID, o.Status, o.PaymentMode, true); err != nil {
			return err
		}

		o.IsPaid = true
		order = o

		payload, err := json.Marshal(map[string]any{
			"order_id":     orderID.String(),
			"customer_id":  o.CustomerID,
			"payment_mode": o.PaymentMode.String(),
		})
		if err != nil {
			return fmt.Errorf("marshal paid event: %w", err)
		}
		return tx.AppendEvent(ctx, orderID.String(), "order.paid", payload)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}
