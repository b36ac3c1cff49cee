package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
)

// Gateway is the provider adapter. Everything provider-specific (field
// names, signature scheme, response parsing) stays behind it.
type Gateway interface {
	SignFields(totalAmount, transactionRef string) string
	Verify(ctx context.Context, transactionRef string, totalAmount decimal.Decimal) bool
	MerchantCode() string
	SuccessURL() string
	FailureURL() string
}

// Fees are caller-supplied surcharges added on top of the frozen item
// total. Each defaults to zero and must not be negative.
type Fees struct {
	Tax            decimal.Decimal
	ServiceCharge  decimal.Decimal
	DeliveryCharge decimal.Decimal
}

func (f Fees) valid() bool {
	return !f.Tax.IsNegative() && !f.ServiceCharge.IsNegative() && !f.DeliveryCharge.IsNegative()
}

// InitiateResult is what the caller forwards to the provider. It carries
// the signature but never the signing key.
type InitiateResult struct {
	OrderID        uuid.UUID
	TransactionRef string
	TotalAmount    decimal.Decimal
	Signature      string
	SignedFields   string
	MerchantCode   string
	SuccessURL     string
	FailureURL     string
}

// signedFieldNames is the canonical field order the signature covers.
const signedFieldNames = "total_amount,transaction_uuid,product_code"

// PaymentService reconciles gateway payments against local order state.
// Money is marked received only after the provider confirms it, and never
// twice.
type PaymentService struct {
	store   repository.Store
	gateway Gateway
	newRef  func() string
}

func NewPaymentService(store repository.Store, gateway Gateway) *PaymentService {
	return &PaymentService{
		store:   store,
		gateway: gateway,
		newRef:  uuid.NewString,
	}
}

// Initiate mints (or reuses) the order's transaction reference and builds
// the signed payload for the provider. The reference is persisted before
// any provider interaction; re-invoking returns the stored reference
// instead of minting a second live one for the same order.
func (s *PaymentService) Initiate(ctx context.Context, customerID string, orderID uuid.UUID, fees Fees) (*InitiateResult, error) {
	if !fees.valid() {
		return nil, ErrInvalidAmount
	}

	var ref string
	var total decimal.Decimal

	err := s.store.WithinTx(ctx, func(tx repository.Tx) error {
		order, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.CustomerID != customerID {
			return ErrUnauthorized
		}
		if order.Status != domain.OrderStatusPending {
			return ErrInvalidState
		}

		total = order.Total().Add(fees.Tax).Add(fees.ServiceCharge).Add(fees.DeliveryCharge)

		if order.TransactionRef != nil {
			ref = *order.TransactionRef
			return nil
		}

		ref = s.newRef()
		return tx.SetTransactionRef(ctx, orderID, ref)
	})
	if err != nil {
		return nil, err
	}

	totalStr := domain.FormatAmount(total)
	return &InitiateResult{
		OrderID:        orderID,
		TransactionRef: ref,
		TotalAmount:    total,
		Signature:      s.gateway.SignFields(totalStr, ref),
		SignedFields:   signedFieldNames,
		MerchantCode:   s.gateway.MerchantCode(),
		SuccessURL:     s.gateway.SuccessURL(),
		FailureURL:     s.gateway.FailureURL(),
	}, nil
}

// Confirm verifies the payment with the provider and applies the result.
// The provider call runs outside any transaction; only its boolean result
// is carried into a short locking transaction that flips the order to
// paid. Already-paid orders return as-is without touching the provider.
func (s *PaymentService) Confirm(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.store.OrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid {
		return order, nil
	}
	if order.TransactionRef == nil {
		return nil, ErrMissingTransactionRef
	}

	if !s.gateway.Verify(ctx, *order.TransactionRef, order.Total()) {
		return nil, ErrVerificationFailed
	}

	var confirmed *domain.Order
	err = s.store.WithinTx(ctx, func(tx repository.Tx) error {
		o, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.IsPaid {
			// A concurrent confirm won the race; nothing left to apply.
			confirmed = o
			return nil
		}
		if o.Status != domain.OrderStatusPending {
			return ErrInvalidState
		}

		if err := tx.UpdateOrderState(ctx, orderID, domain.OrderStatusConfirmed, domain.PaymentModeGateway, true); err != nil {
			return err
		}

		o.Status = domain.OrderStatusConfirmed
		o.PaymentMode = domain.PaymentModeGateway
		o.IsPaid = true
		confirmed = o

		payload, err := json.Marshal(map[string]any{
			"order_id":        orderID.String(),
			"customer_id":     o.CustomerID,
			"payment_mode":    o.PaymentMode.String(),
			"transaction_ref": *o.TransactionRef,
		})
		if err != nil {
			return fmt.Errorf("marshal paid event: %w", err)
		}
		return tx.AppendEvent(ctx, orderID.String(), "order.paid", payload)
	})
	if err != nil {
		return nil, err
	}

	return confirmed, nil
}
