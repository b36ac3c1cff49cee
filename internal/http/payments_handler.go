package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/service"
)

// PaymentAPI reconciles gateway payments.
type PaymentAPI interface {
	Initiate(ctx context.Context, customerID string, orderID uuid.UUID, fees service.Fees) (*service.InitiateResult, error)
	Confirm(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
}

type PaymentsHandler struct {
	svc     PaymentAPI
	timeout time.Duration
}

func NewPaymentsHandler(svc PaymentAPI, timeout time.Duration) *PaymentsHandler {
	return &PaymentsHandler{svc: svc, timeout: timeout}
}

type InitiatePaymentRequestDTO struct {
	OrderID        string `json:"order_id" validate:"required,uuid"`
	TaxAmount      string `json:"tax_amount"`
	ServiceCharge  string `json:"service_charge"`
	DeliveryCharge string `json:"delivery_charge"`
}

type InitiatePaymentResponseDTO struct {
	OrderID        string `json:"order_id"`
	TransactionRef string `json:"transaction_ref"`
	TotalAmount    string `json:"total_amount"`
	Signature      string `json:"signature"`
	SignedFields   string `json:"signed_field_names"`
	MerchantCode   string `json:"product_code"`
	SuccessURL     string `json:"success_url"`
	FailureURL     string `json:"failure_url"`
}

// POST /api/v1/payments/esewa/initiate
func (h *PaymentsHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req InitiatePaymentRequestDTO
	if !bindAndValidate(w, r, &req) {
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	fees, ok := parseFees(w, req)
	if !ok {
		return
	}

	result, err := h.svc.Initiate(ctx, getCustomerID(r.Context()), orderID, fees)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, InitiatePaymentResponseDTO{
		OrderID:        result.OrderID.String(),
		TransactionRef: result.TransactionRef,
		TotalAmount:    domain.FormatAmount(result.TotalAmount),
		Signature:      result.Signature,
		SignedFields:   result.SignedFields,
		MerchantCode:   result.MerchantCode,
		SuccessURL:     result.SuccessURL,
		FailureURL:     result.FailureURL,
	})
}

// POST /api/v1/payments/esewa/confirm/{order_id}
//
// Reached both by the provider callback and by customer-driven retries;
// confirmation is idempotent either way.
func (h *PaymentsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	order, err := h.svc.Confirm(ctx, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

func parseFees(w http.ResponseWriter, req InitiatePaymentRequestDTO) (service.Fees, bool) {
	fees := service.Fees{
		Tax:            decimal.Zero,
		ServiceCharge:  decimal.Zero,
		DeliveryCharge: decimal.Zero,
	}

	parse := func(s string, dst *decimal.Decimal) bool {
		if s == "" {
			return true
		}
		d, err := domain.ParseAmount(s)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_amount", "fee amounts must be non-negative decimals")
			return false
		}
		*dst = d
		return true
	}

	if !parse(req.TaxAmount, &fees.Tax) ||
		!parse(req.ServiceCharge, &fees.ServiceCharge) ||
		!parse(req.DeliveryCharge, &fees.DeliveryCharge) {
		return service.Fees{}, false
	}
	return fees, true
}
