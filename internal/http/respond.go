package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/fjod/go_shop/internal/repository"
	"github.com/fjod/go_shop/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: "",
	})
}

// handleServiceError maps service errors onto the public taxonomy. Storage
// detail never reaches the client; the wrapped cause goes to the log only.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", "order not found")
	case errors.Is(err, repository.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "not_found", "product not found")
	case errors.Is(err, service.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cart is empty")
	case errors.Is(err, service.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be a positive integer")
	case errors.Is(err, service.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, "invalid_amount", "fee amounts must be non-negative")
	case errors.Is(err, service.ErrInvalidState):
		respondError(w, http.StatusConflict, "invalid_state", "operation not allowed for current order status")
	case errors.Is(err, service.ErrMissingTransactionRef):
		respondError(w, http.StatusConflict, "missing_transaction_ref", "initiate payment before confirming")
	case errors.Is(err, service.ErrUnauthorized):
		respondError(w, http.StatusForbidden, "unauthorized", "order does not belong to this customer")
	case errors.Is(err, service.ErrVerificationFailed):
		respondError(w, http.StatusPaymentRequired, "verification_failed", "payment could not be verified, retry after paying")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		log.Printf("storage failure: %v", err)
		respondError(w, http.StatusInternalServerError, "storage_failure", "operation could not be completed")
	}
}
