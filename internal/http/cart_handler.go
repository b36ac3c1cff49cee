package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/go_shop/internal/service"
)

// CartAPI is what the cart handler needs from the cart service.
type CartAPI interface {
	GetCart(ctx context.Context, customerID string) (*service.CartView, error)
	AddItem(ctx context.Context, customerID string, productID int64, qty int) error
	UpdateItemQty(ctx context.Context, customerID string, productID int64, qty int) error
	RemoveItem(ctx context.Context, customerID string, productID int64) error
	EnsureProfile(ctx context.Context, customerID string) error
}

type CartHandler struct {
	svc     CartAPI
	timeout time.Duration
}

func NewCartHandler(svc CartAPI, timeout time.Duration) *CartHandler {
	return &CartHandler{svc: svc, timeout: timeout}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0,lte=99"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity" validate:"required,gt=0,lte=99"`
}

type CartItemDTO struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

type CartResponseDTO struct {
	Items []CartItemDTO `json:"items"`
	Total string        `json:"total"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.svc.GetCart(ctx, getCustomerID(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	dto := CartResponseDTO{
		Items: make([]CartItemDTO, 0, len(cart.Items)),
		Total: cart.Total.StringFixed(2),
	}
	for _, item := range cart.Items {
		dto.Items = append(dto.Items, CartItemDTO{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Qty,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			LineTotal:   item.LineTotal.StringFixed(2),
		})
	}

	respondJSON(w, http.StatusOK, dto)
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !bindAndValidate(w, r, &req) {
		return
	}

	if err := h.svc.AddItem(ctx, getCustomerID(r.Context()), req.ProductID, req.Quantity); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if !bindAndValidate(w, r, &req) {
		return
	}

	if err := h.svc.UpdateItemQty(ctx, getCustomerID(r.Context()), productID, req.Quantity); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID, ok := parseProductID(w, r)
	if !ok {
		return
	}

	if err := h.svc.RemoveItem(ctx, getCustomerID(r.Context()), productID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/profile
func (h *CartHandler) EnsureProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	customerID := getCustomerID(r.Context())
	if err := h.svc.EnsureProfile(ctx, customerID); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"customer_id": customerID})
}

func parseProductID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	productIDStr := chi.URLParam(r, "product_id")
	productID, err := strconv.ParseInt(productIDStr, 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be positive")
		return 0, false
	}
	return productID, true
}
