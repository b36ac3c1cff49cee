package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fjod/go_shop/internal/domain"
)

// PlacementAPI converts the cart into an order.
type PlacementAPI interface {
	Place(ctx context.Context, customerID, deliveryAddress string) (*domain.Order, error)
}

// OrderAPI drives the order lifecycle after placement.
type OrderAPI interface {
	ListMyOrders(ctx context.Context, customerID string) ([]domain.Order, error)
	GetOrder(ctx context.Context, customerID string, orderID uuid.UUID) (*domain.Order, error)
	Cancel(ctx context.Context, customerID string, orderID uuid.UUID) (*domain.Order, error)
	SelectPaymentMode(ctx context.Context, customerID string, orderID uuid.UUID, mode domain.PaymentMode) (*domain.Order, error)
	MarkCashPaid(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
}

type OrdersHandler struct {
	placement PlacementAPI
	orders    OrderAPI
	timeout   time.Duration
}

func NewOrdersHandler(placement PlacementAPI, orders OrderAPI, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		placement: placement,
		orders:    orders,
		timeout:   timeout,
	}
}

type PlaceOrderRequestDTO struct {
	DeliveryAddress string `json:"delivery_address" validate:"required,max=255"`
}

type SelectPaymentModeRequestDTO struct {
	Mode string `json:"mode" validate:"required,oneof=CASH GATEWAY"`
}

type OrderItemDTO struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type OrderResponseDTO struct {
	ID              string         `json:"id"`
	Status          string         `json:"status"`
	PaymentMode     string         `json:"payment_mode"`
	IsPaid          bool           `json:"is_paid"`
	TransactionRef  string         `json:"transaction_ref,omitempty"`
	DeliveryAddress string         `json:"delivery_address"`
	TotalAmount     string         `json:"total_amount"`
	Items           []OrderItemDTO `json:"items"`
	PlacedAt        string         `json:"placed_at"`
}

func convertOrder(o *domain.Order) OrderResponseDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemDTO{
			ProductID: item.ProductID,
			Quantity:  item.Qty,
			UnitPrice: item.UnitPrice.StringFixed(2),
		})
	}

	dto := OrderResponseDTO{
		ID:              o.ID.String(),
		Status:          o.Status.String(),
		PaymentMode:     o.PaymentMode.String(),
		IsPaid:          o.IsPaid,
		DeliveryAddress: o.DeliveryAddress,
		TotalAmount:     o.Total().StringFixed(2),
		Items:           items,
		PlacedAt:        o.PlacedAt.Format(time.RFC3339),
	}
	if o.TransactionRef != nil {
		dto.TransactionRef = *o.TransactionRef
	}
	return dto
}

// POST /api/v1/orders
func (h *OrdersHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PlaceOrderRequestDTO
	if !bindAndValidate(w, r, &req) {
		return
	}

	order, err := h.placement.Place(ctx, getCustomerID(r.Context()), req.DeliveryAddress)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, convertOrder(order))
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListMyOrders(ctx, getCustomerID(r.Context()))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(orders))
	for i := range orders {
		dtos = append(dtos, convertOrder(&orders[i]))
	}

	respondJSON(w, http.StatusOK, dtos)
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(ctx, getCustomerID(r.Context()), orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

// PATCH /api/v1/orders/{order_id}/cancel
func (h *OrdersHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	order, err := h.orders.Cancel(ctx, getCustomerID(r.Context()), orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

// POST /api/v1/orders/{order_id}/payment-mode
func (h *OrdersHandler) SelectPaymentMode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req SelectPaymentModeRequestDTO
	if !bindAndValidate(w, r, &req) {
		return
	}

	order, err := h.orders.SelectPaymentMode(ctx, getCustomerID(r.Context()), orderID, domain.PaymentMode(req.Mode))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

// POST /api/v1/admin/orders/{order_id}/cash-paid
func (h *OrdersHandler) MarkCashPaid(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	order, err := h.orders.MarkCashPaid(ctx, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertOrder(order))
}

func parseOrderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return uuid.Nil, false
	}
	return orderID, true
}
