package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/service"
)

type mockPlacement struct {
	order *domain.Order
	err   error

	gotCustomerID string
	gotAddress    string
}

func (m *mockPlacement) Place(ctx context.Context, customerID, deliveryAddress string) (*domain.Order, error) {
	m.gotCustomerID = customerID
	m.gotAddress = deliveryAddress
	return m.order, m.err
}

type mockOrders struct {
	orders []domain.Order
	order  *domain.Order
	err    error

	gotCustomerID string
	gotOrderID    uuid.UUID
	gotMode       domain.PaymentMode
}

func (m *mockOrders) ListMyOrders(ctx context.Context, customerID string) ([]domain.Order, error) {
	m.gotCustomerID = customerID
	return m.orders, m.err
}

func (m *mockOrders) GetOrder(ctx context.Context, customerID string, orderID uuid.UUID) (*domain.Order, error) {
	m.gotCustomerID = customerID
	m.gotOrderID = orderID
	return m.order, m.err
}

func (m *mockOrders) Cancel(ctx context.Context, customerID string, orderID uuid.UUID) (*domain.Order, error) {
	m.gotCustomerID = customerID
	m.gotOrderID = orderID
	return m.order, m.err
}

func (m *mockOrders) SelectPaymentMode(ctx context.Context, customerID string, orderID uuid.UUID, mode domain.PaymentMode) (*domain.Order, error) {
	m.gotCustomerID = customerID
	m.gotOrderID = orderID
	m.gotMode = mode
	return m.order, m.err
}

func (m *mockOrders) MarkCashPaid(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	m.gotOrderID = orderID
	return m.order, m.err
}

type mockPayments struct {
	result *service.InitiateResult
	order  *domain.Order
	err    error

	gotCustomerID string
	gotOrderID    uuid.UUID
	gotFees       service.Fees
}

func (m *mockPayments) Initiate(ctx context.Context, customerID string, orderID uuid.UUID, fees service.Fees) (*service.InitiateResult, error) {
	m.gotCustomerID = customerID
	m.gotOrderID = orderID
	m.gotFees = fees
	return m.result, m.err
}

func (m *mockPayments) Confirm(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	m.gotOrderID = orderID
	return m.order, m.err
}

type mockCart struct {
	cart *service.CartView
	err  error

	gotCustomerID string
	gotProductID  int64
	gotQty        int
}

func (m *mockCart) GetCart(ctx context.Context, customerID string) (*service.CartView, error) {
	m.gotCustomerID = customerID
	return m.cart, m.err
}

func (m *mockCart) AddItem(ctx context.Context, customerID string, productID int64, qty int) error {
	m.gotCustomerID = customerID
	m.gotProductID = productID
	m.gotQty = qty
	return m.err
}

func (m *mockCart) UpdateItemQty(ctx context.Context, customerID string, productID int64, qty int) error {
	m.gotCustomerID = customerID
	m.gotProductID = productID
	m.gotQty = qty
	return m.err
}

func (m *mockCart) RemoveItem(ctx context.Context, customerID string, productID int64) error {
	m.gotCustomerID = customerID
	m.gotProductID = productID
	return m.err
}

func (m *mockCart) EnsureProfile(ctx context.Context, customerID string) error {
	m.gotCustomerID = customerID
	return m.err
}

const testTimeout = 5 * time.Second

// asCustomer fakes what AuthMiddleware does after a successful login.
func asCustomer(customerID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), customerIDKey, customerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func doJSON(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func sampleOrder(t *testing.T) *domain.Order {
	t.Helper()
	return &domain.Order{
		ID:              uuid.MustParse("7b0d1f2e-0000-0000-0000-000000000001"),
		CustomerID:      "alice",
		Status:          domain.OrderStatusPending,
		PaymentMode:     domain.PaymentModeUnset,
		DeliveryAddress: "42 Main St",
		Items: []domain.OrderItem{
			{ProductID: 1, Qty: 2, UnitPrice: decimal.RequireFromString("10.00")},
			{ProductID: 2, Qty: 1, UnitPrice: decimal.RequireFromString("5.00")},
		},
		PlacedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}
