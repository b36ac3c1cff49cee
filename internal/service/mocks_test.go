package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fjod/go_shop/internal/domain"
	"github.com/fjod/go_shop/internal/repository"
)

type fakeEvent struct {
	AggregateID string
	EventType   string
	Payload     []byte
}

// fakeStore implements repository.Store in memory. WithinTx snapshots the
// state up front and restores it when fn fails, mirroring a rollback.
type fakeStore struct {
	mu       sync.Mutex
	carts    map[string][]domain.CartLine
	products map[int64]*domain.Product
	orders   map[uuid.UUID]*domain.Order
	events   []fakeEvent

	beginErr       error
	insertOrderErr error
	clearCartErr   error
	updateErr      error
	setRefCalls    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		carts:    make(map[string][]domain.CartLine),
		products: make(map[int64]*domain.Product),
		orders:   make(map[uuid.UUID]*domain.Order),
	}
}

func (s *fakeStore) addProduct(id int64, name, price string) {
	d, _ := decimal.NewFromString(price)
	s.products[id] = &domain.Product{ID: id, Name: name, UnitPrice: d, StockQty: 100}
}

func (s *fakeStore) addCartLine(customerID string, productID int64, qty int) {
	s.carts[customerID] = append(s.carts[customerID], domain.CartLine{
		ProductID: productID,
		Qty:       qty,
		AddedAt:   time.Now(),
	})
}

func (s *fakeStore) addOrder(o *domain.Order) {
	s.orders[o.ID] = o
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderItem(nil), o.Items...)
	if o.TransactionRef != nil {
		ref := *o.TransactionRef
		c.TransactionRef = &ref
	}
	return &c
}

func (s *fakeStore) snapshot() (map[string][]domain.CartLine, map[uuid.UUID]*domain.Order, []fakeEvent) {
	carts := make(map[string][]domain.CartLine, len(s.carts))
	for k, v := range s.carts {
		carts[k] = append([]domain.CartLine(nil), v...)
	}
	orders := make(map[uuid.UUID]*domain.Order, len(s.orders))
	for k, v := range s.orders {
		orders[k] = cloneOrder(v)
	}
	events := append([]fakeEvent(nil), s.events...)
	return carts, orders, events
}

func (s *fakeStore) WithinTx(_ context.Context, fn func(tx repository.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.beginErr != nil {
		return s.beginErr
	}

	carts, orders, events := s.snapshot()
	if err := fn(&fakeTx{store: s}); err != nil {
		s.carts, s.orders, s.events = carts, orders, events
		return err
	}
	return nil
}

func (s *fakeStore) CartLines(_ context.Context, customerID string) ([]domain.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CartLine(nil), s.carts[customerID]...), nil
}

func (s *fakeStore) OrderByID(_ context.Context, orderID uuid.UUID) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (s *fakeStore) OrdersByCustomer(_ context.Context, customerID string) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Order
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			out = append(out, *cloneOrder(o))
		}
	}
	return out, nil
}

func (s *fakeStore) EnsureCustomer(_ context.Context, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.carts[customerID]; !ok {
		s.carts[customerID] = nil
	}
	return nil
}

func (s *fakeStore) UpsertCartLine(_ context.Context, customerID string, productID int64, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, line := range s.carts[customerID] {
		if line.ProductID == productID {
			s.carts[customerID][i].Qty += qty
			return nil
		}
	}
	s.carts[customerID] = append(s.carts[customerID], domain.CartLine{ProductID: productID, Qty: qty, AddedAt: time.Now()})
	return nil
}

func (s *fakeStore) UpdateCartLineQty(_ context.Context, customerID string, productID int64, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, line := range s.carts[customerID] {
		if line.ProductID == productID {
			s.carts[customerID][i].Qty = qty
			return nil
		}
	}
	return repository.ErrProductNotFound
}

func (s *fakeStore) RemoveCartLine(_ context.Context, customerID string, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, line := range s.carts[customerID] {
		if line.ProductID == productID {
			s.carts[customerID] = append(s.carts[customerID][:i], s.carts[customerID][i+1:]...)
			return nil
		}
	}
	return repository.ErrProductNotFound
}

func (s *fakeStore) UnprocessedEvents(_ context.Context, limit int) ([]*repository.OutboxEvent, error) {
	return nil, nil
}

func (s *fakeStore) MarkEventProcessed(_ context.Context, eventID int64) error {
	return nil
}

// fakeTx mutates the backing store directly; WithinTx restores the
// snapshot if the closure fails.
type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) CartLinesForUpdate(_ context.Context, customerID string) ([]domain.CartLine, error) {
	return append([]domain.CartLine(nil), t.store.carts[customerID]...), nil
}

func (t *fakeTx) ProductByID(_ context.Context, productID int64) (*domain.Product, error) {
	p, ok := t.store.products[productID]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (t *fakeTx) InsertOrder(_ context.Context, order *domain.Order) error {
	if t.store.insertOrderErr != nil {
		return t.store.insertOrderErr
	}
	t.store.orders[order.ID] = cloneOrder(order)
	return nil
}

func (t *fakeTx) ClearCart(_ context.Context, customerID string) error {
	if t.store.clearCartErr != nil {
		return t.store.clearCartErr
	}
	t.store.carts[customerID] = nil
	return nil
}

func (t *fakeTx) OrderForUpdate(_ context.Context, orderID uuid.UUID) (*domain.Order, error) {
	o, ok := t.store.orders[orderID]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (t *fakeTx) SetTransactionRef(_ context.Context, orderID uuid.UUID, ref string) error {
	t.store.setRefCalls++
	o, ok := t.store.orders[orderID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.TransactionRef = &ref
	return nil
}

func (t *fakeTx) UpdateOrderState(_ context.Context, orderID uuid.UUID, status domain.OrderStatus, mode domain.PaymentMode, isPaid bool) error {
	if t.store.updateErr != nil {
		return t.store.updateErr
	}
	o, ok := t.store.orders[orderID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.Status = status
	o.PaymentMode = mode
	o.IsPaid = isPaid
	return nil
}

func (t *fakeTx) AppendEvent(_ context.Context, aggregateID, eventType string, payload []byte) error {
	t.store.events = append(t.store.events, fakeEvent{AggregateID: aggregateID, EventType: eventType, Payload: payload})
	return nil
}

// fakeGateway records verification calls and returns scripted results.
type fakeGateway struct {
	verifyResults []bool
	verifyCalls   int
}

func (g *fakeGateway) SignFields(totalAmount, transactionRef string) string {
	return "sig:" + totalAmount + ":" + transactionRef
}

func (g *fakeGateway) Verify(_ context.Context, _ string, _ decimal.Decimal) bool {
	i := g.verifyCalls
	g.verifyCalls++
	if i < len(g.verifyResults) {
		return g.verifyResults[i]
	}
	return false
}

func (g *fakeGateway) MerchantCode() string { return "EPAYTEST" }
func (g *fakeGateway) SuccessURL() string   { return "http://localhost/success" }
func (g *fakeGateway) FailureURL() string   { return "http://localhost/failure" }

// fakeCatalog serves products from the same map the store uses.
type fakeCatalog struct {
	store *fakeStore
}

func (c *fakeCatalog) GetProduct(_ context.Context, productID int64) (*domain.Product, error) {
	p, ok := c.store.products[productID]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}
