package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_shop/internal/catalog"
	"github.com/fjod/go_shop/internal/repository"
)

// CartView is the cart as the customer sees it: lines decorated with live
// catalog prices. Nothing here is stored; prices can differ between two
// reads and only freeze at placement.
type CartView struct {
	CustomerID string
	Items      []CartViewItem
	Total      decimal.Decimal
}

type CartViewItem struct {
	ProductID   int64
	ProductName string
	Qty         int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

type CartService struct {
	store   repository.Store
	catalog catalog.Catalog
}

func NewCartService(store repository.Store, cat catalog.Catalog) *CartService {
	return &CartService{store: store, catalog: cat}
}

func (s *CartService) GetCart(ctx context.Context, customerID string) (*CartView, error) {
	lines, err := s.store.CartLines(ctx, customerID)
	if err != nil {
		return nil, err
	}

	view := &CartView{
		CustomerID: customerID,
		Items:      make([]CartViewItem, 0, len(lines)),
		Total:      decimal.Zero,
	}
	for _, line := range lines {
		product, err := s.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		lineTotal := product.UnitPrice.Mul(decimal.NewFromInt(int64(line.Qty)))
		view.Items = append(view.Items, CartViewItem{
			ProductID:   line.ProductID,
			ProductName: product.Name,
			Qty:         line.Qty,
			UnitPrice:   product.UnitPrice,
			LineTotal:   lineTotal,
		})
		view.Total = view.Total.Add(lineTotal)
	}
	return view, nil
}

// AddItem puts qty of a product into the cart; adding a product that is
// already there increments the existing line.
func (s *CartService) AddItem(ctx context.Context, customerID string, productID int64, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return err
	}
	return s.store.UpsertCartLine(ctx, customerID, productID, qty)
}

// UpdateItemQty replaces a line's quantity. Zero is not a valid quantity;
// removal is an explicit delete.
func (s *CartService) UpdateItemQty(ctx context.Context, customerID string, productID int64, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	return s.store.UpdateCartLineQty(ctx, customerID, productID, qty)
}

func (s *CartService) RemoveItem(ctx context.Context, customerID string, productID int64) error {
	return s.store.RemoveCartLine(ctx, customerID, productID)
}

// EnsureProfile provisions the customer profile and cart. It is explicit
// and idempotent; no read endpoint creates state as a side effect.
func (s *CartService) EnsureProfile(ctx context.Context, customerID string) error {
	return s.store.EnsureCustomer(ctx, customerID)
}
