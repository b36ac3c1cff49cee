package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fjod/go_shop/internal/domain"
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanOrder(row *sql.Row) (*domain.Order, error) {
	var order domain.Order
	var status, mode string
	var ref sql.NullString
	err := row.Scan(
		&order.ID,
		&order.CustomerID,
		&status,
		&mode,
		&order.IsPaid,
		&ref,
		&order.DeliveryAddress,
		&order.PlacedAt,
		&order.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}
	order.Status = domain.OrderStatus(status)
	order.PaymentMode = domain.PaymentMode(mode)
	if ref.Valid {
		order.TransactionRef = &ref.String
	}
	return &order, nil
}

func queryOrderItems(ctx context.Context, q querier, orderID uuid.UUID) ([]domain.OrderItem, error) {
	query := `SELECT product_id, qty, unit_price
	          FROM order_items WHERE order_id = $1
	          ORDER BY product_id`

	rows, err := q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Qty, &item.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}

func (r *Repository) OrderByID(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	query := `SELECT id, customer_id, status, payment_mode, is_paid, transaction_ref, delivery_address, placed_at, updated_at
	          FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, orderID))
	if err != nil {
		return nil, err
	}

	items, err := queryOrderItems(ctx, r.db, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *Repository) OrdersByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	query := `SELECT id, customer_id, status, payment_mode, is_paid, transaction_ref, delivery_address, placed_at, updated_at
	          FROM orders WHERE customer_id = $1
	          ORDER BY placed_at DESC`

	rows, err := r.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var order domain.Order
		var status, mode string
		var ref sql.NullString
		err := rows.Scan(
			&order.ID,
			&order.CustomerID,
			&status,
			&mode,
			&order.IsPaid,
			&ref,
			&order.DeliveryAddress,
			&order.PlacedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		order.Status = domain.OrderStatus(status)
		order.PaymentMode = domain.PaymentMode(mode)
		if ref.Valid {
			order.TransactionRef = &ref.String
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	for i := range orders {
		items, err := queryOrderItems(ctx, r.db, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}
