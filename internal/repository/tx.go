package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fjod/go_shop/internal/domain"
)

// pgTx implements Tx over one open *sql.Tx.
type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) CartLinesForUpdate(ctx context.Context, customerID string) ([]domain.CartLine, error) {
	query := `SELECT ci.product_id, ci.qty, ci.added_at
	          FROM cart_items ci
	          JOIN carts c ON c.id = ci.cart_id
	          WHERE c.customer_id = $1
	          ORDER BY ci.added_at
	          FOR UPDATE OF ci`

	rows, err := t.tx.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("lock cart lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ProductID, &line.Qty, &line.AddedAt); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}
	return lines, nil
}

func (t *pgTx) ProductByID(ctx context.Context, productID int64) (*domain.Product, error) {
	query := `SELECT id, name, unit_price, stock_qty, created_at, updated_at
	          FROM products WHERE id = $1`

	var p domain.Product
	err := t.tx.QueryRowContext(ctx, query, productID).Scan(
		&p.ID,
		&p.Name,
		&p.UnitPrice,
		&p.StockQty,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

func (t *pgTx) InsertOrder(ctx context.Context, order *domain.Order) error {
	query := `INSERT INTO orders (id, customer_id, status, payment_mode, is_paid, delivery_address, placed_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`

	_, err := t.tx.ExecContext(ctx, query,
		order.ID,
		order.CustomerID,
		string(order.Status),
		string(order.PaymentMode),
		order.IsPaid,
		order.DeliveryAddress)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `INSERT INTO order_items (order_id, product_id, qty, unit_price)
	              VALUES ($1, $2, $3, $4)`
	for _, item := range order.Items {
		if _, err := t.tx.ExecContext(ctx, itemQuery, order.ID, item.ProductID, item.Qty, item.UnitPrice); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (t *pgTx) ClearCart(ctx context.Context, customerID string) error {
	query := `DELETE FROM cart_items ci
	          USING carts c
	          WHERE ci.cart_id = c.id AND c.customer_id = $1`

	if _, err := t.tx.ExecContext(ctx, query, customerID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (t *pgTx) OrderForUpdate(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	query := `SELECT id, customer_id, status, payment_mode, is_paid, transaction_ref, delivery_address, placed_at, updated_at
	          FROM orders WHERE id = $1
	          FOR UPDATE`

	order, err := scanOrder(t.tx.QueryRowContext(ctx, query, orderID))
	if err != nil {
		return nil, err
	}

	items, err := queryOrderItems(ctx, t.tx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (t *pgTx) SetTransactionRef(ctx context.Context, orderID uuid.UUID, ref string) error {
	// Guard against clobbering an existing reference; minting must happen
	// at most once per order.
	query := `UPDATE orders SET transaction_ref = $2, updated_at = NOW()
	          WHERE id = $1 AND transaction_ref IS NULL`

	res, err := t.tx.ExecContext(ctx, query, orderID, ref)
	if err != nil {
		return fmt.Errorf("set transaction ref: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set transaction ref rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("order %s already has a transaction ref", orderID)
	}
	return nil
}

func (t *pgTx) UpdateOrderState(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus, mode domain.PaymentMode, isPaid bool) error {
	query := `UPDATE orders SET status = $2, payment_mode = $3, is_paid = $4, updated_at = NOW()
	          WHERE id = $1`

	res, err := t.tx.ExecContext(ctx, query, orderID, string(status), string(mode), isPaid)
	if err != nil {
		return fmt.Errorf("update order state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order state rows affected: %w", err)
	}
	if affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (t *pgTx) AppendEvent(ctx context.Context, aggregateID, eventType string, payload []byte) error {
	query := `INSERT INTO outbox_events (aggregate_id, event_type, payload, created_at)
	          VALUES ($1, $2, $3, NOW())`

	if _, err := t.tx.ExecContext(ctx, query, aggregateID, eventType, payload); err != nil {
		return fmt.Errorf("append outbox event: %w", err)
	}
	return nil
}
