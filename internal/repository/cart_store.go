package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fjod/go_shop/internal/domain"
)

// EnsureCustomer provisions the customer profile and its cart. Safe to
// call repeatedly; read endpoints never do this implicitly.
func (r *Repository) EnsureCustomer(ctx context.Context, customerID string) error {
	custQuery := `INSERT INTO customers (id, created_at) VALUES ($1, NOW())
	              ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, custQuery, customerID); err != nil {
		return fmt.Errorf("ensure customer: %w", err)
	}

	cartQuery := `INSERT INTO carts (id, customer_id, created_at, updated_at) VALUES ($1, $2, NOW(), NOW())
	              ON CONFLICT (customer_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, cartQuery, uuid.New(), customerID); err != nil {
		return fmt.Errorf("ensure cart: %w", err)
	}
	return nil
}

func (r *Repository) CartLines(ctx context.Context, customerID string) ([]domain.CartLine, error) {
	query := `SELECT ci.product_id, ci.qty, ci.added_at
	          FROM cart_items ci
	          JOIN carts c ON c.id = ci.cart_id
	          WHERE c.customer_id = $1
	          ORDER BY ci.added_at`

	rows, err := r.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
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

// UpsertCartLine adds qty of a product to the cart, incrementing the
// existing line when the product is already there. The cart row itself is
// created on first use.
func (r *Repository) UpsertCartLine(ctx context.Context, customerID string, productID int64, qty int) error {
	cartQuery := `INSERT INTO carts (id, customer_id, created_at, updated_at) VALUES ($1, $2, NOW(), NOW())
	              ON CONFLICT (customer_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, cartQuery, uuid.New(), customerID); err != nil {
		return fmt.Errorf("ensure cart: %w", err)
	}

	query := `INSERT INTO cart_items (cart_id, product_id, qty, added_at)
	          SELECT c.id, $2, $3, NOW() FROM carts c WHERE c.customer_id = $1
	          ON CONFLICT (cart_id, product_id)
	          DO UPDATE SET qty = cart_items.qty + EXCLUDED.qty`

	if _, err := r.db.ExecContext(ctx, query, customerID, productID, qty); err != nil {
		return fmt.Errorf("upsert cart line: %w", err)
	}
	return nil
}

func (r *Repository) UpdateCartLineQty(ctx context.Context, customerID string, productID int64, qty int) error {
	query := `UPDATE cart_items ci SET qty = $3
	          FROM carts c
	          WHERE ci.cart_id = c.id AND c.customer_id = $1 AND ci.product_id = $2`

	res, err := r.db.ExecContext(ctx, query, customerID, productID, qty)
	if err != nil {
		return fmt.Errorf("update cart line: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update cart line rows affected: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *Repository) RemoveCartLine(ctx context.Context, customerID string, productID int64) error {
	query := `DELETE FROM cart_items ci
	          USING carts c
	          WHERE ci.cart_id = c.id AND c.customer_id = $1 AND ci.product_id = $2`

	res, err := r.db.ExecContext(ctx, query, customerID, productID)
	if err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove cart line rows affected: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}
