package cart

import (
	"context"
	"io"
	"log"

	"storefront/internal/domain"
	"storefront/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	lines, err := r.Lines(ctx, r.pool, userID)
	if err != nil {
		return nil, err
	}
	// A user with no lines simply has an empty cart.
	return &domain.Cart{UserID: userID, Lines: lines}, nil
}

func (r *postgresRepo) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	const q = `
INSERT INTO cart_items (user_id, product_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, product_id) DO UPDATE
SET quantity = cart_items.quantity + EXCLUDED.quantity
`
	if _, err := r.pool.Exec(ctx, q, userID, productID, quantity); err != nil {
		r.logger.Printf("cart repo: add user_id=%s product_id=%s error=%v", userID, productID, err)
		return err
	}
	return nil
}

func (r *postgresRepo) SetItemQuantity(ctx context.Context, userID, productID string, quantity int) error {
	const q = `
UPDATE cart_items
SET quantity = $3
WHERE user_id = $1 AND product_id = $2
`
	ct, err := r.pool.Exec(ctx, q, userID, productID, quantity)
	if err != nil {
		r.logger.Printf("cart repo: set qty user_id=%s product_id=%s error=%v", userID, productID, err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) RemoveItem(ctx context.Context, userID, productID string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		r.logger.Printf("cart repo: remove user_id=%s product_id=%s error=%v", userID, productID, err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RemoveAll empties the cart outside any transaction, for the user-facing
// clear operation.
func (r *postgresRepo) RemoveAll(ctx context.Context, userID string) error {
	return r.Clear(ctx, r.pool, userID)
}

// Lines returns the cart joined with the catalog so callers see the current
// price, name and availability per line.
func (r *postgresRepo) Lines(ctx context.Context, db store.Querier, userID string) ([]domain.CartLine, error) {
	const q = `
SELECT ci.product_id::text, p.name, ci.quantity, p.price_cents, p.stock - p.reserved, ci.created_at
FROM cart_items ci
JOIN products p ON p.id = ci.product_id
WHERE ci.user_id = $1
ORDER BY ci.created_at ASC
`
	rows, err := db.Query(ctx, q, userID)
	if err != nil {
		r.logger.Printf("cart repo: lines user_id=%s error=%v", userID, err)
		return nil, err
	}
	defer rows.Close()

	var lines []domain.CartLine
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(&line.ProductID, &line.ProductName, &line.Quantity, &line.UnitPriceCents, &line.Available, &line.AddedAt); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *postgresRepo) Clear(ctx context.Context, db store.Querier, userID string) error {
	if _, err := db.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		r.logger.Printf("cart repo: clear user_id=%s error=%v", userID, err)
		return err
	}
	return nil
}
