package ledger

import (
	"context"
	"fmt"
	"io"
	"log"

	"storefront/internal/domain"
	"storefront/internal/store"
)

type postgresRepo struct {
	logger *log.Logger
}

func NewPostgres(logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{logger: logger}
}

func (r *postgresRepo) Reserve(ctx context.Context, db store.Querier, productID string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("reserve qty must be positive, got %d", qty)
	}
	// The stock check and the increment are one statement; two concurrent
	// reserves cannot both win the last units.
	const q = `
UPDATE products
SET reserved = reserved + $2, updated_at = now()
WHERE id = $1 AND stock - reserved >= $2
`
	ct, err := db.Exec(ctx, q, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		r.logger.Printf("ledger: reserved product_id=%s qty=%d", productID, qty)
		return nil
	}

	var exists bool
	if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrInsufficientStock
}

func (r *postgresRepo) Release(ctx context.Context, db store.Querier, productID string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("release qty must be positive, got %d", qty)
	}
	const q = `
UPDATE products
SET reserved = GREATEST(reserved - $2, 0), updated_at = now()
WHERE id = $1
`
	ct, err := db.Exec(ctx, q, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("ledger: released product_id=%s qty=%d", productID, qty)
	return nil
}

func (r *postgresRepo) Commit(ctx context.Context, db store.Querier, productID string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("commit qty must be positive, got %d", qty)
	}
	const q = `
UPDATE products
SET stock = stock - $2, reserved = GREATEST(reserved - $2, 0), updated_at = now()
WHERE id = $1
`
	ct, err := db.Exec(ctx, q, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Printf("ledger: committed product_id=%s qty=%d", productID, qty)
	return nil
}
