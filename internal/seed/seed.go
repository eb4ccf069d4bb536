package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type productSeed struct {
	Name        string
	Description string
	PriceCents  int64
	Stock       int
}

// Apply inserts basic seed data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	products := []productSeed{
		{
			Name:        "Demo T-Shirt",
			Description: "Soft cotton tee for demo purposes",
			PriceCents:  1999,
			Stock:       100,
		},
		{
			Name:        "Demo Mug",
			Description: "Ceramic mug with demo logo",
			PriceCents:  1299,
			Stock:       50,
		},
		{
			Name:        "Demo Poster",
			Description: "A2 poster, matte finish",
			PriceCents:  899,
			Stock:       3,
		},
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
	}

	return nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	const q = `
INSERT INTO products (name, description, price_cents, stock)
VALUES ($1, $2, $3, $4)
ON CONFLICT (name) DO UPDATE SET
	description = EXCLUDED.description,
	price_cents = EXCLUDED.price_cents,
	stock       = GREATEST(products.stock, EXCLUDED.stock),
	updated_at  = now()
`
	_, err := pool.Exec(ctx, q, p.Name, p.Description, p.PriceCents, p.Stock)
	return err
}
