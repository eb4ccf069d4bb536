package order

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"storefront/internal/domain"
	"storefront/internal/store"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `id::text, user_id, status, total_cents, payment_expires_at, created_at`

type postgresRepo struct {
	logger *log.Logger
}

func NewPostgres(logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, db store.Querier, o domain.Order) (*domain.Order, error) {
	const q = `
INSERT INTO orders (user_id, status, total_cents, payment_expires_at)
VALUES ($1, $2, $3, $4)
RETURNING id::text, created_at
`
	if err := db.QueryRow(ctx, q, o.UserID, o.Status, o.TotalCents, o.PaymentExpiresAt).Scan(&o.ID, &o.CreatedAt); err != nil {
		r.logger.Printf("order repo: create user_id=%s error=%v", o.UserID, err)
		return nil, err
	}

	const itemQ = `
INSERT INTO order_items (order_id, product_id, product_name, quantity, price_cents)
VALUES ($1, $2, $3, $4, $5)
`
	for _, item := range o.Items {
		if _, err := db.Exec(ctx, itemQ, o.ID, item.ProductID, item.ProductName, item.Quantity, item.PriceCents); err != nil {
			r.logger.Printf("order repo: create item order_id=%s product_id=%s error=%v", o.ID, item.ProductID, err)
			return nil, err
		}
	}
	r.logger.Printf("order repo: created id=%s user_id=%s total_cents=%d", o.ID, o.UserID, o.TotalCents)
	return &o, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, db store.Querier, id string) (*domain.Order, error) {
	return r.fetch(ctx, db, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *postgresRepo) GetByIDForUpdate(ctx context.Context, db store.Querier, id string) (*domain.Order, error) {
	return r.fetch(ctx, db, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresRepo) ListByUser(ctx context.Context, db store.Querier, userID string, limit, offset int) ([]domain.Order, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `
SELECT ` + orderColumns + `
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`
	rows, err := db.Query(ctx, q, userID, limit, offset)
	if err != nil {
		r.logger.Printf("order repo: list user_id=%s error=%v", userID, err)
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.TotalCents, &o.PaymentExpiresAt, &o.CreatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range result {
		items, err := r.items(ctx, db, result[i].ID)
		if err != nil {
			return nil, 0, err
		}
		result[i].Items = items
	}
	return result, total, nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, db store.Querier, id string, from, to domain.OrderStatus) error {
	const q = `
UPDATE orders
SET status = $3
WHERE id = $1 AND status = $2
`
	ct, err := db.Exec(ctx, q, id, from, to)
	if err != nil {
		r.logger.Printf("order repo: update status id=%s %s->%s error=%v", id, from, to, err)
		return err
	}
	if ct.RowsAffected() == 0 {
		// Either the order is gone or another writer moved it first.
		var exists bool
		if err := db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrInvalidState
	}
	r.logger.Printf("order repo: status id=%s %s->%s", id, from, to)
	return nil
}

func (r *postgresRepo) ListExpiredIDs(ctx context.Context, db store.Querier, now time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT id::text
FROM orders
WHERE status = $1 AND payment_expires_at < $2
ORDER BY payment_expires_at ASC
LIMIT $3
`
	rows, err := db.Query(ctx, q, domain.StatusPendingPayment, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresRepo) fetch(ctx context.Context, db store.Querier, q, id string) (*domain.Order, error) {
	var o domain.Order
	err := db.QueryRow(ctx, q, id).Scan(&o.ID, &o.UserID, &o.Status, &o.TotalCents, &o.PaymentExpiresAt, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("order repo: get id=%s error=%v", id, err)
		return nil, err
	}

	items, err := r.items(ctx, db, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (r *postgresRepo) items(ctx context.Context, db store.Querier, orderID string) ([]domain.OrderItem, error) {
	const q = `
SELECT product_id::text, product_name, quantity, price_cents
FROM order_items
WHERE order_id = $1
ORDER BY product_name ASC
`
	rows, err := db.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &item.PriceCents); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
