package payment

import (
	"context"
	"errors"
	"io"
	"log"

	"storefront/internal/domain"
	"storefront/internal/store"
	"github.com/jackc/pgx/v5"
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

func (r *postgresRepo) Create(ctx context.Context, db store.Querier, p domain.Payment) (*domain.Payment, error) {
	const q = `
INSERT INTO payments (order_id, transaction_id, amount_cents, status, method)
VALUES ($1, $2, $3, $4, $5)
RETURNING id::text, created_at
`
	if err := db.QueryRow(ctx, q, p.OrderID, p.TransactionID, p.AmountCents, p.Status, p.Method).Scan(&p.ID, &p.CreatedAt); err != nil {
		r.logger.Printf("payment repo: create order_id=%s error=%v", p.OrderID, err)
		return nil, err
	}
	r.logger.Printf("payment repo: created id=%s order_id=%s status=%s", p.ID, p.OrderID, p.Status)
	return &p, nil
}

func (r *postgresRepo) GetByOrder(ctx context.Context, db store.Querier, orderID string) (*domain.Payment, error) {
	const q = `
SELECT id::text, order_id::text, transaction_id, amount_cents, status, method, created_at
FROM payments
WHERE order_id = $1 AND status = $2
`
	var p domain.Payment
	err := db.QueryRow(ctx, q, orderID, domain.PaymentSuccess).Scan(
		&p.ID, &p.OrderID, &p.TransactionID, &p.AmountCents, &p.Status, &p.Method, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Printf("payment repo: get order_id=%s error=%v", orderID, err)
		return nil, err
	}
	return &p, nil
}
