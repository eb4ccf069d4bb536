package sweeper

import (
	"context"
	"io"
	"log"
	"time"

	"storefront/internal/domain"
	"storefront/internal/store"
	"github.com/google/uuid"
)

type txRunner interface {
	WithinTx(ctx context.Context, fn func(q store.Querier) error) error
	Pool() store.Querier
}

type orderRepo interface {
	GetByIDForUpdate(ctx context.Context, db store.Querier, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, db store.Querier, id string, from, to domain.OrderStatus) error
	ListExpiredIDs(ctx context.Context, db store.Querier, now time.Time, limit int) ([]string, error)
}

type ledgerRepo interface {
	Release(ctx context.Context, db store.Querier, productID string, qty int) error
}

type sweepLock interface {
	AcquireSweepLock(ctx context.Context, holder string) (bool, error)
	ReleaseSweepLock(ctx context.Context, holder string) error
}

type statusCache interface {
	SetOrderStatus(ctx context.Context, orderID, status string) error
}

// Service reconciles orders whose payment window lapsed without settlement.
// Expiry is data driven: no timer is armed per order, the deadline column is
// scanned lazily, so nothing is lost across process restarts.
type Service struct {
	store     txRunner
	orders    orderRepo
	ledger    ledgerRepo
	lock      sweepLock
	cache     statusCache
	logger    *log.Logger
	batchSize int
	holder    string
}

const defaultBatchSize = 100

func New(st txRunner, orders orderRepo, ledger ledgerRepo, lock sweepLock, cache statusCache, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		store:     st,
		orders:    orders,
		ledger:    ledger,
		lock:      lock,
		cache:     cache,
		logger:    logger,
		batchSize: defaultBatchSize,
		holder:    uuid.NewString(),
	}
}

// Sweep cancels every pending order past its deadline as of now and releases
// its reservations. Each order is its own atomic unit; one order's failure is
// logged and skipped, never aborting the pass.
func (s *Service) Sweep(ctx context.Context, now time.Time) {
	if s.lock != nil {
		held, err := s.lock.AcquireSweepLock(ctx, s.holder)
		if err != nil {
			// The lock only avoids duplicate work across instances;
			// correctness comes from the per-order status guard.
			s.logger.Printf("sweeper: lock unavailable, sweeping anyway: %v", err)
		} else if !held {
			s.logger.Printf("sweeper: another instance holds the lock, skipping pass")
			return
		} else {
			defer func() {
				if err := s.lock.ReleaseSweepLock(ctx, s.holder); err != nil {
					s.logger.Printf("sweeper: release lock error=%v", err)
				}
			}()
		}
	}

	ids, err := s.orders.ListExpiredIDs(ctx, s.store.Pool(), now, s.batchSize)
	if err != nil {
		s.logger.Printf("sweeper: list expired orders error=%v", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	cancelled := 0
	for _, id := range ids {
		if err := s.reconcile(ctx, id, now); err != nil {
			s.logger.Printf("sweeper: order_id=%s error=%v", id, err)
			continue
		}
		cancelled++
	}
	s.logger.Printf("sweeper: pass done expired=%d cancelled=%d", len(ids), cancelled)
}

// Run invokes Sweep on a fixed cadence until ctx is cancelled.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx, time.Now())
		}
	}
}

func (s *Service) reconcile(ctx context.Context, orderID string, now time.Time) error {
	var cancelled bool
	err := s.store.WithinTx(ctx, func(q store.Querier) error {
		cancelled = false
		o, err := s.orders.GetByIDForUpdate(ctx, q, orderID)
		if err != nil {
			return err
		}
		// Settled or already-cancelled orders are a no-op, not a double
		// release.
		if !o.IsExpired(now) {
			return nil
		}
		if err := s.orders.UpdateStatus(ctx, q, o.ID, domain.StatusPendingPayment, domain.StatusCancelled); err != nil {
			return err
		}
		for _, item := range o.Items {
			if err := s.ledger.Release(ctx, q, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		cancelled = true
		return nil
	})
	if err != nil {
		return err
	}
	if cancelled {
		s.logger.Printf("sweeper: cancelled order_id=%s", orderID)
		if s.cache != nil {
			if err := s.cache.SetOrderStatus(ctx, orderID, string(domain.StatusCancelled)); err != nil {
				s.logger.Printf("sweeper: cache status order_id=%s error=%v", orderID, err)
			}
		}
	}
	return nil
}
