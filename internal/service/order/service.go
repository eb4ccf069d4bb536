package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/payments"
	"storefront/internal/store"
	"github.com/google/uuid"
)

type txRunner interface {
	WithinTx(ctx context.Context, fn func(q store.Querier) error) error
	Pool() store.Querier
}

type orderRepo interface {
	Create(ctx context.Context, db store.Querier, o domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, db store.Querier, id string) (*domain.Order, error)
	GetByIDForUpdate(ctx context.Context, db store.Querier, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, db store.Querier, userID string, limit, offset int) ([]domain.Order, int, error)
	UpdateStatus(ctx context.Context, db store.Querier, id string, from, to domain.OrderStatus) error
}

type cartRepo interface {
	Lines(ctx context.Context, db store.Querier, userID string) ([]domain.CartLine, error)
	Clear(ctx context.Context, db store.Querier, userID string) error
}

type ledgerRepo interface {
	Reserve(ctx context.Context, db store.Querier, productID string, qty int) error
	Release(ctx context.Context, db store.Querier, productID string, qty int) error
	Commit(ctx context.Context, db store.Querier, productID string, qty int) error
}

type paymentRepo interface {
	Create(ctx context.Context, db store.Querier, p domain.Payment) (*domain.Payment, error)
	GetByOrder(ctx context.Context, db store.Querier, orderID string) (*domain.Payment, error)
}

type settledPublisher interface {
	PublishPaymentSettled(ev events.PaymentSettled)
}

type statusCache interface {
	SetOrderStatus(ctx context.Context, orderID, status string) error
	GetOrderStatus(ctx context.Context, orderID string) (string, error)
}

// Deps collects the service's collaborators. Publisher and Cache are
// optional; everything else is required.
type Deps struct {
	Store     txRunner
	Orders    orderRepo
	Carts     cartRepo
	Ledger    ledgerRepo
	Payments  paymentRepo
	Gateway   payments.Gateway
	Publisher settledPublisher
	Cache     statusCache
	Logger    *log.Logger
}

// Service owns checkout and payment settlement: the two transactional units
// that couple the order lifecycle to the stock ledger.
type Service struct {
	deps          Deps
	paymentWindow time.Duration
	now           func() time.Time
}

const defaultPaymentWindow = 15 * time.Minute

func New(deps Deps, paymentWindow time.Duration) *Service {
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard, "", 0)
	}
	if paymentWindow <= 0 {
		paymentWindow = defaultPaymentWindow
	}
	return &Service{deps: deps, paymentWindow: paymentWindow, now: time.Now}
}

// Checkout converts the user's cart into a pending-payment order, reserving
// stock for every line. The cart read, all reservations, the order insert and
// the cart clear are one atomic unit: any failure rolls everything back.
func (s *Service) Checkout(ctx context.Context, userID string) (*domain.Order, error) {
	var created *domain.Order
	err := s.deps.Store.WithinTx(ctx, func(q store.Querier) error {
		created = nil

		lines, err := s.deps.Carts.Lines(ctx, q, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}

		items := make([]domain.OrderItem, 0, len(lines))
		var total int64
		for _, line := range lines {
			if err := s.deps.Ledger.Reserve(ctx, q, line.ProductID, line.Quantity); err != nil {
				if errors.Is(err, domain.ErrInsufficientStock) {
					return fmt.Errorf("%w for product %q", domain.ErrInsufficientStock, line.ProductName)
				}
				return fmt.Errorf("reserve product %s: %w", line.ProductID, err)
			}
			items = append(items, domain.OrderItem{
				ProductID:   line.ProductID,
				ProductName: line.ProductName,
				Quantity:    line.Quantity,
				PriceCents:  line.UnitPriceCents,
			})
			total += int64(line.Quantity) * line.UnitPriceCents
		}

		o, err := s.deps.Orders.Create(ctx, q, domain.Order{
			UserID:           userID,
			Items:            items,
			TotalCents:       total,
			Status:           domain.StatusPendingPayment,
			PaymentExpiresAt: s.now().Add(s.paymentWindow),
		})
		if err != nil {
			return err
		}
		if err := s.deps.Carts.Clear(ctx, q, userID); err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cacheStatus(ctx, created.ID, created.Status)
	s.deps.Logger.Printf("order service: checkout user_id=%s order_id=%s total_cents=%d", userID, created.ID, created.TotalCents)
	return created, nil
}

// SettlePayment resolves a pending order to paid or cancelled. The status
// write, every ledger write and the receipt are one atomic unit. An order past
// its deadline is cancelled and released instead, surfacing
// domain.ErrPaymentExpired after that cancellation has committed.
func (s *Service) SettlePayment(ctx context.Context, orderID, callerID string) (*domain.Order, *domain.Payment, error) {
	var (
		settled *domain.Order
		receipt *domain.Payment
		expired bool
	)
	err := s.deps.Store.WithinTx(ctx, func(q store.Querier) error {
		settled, receipt, expired = nil, nil, false

		o, err := s.deps.Orders.GetByIDForUpdate(ctx, q, orderID)
		if err != nil {
			return err
		}
		if o.UserID != callerID {
			return domain.ErrUnauthorized
		}
		if o.Status != domain.StatusPendingPayment {
			return domain.ErrInvalidState
		}

		if o.IsExpired(s.now()) {
			if err := s.cancelAndRelease(ctx, q, o); err != nil {
				return err
			}
			o.Status = domain.StatusCancelled
			settled, expired = o, true
			return nil
		}

		approved, err := s.deps.Gateway.Authorize(ctx, o.ID, o.TotalCents)
		if err != nil {
			return fmt.Errorf("authorize payment: %w", err)
		}

		outcome := domain.PaymentFailed
		if approved {
			outcome = domain.PaymentSuccess
		}
		receipt, err = s.deps.Payments.Create(ctx, q, domain.Payment{
			OrderID:       o.ID,
			TransactionID: "TXN_" + uuid.NewString(),
			AmountCents:   o.TotalCents,
			Status:        outcome,
			Method:        "mock",
		})
		if err != nil {
			return err
		}

		if approved {
			if err := s.deps.Orders.UpdateStatus(ctx, q, o.ID, domain.StatusPendingPayment, domain.StatusPaid); err != nil {
				return err
			}
			for _, item := range o.Items {
				if err := s.deps.Ledger.Commit(ctx, q, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
			o.Status = domain.StatusPaid
		} else {
			if err := s.cancelAndRelease(ctx, q, o); err != nil {
				return err
			}
			o.Status = domain.StatusCancelled
		}
		settled = o
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.cacheStatus(ctx, settled.ID, settled.Status)
	if expired {
		return settled, nil, domain.ErrPaymentExpired
	}
	if settled.Status == domain.StatusPaid {
		s.deps.Logger.Printf("order service: settled order_id=%s amount_cents=%d", settled.ID, settled.TotalCents)
		if s.deps.Publisher != nil {
			s.deps.Publisher.PublishPaymentSettled(events.PaymentSettled{
				OrderID:    settled.ID,
				UserID:     settled.UserID,
				TotalCents: settled.TotalCents,
				OccurredAt: s.now(),
			})
		}
	}
	return settled, receipt, nil
}

// Get returns an order the caller owns, with its successful receipt when one
// exists.
func (s *Service) Get(ctx context.Context, orderID, callerID string) (*domain.Order, *domain.Payment, error) {
	o, err := s.deps.Orders.GetByID(ctx, s.deps.Store.Pool(), orderID)
	if err != nil {
		return nil, nil, err
	}
	if o.UserID != callerID {
		return nil, nil, domain.ErrUnauthorized
	}
	receipt, err := s.deps.Payments.GetByOrder(ctx, s.deps.Store.Pool(), orderID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, nil, err
		}
		receipt = nil
	}
	return o, receipt, nil
}

// ListByUser pages through the caller's orders, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, int, error) {
	return s.deps.Orders.ListByUser(ctx, s.deps.Store.Pool(), userID, limit, offset)
}

// Status serves cheap status polls through the cache, falling back to the
// store on a miss.
func (s *Service) Status(ctx context.Context, orderID string) (domain.OrderStatus, error) {
	if s.deps.Cache != nil {
		if cached, err := s.deps.Cache.GetOrderStatus(ctx, orderID); err == nil && domain.ValidStatus(domain.OrderStatus(cached)) {
			return domain.OrderStatus(cached), nil
		}
	}
	o, err := s.deps.Orders.GetByID(ctx, s.deps.Store.Pool(), orderID)
	if err != nil {
		return "", err
	}
	s.cacheStatus(ctx, o.ID, o.Status)
	return o.Status, nil
}

// UpdateStatus applies an operator-driven transition (ship, deliver, cancel)
// through the state machine. Cancelling a still-pending order releases its
// reservations, the same reconciliation as a failed settlement.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, target domain.OrderStatus) (*domain.Order, error) {
	if !domain.ValidStatus(target) {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidTransition, target)
	}
	var updated *domain.Order
	err := s.deps.Store.WithinTx(ctx, func(q store.Querier) error {
		updated = nil
		o, err := s.deps.Orders.GetByIDForUpdate(ctx, q, orderID)
		if err != nil {
			return err
		}
		if !domain.CanTransition(o.Status, target) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, o.Status, target)
		}
		if o.Status == domain.StatusPendingPayment && target == domain.StatusCancelled {
			if err := s.cancelAndRelease(ctx, q, o); err != nil {
				return err
			}
		} else if err := s.deps.Orders.UpdateStatus(ctx, q, o.ID, o.Status, target); err != nil {
			return err
		}
		o.Status = target
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cacheStatus(ctx, updated.ID, updated.Status)
	return updated, nil
}

// cancelAndRelease moves a pending order to CANCELLED and returns every
// reserved line to available stock. Guarded by the status transition, so a
// second caller hitting the same order fails before any release happens.
func (s *Service) cancelAndRelease(ctx context.Context, q store.Querier, o *domain.Order) error {
	if err := s.deps.Orders.UpdateStatus(ctx, q, o.ID, domain.StatusPendingPayment, domain.StatusCancelled); err != nil {
		return err
	}
	for _, item := range o.Items {
		if err := s.deps.Ledger.Release(ctx, q, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// cacheStatus is best effort; a cache failure is logged, never surfaced.
func (s *Service) cacheStatus(ctx context.Context, orderID string, status domain.OrderStatus) {
	if s.deps.Cache == nil {
		return
	}
	if err := s.deps.Cache.SetOrderStatus(ctx, orderID, string(status)); err != nil {
		s.deps.Logger.Printf("order service: cache status order_id=%s error=%v", orderID, err)
	}
}
