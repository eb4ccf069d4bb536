package order

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/store"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type stubStore struct {
	txErr error
}

func (s *stubStore) WithinTx(_ context.Context, fn func(q store.Querier) error) error {
	if s.txErr != nil {
		return s.txErr
	}
	return fn(nil)
}

func (s *stubStore) Pool() store.Querier { return nil }

type statusChange struct {
	orderID  string
	from, to domain.OrderStatus
}

type stubOrderRepo struct {
	order         *domain.Order
	getErr        error
	created       *domain.Order
	createErr     error
	statusChanges []statusChange
	updateErr     error
	listOrders    []domain.Order
	listTotal     int
}

func (s *stubOrderRepo) Create(_ context.Context, _ store.Querier, o domain.Order) (*domain.Order, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	o.ID = "order-1"
	o.CreatedAt = fixedNow
	s.created = &o
	return &o, nil
}

func (s *stubOrderRepo) GetByID(_ context.Context, _ store.Querier, _ string) (*domain.Order, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.order, nil
}

func (s *stubOrderRepo) GetByIDForUpdate(ctx context.Context, db store.Querier, id string) (*domain.Order, error) {
	return s.GetByID(ctx, db, id)
}

func (s *stubOrderRepo) ListByUser(_ context.Context, _ store.Querier, _ string, _, _ int) ([]domain.Order, int, error) {
	return s.listOrders, s.listTotal, nil
}

func (s *stubOrderRepo) UpdateStatus(_ context.Context, _ store.Querier, id string, from, to domain.OrderStatus) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.statusChanges = append(s.statusChanges, statusChange{orderID: id, from: from, to: to})
	return nil
}

type stubCartRepo struct {
	lines    []domain.CartLine
	linesErr error
	cleared  bool
}

func (s *stubCartRepo) Lines(_ context.Context, _ store.Querier, _ string) ([]domain.CartLine, error) {
	return s.lines, s.linesErr
}

func (s *stubCartRepo) Clear(_ context.Context, _ store.Querier, _ string) error {
	s.cleared = true
	return nil
}

type ledgerCall struct {
	productID string
	qty       int
}

type stubLedger struct {
	reserveErrOn string
	reserved     []ledgerCall
	released     []ledgerCall
	committed    []ledgerCall
}

func (s *stubLedger) Reserve(_ context.Context, _ store.Querier, productID string, qty int) error {
	if s.reserveErrOn == productID {
		return domain.ErrInsufficientStock
	}
	s.reserved = append(s.reserved, ledgerCall{productID, qty})
	return nil
}

func (s *stubLedger) Release(_ context.Context, _ store.Querier, productID string, qty int) error {
	s.released = append(s.released, ledgerCall{productID, qty})
	return nil
}

func (s *stubLedger) Commit(_ context.Context, _ store.Querier, productID string, qty int) error {
	s.committed = append(s.committed, ledgerCall{productID, qty})
	return nil
}

type stubPaymentRepo struct {
	created   *domain.Payment
	createErr error
	receipt   *domain.Payment
	getErr    error
}

func (s *stubPaymentRepo) Create(_ context.Context, _ store.Querier, p domain.Payment) (*domain.Payment, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	p.ID = "pay-1"
	p.CreatedAt = fixedNow
	s.created = &p
	return &p, nil
}

func (s *stubPaymentRepo) GetByOrder(_ context.Context, _ store.Querier, _ string) (*domain.Payment, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.receipt == nil {
		return nil, domain.ErrNotFound
	}
	return s.receipt, nil
}

type stubGateway struct {
	approve bool
	err     error
	calls   int
}

func (s *stubGateway) Authorize(_ context.Context, _ string, _ int64) (bool, error) {
	s.calls++
	return s.approve, s.err
}

type stubPublisher struct {
	published []events.PaymentSettled
}

func (s *stubPublisher) PublishPaymentSettled(ev events.PaymentSettled) {
	s.published = append(s.published, ev)
}

type stubCache struct {
	statuses map[string]string
}

func (s *stubCache) SetOrderStatus(_ context.Context, orderID, status string) error {
	if s.statuses == nil {
		s.statuses = map[string]string{}
	}
	s.statuses[orderID] = status
	return nil
}

func (s *stubCache) GetOrderStatus(_ context.Context, orderID string) (string, error) {
	if v, ok := s.statuses[orderID]; ok {
		return v, nil
	}
	return "", errors.New("cache miss")
}

type fixture struct {
	svc       *Service
	orders    *stubOrderRepo
	carts     *stubCartRepo
	ledger    *stubLedger
	payments  *stubPaymentRepo
	gateway   *stubGateway
	publisher *stubPublisher
	cache     *stubCache
}

func newFixture() *fixture {
	f := &fixture{
		orders:    &stubOrderRepo{},
		carts:     &stubCartRepo{},
		ledger:    &stubLedger{},
		payments:  &stubPaymentRepo{},
		gateway:   &stubGateway{approve: true},
		publisher: &stubPublisher{},
		cache:     &stubCache{},
	}
	f.svc = New(Deps{
		Store:     &stubStore{},
		Orders:    f.orders,
		Carts:     f.carts,
		Ledger:    f.ledger,
		Payments:  f.payments,
		Gateway:   f.gateway,
		Publisher: f.publisher,
		Cache:     f.cache,
	}, 15*time.Minute)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func pendingOrder() *domain.Order {
	return &domain.Order{
		ID:     "order-1",
		UserID: "user-1",
		Items: []domain.OrderItem{
			{ProductID: "prod-a", ProductName: "Widget", Quantity: 2, PriceCents: 1000},
			{ProductID: "prod-b", ProductName: "Gadget", Quantity: 1, PriceCents: 500},
		},
		TotalCents:       2500,
		Status:           domain.StatusPendingPayment,
		PaymentExpiresAt: fixedNow.Add(10 * time.Minute),
		CreatedAt:        fixedNow.Add(-5 * time.Minute),
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Checkout(context.Background(), "user-1")
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
	if f.orders.created != nil {
		t.Fatal("no order should be created for an empty cart")
	}
}

func TestCheckoutHappyPath(t *testing.T) {
	f := newFixture()
	f.carts.lines = []domain.CartLine{
		{ProductID: "prod-a", ProductName: "Widget", Quantity: 2, UnitPriceCents: 1000},
	}

	o, err := f.svc.Checkout(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.TotalCents != 2000 {
		t.Fatalf("total = %d, want 2000", o.TotalCents)
	}
	if o.Status != domain.StatusPendingPayment {
		t.Fatalf("status = %s, want PENDING_PAYMENT", o.Status)
	}
	if want := fixedNow.Add(15 * time.Minute); !o.PaymentExpiresAt.Equal(want) {
		t.Fatalf("deadline = %v, want %v", o.PaymentExpiresAt, want)
	}
	if len(f.ledger.reserved) != 1 || f.ledger.reserved[0] != (ledgerCall{"prod-a", 2}) {
		t.Fatalf("unexpected reservations: %+v", f.ledger.reserved)
	}
	if !f.carts.cleared {
		t.Fatal("cart should be cleared on successful checkout")
	}
	if len(o.Items) != 1 || o.Items[0].PriceCents != 1000 {
		t.Fatalf("price not snapshotted: %+v", o.Items)
	}
	if f.cache.statuses["order-1"] != string(domain.StatusPendingPayment) {
		t.Fatalf("status cache not primed: %+v", f.cache.statuses)
	}
}

func TestCheckoutInsufficientStockNamesProduct(t *testing.T) {
	f := newFixture()
	f.carts.lines = []domain.CartLine{
		{ProductID: "prod-a", ProductName: "Widget", Quantity: 1, UnitPriceCents: 1000},
		{ProductID: "prod-b", ProductName: "Gadget", Quantity: 3, UnitPriceCents: 500},
	}
	f.ledger.reserveErrOn = "prod-b"

	_, err := f.svc.Checkout(context.Background(), "user-1")
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if !strings.Contains(err.Error(), "Gadget") {
		t.Fatalf("error should name the offending product: %v", err)
	}
	if f.orders.created != nil {
		t.Fatal("no order should be created")
	}
	if f.carts.cleared {
		t.Fatal("cart must be kept on failure")
	}
}

func TestSettleOrderNotFound(t *testing.T) {
	f := newFixture()
	f.orders.getErr = domain.ErrNotFound
	_, _, err := f.svc.SettlePayment(context.Background(), "missing", "user-1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSettleUnauthorized(t *testing.T) {
	f := newFixture()
	f.orders.order = pendingOrder()
	_, _, err := f.svc.SettlePayment(context.Background(), "order-1", "someone-else")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if f.gateway.calls != 0 {
		t.Fatal("gateway must not be asked for an unauthorized caller")
	}
}

func TestSettleInvalidState(t *testing.T) {
	f := newFixture()
	o := pendingOrder()
	o.Status = domain.StatusCancelled
	f.orders.order = o

	_, _, err := f.svc.SettlePayment(context.Background(), "order-1", "user-1")
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if len(f.ledger.released) != 0 {
		t.Fatal("a settled order must not release stock again")
	}
}

func TestSettleExpired(t *testing.T) {
	f := newFixture()
	o := pendingOrder()
	o.PaymentExpiresAt = fixedNow.Add(-time.Minute)
	f.orders.order = o

	settled, receipt, err := f.svc.SettlePayment(context.Background(), "order-1", "user-1")
	if !errors.Is(err, domain.ErrPaymentExpired) {
		t.Fatalf("expected ErrPaymentExpired, got %v", err)
	}
	if settled.Status != domain.StatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", settled.Status)
	}
	if receipt != nil {
		t.Fatal("no receipt must be written on the expiry path")
	}
	if len(f.orders.statusChanges) != 1 || f.orders.statusChanges[0].to != domain.StatusCancelled {
		t.Fatalf("unexpected status changes: %+v", f.orders.statusChanges)
	}
	if len(f.ledger.released) != 2 {
		t.Fatalf("every line must be released, got %+v", f.ledger.released)
	}
	if f.gateway.calls != 0 {
		t.Fatal("gateway must not be asked for an expired order")
	}
	if len(f.publisher.published) != 0 {
		t.Fatal("no event for an expired order")
	}
}

func TestSettleSuccess(t *testing.T) {
	f := newFixture()
	f.orders.order = pendingOrder()
	f.gateway.approve = true

	settled, receipt, err := f.svc.SettlePayment(context.Background(), "order-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settled.Status != domain.StatusPaid {
		t.Fatalf("status = %s, want PAID", settled.Status)
	}
	if receipt == nil || receipt.Status != domain.PaymentSuccess {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if !strings.HasPrefix(receipt.TransactionID, "TXN_") {
		t.Fatalf("transaction id = %q", receipt.TransactionID)
	}
	if receipt.AmountCents != 2500 {
		t.Fatalf("amount = %d, want 2500", receipt.AmountCents)
	}
	want := []ledgerCall{{"prod-a", 2}, {"prod-b", 1}}
	if len(f.ledger.committed) != 2 || f.ledger.committed[0] != want[0] || f.ledger.committed[1] != want[1] {
		t.Fatalf("unexpected commits: %+v", f.ledger.committed)
	}
	if len(f.ledger.released) != 0 {
		t.Fatal("success must commit, not release")
	}
	if len(f.publisher.published) != 1 {
		t.Fatalf("exactly one settled event, got %d", len(f.publisher.published))
	}
	ev := f.publisher.published[0]
	if ev.OrderID != "order-1" || ev.UserID != "user-1" || ev.TotalCents != 2500 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if f.cache.statuses["order-1"] != string(domain.StatusPaid) {
		t.Fatalf("status cache not updated: %+v", f.cache.statuses)
	}
}

func TestSettleFailure(t *testing.T) {
	f := newFixture()
	f.orders.order = pendingOrder()
	f.gateway.approve = false

	settled, receipt, err := f.svc.SettlePayment(context.Background(), "order-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settled.Status != domain.StatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", settled.Status)
	}
	if receipt == nil || receipt.Status != domain.PaymentFailed {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if len(f.ledger.released) != 2 {
		t.Fatalf("every line must be released, got %+v", f.ledger.released)
	}
	if len(f.ledger.committed) != 0 {
		t.Fatal("failure must release, not commit")
	}
	if len(f.publisher.published) != 0 {
		t.Fatal("no event on failed settlement")
	}
}

func TestSettleSurfacesTxConflict(t *testing.T) {
	f := newFixture()
	f.svc.deps.Store = &stubStore{txErr: domain.ErrTxConflict}
	_, _, err := f.svc.SettlePayment(context.Background(), "order-1", "user-1")
	if !errors.Is(err, domain.ErrTxConflict) {
		t.Fatalf("expected ErrTxConflict, got %v", err)
	}
}

func TestGetChecksOwnership(t *testing.T) {
	f := newFixture()
	o := pendingOrder()
	o.Status = domain.StatusPaid
	f.orders.order = o
	f.payments.receipt = &domain.Payment{ID: "pay-1", OrderID: "order-1", Status: domain.PaymentSuccess}

	_, _, err := f.svc.Get(context.Background(), "order-1", "intruder")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	got, receipt, err := f.svc.Get(context.Background(), "order-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "order-1" || receipt == nil || receipt.ID != "pay-1" {
		t.Fatalf("unexpected result: %+v %+v", got, receipt)
	}
}

func TestGetWithoutReceipt(t *testing.T) {
	f := newFixture()
	f.orders.order = pendingOrder()
	_, receipt, err := f.svc.Get(context.Background(), "order-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt != nil {
		t.Fatalf("pending order has no receipt, got %+v", receipt)
	}
}

func TestStatusCacheHitAndMiss(t *testing.T) {
	f := newFixture()
	f.orders.order = pendingOrder()

	// Miss: falls back to the store and primes the cache.
	status, err := f.svc.Status(context.Background(), "order-1")
	if err != nil || status != domain.StatusPendingPayment {
		t.Fatalf("status = %s err = %v", status, err)
	}
	if f.cache.statuses["order-1"] != string(domain.StatusPendingPayment) {
		t.Fatal("cache not primed on miss")
	}

	// Hit: the store is not consulted.
	f.orders.getErr = errors.New("store must not be hit")
	status, err = f.svc.Status(context.Background(), "order-1")
	if err != nil || status != domain.StatusPendingPayment {
		t.Fatalf("status = %s err = %v", status, err)
	}
}

func TestUpdateStatusShip(t *testing.T) {
	f := newFixture()
	o := pendingOrder()
	o.Status = domain.StatusPaid
	f.orders.order = o

	updated, err := f.svc.UpdateStatus(context.Background(), "order-1", domain.StatusShipped)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.StatusShipped {
		t.Fatalf("status = %s, want SHIPPED", updated.Status)
	}
	if len(f.ledger.released) != 0 || len(f.ledger.committed) != 0 {
		t.Fatal("shipping must not touch the ledger")
	}
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	f := newFixture()
	f.orders.order = pendingOrder()

	_, err := f.svc.UpdateStatus(context.Background(), "order-1", domain.StatusShipped)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if len(f.orders.statusChanges) != 0 {
		t.Fatal("status must be left unchanged")
	}

	_, err = f.svc.UpdateStatus(context.Background(), "order-1", "Peyment_pending")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for unknown status, got %v", err)
	}
}

func TestUpdateStatusCancelPendingReleasesStock(t *testing.T) {
	f := newFixture()
	f.orders.order = pendingOrder()

	updated, err := f.svc.UpdateStatus(context.Background(), "order-1", domain.StatusCancelled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.StatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", updated.Status)
	}
	if len(f.ledger.released) != 2 {
		t.Fatalf("cancelling a pending order must release reservations, got %+v", f.ledger.released)
	}
}

func TestUpdateStatusCancelPaidKeepsStock(t *testing.T) {
	f := newFixture()
	o := pendingOrder()
	o.Status = domain.StatusPaid
	f.orders.order = o

	_, err := f.svc.UpdateStatus(context.Background(), "order-1", domain.StatusCancelled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.ledger.released) != 0 {
		t.Fatal("paid stock was already committed; cancellation must not release")
	}
}
