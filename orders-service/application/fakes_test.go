package application

import (
	"context"
	"sync"

	"github.com/flashmart/order-system/orders-service/domain"
	"github.com/flashmart/order-system/shared/events"
	"github.com/flashmart/order-system/shared/models"
	"github.com/pkg/errors"
)

// memStore is an in-memory domain.Store with real rollback semantics:
// WithinTx snapshots the state and restores it when the callback fails.
type memStore struct {
	// txMu serializes units of work so concurrent relay transactions keep
	// snapshot-restore rollback sound.
	txMu        sync.Mutex
	mu          sync.Mutex
	nextOrderID int64
	orders      map[int64]*domain.Order
	outbox      map[int64]*domain.OutboxEntry
	prices      map[int64]models.Cents

	failOrderInsert  error
	failOutboxInsert error
	failSetPayment   error
}

func newMemStore() *memStore {
	return &memStore{
		nextOrderID: 1,
		orders:      make(map[int64]*domain.Order),
		outbox:      make(map[int64]*domain.OutboxEntry),
		prices:      make(map[int64]models.Cents),
	}
}

func (s *memStore) Orders() domain.OrderRepository     { return &memOrders{s: s} }
func (s *memStore) Products() domain.ProductRepository { return &memProducts{s: s} }
func (s *memStore) Outbox() domain.OutboxRepository    { return &memOutbox{s: s} }

func (s *memStore) WithinTx(ctx context.Context, fn func(domain.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	ordersSnap := make(map[int64]*domain.Order, len(s.orders))
	for id, o := range s.orders {
		ordersSnap[id] = copyOrder(o)
	}
	outboxSnap := make(map[int64]*domain.OutboxEntry, len(s.outbox))
	for id, e := range s.outbox {
		outboxSnap[id] = copyOutboxEntry(e)
	}
	nextID := s.nextOrderID
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.orders = ordersSnap
		s.outbox = outboxSnap
		s.nextOrderID = nextID
		s.mu.Unlock()
		return err
	}
	return nil
}

func copyOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return &cp
}

func copyOutboxEntry(e *domain.OutboxEntry) *domain.OutboxEntry {
	cp := *e
	cp.Items = append([]events.OrderItem(nil), e.Items...)
	if e.PaymentID != nil {
		id := *e.PaymentID
		cp.PaymentID = &id
	}
	return &cp
}

type memOrders struct {
	s *memStore
}

func (r *memOrders) Insert(ctx context.Context, order *domain.Order) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failOrderInsert != nil {
		return 0, r.s.failOrderInsert
	}
	id := r.s.nextOrderID
	r.s.nextOrderID++
	order.ID = id
	r.s.orders[id] = copyOrder(order)
	return id, nil
}

func (r *memOrders) FindByID(ctx context.Context, orderID int64) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	order, ok := r.s.orders[orderID]
	if !ok {
		return nil, nil
	}
	return copyOrder(order), nil
}

func (r *memOrders) SetPayment(ctx context.Context, orderID int64, isPaid bool, paymentLink string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failSetPayment != nil {
		return false, r.s.failSetPayment
	}
	order, ok := r.s.orders[orderID]
	if !ok {
		return false, nil
	}
	order.IsPaid = isPaid
	order.PaymentLink = paymentLink
	return true, nil
}

func (r *memOrders) Delete(ctx context.Context, orderID int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orders[orderID]; !ok {
		return 0, nil
	}
	delete(r.s.orders, orderID)
	return 1, nil
}

type memProducts struct {
	s *memStore
}

func (r *memProducts) PricesByIDs(ctx context.Context, productIDs []int64) (map[int64]models.Cents, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prices := make(map[int64]models.Cents)
	for _, id := range productIDs {
		if price, ok := r.s.prices[id]; ok {
			prices[id] = price
		}
	}
	return prices, nil
}

type memOutbox struct {
	s *memStore
}

func (r *memOutbox) Insert(ctx context.Context, entry *domain.OutboxEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failOutboxInsert != nil {
		return r.s.failOutboxInsert
	}
	if _, dup := r.s.outbox[entry.OrderID]; dup {
		return errors.Errorf("duplicate outbox entry for order %d", entry.OrderID)
	}
	r.s.outbox[entry.OrderID] = copyOutboxEntry(entry)
	return nil
}

func (r *memOutbox) FindUnresolved(ctx context.Context) ([]*domain.OutboxEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var entries []*domain.OutboxEntry
	for _, entry := range r.s.outbox {
		if !entry.Resolved() {
			entries = append(entries, copyOutboxEntry(entry))
		}
	}
	return entries, nil
}

func (r *memOutbox) Resolve(ctx context.Context, orderID, paymentID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry, ok := r.s.outbox[orderID]
	if !ok {
		return errors.Errorf("no outbox entry for order %d", orderID)
	}
	entry.PaymentID = &paymentID
	return nil
}

func domainCents(v int64) models.Cents {
	return models.NewCents(v)
}

// capturePublisher records published events and can be told to fail
// specific kinds.
type capturePublisher struct {
	mu        sync.Mutex
	published []*events.Message
	failKinds map[events.Kind]error
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{failKinds: make(map[events.Kind]error)}
}

func (p *capturePublisher) Publish(ctx context.Context, msg *events.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.failKinds[msg.Event]; ok {
		return err
	}
	cp := *msg
	cp.Items = append([]events.OrderItem(nil), msg.Items...)
	p.published = append(p.published, &cp)
	return nil
}

func (p *capturePublisher) events() []*events.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*events.Message(nil), p.published...)
}

// memCache records mirror writes.
type memCache struct {
	mu         sync.Mutex
	orders     map[int64]*domain.Order
	payments   map[int64]string
	removed    []int64
	failMirror error
}

func newMemCache() *memCache {
	return &memCache{
		orders:   make(map[int64]*domain.Order),
		payments: make(map[int64]string),
	}
}

func (c *memCache) MirrorOrder(ctx context.Context, order *domain.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failMirror != nil {
		return c.failMirror
	}
	c.orders[order.ID] = copyOrder(order)
	return nil
}

func (c *memCache) MirrorPayment(ctx context.Context, orderID int64, isPaid bool, paymentLink string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failMirror != nil {
		return c.failMirror
	}
	c.payments[orderID] = paymentLink
	return nil
}

func (c *memCache) Remove(ctx context.Context, orderID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.orders, orderID)
	c.removed = append(c.removed, orderID)
	return nil
}

// fakeGateway is a scripted payment participant.
type fakeGateway struct {
	mu        sync.Mutex
	paymentID int64
	err       error
	calls     int
	lastReq   domain.PaymentRequest
}

func (g *fakeGateway) CreatePayment(ctx context.Context, req domain.PaymentRequest) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.lastReq = req
	if g.err != nil {
		return 0, g.err
	}
	return g.paymentID, nil
}
