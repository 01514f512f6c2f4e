package domain

import (
	"context"

	"github.com/flashmart/order-system/shared/models"
)

// OrderRepository persists orders and their items.
type OrderRepository interface {
	// Insert writes the order and all its items, returning the generated id.
	Insert(ctx context.Context, order *Order) (int64, error)
	// FindByID loads an order with its items. Returns nil, nil when absent.
	FindByID(ctx context.Context, orderID int64) (*Order, error)
	// SetPayment updates the paid flag and payment link. Returns false when
	// the order does not exist.
	SetPayment(ctx context.Context, orderID int64, isPaid bool, paymentLink string) (bool, error)
	// Delete removes the order and its items, returning the number of
	// orders removed (0 or 1).
	Delete(ctx context.Context, orderID int64) (int64, error)
}

// ProductRepository reads catalog prices. Stock management belongs to the
// stock service; this side only snapshots prices at order time.
type ProductRepository interface {
	PricesByIDs(ctx context.Context, productIDs []int64) (map[int64]models.Cents, error)
}

// OutboxRepository persists payment-request outbox entries.
type OutboxRepository interface {
	Insert(ctx context.Context, entry *OutboxEntry) error
	// FindUnresolved returns every entry whose payment id is still NULL.
	// This predicate is the relay's idempotency guard: resolved entries are
	// never selected again.
	FindUnresolved(ctx context.Context) ([]*OutboxEntry, error)
	// Resolve records the payment id for an order's entry.
	Resolve(ctx context.Context, orderID, paymentID int64) error
}

// Store bundles the repositories behind a shared unit of work. WithinTx
// runs fn against a transaction-bound store; any error (or panic) rolls the
// whole unit back and the connection is released on every exit path.
type Store interface {
	Orders() OrderRepository
	Products() ProductRepository
	Outbox() OutboxRepository
	WithinTx(ctx context.Context, fn func(s Store) error) error
}

// OrderCache mirrors order state into the key-value store read by the query
// side. Mirror failures are reported but must not fail the business write.
type OrderCache interface {
	MirrorOrder(ctx context.Context, order *Order) error
	MirrorPayment(ctx context.Context, orderID int64, isPaid bool, paymentLink string) error
	Remove(ctx context.Context, orderID int64) error
}

// PaymentRequest is the payload sent to the payment participant.
type PaymentRequest struct {
	UserID      int64        `json:"user_id"`
	OrderID     int64        `json:"order_id"`
	TotalAmount models.Cents `json:"total_amount"`
}

// PaymentGateway invokes the external payment participant.
type PaymentGateway interface {
	// CreatePayment requests a payment transaction and returns the payment
	// id assigned by the participant.
	CreatePayment(ctx context.Context, req PaymentRequest) (int64, error)
}
