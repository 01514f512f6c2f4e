package application

import (
	"context"
	"log"

	"github.com/flashmart/order-system/orders-service/domain"
	"github.com/pkg/errors"
)

// CompleteOrder marks an order as paid and records its payment link, keeping
// the cache mirror in sync. It emits no event itself; callers decide what to
// emit from the boolean outcome.
type CompleteOrder struct {
	store domain.Store
	cache domain.OrderCache
}

// NewCompleteOrder creates the use case.
func NewCompleteOrder(store domain.Store, cache domain.OrderCache) *CompleteOrder {
	return &CompleteOrder{store: store, cache: cache}
}

// Apply performs the database update against the given store, which may be
// transaction-bound. Returns ErrOrderNotFound when the order is absent so a
// surrounding unit of work rolls back as a whole.
func (uc *CompleteOrder) Apply(ctx context.Context, s domain.Store, orderID int64, isPaid bool, paymentLink string) error {
	updated, err := s.Orders().SetPayment(ctx, orderID, isPaid, paymentLink)
	if err != nil {
		return errors.Wrapf(err, "failed to update payment state of order %d", orderID)
	}
	if !updated {
		return errors.Wrapf(domain.ErrOrderNotFound, "order id %d", orderID)
	}
	return nil
}

// Mirror pushes the payment fields of a completed order into the cache.
// Failures are logged, never propagated.
func (uc *CompleteOrder) Mirror(ctx context.Context, orderID int64, isPaid bool, paymentLink string) {
	if err := uc.cache.MirrorPayment(ctx, orderID, isPaid, paymentLink); err != nil {
		log.Printf("complete order: cache mirror failed for order %d: %v", orderID, err)
	}
}

// Execute updates the order in its own unit of work and mirrors the cache.
// Returns false without raising when the order is missing or the update
// fails.
func (uc *CompleteOrder) Execute(ctx context.Context, orderID int64, isPaid bool, paymentLink string) bool {
	err := uc.store.WithinTx(ctx, func(s domain.Store) error {
		return uc.Apply(ctx, s, orderID, isPaid, paymentLink)
	})
	if err != nil {
		log.Printf("complete order %d failed: %v", orderID, err)
		return false
	}
	uc.Mirror(ctx, orderID, isPaid, paymentLink)
	return true
}
