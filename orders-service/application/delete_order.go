package application

import (
	"context"
	"log"

	"github.com/flashmart/order-system/orders-service/domain"
	"github.com/pkg/errors"
)

// DeleteOrder removes an order and all its items atomically and drops the
// cached mirror. Deleting an unknown order is a no-op.
type DeleteOrder struct {
	store domain.Store
	cache domain.OrderCache
}

// NewDeleteOrder creates the use case.
func NewDeleteOrder(store domain.Store, cache domain.OrderCache) *DeleteOrder {
	return &DeleteOrder{store: store, cache: cache}
}

// Execute deletes the order, returning the number of orders removed (0 or 1).
func (uc *DeleteOrder) Execute(ctx context.Context, orderID int64) (int64, error) {
	var deleted int64
	err := uc.store.WithinTx(ctx, func(s domain.Store) error {
		n, err := s.Orders().Delete(ctx, orderID)
		if err != nil {
			return errors.Wrapf(err, "failed to delete order %d", orderID)
		}
		deleted = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		if cacheErr := uc.cache.Remove(ctx, orderID); cacheErr != nil {
			log.Printf("delete order: cache removal failed for order %d: %v", orderID, cacheErr)
		}
	}
	return deleted, nil
}
