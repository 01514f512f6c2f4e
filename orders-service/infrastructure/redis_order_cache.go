package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flashmart/order-system/orders-service/domain"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisOrderCache mirrors order state into Redis hashes keyed
// "order:{order_id}" for the read side. The cache is strictly a mirror:
// every write here follows a committed database write.
type RedisOrderCache struct {
	client *redis.Client
}

// NewRedisOrderCache creates the cache mirror.
func NewRedisOrderCache(client *redis.Client) *RedisOrderCache {
	return &RedisOrderCache{client: client}
}

func orderKey(orderID int64) string {
	return fmt.Sprintf("order:%d", orderID)
}

// MirrorOrder writes the full order record after creation.
func (c *RedisOrderCache) MirrorOrder(ctx context.Context, order *domain.Order) error {
	items, err := json.Marshal(order.EventItems())
	if err != nil {
		return errors.Wrap(err, "failed to serialize cached items")
	}

	err = c.client.HSet(ctx, orderKey(order.ID), map[string]interface{}{
		"user_id":      order.UserID,
		"total_amount": order.TotalAmount.Int64(),
		"items":        string(items),
		"payment_link": order.PaymentLink,
	}).Err()
	return errors.Wrapf(err, "failed to mirror order %d", order.ID)
}

// MirrorPayment updates the paid flag and link after completion.
func (c *RedisOrderCache) MirrorPayment(ctx context.Context, orderID int64, isPaid bool, paymentLink string) error {
	paid := 0
	if isPaid {
		paid = 1
	}
	err := c.client.HSet(ctx, orderKey(orderID), map[string]interface{}{
		"is_paid":      paid,
		"payment_link": paymentLink,
	}).Err()
	return errors.Wrapf(err, "failed to mirror payment of order %d", orderID)
}

// Remove drops the mirrored record after deletion.
func (c *RedisOrderCache) Remove(ctx context.Context, orderID int64) error {
	err := c.client.Del(ctx, orderKey(orderID)).Err()
	return errors.Wrapf(err, "failed to remove cached order %d", orderID)
}
