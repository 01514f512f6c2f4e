package application

import (
	"context"
	"log"

	"github.com/flashmart/order-system/orders-service/domain"
	"github.com/flashmart/order-system/shared/events"
	"github.com/flashmart/order-system/shared/models"
	"github.com/pkg/errors"
)

// CreateOrderCommand carries the order creation request.
type CreateOrderCommand struct {
	UserID int64         `json:"user_id"`
	Items  []ItemRequest `json:"items"`
}

// ItemRequest is one requested line of a new order.
type ItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CreateOrder creates an order with its items and payment-request outbox
// entry in a single unit of work, mirrors the result into the cache, and
// always emits exactly one saga event: OrderCreated on success,
// OrderCreationFailed otherwise.
type CreateOrder struct {
	store     domain.Store
	cache     domain.OrderCache
	publisher events.Publisher
}

// NewCreateOrder creates the use case.
func NewCreateOrder(store domain.Store, cache domain.OrderCache, publisher events.Publisher) *CreateOrder {
	return &CreateOrder{
		store:     store,
		cache:     cache,
		publisher: publisher,
	}
}

// Execute runs the use case and returns the new order id.
func (uc *CreateOrder) Execute(ctx context.Context, cmd *CreateOrderCommand) (orderID int64, err error) {
	// The outcome event is emitted unconditionally on exit so that even an
	// early validation failure leaves an observable trace in the saga.
	msg := events.NewMessage(events.OrderCreationFailed, 0, cmd.UserID, 0, requestedItems(cmd.Items))
	defer func() {
		if err != nil {
			msg.Event = events.OrderCreationFailed
			msg.WithError(err)
		}
		publishLogged(ctx, uc.publisher, msg)
	}()

	if len(cmd.Items) == 0 {
		return 0, domain.ErrEmptyOrder
	}
	for _, item := range cmd.Items {
		if item.Quantity <= 0 {
			return 0, errors.Wrapf(domain.ErrInvalidQuantity, "product %d", item.ProductID)
		}
	}

	var order *domain.Order
	err = uc.store.WithinTx(ctx, func(s domain.Store) error {
		productIDs := make([]int64, len(cmd.Items))
		for i, item := range cmd.Items {
			productIDs[i] = item.ProductID
		}

		prices, err := s.Products().PricesByIDs(ctx, productIDs)
		if err != nil {
			return errors.Wrap(err, "failed to load product prices")
		}

		var total models.Cents
		lines := make([]domain.OrderItem, len(cmd.Items))
		for i, item := range cmd.Items {
			price, ok := prices[item.ProductID]
			if !ok {
				return errors.Wrapf(domain.ErrProductNotFound, "product id %d", item.ProductID)
			}
			lines[i] = domain.OrderItem{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: price,
			}
			total = total.Add(price.Times(item.Quantity))
		}

		order = &domain.Order{
			UserID:      cmd.UserID,
			TotalAmount: total,
			IsPaid:      false,
			PaymentLink: events.NoPaymentLink,
			Items:       lines,
		}

		id, err := s.Orders().Insert(ctx, order)
		if err != nil {
			return errors.Wrap(err, "failed to insert order")
		}
		order.ID = id

		// The outbox entry rides the same transaction as the order, so a
		// created order can never exist without a pending payment request.
		entry := &domain.OutboxEntry{
			OrderID:     id,
			UserID:      cmd.UserID,
			TotalAmount: total,
			Items:       domain.EventItems(lines),
		}
		if err := s.Outbox().Insert(ctx, entry); err != nil {
			return errors.Wrap(err, "failed to insert outbox entry")
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if cacheErr := uc.cache.MirrorOrder(ctx, order); cacheErr != nil {
		log.Printf("create order: cache mirror failed for order %d: %v", order.ID, cacheErr)
	}

	msg.Event = events.OrderCreated
	msg.OrderID = order.ID
	msg.TotalAmount = order.TotalAmount
	return order.ID, nil
}

func requestedItems(items []ItemRequest) []events.OrderItem {
	out := make([]events.OrderItem, len(items))
	for i, item := range items {
		out[i] = events.OrderItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return out
}

// publishLogged sends a saga event and swallows transport failures: the
// system prefers a processed order with a lost event over a business
// operation blocked on broker availability.
func publishLogged(ctx context.Context, publisher events.Publisher, msg *events.Message) {
	if err := publisher.Publish(ctx, msg); err != nil {
		log.Printf("publish %s for order %d failed: %v", msg.Event, msg.OrderID, err)
	}
}
