package domain

import (
	"time"

	"github.com/flashmart/order-system/shared/events"
	"github.com/flashmart/order-system/shared/models"
)

// OrderItem is a line of an order. Items belong to exactly one order and
// are immutable after creation; the unit price is a snapshot taken when the
// order was placed, never re-read from the catalog.
type OrderItem struct {
	ProductID int64
	Quantity  int
	UnitPrice models.Cents
}

// Order is the write model of a customer order.
type Order struct {
	ID          int64
	UserID      int64
	TotalAmount models.Cents
	IsPaid      bool
	PaymentLink string
	CreatedAt   time.Time
	Items       []OrderItem
}

// EventItems converts the order's items to the envelope snapshot shape.
func (o *Order) EventItems() []events.OrderItem {
	return EventItems(o.Items)
}

// EventItems converts line items to the envelope snapshot shape.
func EventItems(items []OrderItem) []events.OrderItem {
	out := make([]events.OrderItem, len(items))
	for i, item := range items {
		out[i] = events.OrderItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return out
}
