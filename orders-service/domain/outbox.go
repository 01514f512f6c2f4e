package domain

import (
	"time"

	"github.com/flashmart/order-system/shared/events"
	"github.com/flashmart/order-system/shared/models"
)

// OutboxEntry records that a payment was requested for an order but not yet
// resolved. It is written in the same transaction as the order itself and
// resolved exactly once by the outbox relay; a NULL payment id marks an
// unresolved entry. Entries are kept after resolution as an audit trail.
type OutboxEntry struct {
	OrderID     int64
	UserID      int64
	TotalAmount models.Cents
	Items       []events.OrderItem
	PaymentID   *int64
	CreatedAt   time.Time
}

// Resolved reports whether the payment for this entry has been resolved.
func (e *OutboxEntry) Resolved() bool {
	return e.PaymentID != nil
}
