package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/flashmart/order-system/shared/models"
)

// Kind identifies a saga event type. The set is closed: every value
// published or consumed by the order saga is declared below.
type Kind string

const (
	OrderCreated          Kind = "OrderCreated"
	OrderCreationFailed   Kind = "OrderCreationFailed"
	PaymentCreated        Kind = "PaymentCreated"
	PaymentCreationFailed Kind = "PaymentCreationFailed"
	StockDecreased        Kind = "StockDecreased"
	StockDecreaseFailed   Kind = "StockDecreaseFailed"
	StockIncreased        Kind = "StockIncreased"
	SagaCompleted         Kind = "SagaCompleted"
	OrderCancelled        Kind = "OrderCancelled"
)

// Kinds returns every declared event kind.
func Kinds() []Kind {
	return []Kind{
		OrderCreated,
		OrderCreationFailed,
		PaymentCreated,
		PaymentCreationFailed,
		StockDecreased,
		StockDecreaseFailed,
		StockIncreased,
		SagaCompleted,
		OrderCancelled,
	}
}

// Valid reports whether k is a declared kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further saga progression is expected for an
// order after an event of this kind.
func (k Kind) Terminal() bool {
	switch k {
	case SagaCompleted, OrderCancelled, OrderCreationFailed:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// OrderItem is the item snapshot carried inside saga events.
type OrderItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Message is the saga event envelope. All participants publish to a single
// shared topic; the kind travels in the payload rather than in the topic
// name, so the wire shape must stay stable across services.
type Message struct {
	Event       Kind         `json:"event"`
	OrderID     int64        `json:"order_id"`
	UserID      int64        `json:"user_id"`
	TotalAmount models.Cents `json:"total_amount"`
	IsPaid      bool         `json:"is_paid"`
	PaymentLink string       `json:"payment_link"`
	Items       []OrderItem  `json:"order_items"`
	Datetime    string       `json:"datetime"`
	Error       string       `json:"error,omitempty"`
}

// NoPaymentLink is the placeholder link carried by events emitted before a
// payment has been resolved.
const NoPaymentLink = "no-link"

// NewMessage creates an envelope of the given kind stamped with the current
// time.
func NewMessage(kind Kind, orderID, userID int64, total models.Cents, items []OrderItem) *Message {
	return &Message{
		Event:       kind,
		OrderID:     orderID,
		UserID:      userID,
		TotalAmount: total,
		IsPaid:      false,
		PaymentLink: NoPaymentLink,
		Items:       items,
		Datetime:    time.Now().Format(time.RFC3339),
	}
}

// Derive copies the envelope under a new kind with a fresh timestamp and a
// cleared error field. Handlers use it to build their single outbound event
// from the inbound one.
func (m *Message) Derive(kind Kind) *Message {
	out := *m
	out.Event = kind
	out.Error = ""
	out.Datetime = time.Now().Format(time.RFC3339)
	return &out
}

// WithError returns the message with its failure detail set.
func (m *Message) WithError(err error) *Message {
	if err != nil {
		m.Error = err.Error()
	}
	return m
}

// ToJSON encodes the envelope.
func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON decodes an envelope.
func FromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Publisher publishes saga events to the shared topic. Implementations are
// constructed once at process start and passed into every component that
// emits events.
type Publisher interface {
	Publish(ctx context.Context, msg *Message) error
}

// Handler reacts to one inbound event kind. Implementations apply a local
// effect and emit exactly one outbound event; errors never escape Handle.
type Handler interface {
	Kind() Kind
	Handle(ctx context.Context, msg *Message)
}
