package events

import (
	"context"
	"log"

	"github.com/pkg/errors"
)

// InboundKinds returns the event kinds the orders service consumes. Adding a
// kind here forces NewRegistry callers to register a handler for it.
func InboundKinds() []Kind {
	return []Kind{
		PaymentCreated,
		StockDecreased,
		StockDecreaseFailed,
		StockIncreased,
	}
}

// Registry routes inbound events to their handler by kind.
type Registry struct {
	handlers map[Kind]Handler
}

// NewRegistry builds the dispatch table. It fails on duplicate handlers and
// on any inbound kind left without a handler, so extending the taxonomy is
// a deliberate decision rather than a silent drop.
func NewRegistry(handlers ...Handler) (*Registry, error) {
	table := make(map[Kind]Handler, len(handlers))
	for _, h := range handlers {
		kind := h.Kind()
		if !kind.Valid() {
			return nil, errors.Errorf("handler registered for unknown event kind %q", kind)
		}
		if _, dup := table[kind]; dup {
			return nil, errors.Errorf("duplicate handler for event kind %q", kind)
		}
		table[kind] = h
	}
	for _, kind := range InboundKinds() {
		if _, ok := table[kind]; !ok {
			return nil, errors.Errorf("no handler registered for inbound event kind %q", kind)
		}
	}
	return &Registry{handlers: table}, nil
}

// Dispatch routes the message to its handler. Events without a registered
// handler (including the service's own outbound kinds echoed back on the
// shared topic) are ignored. Returns whether a handler ran.
func (r *Registry) Dispatch(ctx context.Context, msg *Message) bool {
	handler, ok := r.handlers[msg.Event]
	if !ok {
		if !msg.Event.Valid() {
			log.Printf("registry: ignoring unknown event kind %q for order %d", msg.Event, msg.OrderID)
		}
		return false
	}
	handler.Handle(ctx, msg)
	return true
}
