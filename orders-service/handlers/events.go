package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/flashmart/order-system/orders-service/application"
	"github.com/flashmart/order-system/shared/events"
)

// NewSagaRegistry wires one handler per inbound saga event kind. The
// registry constructor rejects an incomplete table, so a new inbound kind
// cannot ship without a handling decision.
func NewSagaRegistry(complete *application.CompleteOrder, publisher events.Publisher, gatewayBaseURL string) (*events.Registry, error) {
	return events.NewRegistry(
		&PaymentCreatedHandler{complete: complete, publisher: publisher, gatewayBaseURL: gatewayBaseURL},
		&StockDecreasedHandler{publisher: publisher},
		&StockDecreaseFailedHandler{publisher: publisher},
		&StockIncreasedHandler{publisher: publisher},
	)
}

// PaymentCreatedHandler finishes the saga once a payment exists: it marks
// the order paid, persists the payment link, and emits SagaCompleted. The
// payment cannot be rolled back from here, so even a failed local update
// terminates the saga, with the error recorded on the event.
type PaymentCreatedHandler struct {
	complete       *application.CompleteOrder
	publisher      events.Publisher
	gatewayBaseURL string
}

func (h *PaymentCreatedHandler) Kind() events.Kind {
	return events.PaymentCreated
}

func (h *PaymentCreatedHandler) Handle(ctx context.Context, msg *events.Message) {
	paymentLink := msg.PaymentLink
	if paymentLink == "" || paymentLink == events.NoPaymentLink {
		// Legacy envelopes may arrive without a link; reconstruct one from
		// the default payment id.
		paymentLink = application.PaymentLink(h.gatewayBaseURL, 1)
	}

	out := msg.Derive(events.SagaCompleted)
	out.IsPaid = true
	out.PaymentLink = paymentLink

	if ok := h.complete.Execute(ctx, msg.OrderID, true, paymentLink); !ok {
		out.Error = fmt.Sprintf("failed to mark order %d as paid after payment creation", msg.OrderID)
	}
	publish(ctx, h.publisher, out)
}

// StockDecreasedHandler advances the saga after the stock service reserved
// the items: the payment step is expected to follow, so PaymentCreated is
// re-emitted to keep the choreography moving.
type StockDecreasedHandler struct {
	publisher events.Publisher
}

func (h *StockDecreasedHandler) Kind() events.Kind {
	return events.StockDecreased
}

func (h *StockDecreasedHandler) Handle(ctx context.Context, msg *events.Message) {
	out := msg.Derive(events.PaymentCreated)
	if err := h.publisher.Publish(ctx, out); err != nil {
		fallback := msg.Derive(events.PaymentCreationFailed)
		fallback.WithError(err)
		publish(ctx, h.publisher, fallback)
	}
}

// StockDecreaseFailedHandler compensates a failed reservation: the order is
// cancelled. If even the cancellation cannot be announced, the saga degrades
// to OrderCreationFailed instead of silently dropping.
type StockDecreaseFailedHandler struct {
	publisher events.Publisher
}

func (h *StockDecreaseFailedHandler) Kind() events.Kind {
	return events.StockDecreaseFailed
}

func (h *StockDecreaseFailedHandler) Handle(ctx context.Context, msg *events.Message) {
	compensate(ctx, h.publisher, msg)
}

// StockIncreasedHandler reacts to a confirmed stock compensation: the items
// are back, the order can be cancelled.
type StockIncreasedHandler struct {
	publisher events.Publisher
}

func (h *StockIncreasedHandler) Kind() events.Kind {
	return events.StockIncreased
}

func (h *StockIncreasedHandler) Handle(ctx context.Context, msg *events.Message) {
	compensate(ctx, h.publisher, msg)
}

// compensate drives the saga to a terminal state on a downstream failure
// signal: OrderCancelled when the cancellation event goes out, otherwise
// OrderCreationFailed carrying the transport error.
func compensate(ctx context.Context, publisher events.Publisher, msg *events.Message) {
	out := msg.Derive(events.OrderCancelled)
	if err := publisher.Publish(ctx, out); err != nil {
		fallback := msg.Derive(events.OrderCreationFailed)
		fallback.WithError(err)
		publish(ctx, publisher, fallback)
	}
}

func publish(ctx context.Context, publisher events.Publisher, msg *events.Message) {
	if err := publisher.Publish(ctx, msg); err != nil {
		log.Printf("saga handler: publish %s for order %d failed: %v", msg.Event, msg.OrderID, err)
	}
}
