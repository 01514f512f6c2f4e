package application

import (
	"context"
	"fmt"
	"log"

	"github.com/flashmart/order-system/orders-service/domain"
	"github.com/flashmart/order-system/shared/events"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var outboxProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "outbox_entries_processed_total",
	Help: "Outbox entries processed by the relay, by outcome.",
}, []string{"outcome"})

// fallbackPaymentID is the payment id assumed when the payment participant
// fails and the relay runs in lenient mode. Inherited lab behavior: the saga
// continues with a default payment rather than stalling.
const fallbackPaymentID = 1

const maxConcurrentEntries = 4

// OutboxRelayConfig tunes relay behavior.
type OutboxRelayConfig struct {
	// GatewayBaseURL is the public base of the API gateway, used to build
	// payment links.
	GatewayBaseURL string
	// Strict disables the lenient fallback: a failed payment request fails
	// the entry instead of defaulting the payment id.
	Strict bool
}

// OutboxRelay converts unresolved payment-request entries into exactly one
// resolved outcome and exactly one emitted saga event each. No error ever
// escapes a processing attempt.
type OutboxRelay struct {
	store     domain.Store
	gateway   domain.PaymentGateway
	complete  *CompleteOrder
	publisher events.Publisher
	cfg       OutboxRelayConfig
}

// NewOutboxRelay creates the relay.
func NewOutboxRelay(
	store domain.Store,
	gateway domain.PaymentGateway,
	complete *CompleteOrder,
	publisher events.Publisher,
	cfg OutboxRelayConfig,
) *OutboxRelay {
	return &OutboxRelay{
		store:     store,
		gateway:   gateway,
		complete:  complete,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Run selects every unresolved entry and processes each independently. An
// entry failing only affects its own transaction and event; the rest of the
// batch proceeds.
func (r *OutboxRelay) Run(ctx context.Context) error {
	entries, err := r.store.Outbox().FindUnresolved(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to list unresolved outbox entries")
	}
	if len(entries) == 0 {
		log.Println("outbox relay: no entries to process")
		return nil
	}

	gr, ctx := errgroup.WithContext(ctx)
	gr.SetLimit(maxConcurrentEntries)
	for _, entry := range entries {
		entry := entry
		gr.Go(func() error {
			r.ProcessEntry(ctx, entry)
			return nil
		})
	}
	_ = gr.Wait()

	log.Printf("outbox relay: %d entries processed", len(entries))
	return nil
}

// ProcessEntry resolves a single entry: request the payment, persist the
// payment id and the order's paid state in one transaction, and emit the
// outcome event. Exactly one event is published per attempt.
func (r *OutboxRelay) ProcessEntry(ctx context.Context, entry *domain.OutboxEntry) {
	ctx, span := otel.Tracer("outbox-relay").Start(ctx, "process_entry")
	span.SetAttributes(attribute.Int64("order.id", entry.OrderID))
	defer span.End()

	msg := events.NewMessage(events.PaymentCreated, entry.OrderID, entry.UserID, entry.TotalAmount, entry.Items)

	paymentID, err := r.gateway.CreatePayment(ctx, domain.PaymentRequest{
		UserID:      entry.UserID,
		OrderID:     entry.OrderID,
		TotalAmount: entry.TotalAmount,
	})
	if err != nil {
		if r.cfg.Strict {
			r.emitFailure(ctx, msg, err)
			return
		}
		// Lenient mode: keep the saga moving with the default payment id.
		log.Printf("outbox relay: payment request for order %d failed, continuing with fallback payment id: %v", entry.OrderID, err)
		paymentID = fallbackPaymentID
	}

	paymentLink := PaymentLink(r.cfg.GatewayBaseURL, paymentID)

	// Outbox resolution and order completion commit or roll back together:
	// a failed completion must leave the entry unresolved for the next run.
	err = r.store.WithinTx(ctx, func(s domain.Store) error {
		if err := s.Outbox().Resolve(ctx, entry.OrderID, paymentID); err != nil {
			return errors.Wrapf(err, "failed to resolve outbox entry for order %d", entry.OrderID)
		}
		return r.complete.Apply(ctx, s, entry.OrderID, true, paymentLink)
	})
	if err != nil {
		r.emitFailure(ctx, msg, err)
		return
	}

	r.complete.Mirror(ctx, entry.OrderID, true, paymentLink)

	msg.IsPaid = true
	msg.PaymentLink = paymentLink
	publishLogged(ctx, r.publisher, msg)
	outboxProcessed.WithLabelValues("resolved").Inc()
}

func (r *OutboxRelay) emitFailure(ctx context.Context, msg *events.Message, cause error) {
	log.Printf("outbox relay: processing order %d failed: %v", msg.OrderID, cause)
	msg.Event = events.PaymentCreationFailed
	msg.WithError(cause)
	publishLogged(ctx, r.publisher, msg)
	outboxProcessed.WithLabelValues("failed").Inc()
}

// PaymentLink builds the canonical processing link for a payment. The shape
// is shared with the other participants and must not drift.
func PaymentLink(gatewayBaseURL string, paymentID int64) string {
	return fmt.Sprintf("%s/payments-api/payments/process/%d", gatewayBaseURL, paymentID)
}
