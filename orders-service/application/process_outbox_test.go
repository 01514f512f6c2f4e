package application

import (
	"context"
	"testing"

	"github.com/flashmart/order-system/orders-service/domain"
	"github.com/flashmart/order-system/shared/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGatewayBase = "http://api-gateway:8080"

func seedOrderWithOutbox(store *memStore, orderID, userID int64, total int64) {
	store.orders[orderID] = &domain.Order{
		ID:          orderID,
		UserID:      userID,
		TotalAmount: domainCents(total),
		PaymentLink: events.NoPaymentLink,
		Items:       []domain.OrderItem{{ProductID: 1, Quantity: 1, UnitPrice: domainCents(total)}},
	}
	if orderID >= store.nextOrderID {
		store.nextOrderID = orderID + 1
	}
	store.outbox[orderID] = &domain.OutboxEntry{
		OrderID:     orderID,
		UserID:      userID,
		TotalAmount: domainCents(total),
		Items:       []events.OrderItem{{ProductID: 1, Quantity: 1}},
	}
}

func newTestRelay(store *memStore, gateway *fakeGateway, publisher *capturePublisher, cache *memCache, strict bool) *OutboxRelay {
	complete := NewCompleteOrder(store, cache)
	return NewOutboxRelay(store, gateway, complete, publisher, OutboxRelayConfig{
		GatewayBaseURL: testGatewayBase,
		Strict:         strict,
	})
}

func TestOutboxRelay_ProcessEntry_Success(t *testing.T) {
	store := newMemStore()
	seedOrderWithOutbox(store, 10, 7, 6497)
	gateway := &fakeGateway{paymentID: 42}
	publisher := newCapturePublisher()
	cache := newMemCache()
	relay := newTestRelay(store, gateway, publisher, cache, false)

	require.NoError(t, relay.Run(context.Background()))

	assert.Equal(t, 1, gateway.calls)
	assert.Equal(t, int64(10), gateway.lastReq.OrderID)
	assert.Equal(t, int64(7), gateway.lastReq.UserID)
	assert.Equal(t, domainCents(6497), gateway.lastReq.TotalAmount)

	wantLink := "http://api-gateway:8080/payments-api/payments/process/42"

	order := store.orders[10]
	assert.True(t, order.IsPaid)
	assert.Equal(t, wantLink, order.PaymentLink)

	entry := store.outbox[10]
	require.True(t, entry.Resolved())
	assert.Equal(t, int64(42), *entry.PaymentID)

	assert.Equal(t, wantLink, cache.payments[10], "payment link must be mirrored into the cache")

	published := publisher.events()
	require.Len(t, published, 1, "exactly one event per entry")
	msg := published[0]
	assert.Equal(t, events.PaymentCreated, msg.Event)
	assert.Equal(t, wantLink, msg.PaymentLink)
	assert.True(t, msg.IsPaid)
	assert.Empty(t, msg.Error)
}

func TestOutboxRelay_CompleteFailureRollsBackResolution(t *testing.T) {
	store := newMemStore()
	seedOrderWithOutbox(store, 10, 7, 1000)
	// Order vanished between outbox creation and relay run.
	delete(store.orders, 10)

	gateway := &fakeGateway{paymentID: 42}
	publisher := newCapturePublisher()
	relay := newTestRelay(store, gateway, publisher, newMemCache(), false)

	require.NoError(t, relay.Run(context.Background()))

	entry := store.outbox[10]
	assert.False(t, entry.Resolved(), "outbox resolution must roll back with the failed completion")

	published := publisher.events()
	require.Len(t, published, 1)
	assert.Equal(t, events.PaymentCreationFailed, published[0].Event)
	assert.NotEmpty(t, published[0].Error)
}

func TestOutboxRelay_ResolvedEntriesAreNotReprocessed(t *testing.T) {
	store := newMemStore()
	seedOrderWithOutbox(store, 10, 7, 1000)
	paymentID := int64(42)
	store.outbox[10].PaymentID = &paymentID

	gateway := &fakeGateway{paymentID: 99}
	publisher := newCapturePublisher()
	relay := newTestRelay(store, gateway, publisher, newMemCache(), false)

	require.NoError(t, relay.Run(context.Background()))

	assert.Zero(t, gateway.calls, "resolved entries must never re-invoke the payment participant")
	assert.Empty(t, publisher.events())
	assert.Equal(t, int64(42), *store.outbox[10].PaymentID)
}

func TestOutboxRelay_LenientFallbackOnGatewayFailure(t *testing.T) {
	store := newMemStore()
	seedOrderWithOutbox(store, 10, 7, 1000)
	gateway := &fakeGateway{err: domain.ErrPaymentGateway}
	publisher := newCapturePublisher()
	relay := newTestRelay(store, gateway, publisher, newMemCache(), false)

	require.NoError(t, relay.Run(context.Background()))

	// Inherited lab behavior: the saga continues with the default payment id.
	entry := store.outbox[10]
	require.True(t, entry.Resolved())
	assert.Equal(t, int64(1), *entry.PaymentID)

	published := publisher.events()
	require.Len(t, published, 1)
	assert.Equal(t, events.PaymentCreated, published[0].Event)
	assert.Equal(t, "http://api-gateway:8080/payments-api/payments/process/1", published[0].PaymentLink)
}

func TestOutboxRelay_StrictModeFailsEntryOnGatewayFailure(t *testing.T) {
	store := newMemStore()
	seedOrderWithOutbox(store, 10, 7, 1000)
	gateway := &fakeGateway{err: domain.ErrPaymentGateway}
	publisher := newCapturePublisher()
	relay := newTestRelay(store, gateway, publisher, newMemCache(), true)

	require.NoError(t, relay.Run(context.Background()))

	assert.False(t, store.outbox[10].Resolved(), "strict mode must leave the entry unresolved")
	assert.False(t, store.orders[10].IsPaid)

	published := publisher.events()
	require.Len(t, published, 1)
	assert.Equal(t, events.PaymentCreationFailed, published[0].Event)
	assert.NotEmpty(t, published[0].Error)
}

func TestOutboxRelay_BatchFailuresAreIndependent(t *testing.T) {
	store := newMemStore()
	seedOrderWithOutbox(store, 10, 7, 1000)
	seedOrderWithOutbox(store, 11, 8, 2000)
	// Entry 11 will fail at completion time; entry 10 must still resolve.
	delete(store.orders, 11)

	gateway := &fakeGateway{paymentID: 42}
	publisher := newCapturePublisher()
	relay := newTestRelay(store, gateway, publisher, newMemCache(), false)

	require.NoError(t, relay.Run(context.Background()))

	assert.True(t, store.outbox[10].Resolved())
	assert.False(t, store.outbox[11].Resolved())

	published := publisher.events()
	require.Len(t, published, 2, "each entry emits exactly one event")
	kinds := map[events.Kind]int{}
	for _, msg := range published {
		kinds[msg.Event]++
	}
	assert.Equal(t, 1, kinds[events.PaymentCreated])
	assert.Equal(t, 1, kinds[events.PaymentCreationFailed])
}

func TestPaymentLinkFormat(t *testing.T) {
	assert.Equal(t,
		"http://api-gateway:8080/payments-api/payments/process/42",
		PaymentLink("http://api-gateway:8080", 42),
	)
}
