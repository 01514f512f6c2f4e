package infrastructure

import (
	"context"
	"strconv"

	"github.com/flashmart/order-system/shared/events"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

var _ events.Publisher = (*KafkaEventPublisher)(nil)

var eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "saga_events_published_total",
	Help: "Saga events published to the shared topic, by kind and outcome.",
}, []string{"event", "outcome"})

// KafkaEventPublisher publishes saga envelopes to the single shared topic.
// Messages are keyed by order id so all events of one order land on the
// same partition and keep their relative order.
type KafkaEventPublisher struct {
	writer *kafka.Writer
}

// NewKafkaEventPublisher creates a publisher for the given brokers and topic.
func NewKafkaEventPublisher(brokers []string, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Publish sends one envelope. Callers on business paths are expected to log
// and swallow the returned error; an order must never fail because the
// broker is down.
func (p *KafkaEventPublisher) Publish(ctx context.Context, msg *events.Message) error {
	payload, err := msg.ToJSON()
	if err != nil {
		eventsPublished.WithLabelValues(msg.Event.String(), "error").Inc()
		return errors.Wrap(err, "failed to encode event")
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(msg.OrderID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "message_id", Value: []byte(uuid.NewString())},
			{Key: "event", Value: []byte(msg.Event.String())},
		},
	})
	if err != nil {
		eventsPublished.WithLabelValues(msg.Event.String(), "error").Inc()
		return errors.Wrapf(err, "failed to publish %s for order %d", msg.Event, msg.OrderID)
	}

	eventsPublished.WithLabelValues(msg.Event.String(), "ok").Inc()
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaEventPublisher) Close() error {
	return p.writer.Close()
}
