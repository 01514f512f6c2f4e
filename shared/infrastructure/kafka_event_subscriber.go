package infrastructure

import (
	"context"
	"log"

	"github.com/flashmart/order-system/shared/events"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// KafkaEventSubscriber consumes the shared topic as part of a consumer
// group and dispatches each envelope into the saga registry. Delivery is
// at-least-once: offsets are committed only after the handler returns, and
// handlers never fail, so a message is retried only when the process dies
// mid-dispatch.
type KafkaEventSubscriber struct {
	reader *kafka.Reader
}

// NewKafkaEventSubscriber creates a consumer-group reader on the shared topic.
func NewKafkaEventSubscriber(brokers []string, topic, groupID string) *KafkaEventSubscriber {
	return &KafkaEventSubscriber{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
	}
}

// Run consumes until the context is cancelled. Undecodable messages are
// logged and committed so a poison message cannot wedge the partition.
func (s *KafkaEventSubscriber) Run(ctx context.Context, registry *events.Registry) error {
	for {
		fetched, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "failed to fetch message")
		}

		msg, err := events.FromJSON(fetched.Value)
		if err != nil {
			log.Printf("subscriber: dropping undecodable message at offset %d: %v", fetched.Offset, err)
		} else {
			registry.Dispatch(ctx, msg)
		}

		if err := s.reader.CommitMessages(ctx, fetched); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "failed to commit offset")
		}
	}
}

// Close closes the underlying reader.
func (s *KafkaEventSubscriber) Close() error {
	return s.reader.Close()
}
