// services/api-gateway/queue/kafka.go
package queue

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// Bus publishes payment lifecycle events keyed by payment id, so every event
// of one charge lands on the same partition.
type Bus struct {
	Brokers []string
	Topic   string
	writer  *kafka.Writer
}

func New(brokers []string, topic string) *Bus {
	return &Bus{
		Brokers: brokers,
		Topic:   topic,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			WriteTimeout:           5 * time.Second,
		},
	}
}

func (b *Bus) Publish(ctx context.Context, key, payload []byte) error {
	return b.writer.WriteMessages(ctx, kafka.Message{Key: key, Value: payload, Time: time.Now()})
}

func (b *Bus) Close() error {
	return b.writer.Close()
}

// NewReader subscribes a consumer group to the bus topic.
func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}
