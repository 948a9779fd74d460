package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessagePublisher publishes already-encoded messages to the primary topic
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
	Close() error
}

// DeadLetterPublisher handles publishing messages to a Dead Letter Queue
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// topicAdmin is the subset of *kafka.Conn used to provision topics.
type topicAdmin interface {
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	CreateTopics(topics ...kafka.TopicConfig) error
}

var _ topicAdmin = (*kafka.Conn)(nil)
