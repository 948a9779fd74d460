package consumers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/residential-billing-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// MessageHandler processes one record. A non-nil error means the record was not applied.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, handler MessageHandler) error
	Close() error
}

// KafkaReader is the part of kafka.Reader the consumer drives.
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var _ KafkaReader = (*kafka.Reader)(nil)

const maxRetryBackoff = 30 * time.Second

// KafkaConsumer reads the ledger topic as a consumer group member. Records are handled
// strictly in order per reader: a record that fails is retried with backoff and nothing
// after it is fetched until it succeeds.
type KafkaConsumer struct {
	reader  KafkaReader
	logger  *slog.Logger
	done    chan struct{}
	backoff time.Duration
}

func NewKafkaConsumer(logger *slog.Logger, cfg *config.KafkaConfig) *KafkaConsumer {
	readerCfg := kafka.ReaderConfig{
		Brokers:     []string{cfg.Brokers},
		Topic:       cfg.LedgerTopic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		MaxWait:     cfg.MaxWait,
		StartOffset: kafka.FirstOffset,
	}
	if cfg.StartOffset != 0 {
		readerCfg.StartOffset = cfg.StartOffset
	}

	return &KafkaConsumer{
		reader:  kafka.NewReader(readerCfg),
		logger:  logger.With("topic", cfg.LedgerTopic, "group_id", cfg.ConsumerGroup),
		done:    make(chan struct{}),
		backoff: time.Second,
	}
}

// Subscribe starts the fetch loop in the background. The loop stops when ctx is cancelled.
func (c *KafkaConsumer) Subscribe(ctx context.Context, handler MessageHandler) error {
	if handler == nil {
		return errors.New("message handler is required")
	}

	c.logger.Info("Subscribed to Kafka topic")
	go func() {
		defer close(c.done)
		c.loop(ctx, handler)
		c.logger.Info("Kafka consumer stopped")
	}()
	return nil
}

// Done is closed once the fetch loop has exited.
func (c *KafkaConsumer) Done() <-chan struct{} {
	return c.done
}

func (c *KafkaConsumer) loop(ctx context.Context, handler MessageHandler) {
	for ctx.Err() == nil {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Failed to fetch message from Kafka", "error", err)
			if !c.sleep(ctx, c.backoff) {
				return
			}
			continue
		}

		if !c.handleUntilApplied(ctx, msg, handler) {
			return
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			// the next successful commit covers this offset too
			c.logger.Error("Failed to commit offset", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
	}
}

// handleUntilApplied retries msg until the handler accepts it. It reports false only when
// ctx ends first, in which case the offset stays uncommitted.
func (c *KafkaConsumer) handleUntilApplied(ctx context.Context, msg kafka.Message, handler MessageHandler) bool {
	logger := c.logger.With("partition", msg.Partition, "offset", msg.Offset, "key", string(msg.Key))
	logger.Debug("Received message from Kafka")

	wait := c.backoff
	for attempt := 1; ; attempt++ {
		err := handler(ctx, msg.Key, msg.Value)
		if err == nil {
			return true
		}
		logger.Error("Failed to process message, retrying", "attempt", attempt, "retry_in", wait.String(), "error", err)
		if !c.sleep(ctx, wait) {
			return false
		}
		wait = min(wait*2, maxRetryBackoff)
	}
}

func (c *KafkaConsumer) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *KafkaConsumer) Close() error {
	if c.reader == nil {
		return nil
	}
	return c.reader.Close()
}
