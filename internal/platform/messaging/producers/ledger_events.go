package producers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/residential-billing-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// LedgerEventProducer writes ledger events to the ledger topic. Messages are keyed by
// resident id, so one resident's events stay on one partition in order.
type LedgerEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewLedgerEventProducer ensures the ledger topic exists and opens a synchronous writer, so the
// outbox poller only marks a message processed once the broker acked it.
func NewLedgerEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*LedgerEventProducer, error) {
	if cfg.LedgerTopic == "" {
		return nil, errors.New("kafka ledger topic is not configured")
	}

	// kafka.Hash keeps every event of a resident on the same partition
	writer, err := openTopicWriter(ctx, logger, cfg, cfg.LedgerTopic, &kafka.Hash{})
	if err != nil {
		return nil, err
	}

	return &LedgerEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.LedgerTopic,
	}, nil
}

var _ MessagePublisher = (*LedgerEventProducer)(nil)

func (p *LedgerEventProducer) Publish(ctx context.Context, key string, value []byte) error {
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish ledger event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish ledger event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published ledger event",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *LedgerEventProducer) Close() error {
	p.logger.Info("Closing ledger event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close ledger kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
