package producers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/residential-billing-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// Headers attached to every dead-lettered ledger event.
const (
	HeaderDLQReason      = "dlq-reason"
	HeaderDLQSourceTopic = "dlq-source-topic"
	HeaderDLQFailedAt    = "dlq-failed-at"
)

// ErrDLQDisabled is returned when dead-lettering was not configured.
var ErrDLQDisabled = errors.New("ledger event dead-lettering is disabled")

// LedgerDeadLetters parks ledger events the activity projection cannot use. The original
// payload is forwarded untouched so it can be replayed onto the ledger topic.
type LedgerDeadLetters struct {
	logger      *slog.Logger
	writer      KafkaWriter
	topic       string
	sourceTopic string
	now         func() time.Time
}

// NewLedgerDeadLetters returns nil when no DLQ topic is configured.
func NewLedgerDeadLetters(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*LedgerDeadLetters, error) {
	if cfg.DLQTopic == "" {
		logger.Info("Ledger DLQ topic is not configured, dead-lettering is disabled")
		return nil, nil
	}

	writer, err := openTopicWriter(ctx, logger, cfg, cfg.DLQTopic, &kafka.LeastBytes{})
	if err != nil {
		return nil, err
	}

	return &LedgerDeadLetters{
		logger:      logger,
		writer:      writer,
		topic:       cfg.DLQTopic,
		sourceTopic: cfg.LedgerTopic,
		now:         time.Now,
	}, nil
}

var _ DeadLetterPublisher = (*LedgerDeadLetters)(nil)

func (d *LedgerDeadLetters) PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error {
	if d == nil || d.writer == nil {
		return ErrDLQDisabled
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: originalMessageValue,
		Headers: []kafka.Header{
			{Key: HeaderDLQReason, Value: []byte(reason)},
			{Key: HeaderDLQSourceTopic, Value: []byte(d.sourceTopic)},
			{Key: HeaderDLQFailedAt, Value: []byte(d.now().UTC().Format(time.RFC3339))},
		},
	}

	if err := d.writer.WriteMessages(ctx, msg); err != nil {
		d.logger.Error("Failed to dead-letter ledger event", "topic", d.topic, "resident_key", key, "error", err)
		return fmt.Errorf("failed to dead-letter ledger event to %s: %w", d.topic, err)
	}

	d.logger.Warn("Dead-lettered ledger event", "topic", d.topic, "resident_key", key, "reason", reason)
	return nil
}

func (d *LedgerDeadLetters) Close() error {
	if d == nil || d.writer == nil {
		return nil
	}
	if err := d.writer.Close(); err != nil {
		return fmt.Errorf("failed to close ledger DLQ writer for %s: %w", d.topic, err)
	}
	d.logger.Info("Closed ledger DLQ writer", "topic", d.topic)
	return nil
}
