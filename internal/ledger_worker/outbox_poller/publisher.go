package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/residential-billing-ledger/internal/domain/outbox"
	"github.com/residential-billing-ledger/internal/platform/messaging/producers"
)

// EventPublisher hands one outbox message to the broker and records the outcome
type EventPublisher interface {
	Publish(ctx context.Context, message *outbox.Message) error
}

// KafkaEventPublisher relays outbox payloads unchanged to the ledger topic.
type KafkaEventPublisher struct {
	outboxRepo outbox.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

func NewKafkaEventPublisher(outboxRepo outbox.Repository, producer producers.MessagePublisher, logger *slog.Logger) *KafkaEventPublisher {
	return &KafkaEventPublisher{outboxRepo: outboxRepo, producer: producer, logger: logger}
}

var _ EventPublisher = (*KafkaEventPublisher)(nil)

// Publish returns ErrUnpublishable for payloads that no longer decode; those are failed
// at once and never retried.
func (p *KafkaEventPublisher) Publish(ctx context.Context, message *outbox.Message) error {
	event, err := message.LedgerEvent()
	if err != nil {
		if markErr := p.outboxRepo.MarkUnpublishable(ctx, message.ID, err.Error()); markErr != nil {
			p.logger.Error("Failed to park undecodable ledger event", "event_id", message.ID.String(), "error", markErr)
		}
		return fmt.Errorf("%w: event %s: %v", ErrUnpublishable, message.ID, err)
	}

	if err := p.producer.Publish(ctx, message.PartitionKey(), message.Payload); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", message.ID, err)
	}

	if err := p.outboxRepo.MarkProcessed(ctx, message.ID); err != nil {
		// already on the broker; the activity projection upserts by entry id
		return fmt.Errorf("event %s published but not marked PROCESSED: %w", message.ID, err)
	}

	p.logger.Debug("Relayed ledger event",
		"event_id", event.EventID.String(),
		"entry_id", event.EntryID,
		"resident_id", event.ResidentID,
	)
	return nil
}
