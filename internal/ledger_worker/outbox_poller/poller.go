// Package outbox_poller relays pending ledger outbox messages to Kafka.
package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/residential-billing-ledger/internal/config"
	"github.com/residential-billing-ledger/internal/domain/outbox"
	"github.com/residential-billing-ledger/internal/domain/shared"
)

// ErrUnpublishable marks a message whose payload can never be published.
var ErrUnpublishable = errors.New("unpublishable ledger event")

// Poller drains the ledger outbox on a fixed interval.
type Poller struct {
	outboxRepo  outbox.Repository
	publisher   EventPublisher
	logger      *slog.Logger
	interval    time.Duration
	batchSize   int
	maxAttempts int
}

func NewPoller(cfg *config.OutboxConfig, outboxRepo outbox.Repository, publisher EventPublisher, logger *slog.Logger) *Poller {
	return &Poller{
		outboxRepo:  outboxRepo,
		publisher:   publisher,
		logger:      logger.With("component", "outbox_poller"),
		interval:    cfg.PollingInterval,
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxRetryAttempts,
	}
}

// Start relays batches until ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Outbox poller started", "interval", p.interval.String(), "batch_size", p.batchSize, "max_attempts", p.maxAttempts)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox poller stopped")
			return
		case <-ticker.C:
			relayed, err := p.relayBatch(ctx)
			if err != nil {
				p.logger.Error("Outbox batch failed", "error", err)
			} else if relayed > 0 {
				p.logger.Info("Relayed ledger events", "count", relayed)
			}
		}
	}
}

// relayBatch publishes one batch oldest first and returns how many messages went out.
// One failing message never holds back the rest of the batch.
func (p *Poller) relayBatch(ctx context.Context) (int, error) {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	relayed := 0
	for _, msg := range messages {
		err := p.publisher.Publish(ctx, msg)
		switch {
		case err == nil:
			relayed++
		case errors.Is(err, ErrUnpublishable):
			p.logger.Error("Dropped unpublishable ledger event", "event_id", msg.ID.String(), "error", err)
		default:
			p.recordFailure(ctx, msg, err)
		}
	}
	return relayed, nil
}

func (p *Poller) recordFailure(ctx context.Context, msg *outbox.Message, cause error) {
	logger := p.logger.With("event_id", msg.ID.String(), "resident_id", msg.AggregateID)

	status, err := p.outboxRepo.RecordFailure(ctx, msg.ID, cause.Error(), p.maxAttempts)
	if err != nil {
		logger.Error("Failed to record publish failure", "publish_error", cause, "error", err)
		return
	}

	if status == shared.OutboxStatusFailedToPublish {
		logger.Warn("Ledger event gave up after max attempts", "attempts", msg.Attempts+1, "error", cause)
		return
	}
	logger.Warn("Ledger event publish failed, will retry", "attempts", msg.Attempts+1, "error", cause)
}
