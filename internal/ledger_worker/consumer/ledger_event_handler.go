// Package consumer projects ledger events from Kafka into the activity read model.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/residential-billing-ledger/internal/domain/activity"
	"github.com/residential-billing-ledger/internal/domain/ledger"
	"github.com/residential-billing-ledger/internal/platform/messaging/producers"
)

// LedgerEventHandler upserts each posted ledger event into the activity collection
type LedgerEventHandler struct {
	activityRepo activity.Repository
	producer     producers.DeadLetterPublisher
	logger       *slog.Logger
}

func NewLedgerEventHandler(
	logger *slog.Logger,
	activityRepo activity.Repository,
	producer producers.DeadLetterPublisher,
) *LedgerEventHandler {
	return &LedgerEventHandler{
		activityRepo: activityRepo,
		producer:     producer,
		logger:       logger,
	}
}

// HandleMessage returns nil for messages that were projected or dead-lettered, so their
// offset is committed. Storage errors are returned and the message is fetched again.
func (h *LedgerEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event ledger.PostedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return h.reject(ctx, key, value, "Failed to unmarshal ledger event", err)
	}
	if err := event.Validate(); err != nil {
		return h.reject(ctx, key, value, "Invalid ledger event", err)
	}

	logger := h.logger.With(
		"event_id", event.EventID.String(),
		"entry_id", event.EntryID,
		"resident_id", event.ResidentID,
	)

	if err := h.activityRepo.Upsert(ctx, activity.FromEvent(&event)); err != nil {
		logger.Error("Failed to project ledger event", "error", err)
		return fmt.Errorf("projecting entry %d failed: %w", event.EntryID, err)
	}

	logger.Debug("Projected ledger event", "entry_type", string(event.EntryType))
	return nil
}

// reject sends the raw message to the DLQ. When that is impossible the error is returned
// so the message is retried rather than lost.
func (h *LedgerEventHandler) reject(ctx context.Context, key, value []byte, reason string, cause error) error {
	h.logger.Error(reason, "error", cause, "message_key", string(key))

	if h.producer == nil {
		return fmt.Errorf("%s: %w", reason, cause)
	}

	dlqReason := fmt.Sprintf("%s: %s", reason, cause.Error())
	if err := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); err != nil {
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", err,
			"original_error", cause,
			"message_key", string(key),
		)
		return fmt.Errorf("%s: %w", reason, cause)
	}

	h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
	return nil
}
