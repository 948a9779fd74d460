package outbox

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/residential-billing-ledger/internal/domain/shared"
)

// Repository persists ledger outbox messages. Create is meant to run on the transaction
// that writes the ledger entry.
type Repository interface {
	Create(ctx context.Context, message *Message) error

	// GetPending returns the oldest pending messages first.
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error

	// MarkUnpublishable fails a message without spending its retries.
	MarkUnpublishable(ctx context.Context, id uuid.UUID, cause string) error

	// RecordFailure counts one failed publish and returns the resulting status, which is
	// FAILED_TO_PUBLISH once maxAttempts failures have been recorded.
	RecordFailure(ctx context.Context, id uuid.UUID, cause string, maxAttempts int) (shared.OutboxStatus, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrMessageNotFound is returned when no pending message has the id.
type ErrMessageNotFound struct {
	ID uuid.UUID
}

func (e ErrMessageNotFound) Error() string {
	return "outbox message not found: " + e.ID.String()
}

func (e ErrMessageNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	t, ok := target.(ErrMessageNotFound)
	return ok && (t.ID == uuid.Nil || t.ID == e.ID)
}
