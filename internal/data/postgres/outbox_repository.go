package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/residential-billing-ledger/internal/domain/outbox"
	"github.com/residential-billing-ledger/internal/domain/shared"
	"github.com/residential-billing-ledger/internal/platform/persistence"
)

type OutboxRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
	now     func() time.Time
}

func NewOutboxRepository(logger *slog.Logger, db *persistence.PostgresDB) outbox.Repository {
	return &OutboxRepository{querier: db.Pool(), logger: logger, now: time.Now}
}

// WithTx binds the repository to tx so the message commits together with its ledger entry.
func (r *OutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return &OutboxRepository{querier: tx, logger: r.logger, now: r.now}
}

// Create stores a new message. Its id is the event id, so the same event cannot be queued twice.
func (r *OutboxRepository) Create(ctx context.Context, m *outbox.Message) error {
	const q = `
		INSERT INTO ledger_outbox (id, event_type, aggregate_id, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := r.querier.Exec(ctx, q,
		m.ID, m.EventType, m.AggregateID, []byte(m.Payload), string(m.Status), m.Attempts, m.CreatedAt,
	); err != nil {
		r.logger.Error("Failed to queue ledger event", "event_id", m.ID.String(), "resident_id", m.AggregateID, "error", err)
		return fmt.Errorf("failed to create outbox message: %w", err)
	}
	return nil
}

func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	const q = `
		SELECT id, event_type, aggregate_id, payload, status, attempts, last_error, created_at, last_attempt_at
		FROM ledger_outbox
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2`

	rows, err := r.querier.Query(ctx, q, string(shared.OutboxStatusPending), limit)
	if err != nil {
		r.logger.Error("Failed to load pending ledger events", "error", err)
		return nil, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	messages, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*outbox.Message, error) {
		var (
			m       outbox.Message
			payload []byte
			status  string
		)
		if err := row.Scan(&m.ID, &m.EventType, &m.AggregateID, &payload, &status, &m.Attempts,
			&m.LastError, &m.CreatedAt, &m.LastAttemptAt); err != nil {
			return nil, err
		}
		m.Payload = payload
		m.Status = shared.OutboxStatus(status)
		return &m, nil
	})
	if err != nil {
		r.logger.Error("Failed to read pending ledger events", "error", err)
		return nil, fmt.Errorf("failed to scan outbox messages: %w", err)
	}
	return messages, nil
}

func (r *OutboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	return r.finish(ctx, id, shared.OutboxStatusProcessed, nil)
}

func (r *OutboxRepository) MarkUnpublishable(ctx context.Context, id uuid.UUID, cause string) error {
	return r.finish(ctx, id, shared.OutboxStatusFailedToPublish, &cause)
}

// finish moves a pending message to a terminal status.
func (r *OutboxRepository) finish(ctx context.Context, id uuid.UUID, status shared.OutboxStatus, cause *string) error {
	const q = `
		UPDATE ledger_outbox
		SET status = $2, last_attempt_at = $3, last_error = COALESCE($4, last_error)
		WHERE id = $1 AND status = 'PENDING'`

	tag, err := r.querier.Exec(ctx, q, id, string(status), r.now().UTC(), cause)
	if err != nil {
		r.logger.Error("Failed to update ledger event status", "event_id", id.String(), "status", string(status), "error", err)
		return fmt.Errorf("failed to mark outbox message %s: %w", status, err)
	}
	if tag.RowsAffected() == 0 {
		return outbox.ErrMessageNotFound{ID: id}
	}
	return nil
}

// RecordFailure increments attempts and, once maxAttempts is reached, fails the message in
// the same statement.
func (r *OutboxRepository) RecordFailure(ctx context.Context, id uuid.UUID, cause string, maxAttempts int) (shared.OutboxStatus, error) {
	const q = `
		UPDATE ledger_outbox
		SET attempts = attempts + 1,
		    last_attempt_at = $2,
		    last_error = $3,
		    status = CASE WHEN attempts + 1 >= $4 THEN 'FAILED_TO_PUBLISH' ELSE status END
		WHERE id = $1 AND status = 'PENDING'
		RETURNING status`

	var status string
	err := r.querier.QueryRow(ctx, q, id, r.now().UTC(), cause, maxAttempts).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", outbox.ErrMessageNotFound{ID: id}
	}
	if err != nil {
		r.logger.Error("Failed to record ledger event publish failure", "event_id", id.String(), "error", err)
		return "", fmt.Errorf("failed to record outbox failure: %w", err)
	}
	return shared.OutboxStatus(status), nil
}
