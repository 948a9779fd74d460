package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/residential-billing-ledger/internal/domain/receipt"
	"github.com/residential-billing-ledger/internal/platform/persistence"
)

// ReceiptRepository implements the receipt.Repository interface for PostgreSQL
type ReceiptRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewReceiptRepository(logger *slog.Logger, db *persistence.PostgresDB) receipt.Repository {
	return &ReceiptRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *ReceiptRepository) WithTx(tx pgx.Tx) receipt.Repository {
	return &ReceiptRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Upsert stores receipt metadata, replacing the row for a ledger entry that already has one.
func (r *ReceiptRepository) Upsert(ctx context.Context, rc *receipt.Receipt) error {
	query := `
		INSERT INTO receipts (ledger_entry_id, resident_id, bucket, object_path, original_filename, content_type, file_size_bytes, sha256)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ledger_entry_id) DO UPDATE SET
			bucket = EXCLUDED.bucket,
			object_path = EXCLUDED.object_path,
			original_filename = EXCLUDED.original_filename,
			content_type = EXCLUDED.content_type,
			file_size_bytes = EXCLUDED.file_size_bytes,
			sha256 = EXCLUDED.sha256
		RETURNING id, created_at
	`

	err := r.querier.QueryRow(ctx, query,
		rc.LedgerEntryID,
		rc.ResidentID,
		rc.Bucket,
		rc.ObjectPath,
		rc.OriginalFilename,
		rc.ContentType,
		rc.FileSizeBytes,
		rc.SHA256,
	).Scan(&rc.ID, &rc.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to upsert receipt", "ledger_entry_id", rc.LedgerEntryID, "error", err)
		return fmt.Errorf("failed to upsert receipt: %w", err)
	}

	return nil
}

func (r *ReceiptRepository) GetByLedgerEntryID(ctx context.Context, ledgerEntryID int64) (*receipt.Receipt, error) {
	query := `
		SELECT id, ledger_entry_id, resident_id, bucket, object_path, original_filename, content_type, file_size_bytes, sha256, created_at
		FROM receipts
		WHERE ledger_entry_id = $1
	`

	var rc receipt.Receipt
	err := r.querier.QueryRow(ctx, query, ledgerEntryID).Scan(
		&rc.ID,
		&rc.LedgerEntryID,
		&rc.ResidentID,
		&rc.Bucket,
		&rc.ObjectPath,
		&rc.OriginalFilename,
		&rc.ContentType,
		&rc.FileSizeBytes,
		&rc.SHA256,
		&rc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, receipt.ErrReceiptNotFound{LedgerEntryID: ledgerEntryID}
		}
		r.logger.Error("Failed to get receipt", "ledger_entry_id", ledgerEntryID, "error", err)
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}

	return &rc, nil
}
