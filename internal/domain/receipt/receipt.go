package receipt

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/residential-billing-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const ContentTypePDF = "application/pdf"

// Receipt is the stored-object metadata of a payment receipt. One per payment entry.
type Receipt struct {
	ID               int64     `json:"id"`
	LedgerEntryID    int64     `json:"ledger_entry_id"`
	ResidentID       int64     `json:"resident_id"`
	Bucket           string    `json:"bucket"`
	ObjectPath       string    `json:"object_path"`
	OriginalFilename string    `json:"original_filename"`
	ContentType      string    `json:"content_type"`
	FileSizeBytes    int64     `json:"file_size_bytes"`
	SHA256           string    `json:"sha256"`
	CreatedAt        time.Time `json:"created_at"`
}

// Document holds what gets printed on a payment receipt.
type Document struct {
	ResidentName string
	EntryID      int64
	EntryDate    time.Time
	AmountPaid   decimal.Decimal
	BalanceAfter decimal.Decimal
}

func FileName(entryID int64) string {
	return fmt.Sprintf("receipt_%d.pdf", entryID)
}

// ObjectPath is where a receipt lives inside its bucket.
func ObjectPath(residentID, entryID int64) string {
	return fmt.Sprintf("resident_%d/%s", residentID, FileName(entryID))
}

// Repository manages receipt metadata
type Repository interface {
	// Upsert replaces the metadata when the ledger entry already has a receipt.
	Upsert(ctx context.Context, receipt *Receipt) error
	GetByLedgerEntryID(ctx context.Context, ledgerEntryID int64) (*Receipt, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrReceiptNotFound indicates there is no receipt for a ledger entry
type ErrReceiptNotFound struct {
	LedgerEntryID int64
}

func (e ErrReceiptNotFound) Error() string {
	return "receipt not found for ledger entry: " + strconv.FormatInt(e.LedgerEntryID, 10)
}

func (e ErrReceiptNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	t, ok := target.(ErrReceiptNotFound)
	return ok && (t.LedgerEntryID == 0 || t.LedgerEntryID == e.LedgerEntryID)
}
