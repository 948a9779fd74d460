// Package activity holds the read-side projection of posted ledger entries.
package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/residential-billing-ledger/internal/domain/ledger"
)

// Record is one projected ledger event. Amounts are kept as decimal strings.
type Record struct {
	EventID      uuid.UUID `json:"event_id" bson:"event_id"`
	EntryID      int64     `json:"entry_id" bson:"entry_id"`
	ResidentID   int64     `json:"resident_id" bson:"resident_id"`
	EntryType    string    `json:"entry_type" bson:"entry_type"`
	Amount       string    `json:"amount" bson:"amount"`
	SignedAmount string    `json:"signed_amount" bson:"signed_amount"`
	EntryDate    string    `json:"entry_date" bson:"entry_date"`
	Description  *string   `json:"description,omitempty" bson:"description,omitempty"`
	Source       *string   `json:"source,omitempty" bson:"source,omitempty"`
	OccurredAt   time.Time `json:"occurred_at" bson:"occurred_at"`
	RecordedAt   time.Time `json:"recorded_at" bson:"recorded_at"`
}

func FromEvent(ev *ledger.PostedEvent) *Record {
	return &Record{
		EventID:      ev.EventID,
		EntryID:      ev.EntryID,
		ResidentID:   ev.ResidentID,
		EntryType:    string(ev.EntryType),
		Amount:       ev.Amount.StringFixed(2),
		SignedAmount: ev.SignedAmount().StringFixed(2),
		EntryDate:    ev.EntryDate,
		Description:  ev.Description,
		Source:       ev.Source,
		OccurredAt:   ev.OccurredAt,
		RecordedAt:   time.Now().UTC(),
	}
}

// Repository stores the activity projection
type Repository interface {
	// Upsert is keyed by entry id so replayed events do not duplicate records.
	Upsert(ctx context.Context, record *Record) error

	// ListByResident returns the newest records first.
	ListByResident(ctx context.Context, residentID int64, limit, offset int) ([]*Record, error)
	CountByResident(ctx context.Context, residentID int64) (int64, error)
}
