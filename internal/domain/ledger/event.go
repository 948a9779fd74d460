package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventTypeEntryPosted is the outbox event type for every stored entry.
const EventTypeEntryPosted = "ledger.entry_posted"

// PostedEvent is the message published for each stored ledger entry.
type PostedEvent struct {
	EventID     uuid.UUID       `json:"event_id"`
	EntryID     int64           `json:"entry_id"`
	ResidentID  int64           `json:"resident_id"`
	EntryType   EntryType       `json:"entry_type"`
	Amount      decimal.Decimal `json:"amount"`
	EntryDate   string          `json:"entry_date"`
	Description *string         `json:"description,omitempty"`
	Source      *string         `json:"source,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

func NewPostedEvent(e *Entry) *PostedEvent {
	return &PostedEvent{
		EventID:     uuid.New(),
		EntryID:     e.ID,
		ResidentID:  e.ResidentID,
		EntryType:   e.Type,
		Amount:      e.Amount,
		EntryDate:   e.EntryDate.Format(time.DateOnly),
		Description: e.Description,
		Source:      e.Source,
		OccurredAt:  time.Now().UTC(),
	}
}

// Validate rejects events that cannot be projected.
func (ev *PostedEvent) Validate() error {
	if ev.EventID == uuid.Nil {
		return errors.New("event_id is required")
	}
	if ev.EntryID <= 0 || ev.ResidentID <= 0 {
		return errors.New("entry_id and resident_id must be positive")
	}
	if _, err := ParseEntryType(string(ev.EntryType)); err != nil {
		return err
	}
	if !ev.Amount.IsPositive() {
		return errors.New("amount must be positive")
	}
	if _, err := time.Parse(time.DateOnly, ev.EntryDate); err != nil {
		return errors.New("entry_date must be YYYY-MM-DD")
	}
	return nil
}

// SignedAmount applies the balance sign convention to the event amount.
func (ev *PostedEvent) SignedAmount() decimal.Decimal {
	return (&Entry{Type: ev.EntryType, Amount: ev.Amount}).SignedAmount()
}
