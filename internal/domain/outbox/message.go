package outbox

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/residential-billing-ledger/internal/domain/ledger"
	"github.com/residential-billing-ledger/internal/domain/shared"
)

// Message is a ledger event waiting to be published, written in the same transaction
// as the entry it describes.
type Message struct {
	ID            uuid.UUID           `json:"id"`
	EventType     string              `json:"event_type"`
	AggregateID   int64               `json:"aggregate_id"` // resident id
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	LastError     *string             `json:"last_error,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// NewMessage wraps a posted event; the message shares the event's id.
func NewMessage(event *ledger.PostedEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:          event.EventID,
		EventType:   ledger.EventTypeEntryPosted,
		AggregateID: event.ResidentID,
		Payload:     payload,
		Status:      shared.OutboxStatusPending,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// PartitionKey is the Kafka message key. All events of one resident share it.
func (m *Message) PartitionKey() string {
	return strconv.FormatInt(m.AggregateID, 10)
}

// LedgerEvent decodes the payload
func (m *Message) LedgerEvent() (*ledger.PostedEvent, error) {
	var event ledger.PostedEvent
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
