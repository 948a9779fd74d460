package ledger

import (
	"sort"
	"strings"
	"time"

	"github.com/residential-billing-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EntryType classifies a ledger movement.
type EntryType string

const (
	EntryTypeCharge     EntryType = "charge"
	EntryTypePayment    EntryType = "payment"
	EntryTypeAdjustment EntryType = "adjustment"
)

const (
	// SourceAutoRent tags charges created by rent accrual. At most one such charge
	// exists per resident and day.
	SourceAutoRent = "auto_rent"

	AutoRentDescription = "Auto rent charge"
)

// Entry is a single dated financial movement against a resident's account.
// Entries are immutable once stored.
type Entry struct {
	ID          int64           `json:"id"`
	ResidentID  int64           `json:"resident_id"`
	EntryDate   time.Time       `json:"entry_date"`
	Type        EntryType       `json:"entry_type"`
	Amount      decimal.Decimal `json:"amount"`
	Description *string         `json:"description,omitempty"`
	Source      *string         `json:"source,omitempty"`
}

// NewEntry validates a manual or system posting.
func NewEntry(residentID int64, entryDate time.Time, entryType string, amount decimal.Decimal, description, source *string) (*Entry, error) {
	t, err := ParseEntryType(entryType)
	if err != nil {
		return nil, err
	}
	if err := shared.ValidatePositiveAmount("amount", amount); err != nil {
		return nil, err
	}
	if entryDate.IsZero() {
		return nil, shared.NewValidationError("entry_date", "is required")
	}

	return &Entry{
		ResidentID:  residentID,
		EntryDate:   shared.DateOnly(entryDate),
		Type:        t,
		Amount:      amount,
		Description: trimmedOrNil(description),
		Source:      trimmedOrNil(source),
	}, nil
}

// NewAutoRentCharge builds the charge rent accrual posts for one due date.
func NewAutoRentCharge(residentID int64, dueDate time.Time, amount decimal.Decimal) *Entry {
	description := AutoRentDescription
	source := SourceAutoRent
	return &Entry{
		ResidentID:  residentID,
		EntryDate:   shared.DateOnly(dueDate),
		Type:        EntryTypeCharge,
		Amount:      amount,
		Description: &description,
		Source:      &source,
	}
}

func ParseEntryType(raw string) (EntryType, error) {
	switch EntryType(raw) {
	case EntryTypeCharge, EntryTypePayment, EntryTypeAdjustment:
		return EntryType(raw), nil
	}
	return "", shared.NewValidationError("entry_type", "must be one of charge, payment, adjustment")
}

// IsAutoRent reports whether the entry falls under the once-per-day auto rent rule.
func (e *Entry) IsAutoRent() bool {
	return e.Type == EntryTypeCharge && e.Source != nil && *e.Source == SourceAutoRent
}

// SignedAmount is the entry's effect on the balance: charges and adjustments add,
// payments subtract.
func (e *Entry) SignedAmount() decimal.Decimal {
	if e.Type == EntryTypePayment {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Balance sums the signed amounts of entries.
func Balance(entries []*Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.SignedAmount())
	}
	return total
}

// SortChronologically orders entries by (entry_date, id) ascending, the ledger view order.
func SortChronologically(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].EntryDate.Equal(entries[j].EntryDate) {
			return entries[i].EntryDate.Before(entries[j].EntryDate)
		}
		return entries[i].ID < entries[j].ID
	})
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
