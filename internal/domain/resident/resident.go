package resident

import (
	"strings"
	"time"

	"github.com/residential-billing-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Frequency is how often rent accrues for a resident.
type Frequency string

const (
	FrequencyWeekly  Frequency = "Weekly"
	FrequencyMonthly Frequency = "Monthly"
)

// Status marks whether a resident is still billed.
type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// Resident is a billable occupant. Rate amounts are NUMERIC(10,2).
type Resident struct {
	ID            int64           `json:"id"`
	FullName      string          `json:"full_name"`
	Phone         *string         `json:"phone,omitempty"`
	RateAmount    decimal.Decimal `json:"rate_amount"`
	RateFrequency Frequency       `json:"rate_frequency"`
	StartDate     time.Time       `json:"start_date"`
	Status        Status          `json:"status"`
	Notes         *string         `json:"notes,omitempty"`
}

// Summary is a resident together with its current ledger balance.
type Summary struct {
	Resident
	Balance decimal.Decimal `json:"balance"`
}

// NewResident validates the input and returns an Active resident without an ID.
func NewResident(fullName string, phone *string, rateAmount decimal.Decimal, rateFrequency string, startDate time.Time, notes *string) (*Resident, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, shared.NewValidationError("full_name", "is required")
	}
	if err := shared.ValidatePositiveAmount("rate_amount", rateAmount); err != nil {
		return nil, err
	}
	freq, err := ParseFrequency(rateFrequency)
	if err != nil {
		return nil, err
	}
	if startDate.IsZero() {
		return nil, shared.NewValidationError("start_date", "is required")
	}

	return &Resident{
		FullName:      fullName,
		Phone:         blankToNil(phone),
		RateAmount:    rateAmount,
		RateFrequency: freq,
		StartDate:     shared.DateOnly(startDate),
		Status:        StatusActive,
		Notes:         blankToNil(notes),
	}, nil
}

// ParseFrequency accepts any casing and surrounding whitespace ("weekly ", "MONTHLY").
func ParseFrequency(raw string) (Frequency, error) {
	normalized := capitalize(strings.TrimSpace(raw))
	switch Frequency(normalized) {
	case FrequencyWeekly, FrequencyMonthly:
		return Frequency(normalized), nil
	}
	return "", shared.NewValidationError("rate_frequency", "must be Weekly or Monthly")
}

// ParseStatus is strict: only the exact stored values are accepted.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusActive, StatusInactive:
		return Status(raw), nil
	}
	return "", shared.NewValidationError("status", "must be Active or Inactive")
}

// ValidateRate checks a rate edit with the same rules as creation.
func ValidateRate(amount decimal.Decimal, frequency string) (Frequency, error) {
	if err := shared.ValidatePositiveAmount("rate_amount", amount); err != nil {
		return "", err
	}
	return ParseFrequency(frequency)
}

func (r *Resident) IsActive() bool {
	return r.Status == StatusActive
}

// DisplayPhone formats ten digit numbers as (xxx) xxx-xxxx and leaves anything else as entered.
func (r *Resident) DisplayPhone() string {
	if r.Phone == nil {
		return ""
	}
	return FormatPhone(*r.Phone)
}

func FormatPhone(phone string) string {
	digits := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if c := phone[i]; c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	if len(digits) != 10 {
		return phone
	}
	d := string(digits)
	return "(" + d[:3] + ") " + d[3:6] + "-" + d[6:]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
