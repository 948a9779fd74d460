package shared

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxAmount is the exclusive upper bound of a NUMERIC(10,2) column.
var MaxAmount = decimal.New(1, 8)

// ValidatePositiveAmount enforces amount > 0 with at most two fractional digits.
func ValidatePositiveAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return NewValidationError(field, "must be greater than 0")
	}
	if !amount.Equal(amount.Round(2)) {
		return NewValidationError(field, "must have at most 2 decimal places")
	}
	if amount.GreaterThanOrEqual(MaxAmount) {
		return NewValidationError(field, "exceeds the maximum of 99999999.99")
	}
	return nil
}

// DateOnly drops the clock part of t, keeping its calendar day in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, NewValidationError(field, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)
