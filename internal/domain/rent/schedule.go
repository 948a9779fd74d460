// Package rent computes when automatic rent charges fall due.
package rent

import (
	"time"

	"github.com/residential-billing-ledger/internal/domain/resident"
	"github.com/residential-billing-ledger/internal/domain/shared"
)

// DueDates lists every auto rent due date up to and including today that has not been
// charged yet, given the last auto rent charge (nil when none exists).
//
// Weekly rent is due on the start date and every 7 days after it. Monthly rent is due on
// the 1st of each month following the start date.
func DueDates(frequency resident.Frequency, startDate time.Time, lastCharged *time.Time, today time.Time) []time.Time {
	today = shared.DateOnly(today)
	start := shared.DateOnly(startDate)

	var due []time.Time
	switch frequency {
	case resident.FrequencyWeekly:
		next := start
		if lastCharged != nil {
			next = shared.DateOnly(*lastCharged).AddDate(0, 0, 7)
		}
		for !next.After(today) {
			due = append(due, next)
			next = next.AddDate(0, 0, 7)
		}
	case resident.FrequencyMonthly:
		base := start
		if lastCharged != nil {
			base = shared.DateOnly(*lastCharged)
		}
		for next := firstOfNextMonth(base); !next.After(today); next = firstOfNextMonth(next) {
			due = append(due, next)
		}
	}
	return due
}

func firstOfNextMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}
