package ledger

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/residential-billing-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Repository manages ledger entry persistence
type Repository interface {
	// Create stores an entry and sets its ID. A second auto rent charge for the same
	// resident and day fails with ErrDuplicateAutoRent.
	Create(ctx context.Context, entry *Entry) error

	// InsertAutoRentCharge is the idempotent variant used by accrual; it reports whether
	// a row was actually inserted.
	InsertAutoRentCharge(ctx context.Context, entry *Entry) (bool, error)

	// ListByResident returns entries ordered by (entry_date, id) ascending.
	ListByResident(ctx context.Context, residentID int64) ([]*Entry, error)
	Balance(ctx context.Context, residentID int64) (decimal.Decimal, error)
	LastAutoRentDate(ctx context.Context, residentID int64) (*time.Time, error)

	// LockResident serialises accrual per resident until the surrounding transaction ends.
	LockResident(ctx context.Context, residentID int64) error

	ListPayments(ctx context.Context) ([]*PaymentRecord, error)
	RecentPayments(ctx context.Context, activeOnly bool) ([]*PaymentSummary, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrDuplicateAutoRent indicates an auto rent charge already exists for the resident and day
type ErrDuplicateAutoRent struct {
	ResidentID int64
	EntryDate  time.Time
}

func (e ErrDuplicateAutoRent) Error() string {
	return "auto rent charge already posted for resident " + strconv.FormatInt(e.ResidentID, 10) +
		" on " + e.EntryDate.Format(time.DateOnly)
}

// Is matches shared.ErrConflict, and any ErrDuplicateAutoRent when the target is the zero value.
func (e ErrDuplicateAutoRent) Is(target error) bool {
	if target == shared.ErrConflict {
		return true
	}
	t, ok := target.(ErrDuplicateAutoRent)
	if !ok {
		return false
	}
	if t.ResidentID == 0 {
		return true
	}
	return e.ResidentID == t.ResidentID && e.EntryDate.Equal(t.EntryDate)
}
