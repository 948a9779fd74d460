package resident

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/residential-billing-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Repository defines resident persistence operations
type Repository interface {
	Create(ctx context.Context, resident *Resident) error
	GetByID(ctx context.Context, id int64) (*Resident, error)

	// ListWithBalances orders Active residents first, then by full name.
	ListWithBalances(ctx context.Context) ([]*Summary, error)
	ListActiveIDs(ctx context.Context) ([]int64, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
	UpdateRate(ctx context.Context, id int64, amount decimal.Decimal, frequency Frequency) error

	// Delete relies on ON DELETE CASCADE to remove owned ledger entries and receipts.
	Delete(ctx context.Context, id int64) error
	WithTx(tx pgx.Tx) Repository
}

// ErrResidentNotFound indicates missing resident
type ErrResidentNotFound struct {
	ResidentID int64
}

func (e ErrResidentNotFound) Error() string {
	return "resident not found: " + strconv.FormatInt(e.ResidentID, 10)
}

// Is matches shared.ErrNotFound, and any ErrResidentNotFound when the target ID is zero.
func (e ErrResidentNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	t, ok := target.(ErrResidentNotFound)
	if !ok {
		return false
	}
	return t.ResidentID == 0 || t.ResidentID == e.ResidentID
}
