package service

import (
	"context"
	"time"

	"github.com/residential-billing-ledger/internal/domain/activity"
	"github.com/residential-billing-ledger/internal/domain/expense"
	"github.com/residential-billing-ledger/internal/domain/ledger"
	"github.com/residential-billing-ledger/internal/domain/resident"
	"github.com/shopspring/decimal"
)

// RentAccruer keeps auto rent charges current before balances are read.
// Implemented by accrual.Service.
type RentAccruer interface {
	EnsureUpToDate(ctx context.Context, residentID int64, today time.Time) (int, error)
	RefreshActive(ctx context.Context, today time.Time) (int, error)
}

// ResidentService defines the interface for resident operations
type ResidentService interface {
	// CreateResident validates the input and stores an Active resident.
	CreateResident(ctx context.Context, fullName string, phone *string, rateAmount decimal.Decimal, rateFrequency string, startDate time.Time, notes *string) (*resident.Resident, error)

	// GetResident returns the resident with its balance after accruing any due rent.
	// Returns ErrResidentNotFound if the resident doesn't exist
	GetResident(ctx context.Context, id int64) (*resident.Summary, error)

	// ListResidents returns every resident with its balance, Active first.
	ListResidents(ctx context.Context) ([]*resident.Summary, error)

	UpdateResidentStatus(ctx context.Context, id int64, status string) error
	UpdateResidentRate(ctx context.Context, id int64, rateAmount decimal.Decimal, rateFrequency string) error

	// DeleteResident removes the resident together with its ledger and receipts.
	DeleteResident(ctx context.Context, id int64) error

	// RefreshRent posts missing auto rent charges and returns how many were added.
	RefreshRent(ctx context.Context, id int64) (int, error)
}

// LedgerService defines the interface for ledger entry operations
type LedgerService interface {
	// PostLedgerEntry stores the entry and its outbox event. Payments also get a
	// receipt rendered and uploaded before the transaction commits.
	PostLedgerEntry(ctx context.Context, residentID int64, entryDate time.Time, entryType string, amount decimal.Decimal, description, source *string) (*ledger.Entry, error)

	// ListLedgerForResident returns entries ordered by (entry_date, id) ascending.
	ListLedgerForResident(ctx context.Context, residentID int64) ([]*ledger.Entry, error)
}

// PaymentService defines read operations over payments and their receipts
type PaymentService interface {
	ListPayments(ctx context.Context) ([]*ledger.PaymentRecord, error)
	RecentPaymentSummary(ctx context.Context, activeOnly bool) ([]*ledger.PaymentSummary, error)

	// ReceiptURL returns a time-limited link to the payment's receipt PDF.
	ReceiptURL(ctx context.Context, ledgerEntryID int64) (string, error)
}

// ExpenseUpload is one attachment received with an expense.
type ExpenseUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExpenseService defines the interface for expense operations
type ExpenseService interface {
	CreateExpense(ctx context.Context, vendor string, expenseDate time.Time, amount decimal.Decimal, category, notes *string, files []ExpenseUpload) (*expense.Expense, error)
	ListExpenses(ctx context.Context) ([]*expense.Expense, error)
	ExpenseFileURL(ctx context.Context, fileID int64) (string, error)
}

// ActivityService reads the ledger activity projection
type ActivityService interface {
	// ListActivity returns a page of the resident's activity, newest first, and the total count.
	ListActivity(ctx context.Context, residentID int64, page, perPage int) ([]*activity.Record, int64, error)
}
