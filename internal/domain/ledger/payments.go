package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentRecord is a payment row joined with its resident and receipt.
type PaymentRecord struct {
	EntryID           int64
	ResidentID        int64
	ResidentName      string
	EntryDate         time.Time
	Amount            decimal.Decimal
	Description       *string
	ReceiptObjectPath *string
}

func (p *PaymentRecord) HasReceipt() bool {
	return p.ReceiptObjectPath != nil
}

// PaymentSummary is one resident's balance with its most recent payment, if any.
type PaymentSummary struct {
	ResidentID        int64
	FullName          string
	Status            string
	Balance           decimal.Decimal
	LastPaymentID     *int64
	LastPaymentDate   *time.Time
	LastPaymentAmount *decimal.Decimal
}
