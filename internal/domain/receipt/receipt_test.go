package receipt

import (
	"errors"
	"testing"

	"github.com/residential-billing-ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

func TestObjectPath(t *testing.T) {
	assert.Equal(t, "receipt_15.pdf", FileName(15))
	assert.Equal(t, "resident_3/receipt_15.pdf", ObjectPath(3, 15))
}

func TestErrReceiptNotFound_Is(t *testing.T) {
	err := ErrReceiptNotFound{LedgerEntryID: 15}

	assert.True(t, errors.Is(err, shared.ErrNotFound))
	assert.True(t, errors.Is(err, ErrReceiptNotFound{}))
	assert.False(t, errors.Is(err, ErrReceiptNotFound{LedgerEntryID: 16}))
	assert.Equal(t, "receipt not found for ledger entry: 15", err.Error())
}
