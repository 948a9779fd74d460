package expense

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/residential-billing-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allowed = []string{"jpg", "jpeg", "png", "pdf"}

func TestNewExpense(t *testing.T) {
	date := time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		category := " Plumbing "
		e, err := NewExpense(" Ace Hardware ", date, decimal.RequireFromString("89.99"), &category, nil)
		require.NoError(t, err)
		assert.Equal(t, "Ace Hardware", e.Vendor)
		assert.Equal(t, "Plumbing", *e.Category)
		assert.Nil(t, e.Notes)
	})

	t.Run("VendorRequired", func(t *testing.T) {
		_, err := NewExpense("  ", date, decimal.NewFromInt(1), nil, nil)
		assert.ErrorIs(t, err, &shared.ValidationError{Field: "vendor"})
	})

	t.Run("AmountMustBePositive", func(t *testing.T) {
		_, err := NewExpense("Ace", date, decimal.RequireFromString("-1"), nil, nil)
		assert.ErrorIs(t, err, &shared.ValidationError{Field: "amount"})
	})
}

func TestCheckFilename(t *testing.T) {
	name, err := CheckFilename("../My Invoice (1).PDF", allowed)
	require.NoError(t, err)
	assert.Equal(t, "My_Invoice_1.PDF", name)

	_, err = CheckFilename("script.exe", allowed)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = CheckFilename("noextension", allowed)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = CheckFilename("...", allowed)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/heic", ContentType("a.jpg", "image/heic"))
	assert.Equal(t, "application/pdf", ContentType("a.pdf", ""))
	assert.Equal(t, "image/png", ContentType("a.PNG", "application/octet-stream"))
	assert.Equal(t, "image/jpeg", ContentType("a.jpeg", ""))
}

func TestObjectPath(t *testing.T) {
	path := ObjectPath(12, "invoice.pdf")
	assert.Regexp(t, regexp.MustCompile(`^expense_12/[0-9a-f]{32}_invoice\.pdf$`), path)
	assert.NotEqual(t, path, ObjectPath(12, "invoice.pdf"))
}

func TestErrExpenseFileNotFound_Is(t *testing.T) {
	err := ErrExpenseFileNotFound{FileID: 4}
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	assert.True(t, errors.Is(err, ErrExpenseFileNotFound{}))
	assert.False(t, errors.Is(err, ErrExpenseFileNotFound{FileID: 5}))
}
