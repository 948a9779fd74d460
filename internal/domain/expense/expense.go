package expense

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/residential-billing-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Expense is a property cost with zero or more attached files (invoices, photos).
type Expense struct {
	ID          int64           `json:"id"`
	Vendor      string          `json:"vendor"`
	ExpenseDate time.Time       `json:"expense_date"`
	Amount      decimal.Decimal `json:"amount"`
	Category    *string         `json:"category,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	Files       []*File         `json:"files"`
}

// File is the stored-object metadata of an expense attachment.
type File struct {
	ID               int64     `json:"id"`
	ExpenseID        int64     `json:"expense_id"`
	Bucket           string    `json:"bucket"`
	ObjectPath       string    `json:"object_path"`
	OriginalFilename string    `json:"original_filename"`
	ContentType      string    `json:"content_type"`
	FileSizeBytes    int64     `json:"file_size_bytes"`
	SHA256           string    `json:"sha256"`
	UploadedAt       time.Time `json:"uploaded_at"`
}

func NewExpense(vendor string, expenseDate time.Time, amount decimal.Decimal, category, notes *string) (*Expense, error) {
	vendor = strings.TrimSpace(vendor)
	if vendor == "" {
		return nil, shared.NewValidationError("vendor", "is required")
	}
	if expenseDate.IsZero() {
		return nil, shared.NewValidationError("expense_date", "is required")
	}
	if err := shared.ValidatePositiveAmount("amount", amount); err != nil {
		return nil, err
	}
	return &Expense{
		Vendor:      vendor,
		ExpenseDate: shared.DateOnly(expenseDate),
		Amount:      amount,
		Category:    trimmedOrNil(category),
		Notes:       trimmedOrNil(notes),
	}, nil
}

// SanitizeFilename keeps only ASCII letters, digits, dots, dashes and underscores,
// turning whitespace into underscores and dropping leading dots.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-', c == '_':
			b.WriteRune(c)
		case c == ' ' || c == '\t':
			b.WriteRune('_')
		}
	}
	return strings.TrimLeft(b.String(), "._")
}

// Extension returns the lower-cased extension without the dot.
func Extension(name string) string {
	ext := filepath.Ext(name)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// CheckFilename sanitises name and verifies its extension is allowed.
func CheckFilename(name string, allowed []string) (string, error) {
	clean := SanitizeFilename(name)
	if clean == "" || !slices.Contains(allowed, Extension(clean)) {
		return "", shared.NewValidationError("files", fmt.Sprintf("file type not allowed: %q", name))
	}
	return clean, nil
}

// ContentType prefers the declared multipart type and falls back on the extension.
func ContentType(filename, declared string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	switch Extension(filename) {
	case "pdf":
		return "application/pdf"
	case "png":
		return "image/png"
	default:
		return "image/jpeg"
	}
}

// ObjectPath gives every upload a unique key under its expense.
func ObjectPath(expenseID int64, filename string) string {
	return fmt.Sprintf("expense_%d/%s_%s", expenseID, strings.ReplaceAll(uuid.NewString(), "-", ""), filename)
}

// Repository manages expenses and their file metadata
type Repository interface {
	Create(ctx context.Context, expense *Expense) error
	AddFile(ctx context.Context, file *File) error

	// List returns expenses newest first with their files attached.
	List(ctx context.Context) ([]*Expense, error)
	GetFile(ctx context.Context, fileID int64) (*File, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrExpenseFileNotFound indicates missing expense attachment
type ErrExpenseFileNotFound struct {
	FileID int64
}

func (e ErrExpenseFileNotFound) Error() string {
	return "expense file not found: " + strconv.FormatInt(e.FileID, 10)
}

func (e ErrExpenseFileNotFound) Is(target error) bool {
	if target == shared.ErrNotFound {
		return true
	}
	t, ok := target.(ErrExpenseFileNotFound)
	return ok && (t.FileID == 0 || t.FileID == e.FileID)
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
