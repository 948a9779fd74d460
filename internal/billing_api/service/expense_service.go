package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/residential-billing-ledger/internal/domain/expense"
	"github.com/residential-billing-ledger/internal/domain/shared"
	"github.com/residential-billing-ledger/internal/platform/persistence"
	"github.com/residential-billing-ledger/internal/platform/storage"
	"github.com/shopspring/decimal"
)

// ExpenseServiceImpl implements the ExpenseService interface
type ExpenseServiceImpl struct {
	transactor        persistence.Transactor
	expenseRepo       expense.Repository
	store             storage.ObjectStore
	bucket            string
	signedURLTTL      time.Duration
	maxUploadBytes    int64
	allowedExtensions []string
	logger            *slog.Logger
}

// ExpenseOptions carries the storage and upload limits for expenses.
type ExpenseOptions struct {
	Bucket            string
	SignedURLTTL      time.Duration
	MaxUploadBytes    int64
	AllowedExtensions []string
}

// NewExpenseService creates a new expense service
func NewExpenseService(logger *slog.Logger, transactor persistence.Transactor, expenseRepo expense.Repository, store storage.ObjectStore, opts ExpenseOptions) ExpenseService {
	return &ExpenseServiceImpl{
		transactor:        transactor,
		expenseRepo:       expenseRepo,
		store:             store,
		bucket:            opts.Bucket,
		signedURLTTL:      opts.SignedURLTTL,
		maxUploadBytes:    opts.MaxUploadBytes,
		allowedExtensions: opts.AllowedExtensions,
		logger:            logger,
	}
}

type checkedUpload struct {
	filename    string
	contentType string
	data        []byte
}

// CreateExpense validates every attachment before anything is stored. Empty files are
// skipped. The expense row and its file rows commit together.
func (s *ExpenseServiceImpl) CreateExpense(ctx context.Context, vendor string, expenseDate time.Time, amount decimal.Decimal, category, notes *string, files []ExpenseUpload) (*expense.Expense, error) {
	exp, err := expense.NewExpense(vendor, expenseDate, amount, category, notes)
	if err != nil {
		return nil, err
	}

	uploads, err := s.checkUploads(files)
	if err != nil {
		return nil, err
	}

	err = s.transactor.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := s.expenseRepo.WithTx(tx)
		if err := repo.Create(ctx, exp); err != nil {
			return err
		}

		exp.Files = make([]*expense.File, 0, len(uploads))
		for _, u := range uploads {
			objectPath := expense.ObjectPath(exp.ID, u.filename)
			stored, err := s.store.Upload(ctx, s.bucket, objectPath, u.data, u.contentType)
			if err != nil {
				return fmt.Errorf("failed to upload expense file %s: %w", u.filename, err)
			}

			f := &expense.File{
				ExpenseID:        exp.ID,
				Bucket:           s.bucket,
				ObjectPath:       objectPath,
				OriginalFilename: u.filename,
				ContentType:      u.contentType,
				FileSizeBytes:    stored.SizeBytes,
				SHA256:           stored.SHA256,
			}
			if err := repo.AddFile(ctx, f); err != nil {
				return err
			}
			exp.Files = append(exp.Files, f)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create expense", "vendor", exp.Vendor, "error", err)
		return nil, err
	}

	s.logger.Info("Expense created", "expense_id", exp.ID, "files", len(exp.Files))
	return exp, nil
}

func (s *ExpenseServiceImpl) checkUploads(files []ExpenseUpload) ([]checkedUpload, error) {
	var (
		total   int64
		checked []checkedUpload
	)
	for _, f := range files {
		if len(f.Data) == 0 {
			continue
		}
		total += int64(len(f.Data))
		if s.maxUploadBytes > 0 && total > s.maxUploadBytes {
			return nil, shared.NewValidationError("files", fmt.Sprintf("uploads exceed %d bytes", s.maxUploadBytes))
		}

		clean, err := expense.CheckFilename(f.Filename, s.allowedExtensions)
		if err != nil {
			return nil, err
		}
		checked = append(checked, checkedUpload{
			filename:    clean,
			contentType: expense.ContentType(clean, f.ContentType),
			data:        f.Data,
		})
	}
	return checked, nil
}

func (s *ExpenseServiceImpl) ListExpenses(ctx context.Context) ([]*expense.Expense, error) {
	return s.expenseRepo.List(ctx)
}

func (s *ExpenseServiceImpl) ExpenseFileURL(ctx context.Context, fileID int64) (string, error) {
	f, err := s.expenseRepo.GetFile(ctx, fileID)
	if err != nil {
		return "", err
	}

	url, err := s.store.SignedURL(ctx, f.Bucket, f.ObjectPath, s.signedURLTTL)
	if err != nil {
		s.logger.Error("Failed to sign expense file URL", "file_id", fileID, "error", err)
		return "", err
	}
	return url, nil
}
