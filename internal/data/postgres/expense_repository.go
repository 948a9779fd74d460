package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/residential-billing-ledger/internal/domain/expense"
	"github.com/residential-billing-ledger/internal/platform/persistence"
)

// ExpenseRepository implements the expense.Repository interface for PostgreSQL
type ExpenseRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewExpenseRepository(logger *slog.Logger, db *persistence.PostgresDB) expense.Repository {
	return &ExpenseRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *ExpenseRepository) WithTx(tx pgx.Tx) expense.Repository {
	return &ExpenseRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func (r *ExpenseRepository) Create(ctx context.Context, e *expense.Expense) error {
	query := `
		INSERT INTO expenses (vendor, expense_date, amount, category, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.querier.QueryRow(ctx, query, e.Vendor, e.ExpenseDate, e.Amount, e.Category, e.Notes).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		if vErr := checkViolation(err); vErr != nil {
			return vErr
		}
		r.logger.Error("Failed to create expense", "vendor", e.Vendor, "error", err)
		return fmt.Errorf("failed to create expense: %w", err)
	}

	return nil
}

func (r *ExpenseRepository) AddFile(ctx context.Context, f *expense.File) error {
	query := `
		INSERT INTO expense_files (expense_id, bucket, object_path, original_filename, content_type, file_size_bytes, sha256)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, uploaded_at
	`

	err := r.querier.QueryRow(ctx, query,
		f.ExpenseID,
		f.Bucket,
		f.ObjectPath,
		f.OriginalFilename,
		f.ContentType,
		f.FileSizeBytes,
		f.SHA256,
	).Scan(&f.ID, &f.UploadedAt)
	if err != nil {
		r.logger.Error("Failed to add expense file",
			"expense_id", f.ExpenseID,
			"object_path", f.ObjectPath,
			"error", err,
		)
		return fmt.Errorf("failed to add expense file: %w", err)
	}

	return nil
}

// List returns expenses newest first with their attachments.
func (r *ExpenseRepository) List(ctx context.Context) ([]*expense.Expense, error) {
	query := `
		SELECT id, vendor, expense_date, amount, category, notes, created_at
		FROM expenses
		ORDER BY expense_date DESC, id DESC
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list expenses", "error", err)
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*expense.Expense
	byID := make(map[int64]*expense.Expense)
	for rows.Next() {
		var e expense.Expense
		if err := rows.Scan(&e.ID, &e.Vendor, &e.ExpenseDate, &e.Amount, &e.Category, &e.Notes, &e.CreatedAt); err != nil {
			r.logger.Error("Failed to scan expense", "error", err)
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.Files = []*expense.File{}
		expenses = append(expenses, &e)
		byID[e.ID] = &e
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over expenses", "error", err)
		return nil, fmt.Errorf("error iterating over expenses: %w", err)
	}
	if len(expenses) == 0 {
		return expenses, nil
	}

	files, err := r.listFiles(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if e, ok := byID[f.ExpenseID]; ok {
			e.Files = append(e.Files, f)
		}
	}

	return expenses, nil
}

func (r *ExpenseRepository) listFiles(ctx context.Context) ([]*expense.File, error) {
	query := `
		SELECT id, expense_id, bucket, object_path, original_filename, content_type, file_size_bytes, sha256, uploaded_at
		FROM expense_files
		ORDER BY expense_id, id
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list expense files", "error", err)
		return nil, fmt.Errorf("failed to list expense files: %w", err)
	}
	defer rows.Close()

	var files []*expense.File
	for rows.Next() {
		f, err := scanExpenseFile(rows)
		if err != nil {
			r.logger.Error("Failed to scan expense file", "error", err)
			return nil, fmt.Errorf("failed to scan expense file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over expense files: %w", err)
	}

	return files, nil
}

func (r *ExpenseRepository) GetFile(ctx context.Context, fileID int64) (*expense.File, error) {
	query := `
		SELECT id, expense_id, bucket, object_path, original_filename, content_type, file_size_bytes, sha256, uploaded_at
		FROM expense_files
		WHERE id = $1
	`

	f, err := scanExpenseFile(r.querier.QueryRow(ctx, query, fileID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, expense.ErrExpenseFileNotFound{FileID: fileID}
		}
		r.logger.Error("Failed to get expense file", "file_id", fileID, "error", err)
		return nil, fmt.Errorf("failed to get expense file: %w", err)
	}

	return f, nil
}

func scanExpenseFile(row pgx.Row) (*expense.File, error) {
	var f expense.File
	err := row.Scan(
		&f.ID,
		&f.ExpenseID,
		&f.Bucket,
		&f.ObjectPath,
		&f.OriginalFilename,
		&f.ContentType,
		&f.FileSizeBytes,
		&f.SHA256,
		&f.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
