package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/residential-billing-ledger/internal/domain/ledger"
	"github.com/residential-billing-ledger/internal/domain/resident"
	"github.com/residential-billing-ledger/internal/domain/shared"
	"github.com/residential-billing-ledger/internal/platform/persistence"
	"github.com/shopspring/decimal"
)

// LedgerRepository implements the ledger.Repository interface for PostgreSQL
type LedgerRepository struct {
	querier persistence.Querier // *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

func NewLedgerRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &LedgerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *LedgerRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &LedgerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create inserts a manual entry. A second auto-rent charge on the same day surfaces as ErrDuplicateAutoRent.
func (r *LedgerRepository) Create(ctx context.Context, entry *ledger.Entry) error {
	query := `
		INSERT INTO ledger_entries (resident_id, entry_date, entry_type, amount, description, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		entry.ResidentID,
		entry.EntryDate,
		string(entry.Type),
		entry.Amount,
		entry.Description,
		entry.Source,
	).Scan(&entry.ID)
	if err != nil {
		switch {
		case uniqueViolationOn(err, autoRentUniqueIndex):
			return ledger.ErrDuplicateAutoRent{ResidentID: entry.ResidentID, EntryDate: entry.EntryDate}
		case isUniqueViolation(err):
			pgErr, _ := pgError(err)
			return fmt.Errorf("%w: ledger entry violates %s", shared.ErrConflict, pgErr.ConstraintName)
		case isForeignKeyViolation(err):
			return resident.ErrResidentNotFound{ResidentID: entry.ResidentID}
		}
		if vErr := checkViolation(err); vErr != nil {
			return vErr
		}
		r.logger.Error("Failed to create ledger entry",
			"resident_id", entry.ResidentID,
			"entry_type", string(entry.Type),
			"error", err,
		)
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}

	return nil
}

// InsertAutoRentCharge inserts an auto-rent charge unless one already exists for that day.
// It reports whether a row was written.
func (r *LedgerRepository) InsertAutoRentCharge(ctx context.Context, entry *ledger.Entry) (bool, error) {
	query := `
		INSERT INTO ledger_entries (resident_id, entry_date, entry_type, amount, description, source)
		VALUES ($1, $2, 'charge', $3, $4, 'auto_rent')
		ON CONFLICT (resident_id, entry_date) WHERE entry_type = 'charge' AND source = 'auto_rent'
		DO NOTHING
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		entry.ResidentID,
		entry.EntryDate,
		entry.Amount,
		entry.Description,
	).Scan(&entry.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		r.logger.Error("Failed to insert auto rent charge",
			"resident_id", entry.ResidentID,
			"entry_date", entry.EntryDate.Format(time.DateOnly),
			"error", err,
		)
		return false, fmt.Errorf("failed to insert auto rent charge: %w", err)
	}

	return true, nil
}

func (r *LedgerRepository) ListByResident(ctx context.Context, residentID int64) ([]*ledger.Entry, error) {
	query := `
		SELECT id, resident_id, entry_date, entry_type, amount, description, source
		FROM ledger_entries
		WHERE resident_id = $1
		ORDER BY entry_date ASC, id ASC
	`

	rows, err := r.querier.Query(ctx, query, residentID)
	if err != nil {
		r.logger.Error("Failed to list ledger entries", "resident_id", residentID, "error", err)
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*ledger.Entry
	for rows.Next() {
		var (
			e         ledger.Entry
			entryType string
		)
		if err := rows.Scan(&e.ID, &e.ResidentID, &e.EntryDate, &entryType, &e.Amount, &e.Description, &e.Source); err != nil {
			r.logger.Error("Failed to scan ledger entry", "error", err)
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.Type = ledger.EntryType(entryType)
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over ledger entries", "error", err)
		return nil, fmt.Errorf("error iterating over ledger entries: %w", err)
	}

	return entries, nil
}

// Balance sums charges and adjustments minus payments.
func (r *LedgerRepository) Balance(ctx context.Context, residentID int64) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN entry_type = 'payment' THEN -amount ELSE amount END), 0)
		FROM ledger_entries
		WHERE resident_id = $1
	`

	var balance decimal.Decimal
	if err := r.querier.QueryRow(ctx, query, residentID).Scan(&balance); err != nil {
		r.logger.Error("Failed to compute balance", "resident_id", residentID, "error", err)
		return decimal.Zero, fmt.Errorf("failed to compute balance: %w", err)
	}

	return balance, nil
}

// LastAutoRentDate returns nil when the resident has never been charged automatically.
func (r *LedgerRepository) LastAutoRentDate(ctx context.Context, residentID int64) (*time.Time, error) {
	query := `
		SELECT MAX(entry_date)
		FROM ledger_entries
		WHERE resident_id = $1 AND entry_type = 'charge' AND source = 'auto_rent'
	`

	var last *time.Time
	if err := r.querier.QueryRow(ctx, query, residentID).Scan(&last); err != nil {
		r.logger.Error("Failed to get last auto rent date", "resident_id", residentID, "error", err)
		return nil, fmt.Errorf("failed to get last auto rent date: %w", err)
	}

	return last, nil
}

// LockResident takes a transaction-scoped advisory lock keyed by the resident id.
// It only has an effect when the repository is bound to a transaction.
func (r *LedgerRepository) LockResident(ctx context.Context, residentID int64) error {
	if _, err := r.querier.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, residentID); err != nil {
		r.logger.Error("Failed to lock resident", "resident_id", residentID, "error", err)
		return fmt.Errorf("failed to lock resident: %w", err)
	}
	return nil
}

func (r *LedgerRepository) ListPayments(ctx context.Context) ([]*ledger.PaymentRecord, error) {
	query := `
		SELECT le.id, le.resident_id, r.full_name, le.entry_date, le.amount, le.description, rc.object_path
		FROM ledger_entries le
		JOIN residents r ON r.id = le.resident_id
		LEFT JOIN receipts rc ON rc.ledger_entry_id = le.id
		WHERE le.entry_type = 'payment'
		ORDER BY le.entry_date DESC, le.id DESC
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list payments", "error", err)
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []*ledger.PaymentRecord
	for rows.Next() {
		var p ledger.PaymentRecord
		if err := rows.Scan(&p.EntryID, &p.ResidentID, &p.ResidentName, &p.EntryDate, &p.Amount, &p.Description, &p.ReceiptObjectPath); err != nil {
			r.logger.Error("Failed to scan payment", "error", err)
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, &p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over payments", "error", err)
		return nil, fmt.Errorf("error iterating over payments: %w", err)
	}

	return payments, nil
}

// RecentPayments returns one row per resident with the balance and the latest payment, if any.
func (r *LedgerRepository) RecentPayments(ctx context.Context, activeOnly bool) ([]*ledger.PaymentSummary, error) {
	query := `
		SELECT r.id, r.full_name, r.status,
			COALESCE((
				SELECT SUM(CASE WHEN le.entry_type = 'payment' THEN -le.amount ELSE le.amount END)
				FROM ledger_entries le
				WHERE le.resident_id = r.id
			), 0) AS balance,
			lp.id, lp.entry_date, lp.amount
		FROM residents r
		LEFT JOIN LATERAL (
			SELECT p.id, p.entry_date, p.amount
			FROM ledger_entries p
			WHERE p.resident_id = r.id AND p.entry_type = 'payment'
			ORDER BY p.entry_date DESC, p.id DESC
			LIMIT 1
		) lp ON TRUE
		WHERE (NOT $1::boolean OR r.status = 'Active')
		ORDER BY r.full_name ASC, r.id ASC
	`

	rows, err := r.querier.Query(ctx, query, activeOnly)
	if err != nil {
		r.logger.Error("Failed to list recent payments", "active_only", activeOnly, "error", err)
		return nil, fmt.Errorf("failed to list recent payments: %w", err)
	}
	defer rows.Close()

	var summaries []*ledger.PaymentSummary
	for rows.Next() {
		var s ledger.PaymentSummary
		if err := rows.Scan(
			&s.ResidentID, &s.FullName, &s.Status, &s.Balance,
			&s.LastPaymentID, &s.LastPaymentDate, &s.LastPaymentAmount,
		); err != nil {
			r.logger.Error("Failed to scan payment summary", "error", err)
			return nil, fmt.Errorf("failed to scan payment summary: %w", err)
		}
		summaries = append(summaries, &s)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over payment summaries", "error", err)
		return nil, fmt.Errorf("error iterating over payment summaries: %w", err)
	}

	return summaries, nil
}
