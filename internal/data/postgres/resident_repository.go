package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/residential-billing-ledger/internal/domain/resident"
	"github.com/residential-billing-ledger/internal/platform/persistence"
	"github.com/shopspring/decimal"
)

// ResidentRepository implements the resident.Repository interface for PostgreSQL
type ResidentRepository struct {
	querier persistence.Querier // *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

func NewResidentRepository(logger *slog.Logger, db *persistence.PostgresDB) resident.Repository {
	return &ResidentRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *ResidentRepository) WithTx(tx pgx.Tx) resident.Repository {
	return &ResidentRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create inserts the resident and sets its generated ID.
func (r *ResidentRepository) Create(ctx context.Context, res *resident.Resident) error {
	query := `
		INSERT INTO residents (full_name, phone, rate_amount, rate_frequency, start_date, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		res.FullName,
		res.Phone,
		res.RateAmount,
		string(res.RateFrequency),
		res.StartDate,
		string(res.Status),
		res.Notes,
	).Scan(&res.ID)
	if err != nil {
		if vErr := checkViolation(err); vErr != nil {
			return vErr
		}
		r.logger.Error("Failed to create resident", "full_name", res.FullName, "error", err)
		return fmt.Errorf("failed to create resident: %w", err)
	}

	return nil
}

func (r *ResidentRepository) GetByID(ctx context.Context, id int64) (*resident.Resident, error) {
	query := `
		SELECT id, full_name, phone, rate_amount, rate_frequency, start_date, status, notes
		FROM residents
		WHERE id = $1
	`

	res, err := scanResident(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, resident.ErrResidentNotFound{ResidentID: id}
		}
		r.logger.Error("Failed to get resident", "resident_id", id, "error", err)
		return nil, fmt.Errorf("failed to get resident: %w", err)
	}

	return res, nil
}

func (r *ResidentRepository) ListWithBalances(ctx context.Context) ([]*resident.Summary, error) {
	query := `
		SELECT r.id, r.full_name, r.phone, r.rate_amount, r.rate_frequency, r.start_date, r.status, r.notes,
			COALESCE(SUM(CASE
				WHEN le.entry_type = 'charge' THEN le.amount
				WHEN le.entry_type = 'payment' THEN -le.amount
				WHEN le.entry_type = 'adjustment' THEN le.amount
				ELSE 0
			END), 0) AS balance
		FROM residents r
		LEFT JOIN ledger_entries le ON le.resident_id = r.id
		GROUP BY r.id
		ORDER BY CASE WHEN r.status = 'Active' THEN 0 ELSE 1 END, r.full_name ASC, r.id ASC
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list residents", "error", err)
		return nil, fmt.Errorf("failed to list residents: %w", err)
	}
	defer rows.Close()

	var summaries []*resident.Summary
	for rows.Next() {
		var (
			s            resident.Summary
			freq, status string
		)
		if err := rows.Scan(
			&s.ID, &s.FullName, &s.Phone, &s.RateAmount, &freq, &s.StartDate, &status, &s.Notes,
			&s.Balance,
		); err != nil {
			r.logger.Error("Failed to scan resident", "error", err)
			return nil, fmt.Errorf("failed to scan resident: %w", err)
		}
		s.RateFrequency = resident.Frequency(freq)
		s.Status = resident.Status(status)
		summaries = append(summaries, &s)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over residents", "error", err)
		return nil, fmt.Errorf("error iterating over residents: %w", err)
	}

	return summaries, nil
}

func (r *ResidentRepository) ListActiveIDs(ctx context.Context) ([]int64, error) {
	query := `SELECT id FROM residents WHERE status = 'Active' ORDER BY id`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list active residents", "error", err)
		return nil, fmt.Errorf("failed to list active residents: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan resident id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over active residents: %w", err)
	}

	return ids, nil
}

func (r *ResidentRepository) UpdateStatus(ctx context.Context, id int64, status resident.Status) error {
	query := `UPDATE residents SET status = $1 WHERE id = $2`

	result, err := r.querier.Exec(ctx, query, string(status), id)
	if err != nil {
		r.logger.Error("Failed to update resident status", "resident_id", id, "status", string(status), "error", err)
		return fmt.Errorf("failed to update resident status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return resident.ErrResidentNotFound{ResidentID: id}
	}

	return nil
}

func (r *ResidentRepository) UpdateRate(ctx context.Context, id int64, amount decimal.Decimal, frequency resident.Frequency) error {
	query := `UPDATE residents SET rate_amount = $1, rate_frequency = $2 WHERE id = $3`

	result, err := r.querier.Exec(ctx, query, amount, string(frequency), id)
	if err != nil {
		if vErr := checkViolation(err); vErr != nil {
			return vErr
		}
		r.logger.Error("Failed to update resident rate", "resident_id", id, "error", err)
		return fmt.Errorf("failed to update resident rate: %w", err)
	}
	if result.RowsAffected() == 0 {
		return resident.ErrResidentNotFound{ResidentID: id}
	}

	return nil
}

// Delete removes the resident; ledger entries and receipts go with it through ON DELETE CASCADE.
func (r *ResidentRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM residents WHERE id = $1`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete resident", "resident_id", id, "error", err)
		return fmt.Errorf("failed to delete resident: %w", err)
	}
	if result.RowsAffected() == 0 {
		return resident.ErrResidentNotFound{ResidentID: id}
	}

	r.logger.Info("Resident deleted", "resident_id", id)
	return nil
}

func scanResident(row pgx.Row) (*resident.Resident, error) {
	var (
		res          resident.Resident
		freq, status string
	)
	if err := row.Scan(
		&res.ID, &res.FullName, &res.Phone, &res.RateAmount, &freq, &res.StartDate, &status, &res.Notes,
	); err != nil {
		return nil, err
	}
	res.RateFrequency = resident.Frequency(freq)
	res.Status = resident.Status(status)
	return &res, nil
}
