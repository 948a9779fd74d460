// Package postgres provides PostgreSQL implementations of the domain repositories.
// Constraint violations reported by the server are translated into domain errors here.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/residential-billing-ledger/internal/domain/shared"
)

// SQLSTATE codes the repositories translate.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
)

const autoRentUniqueIndex = "ux_ledger_auto_rent_per_day"

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func isUniqueViolation(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == codeUniqueViolation
}

// uniqueViolationOn reports a unique violation raised by the named constraint or index.
func uniqueViolationOn(err error, constraint string) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == codeUniqueViolation && pgErr.ConstraintName == constraint
}

func isForeignKeyViolation(err error) bool {
	pgErr, ok := pgError(err)
	return ok && pgErr.Code == codeForeignKeyViolation
}

// checkViolation turns a CHECK constraint failure into a validation error naming the constraint.
func checkViolation(err error) error {
	pgErr, ok := pgError(err)
	if !ok || pgErr.Code != codeCheckViolation {
		return nil
	}
	return shared.NewValidationError(pgErr.ConstraintName, "violates check constraint")
}
