package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound indicates a missing or unauthorized resource lookup. Ownership
// mismatches surface as not-found, never as a distinct forbidden condition.
var ErrNotFound = errors.New("record not found")

// ErrConflict indicates a unique-constraint violation, e.g. a duplicate email.
var ErrConflict = errors.New("record conflicts with an existing row")

const uniqueViolation = "23505"

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrConflict
	}
	return err
}
