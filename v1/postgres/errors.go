package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Common database error types that can be used by consumers of this package.
// These provide a standardized set of errors that abstract away the
// underlying database-specific error details.
var (
	// ErrRecordNotFound is returned when a query doesn't find any matching records
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when an insert or update violates a unique constraint
	ErrDuplicateKey = errors.New("duplicate key violation")

	// ErrInvalidData is returned when the data being saved doesn't meet validation rules
	ErrInvalidData = errors.New("invalid data")

	// ErrExtensionUnavailable is returned when the pgvector extension is not
	// installed on the server or may not be created by the current role.
	ErrExtensionUnavailable = errors.New("pgvector extension unavailable")

	// ErrNotConnected is returned after Close.
	ErrNotConnected = errors.New("not connected")

	// ErrDimensionMismatch is returned when a vector does not fit the
	// dimension of the embedding column.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// PostgreSQL error codes this package distinguishes.
const (
	codeUniqueViolation = "23505"
	codeInvalidText     = "22P02"
	codeDataException   = "22000"
)

// TranslateError converts GORM and PostgreSQL errors into the errors above.
// The original error stays in the chain so callers can still inspect the
// *pgconn.PgError. Unknown errors are returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.Join(ErrRecordNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Join(ErrDuplicateKey, err)
	case errors.Is(err, gorm.ErrInvalidData):
		return errors.Join(ErrInvalidData, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		return errors.Join(ErrDuplicateKey, err)
	case codeDataException:
		// pgvector reports "expected N dimensions, not M" as a data exception
		return errors.Join(ErrDimensionMismatch, err)
	case codeInvalidText:
		return errors.Join(ErrInvalidData, err)
	}
	return err
}
