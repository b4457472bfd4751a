package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNoActiveHunt       = errors.New("no active hunt")
	ErrHuntNotFound       = errors.New("hunt not found")
	ErrActivationConflict = errors.New("another hunt was activated at the same time, reload and retry")
	ErrGuessesClosed      = errors.New("guesses are closed for this hunt")
	ErrGuessConflict      = errors.New("you have already submitted a guess for this hunt")
	ErrNoGuesses          = errors.New("no guesses submitted yet")
	ErrNoEndingBalance    = errors.New("ending balance has not been recorded yet")
	ErrForbidden          = errors.New("admin privileges required")
	ErrNoSession          = errors.New("no active session")
	ErrArchiveDisabled    = errors.New("archive storage is not configured")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError wraps an unexpected failure from the backing store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// isUniqueViolation matches both GORM's translated error and a raw Postgres 23505.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// isForeignKeyViolation reports a write that referenced a missing row.
func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}
