package library

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// Circulation failures. Callers classify with errors.Is; every error returned
// by this package that stems from a business rule wraps exactly one of these.
var (
	// ErrLimitExceeded is returned when a member already holds the maximum
	// number of active borrowings.
	ErrLimitExceeded = errors.New("borrowing limit exceeded")

	// ErrBookUnavailable is returned when a book does not exist or has no
	// copy left to lend.
	ErrBookUnavailable = errors.New("book unavailable")

	// ErrNotFound is returned when a book, member, transaction, notification
	// or fine does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyReturned is returned when returning a transaction that is no
	// longer BORROWED.
	ErrAlreadyReturned = errors.New("already returned")

	// ErrConflict is returned when a write violates a uniqueness or
	// referential constraint (duplicate ISBN or email, deleting a book that
	// has transactions).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput is returned for values rejected before touching storage.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidCredentials is returned when member authentication fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// translateErr maps SQLite constraint failures onto ErrConflict.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
	}
	return err
}
