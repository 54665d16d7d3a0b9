package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// Sentinel errors checked with errors.Is at the handler boundary.
var (
	// ErrNotFound is returned when a targeted row does not exist. Applies
	// uniformly to playlist deletion and song removal: a miss is signaled,
	// not silently swallowed.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateUsername / ErrDuplicateEmail translate the users table's
	// unique constraints at registration time.
	ErrDuplicateUsername = errors.New("username already taken")
	ErrDuplicateEmail    = errors.New("email already taken")
)

// isUniqueViolation reports whether err is a unique-constraint violation
// from either supported driver. The constraint is the source of truth for
// dedup decisions; callers attempt the insert and resolve conflicts by
// re-reading, rather than pre-checking.
func isUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		// The extended code narrows ErrConstraint to the unique class;
		// FK and NOT NULL violations must not look like duplicates.
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
