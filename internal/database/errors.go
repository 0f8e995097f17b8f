package database

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	ErrBookingNotFound  = fmt.Errorf("booking %w", ErrNotFound)
	ErrLapanganNotFound = fmt.Errorf("lapangan %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrReviewNotFound   = fmt.Errorf("review %w", ErrNotFound)

	ErrNotAvailable           = fmt.Errorf("%w: lapangan not available at this time", ErrConflict)
	ErrEmailExists            = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrReviewExists           = fmt.Errorf("%w: booking already reviewed", ErrConflict)
	ErrConcurrentModification = fmt.Errorf("%w: booking was modified concurrently", ErrConflict)

	ErrLapanganInactive = errors.New("lapangan is not active")
)

const mysqlDuplicateEntry = 1062

// isUniqueViolation reports whether err is a UNIQUE/PRIMARY KEY violation from either driver.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	return false
}
