package storage

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned when a user with the same email
	// already exists.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrDuplicateBook is returned when a book with the same title,
	// author and year already exists.
	ErrDuplicateBook = errors.New("book already exists")
)

// isUniqueViolation reports whether err is a unique-constraint violation
// from either PostgreSQL or SQLite.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
