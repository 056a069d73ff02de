package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicateKey is returned when an insert violates a unique constraint.
var ErrDuplicateKey = errors.New("duplicate key")

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
