package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicate marks a write rejected by a unique constraint. Services map
// it onto the matching business-rule error (duplicate email, open session).
var ErrDuplicate = errors.New("duplicate row")

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
