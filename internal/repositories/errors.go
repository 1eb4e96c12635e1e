package repositories

import (
	"errors"

	"github.com/lib/pq"

	"github.com/biyonik/jobly-api/internal/apperr"
)

// PostgreSQL error codes the repositories translate.
const (
	uniqueViolation           = "23505"
	foreignKeyViolation       = "23503"
	invalidTextRepresentation = "22P02"
	numericValueOutOfRange    = "22003"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == uniqueViolation
}

func isForeignKeyViolation(err error) bool {
	return pqCode(err) == foreignKeyViolation
}

// isBadInput reports errors caused by a bound value the column type cannot
// hold, such as a fraction for an INTEGER or a number past its range.
func isBadInput(err error) bool {
	switch pqCode(err) {
	case invalidTextRepresentation, numericValueOutOfRange:
		return true
	}
	return false
}

// badInput turns a rejected bound value into a 400 carrying the server's
// message.
func badInput(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return apperr.BadRequest("invalid value: %s", pqErr.Message)
	}
	return apperr.BadRequest("invalid value")
}
