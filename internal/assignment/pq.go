// internal/assignment/pq.go
package assignment

import (
	stderrors "errors"

	"github.com/lib/pq"
)

const uniqueViolation = pq.ErrorCode("23505")

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
