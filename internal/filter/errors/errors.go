package errors

import "errors"

var (
	ErrInvalidCriteria = errors.New("invalid filter criteria")
)
