package errors

import "errors"

var (
	ErrSourceUnavailable = errors.New("source unavailable")

	ErrUnknownSource = errors.New("unknown source")
)
