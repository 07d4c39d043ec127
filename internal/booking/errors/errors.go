package errors

import "errors"

var (
	ErrAttemptCancelled = errors.New("booking attempt cancelled")

	ErrNoWinner = errors.New("no booking attempt succeeded")

	ErrHoldNotFound = errors.New("offer is not held by requester")

	ErrInvalidHold = errors.New("requester id and offer url are required")
)
