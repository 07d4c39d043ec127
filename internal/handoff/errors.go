package handoff

import "errors"

var (
	ErrQueueClosed = errors.New("queue is closed")

	ErrPoolRunning = errors.New("worker pool is already running")

	ErrPoolStopped = errors.New("worker pool has been stopped")

	ErrInvalidPoolSize = errors.New("worker pool size must be positive")
)
