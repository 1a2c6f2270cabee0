package queue

import "errors"

var (
	// ErrQueueEmpty is returned by Dequeue when no job is visible.
	ErrQueueEmpty = errors.New("queue is empty")

	// ErrConnectionRequired is returned when a queue is built without a connection.
	ErrConnectionRequired = errors.New("queue connection required")

	// ErrHandlerRequired is returned when a worker is built without a handler.
	ErrHandlerRequired = errors.New("job handler required")

	// ErrCorruptEnvelope is returned when a stored envelope cannot be
	// decoded, typically a truncated payload length.
	ErrCorruptEnvelope = errors.New("corrupt envelope")

	// ErrConnectExhausted wraps the last connection error after the bounded
	// retry gives up. The process is degraded; no automatic reconnection
	// follows.
	ErrConnectExhausted = errors.New("queue connection retries exhausted")
)
