package coordinator

import "errors"

// Coordinator error types.
var (
	// ErrNotReady indicates no refresh has completed yet.
	ErrNotReady = errors.New("coordinator: no data yet")

	// ErrNoValue indicates the slug has no validated value available.
	ErrNoValue = errors.New("coordinator: no value for parameter")

	// ErrWriteVerify indicates a write could not be confirmed by read-back.
	ErrWriteVerify = errors.New("coordinator: write verification failed")
)
