package econet

import "errors"

// Domain-specific errors for ecoNET operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNoFrame is returned by Scanner.Next when no complete frame is buffered.
	ErrNoFrame = errors.New("econet: no complete frame in buffer")

	// ErrInvalidFrame is returned when a frame fails structural validation.
	ErrInvalidFrame = errors.New("econet: invalid frame")

	// ErrUnknownParam is returned when a slug is not present in the register map.
	ErrUnknownParam = errors.New("econet: unknown parameter")

	// ErrUnsupportedType is returned when a param's type cannot be
	// encoded or decoded (STRING registers are not pollable).
	ErrUnsupportedType = errors.New("econet: unsupported parameter type")

	// ErrShortValue is returned when a response carries fewer value bytes
	// than the parameter type requires.
	ErrShortValue = errors.New("econet: value too short for parameter type")

	// ErrExchangeFailed is returned when a request/response transaction
	// fails after all retries.
	ErrExchangeFailed = errors.New("econet: exchange failed")

	// ErrWriteRejected is returned when the controller does not acknowledge
	// a write after all retries.
	ErrWriteRejected = errors.New("econet: write rejected")
)
