package bridge

import "errors"

// Sentinel errors for entry lifecycle operations.
var (
	// ErrAlreadySetup indicates the entry ID is already registered.
	ErrAlreadySetup = errors.New("bridge: entry already set up")

	// ErrUnknownEntry indicates no entry with the given ID is registered.
	ErrUnknownEntry = errors.New("bridge: unknown entry")

	// ErrSetupFailed indicates entry setup could not complete.
	ErrSetupFailed = errors.New("bridge: setup failed")
)
