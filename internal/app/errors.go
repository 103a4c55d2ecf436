package service

import "errors"

// Sentinel kinds for service errors.
var (
	// ErrLedgerUnavailable means the store could not load a ledger. Nothing is
	// cached, so the next call retries the load.
	ErrLedgerUnavailable = errors.New("ledger unavailable")

	// ErrPersistFailed means a committed change could not be saved. The
	// in-memory ledger keeps the change.
	ErrPersistFailed = errors.New("ledger persist failed")

	ErrInvalidUser = errors.New("invalid user id")
	ErrUnknownMode = errors.New("unknown history mode")
)
