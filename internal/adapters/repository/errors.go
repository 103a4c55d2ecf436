package repository

import "errors"

// Sentinel kinds for ledger store errors.
var (
	ErrNotFound    = errors.New("ledger not found")
	ErrInvalidUser = errors.New("invalid user id")
	ErrCorrupt     = errors.New("stored ledger is corrupt")
	ErrEncode      = errors.New("encode ledger failed")
)
