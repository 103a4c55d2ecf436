// Package repository persists bankroll ledgers keyed by user identity.
//
// Stores keep the same JSON document the ledger export produces, so a stored
// record and a downloaded export are interchangeable.
package repository

import (
	"context"
	"fmt"

	"github.com/okian/bankroll/internal/domain/ledger"
	"github.com/okian/bankroll/internal/domain/model"
)

// LedgerStore provides read/write access to persisted ledgers.
type LedgerStore interface {
	// Load returns the user's ledger, or ErrNotFound when none was saved yet.
	// Any other error means the store could not answer.
	Load(ctx context.Context, userID string) (model.BankrollLedger, error)

	// Save replaces the user's ledger. The pending bet is never stored.
	Save(ctx context.Context, userID string, l model.BankrollLedger) error

	// Delete removes the user's ledger. Deleting a missing ledger is not an error.
	Delete(ctx context.Context, userID string) error
}

func encode(l model.BankrollLedger) ([]byte, error) {
	data, err := ledger.Export(l)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return data, nil
}

func decode(userID string, data []byte) (model.BankrollLedger, error) {
	l, err := ledger.Import(data)
	if err != nil {
		return model.BankrollLedger{}, fmt.Errorf("%w: user %s: %w", ErrCorrupt, userID, err)
	}
	return l, nil
}
