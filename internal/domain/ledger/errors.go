package ledger

import (
	"errors"
	"fmt"

	"github.com/okian/bankroll/internal/domain/staking"
)

// Sentinel kinds for ledger errors. ErrBetPending and ErrNoPendingBet mean the
// caller drove the state machine out of order.
var (
	ErrBetPending           = errors.New("a bet is already pending")
	ErrNoPendingBet         = errors.New("no pending bet to resolve")
	ErrRefused              = errors.New("bet refused")
	ErrConfirmationRequired = errors.New("reset requires explicit confirmation")
	ErrInvalidAmount        = errors.New("amount must not be negative")
	ErrInvalidSnapshot      = errors.New("invalid ledger snapshot")
)

// RefusalError reports a policy refusal for a proposed odd.
type RefusalError struct {
	Decision staking.Decision
	Odd      float64
}

func (e *RefusalError) Error() string {
	return fmt.Sprintf("bet refused at odd %v: %s", e.Odd, e.Decision.Label)
}

func (e *RefusalError) Unwrap() error { return ErrRefused }

// ImportError describes why a snapshot was rejected.
type ImportError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ImportError) Error() string {
	msg := ErrInvalidSnapshot.Error()
	if e.Field != "" {
		msg += ": " + e.Field
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ImportError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidSnapshot, e.Err}
	}
	return []error{ErrInvalidSnapshot}
}
