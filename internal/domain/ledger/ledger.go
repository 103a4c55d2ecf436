// Package ledger implements the pending-bet state machine over a
// BankrollLedger value.
//
// A ledger is IDLE when it has no pending bet and PENDING while one proposed
// bet awaits its outcome. Every transition takes a ledger value and returns a
// new one; the input is never modified, so a refused or failed transition
// leaves the caller's ledger exactly as it was.
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/okian/bankroll/internal/domain/model"
	"github.com/okian/bankroll/internal/domain/staking"
	"github.com/shopspring/decimal"
)

// State of the pending-bet state machine.
type State string

// States.
const (
	StateIdle    State = "IDLE"
	StatePending State = "PENDING"
)

// New returns an empty ledger holding initial.
func New(initial decimal.Decimal) model.BankrollLedger {
	return model.BankrollLedger{
		ProgressionState: model.InitialState(initial),
		History:          model.BetHistory{},
	}
}

// StateOf reports the state of l.
func StateOf(l model.BankrollLedger) State {
	if l.Pending != nil {
		return StatePending
	}
	return StateIdle
}

// Quote returns the decision Propose would act on, without a transition.
// The stake is already clamped to the bankroll.
func Quote(cfg staking.Config, l model.BankrollLedger, odd float64) staking.Decision {
	if !staking.ValidOdd(odd) {
		return staking.Decision{Stake: decimal.Zero, Label: staking.LabelInvalid, Reason: staking.RefusalInvalidOdd}
	}
	d := staking.NextStake(cfg, l.ProgressionState, odd)
	if d.Reason != staking.RefusalNone {
		return d
	}
	if !l.Bankroll.IsPositive() {
		d.Stake = decimal.Zero
		d.Reason = staking.RefusalNoBankroll
		return d
	}
	d.Stake = staking.Clamp(d.Stake, l.Bankroll)
	return d
}

// Propose creates a pending bet at odd. It is only valid while IDLE. A
// refused decision returns a *RefusalError and no pending bet is created.
func Propose(cfg staking.Config, l model.BankrollLedger, odd float64, now time.Time) (model.BankrollLedger, model.PendingBet, error) {
	if l.Pending != nil {
		return l, model.PendingBet{}, ErrBetPending
	}
	d := Quote(cfg, l, odd)
	if d.Refused() {
		return l, model.PendingBet{}, &RefusalError{Decision: d, Odd: odd}
	}

	bet := model.PendingBet{
		ID:          uuid.NewString(),
		PolicyLabel: d.Label,
		StakeAmount: d.Stake,
		Odd:         odd,
		ProposedAt:  now.UTC(),
	}
	next := l.Clone()
	next.Pending = &bet
	return next, bet, nil
}

// Resolve settles the pending bet. It is only valid while PENDING.
func Resolve(l model.BankrollLedger, win bool, now time.Time) (model.BankrollLedger, model.ResolvedBet, error) {
	if l.Pending == nil {
		return l, model.ResolvedBet{}, ErrNoPendingBet
	}
	bet := *l.Pending
	outcome := model.OutcomeOf(win)

	state, pnl := staking.Settle(l.ProgressionState, bet.StakeAmount, bet.Odd, outcome)
	resolved := model.ResolvedBet{
		PendingBet:    bet,
		Outcome:       outcome,
		ProfitOrLoss:  pnl,
		BankrollAfter: state.Bankroll,
		ResolvedAt:    now.UTC(),
	}

	next := l.Clone()
	next.ProgressionState = state
	next.History = append(next.History, resolved)
	next.Pending = nil
	return next, resolved, nil
}

// Reset discards history, progression and any pending bet. The caller must
// confirm explicitly.
func Reset(initial decimal.Decimal, confirm bool) (model.BankrollLedger, error) {
	if !confirm {
		return model.BankrollLedger{}, ErrConfirmationRequired
	}
	return New(initial), nil
}

// SetBankroll is a manual bankroll edit. It is only valid while IDLE.
func SetBankroll(l model.BankrollLedger, amount decimal.Decimal) (model.BankrollLedger, error) {
	if l.Pending != nil {
		return l, ErrBetPending
	}
	if amount.IsNegative() {
		return l, ErrInvalidAmount
	}
	next := l.Clone()
	next.Bankroll = amount
	return next, nil
}
