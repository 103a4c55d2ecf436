package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency amounts travel as JSON numbers so exported ledgers read naturally
// and round-trip exactly.
func init() { //nolint:gochecknoinits // decimal encoding is process-wide
	decimal.MarshalJSONWithoutQuotes = true
}

// ProgressionState is the mutable state threaded through a simulation.
// SorosCarryAmount is positive only while SorosActive is set.
type ProgressionState struct {
	Bankroll         decimal.Decimal `json:"bankroll"`
	SorosActive      bool            `json:"sorosActive"`
	SorosCarryAmount decimal.Decimal `json:"sorosCarryAmount"`
}

// InitialState returns a fresh progression state with the given bankroll.
func InitialState(bankroll decimal.Decimal) ProgressionState {
	return ProgressionState{Bankroll: bankroll, SorosCarryAmount: decimal.Zero}
}

// PendingBet is a recommended stake the user accepted and has not settled yet.
type PendingBet struct {
	ID          string          `json:"id" validate:"required"`
	PolicyLabel string          `json:"policyLabel" validate:"required"`
	StakeAmount decimal.Decimal `json:"stakeAmount"`
	Odd         float64         `json:"odd" validate:"gt=1"`
	ProposedAt  time.Time       `json:"proposedAt"`
}

// ResolvedBet is a settled PendingBet. Entries never change once appended.
type ResolvedBet struct {
	PendingBet
	Outcome       Outcome         `json:"outcome"`
	ProfitOrLoss  decimal.Decimal `json:"profitOrLoss"`
	BankrollAfter decimal.Decimal `json:"bankrollAfter"`
	ResolvedAt    time.Time       `json:"resolvedAt"`
}

// BetHistory is ordered oldest-first.
type BetHistory []ResolvedBet

// BankrollLedger is one user's progression state plus history.
// Pending is session state only; it is never persisted or exported.
type BankrollLedger struct {
	ProgressionState
	History BetHistory  `json:"history"`
	Pending *PendingBet `json:"-"`
}

// Clone returns a copy that shares no mutable memory with l.
func (l BankrollLedger) Clone() BankrollLedger {
	out := l
	out.History = make(BetHistory, len(l.History))
	copy(out.History, l.History)
	if l.Pending != nil {
		p := *l.Pending
		out.Pending = &p
	}
	return out
}
