package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/okian/bankroll/internal/domain/model"
	"github.com/okian/bankroll/internal/domain/staking"
	"github.com/shopspring/decimal"
)

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals // validator caches struct metadata

// snapshot is the exported ledger document. Pointer fields let validation
// tell a missing value from a zero one.
type snapshot struct {
	Bankroll         *decimal.Decimal `json:"bankroll" validate:"required"`
	SorosActive      bool             `json:"sorosActive"`
	SorosCarryAmount *decimal.Decimal `json:"sorosCarryAmount"`
	History          []snapshotEntry  `json:"history" validate:"required,dive"`
}

// snapshotEntry is one history item as it appears in a document.
type snapshotEntry struct {
	ID            string           `json:"id" validate:"required"`
	PolicyLabel   string           `json:"policyLabel" validate:"required"`
	StakeAmount   *decimal.Decimal `json:"stakeAmount" validate:"required"`
	Odd           float64          `json:"odd" validate:"gt=1"`
	ProposedAt    time.Time        `json:"proposedAt"`
	Outcome       *model.Outcome   `json:"outcome" validate:"required"`
	ProfitOrLoss  *decimal.Decimal `json:"profitOrLoss" validate:"required"`
	BankrollAfter *decimal.Decimal `json:"bankrollAfter" validate:"required"`
	ResolvedAt    time.Time        `json:"resolvedAt"`
}

func (e snapshotEntry) resolved() model.ResolvedBet {
	return model.ResolvedBet{
		PendingBet: model.PendingBet{
			ID:          e.ID,
			PolicyLabel: e.PolicyLabel,
			StakeAmount: *e.StakeAmount,
			Odd:         e.Odd,
			ProposedAt:  e.ProposedAt,
		},
		Outcome:       *e.Outcome,
		ProfitOrLoss:  *e.ProfitOrLoss,
		BankrollAfter: *e.BankrollAfter,
		ResolvedAt:    e.ResolvedAt,
	}
}

// exported is the document Export writes. Field names match snapshot.
type exported struct {
	Bankroll         decimal.Decimal  `json:"bankroll"`
	SorosActive      bool             `json:"sorosActive"`
	SorosCarryAmount decimal.Decimal  `json:"sorosCarryAmount"`
	History          model.BetHistory `json:"history"`
}

// Export serializes the committed part of l: bankroll, progression and
// history. A pending bet is not exported.
func Export(l model.BankrollLedger) ([]byte, error) {
	history := l.History
	if history == nil {
		history = model.BetHistory{}
	}
	data, err := json.MarshalIndent(exported{
		Bankroll:         l.Bankroll,
		SorosActive:      l.SorosActive,
		SorosCarryAmount: l.SorosCarryAmount,
		History:          history,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export ledger: %w", err)
	}
	return data, nil
}

// Import parses and validates an exported ledger. On any failure it returns
// an *ImportError and nothing is applied. The result never carries a pending
// bet.
func Import(data []byte) (model.BankrollLedger, error) {
	var s snapshot
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&s); err != nil {
		return model.BankrollLedger{}, &ImportError{Reason: "malformed document", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return model.BankrollLedger{}, &ImportError{Reason: "unexpected data after the document"}
	}
	if err := validate.Struct(s); err != nil {
		return model.BankrollLedger{}, validationError(err)
	}
	if err := checkSnapshot(s); err != nil {
		return model.BankrollLedger{}, err
	}

	carry := decimal.Zero
	if s.SorosCarryAmount != nil {
		carry = *s.SorosCarryAmount
	}
	history := make(model.BetHistory, len(s.History))
	for i, e := range s.History {
		history[i] = e.resolved()
	}
	return model.BankrollLedger{
		ProgressionState: model.ProgressionState{
			Bankroll:         *s.Bankroll,
			SorosActive:      s.SorosActive,
			SorosCarryAmount: carry,
		},
		History: history,
	}, nil
}

func checkSnapshot(s snapshot) error {
	if s.Bankroll.IsNegative() {
		return &ImportError{Field: "bankroll", Reason: "must not be negative"}
	}
	if s.SorosCarryAmount != nil {
		if s.SorosCarryAmount.IsNegative() {
			return &ImportError{Field: "sorosCarryAmount", Reason: "must not be negative"}
		}
		if s.SorosCarryAmount.IsPositive() && !s.SorosActive {
			return &ImportError{Field: "sorosCarryAmount", Reason: "carry requires an active Soros progression"}
		}
	}
	for i, h := range s.History {
		if !h.StakeAmount.IsPositive() {
			return &ImportError{Field: fmt.Sprintf("history[%d].stakeAmount", i), Reason: "must be positive"}
		}
		if h.BankrollAfter.IsNegative() {
			return &ImportError{Field: fmt.Sprintf("history[%d].bankrollAfter", i), Reason: "must not be negative"}
		}
		if !h.ProfitOrLoss.Equal(payout(h)) {
			return &ImportError{Field: fmt.Sprintf("history[%d].profitOrLoss", i), Reason: "does not match stake, odd and outcome"}
		}
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ImportError{Field: fe.Namespace(), Reason: "failed " + fe.Tag()}
	}
	return &ImportError{Err: err}
}

// payout is the signed result staking.Settle records for the entry.
func payout(e snapshotEntry) decimal.Decimal {
	if e.Outcome.IsWin() {
		return staking.Profit(*e.StakeAmount, e.Odd)
	}
	return e.StakeAmount.Neg()
}
