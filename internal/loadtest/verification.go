package loadtest

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrLedgerMismatch reports a ledger that does not match what was played.
var ErrLedgerMismatch = errors.New("ledger mismatch")

// verifyUsers exports every successfully driven ledger and checks it.
func verifyUsers(ctx context.Context, client *HTTPClient, reports []userReport) (verified int, err error) {
	var errs []error
	for _, r := range reports {
		if r.err != nil {
			continue
		}
		doc, xerr := client.export(ctx, r.user)
		if xerr != nil {
			errs = append(errs, xerr)
			continue
		}
		if verr := verifyLedger(r, doc); verr != nil {
			errs = append(errs, verr)
			continue
		}
		verified++
	}
	return verified, errors.Join(errs...)
}

// verifyLedger checks that doc holds exactly the bets r resolved and that
// every entry conserves the bankroll.
func verifyLedger(r userReport, doc ledgerDoc) error {
	if got, want := len(doc.History), r.wins+r.losses; got != want {
		return fmt.Errorf("%w: %s: %d history entries, %d bets resolved", ErrLedgerMismatch, r.user, got, want)
	}

	prev := r.initial
	wins := 0
	for i, b := range doc.History {
		if !b.StakeAmount.IsPositive() || b.StakeAmount.GreaterThan(prev) {
			return fmt.Errorf("%w: %s: entry %d stakes %s of %s", ErrLedgerMismatch, r.user, i, b.StakeAmount, prev)
		}

		want := b.StakeAmount.Neg()
		if b.Outcome == "WIN" {
			wins++
			want = b.StakeAmount.Mul(decimal.NewFromFloat(b.Odd).Sub(decimal.NewFromInt(1)))
		}
		if !b.ProfitOrLoss.Equal(want) {
			return fmt.Errorf("%w: %s: entry %d pays %s, expected %s", ErrLedgerMismatch, r.user, i, b.ProfitOrLoss, want)
		}
		if !b.BankrollAfter.Equal(prev.Add(b.ProfitOrLoss)) {
			return fmt.Errorf("%w: %s: entry %d breaks bankroll conservation", ErrLedgerMismatch, r.user, i)
		}
		prev = b.BankrollAfter
	}

	if wins != r.wins {
		return fmt.Errorf("%w: %s: %d wins recorded, %d played", ErrLedgerMismatch, r.user, wins, r.wins)
	}
	if !doc.Bankroll.Equal(prev) {
		return fmt.Errorf("%w: %s: bankroll %s, history ends at %s", ErrLedgerMismatch, r.user, doc.Bankroll, prev)
	}
	return nil
}
