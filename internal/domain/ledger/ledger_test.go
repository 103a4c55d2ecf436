package ledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/bankroll/internal/domain/ledger"
	"github.com/okian/bankroll/internal/domain/model"
	"github.com/okian/bankroll/internal/domain/staking"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestTransitions(t *testing.T) {
	Convey("Given a new ledger with 100", t, func() {
		cfg := staking.DefaultConfig()
		l := ledger.New(dec("100"))
		So(ledger.StateOf(l), ShouldEqual, ledger.StateIdle)

		Convey("Quote previews without a transition", func() {
			d := ledger.Quote(cfg, l, 1.24)
			So(d.Stake.Equal(dec("5")), ShouldBeTrue)
			So(ledger.StateOf(l), ShouldEqual, ledger.StateIdle)
		})

		Convey("Propose moves it to pending", func() {
			next, bet, err := ledger.Propose(cfg, l, 1.24, now)
			So(err, ShouldBeNil)
			So(ledger.StateOf(next), ShouldEqual, ledger.StatePending)
			So(ledger.StateOf(l), ShouldEqual, ledger.StateIdle)
			So(bet.ID, ShouldNotBeEmpty)
			So(bet.StakeAmount.Equal(dec("5")), ShouldBeTrue)
			So(bet.PolicyLabel, ShouldEqual, staking.LabelFixed)
			So(bet.ProposedAt, ShouldEqual, now)

			Convey("A second proposal is a state violation", func() {
				same, _, err := ledger.Propose(cfg, next, 1.24, now)
				So(errors.Is(err, ledger.ErrBetPending), ShouldBeTrue)
				So(same.Pending.ID, ShouldEqual, bet.ID)
			})

			Convey("The bankroll cannot be edited while pending", func() {
				_, err := ledger.SetBankroll(next, dec("50"))
				So(errors.Is(err, ledger.ErrBetPending), ShouldBeTrue)
			})

			Convey("Resolving a win settles it and opens Soros", func() {
				after, resolved, err := ledger.Resolve(next, true, now.Add(time.Hour))
				So(err, ShouldBeNil)
				So(ledger.StateOf(after), ShouldEqual, ledger.StateIdle)
				So(resolved.Outcome, ShouldEqual, model.OutcomeWin)
				So(resolved.ProfitOrLoss.Equal(dec("1.2")), ShouldBeTrue)
				So(resolved.BankrollAfter.Equal(dec("101.2")), ShouldBeTrue)
				So(after.Bankroll.Equal(dec("101.2")), ShouldBeTrue)
				So(after.SorosActive, ShouldBeTrue)
				So(after.SorosCarryAmount.Equal(dec("6.2")), ShouldBeTrue)
				So(after.History, ShouldHaveLength, 1)
				So(next.History, ShouldBeEmpty)

				Convey("And the next proposal stakes the carry", func() {
					_, bet, err := ledger.Propose(cfg, after, 1.50, now)
					So(err, ShouldBeNil)
					So(bet.StakeAmount.Equal(dec("6.2")), ShouldBeTrue)
					So(bet.PolicyLabel, ShouldEqual, staking.LabelSoros)
				})
			})

			Convey("Resolving a loss removes the stake", func() {
				after, resolved, err := ledger.Resolve(next, false, now)
				So(err, ShouldBeNil)
				So(resolved.ProfitOrLoss.Equal(dec("-5")), ShouldBeTrue)
				So(after.Bankroll.Equal(dec("95")), ShouldBeTrue)
				So(after.SorosActive, ShouldBeFalse)
			})
		})

		Convey("Resolve without a pending bet is a state violation", func() {
			_, _, err := ledger.Resolve(l, true, now)
			So(errors.Is(err, ledger.ErrNoPendingBet), ShouldBeTrue)
		})

		Convey("A negative-EV proposal is refused and nothing changes", func() {
			same, _, err := ledger.Propose(cfg, l, 1.20, now)
			var refusal *ledger.RefusalError
			So(errors.As(err, &refusal), ShouldBeTrue)
			So(errors.Is(err, ledger.ErrRefused), ShouldBeTrue)
			So(refusal.Decision.Reason, ShouldEqual, staking.RefusalNegativeEV)
			So(refusal.Odd, ShouldEqual, 1.20)
			So(ledger.StateOf(same), ShouldEqual, ledger.StateIdle)
		})

		Convey("An empty bankroll cannot stake", func() {
			empty, err := ledger.SetBankroll(l, decimal.Zero)
			So(err, ShouldBeNil)
			d := ledger.Quote(cfg, empty, 1.24)
			So(d.Reason, ShouldEqual, staking.RefusalNoBankroll)
			_, _, err = ledger.Propose(cfg, empty, 1.24, now)
			So(errors.Is(err, ledger.ErrRefused), ShouldBeTrue)
		})

		Convey("A stake above the bankroll is clamped", func() {
			l.SorosActive = true
			l.SorosCarryAmount = dec("40")
			l.Bankroll = dec("30")
			d := ledger.Quote(cfg, l, 1.3)
			So(d.Stake.Equal(dec("30")), ShouldBeTrue)
		})

		Convey("Invalid odds are refused even during Soros", func() {
			l.SorosActive = true
			l.SorosCarryAmount = dec("6")
			d := ledger.Quote(cfg, l, 1)
			So(d.Reason, ShouldEqual, staking.RefusalInvalidOdd)
		})

		Convey("SetBankroll rejects negative amounts", func() {
			_, err := ledger.SetBankroll(l, dec("-1"))
			So(errors.Is(err, ledger.ErrInvalidAmount), ShouldBeTrue)
		})
	})
}

func TestReset(t *testing.T) {
	Convey("Reset needs confirmation", t, func() {
		_, err := ledger.Reset(dec("100"), false)
		So(errors.Is(err, ledger.ErrConfirmationRequired), ShouldBeTrue)

		l, err := ledger.Reset(dec("100"), true)
		So(err, ShouldBeNil)
		So(l.Bankroll.Equal(dec("100")), ShouldBeTrue)
		So(l.History, ShouldBeEmpty)
		So(l.Pending, ShouldBeNil)
	})
}

func TestSnapshot(t *testing.T) {
	Convey("Given a ledger with history and a pending bet", t, func() {
		cfg := staking.DefaultConfig()
		l := ledger.New(dec("100"))
		l, _, _ = ledger.Propose(cfg, l, 1.24, now)
		l, _, _ = ledger.Resolve(l, true, now)
		l, _, _ = ledger.Propose(cfg, l, 1.24, now)

		data, err := ledger.Export(l)
		So(err, ShouldBeNil)

		Convey("Export drops the pending bet", func() {
			So(string(data), ShouldNotContainSubstring, "pending")
			So(string(data), ShouldContainSubstring, `"bankroll": 101.2`)
		})

		Convey("Import restores the committed state", func() {
			got, err := ledger.Import(data)
			So(err, ShouldBeNil)
			So(got.Pending, ShouldBeNil)
			So(got.Bankroll.Equal(dec("101.2")), ShouldBeTrue)
			So(got.SorosActive, ShouldBeTrue)
			So(got.SorosCarryAmount.Equal(dec("6.2")), ShouldBeTrue)
			So(got.History, ShouldHaveLength, 1)
			So(got.History[0].ID, ShouldEqual, l.History[0].ID)

			Convey("And importing twice gives the same document", func() {
				again, err := ledger.Export(got)
				So(err, ShouldBeNil)
				So(string(again), ShouldEqual, string(data))
			})
		})
	})

	Convey("Given a hand-written document with consistent entries", t, func() {
		doc := `{"bankroll": 10.3, "history": [
			{"id": "a", "policyLabel": "fixed stake", "stakeAmount": 1, "odd": 1.3,
				"outcome": "WIN", "profitOrLoss": 0.3, "bankrollAfter": 10.3},
			{"id": "b", "policyLabel": "fixed stake", "stakeAmount": 2, "odd": 1.5,
				"outcome": "LOSS", "profitOrLoss": -2, "bankrollAfter": 8.3}
		]}
`

		Convey("It imports with every entry intact", func() {
			got, err := ledger.Import([]byte(doc))
			So(err, ShouldBeNil)
			So(got.History, ShouldHaveLength, 2)
			So(got.History[0].Outcome, ShouldEqual, model.OutcomeWin)
			So(got.History[0].ProfitOrLoss.Equal(dec("0.3")), ShouldBeTrue)
			So(got.History[1].Outcome, ShouldEqual, model.OutcomeLoss)
			So(got.History[1].BankrollAfter.Equal(dec("8.3")), ShouldBeTrue)
		})
	})

	Convey("Given malformed or inconsistent documents", t, func() {
		docs := []string{
			`{"bankroll":`,
			`{"history": []}`,
			`{"bankroll": 10}`,
			`{"bankroll": -1, "history": []}`,
			`{"bankroll": 10, "sorosActive": false, "sorosCarryAmount": 2, "history": []}`,
			`{"bankroll": 10, "sorosActive": true, "sorosCarryAmount": -2, "history": []}`,
			`{"bankroll": 10, "history": [{"id": "a", "policyLabel": "fixed stake", "stakeAmount": 0, "odd": 1.3,
				"outcome": "WIN", "profitOrLoss": 0, "bankrollAfter": 10}]}`,
			`{"bankroll": 10, "history": [{"id": "a", "policyLabel": "fixed stake", "stakeAmount": 1, "odd": 1,
				"outcome": "LOSS", "profitOrLoss": -1, "bankrollAfter": 9}]}`,
			`{"bankroll": 10, "history": [{"id": "a", "policyLabel": "fixed stake", "stakeAmount": 1, "odd": 1.3,
				"outcome": "DRAW", "profitOrLoss": 0, "bankrollAfter": 10}]}`,
			`{"bankroll": 10, "history": [{"id": "a", "policyLabel": "fixed stake", "stakeAmount": 1, "odd": 1.3}]}`,
			`{"bankroll": 10, "history": [{"id": "a", "policyLabel": "fixed stake", "stakeAmount": 1, "odd": 1.3,
				"profitOrLoss": -1, "bankrollAfter": 9}]}`,
			`{"bankroll": 10, "history": [{"id": "a", "policyLabel": "fixed stake", "stakeAmount": 1, "odd": 1.3,
				"outcome": "LOSS", "bankrollAfter": 9}]}`,
			`{"bankroll": 10, "history": [{"id": "a", "policyLabel": "fixed stake", "stakeAmount": 1, "odd": 1.3,
				"outcome": "LOSS", "profitOrLoss": -1}]}`,
			`{"bankroll": 10, "history": [{"id": "a", "policyLabel": "fixed stake", "odd": 1.3,
				"outcome": "LOSS", "profitOrLoss": -1, "bankrollAfter": 9}]}`,
			`{"bankroll": 10, "history": [{"id": "a", "policyLabel": "fixed stake", "stakeAmount": 1, "odd": 1.3,
				"outcome": "LOSS", "profitOrLoss": 0, "bankrollAfter": 10}]}`,
			`{"bankroll": 10, "history": [{"id": "a", "policyLabel": "fixed stake", "stakeAmount": 1, "odd": 1.3,
				"outcome": "WIN", "profitOrLoss": 5, "bankrollAfter": 15}]}`,
			`{"bankroll": 10, "history": []} trailing garbage`,
			`{"bankroll": 10, "history": []} {"bankroll": 20, "history": []}`,
		}

		Convey("Each is rejected as an invalid snapshot", func() {
			for _, doc := range docs {
				_, err := ledger.Import([]byte(doc))
				var importErr *ledger.ImportError
				So(errors.As(err, &importErr), ShouldBeTrue)
				So(errors.Is(err, ledger.ErrInvalidSnapshot), ShouldBeTrue)
				So(err.Error(), ShouldNotBeEmpty)
			}
		})
	})
}
