package model_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/bankroll/internal/domain/model"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func TestOutcome(t *testing.T) {
	Convey("Outcomes travel as WIN and LOSS", t, func() {
		data, err := json.Marshal([]model.Outcome{model.OutcomeWin, model.OutcomeLoss})
		So(err, ShouldBeNil)
		So(string(data), ShouldEqual, `["WIN","LOSS"]`)

		var o model.Outcome
		So(json.Unmarshal([]byte(`"WIN"`), &o), ShouldBeNil)
		So(o.IsWin(), ShouldBeTrue)
		So(json.Unmarshal([]byte(`"DRAW"`), &o), ShouldNotBeNil)
		So(json.Unmarshal([]byte(`1`), &o), ShouldNotBeNil)
	})

	Convey("OutcomeOf maps the win flag", t, func() {
		So(model.OutcomeOf(true), ShouldEqual, model.OutcomeWin)
		So(model.OutcomeOf(false).String(), ShouldEqual, "LOSS")
	})
}

func TestLedgerClone(t *testing.T) {
	Convey("Given a ledger with history and a pending bet", t, func() {
		l := model.BankrollLedger{
			ProgressionState: model.InitialState(decimal.NewFromInt(100)),
			History:          model.BetHistory{{Outcome: model.OutcomeWin}},
			Pending:          &model.PendingBet{ID: "p"},
		}

		Convey("A clone shares no mutable memory", func() {
			c := l.Clone()
			c.History[0].Outcome = model.OutcomeLoss
			c.Pending.ID = "q"
			So(l.History[0].Outcome, ShouldEqual, model.OutcomeWin)
			So(l.Pending.ID, ShouldEqual, "p")
		})

		Convey("Amounts encode as JSON numbers and the pending bet is omitted", func() {
			data, err := json.Marshal(l)
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"bankroll":100`)
			So(string(data), ShouldNotContainSubstring, `"p"`)
		})
	})
}
