package loadtest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/bankroll/internal/adapters/http/api"
	service "github.com/okian/bankroll/internal/app"
	"github.com/okian/bankroll/pkg/logger"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newServer() *httptest.Server {
	svc := service.New()
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		srv := newServer()
		defer srv.Close()

		Convey("A small concurrent run verifies every ledger", func() {
			cfg := &Config{
				BaseURL: srv.URL,
				Users:   8,
				Rounds:  15,
				Workers: 4,
				Timeout: 5 * time.Second,
				Seed:    7,
			}
			stats, err := Run(context.Background(), cfg)
			So(err, ShouldBeNil)
			So(stats.Failed, ShouldEqual, 0)
			So(stats.Verified, ShouldEqual, 8)
			So(stats.Proposed+stats.Refused, ShouldEqual, 8*15)
			So(stats.Wins+stats.Losses, ShouldEqual, stats.Proposed)
			So(stats.Refused, ShouldBeGreaterThan, 0)
		})

		Convey("The same seed replays the same run", func() {
			run := func(prefix string) *Stats {
				stats, err := Run(context.Background(), &Config{BaseURL: srv.URL, Users: 3, Rounds: 10, Workers: 2, Seed: 3, Prefix: prefix})
				So(err, ShouldBeNil)
				return stats
			}
			a, b := run("a"), run("b")
			So(a.Proposed, ShouldEqual, b.Proposed)
			So(a.Wins, ShouldEqual, b.Wins)
		})
	})

	Convey("Given no service", t, func() {
		srv := newServer()
		url := srv.URL
		srv.Close()

		Convey("The health check fails the run", func() {
			_, err := Run(context.Background(), &Config{BaseURL: url, Users: 1, Rounds: 1, Timeout: time.Second})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestVerifyLedger(t *testing.T) {
	dec := decimal.RequireFromString

	Convey("Given a report of one win and one loss", t, func() {
		r := userReport{user: "u", initial: dec("100"), wins: 1, losses: 1}
		doc := ledgerDoc{
			Bankroll: dec("96.2"),
			History: []betDoc{
				{StakeAmount: dec("5"), Odd: 1.24, Outcome: "WIN", ProfitOrLoss: dec("1.2"), BankrollAfter: dec("101.2")},
				{StakeAmount: dec("5"), Odd: 1.3, Outcome: "LOSS", ProfitOrLoss: dec("-5"), BankrollAfter: dec("96.2")},
			},
		}

		Convey("A consistent ledger passes", func() {
			So(verifyLedger(r, doc), ShouldBeNil)
		})

		Convey("A broken chain is reported", func() {
			doc.History[1].BankrollAfter = dec("96")
			So(errors.Is(verifyLedger(r, doc), ErrLedgerMismatch), ShouldBeTrue)
		})

		Convey("A wrong payout is reported", func() {
			doc.History[0].ProfitOrLoss = dec("1.3")
			So(errors.Is(verifyLedger(r, doc), ErrLedgerMismatch), ShouldBeTrue)
		})

		Convey("A missing entry is reported", func() {
			doc.History = doc.History[:1]
			So(errors.Is(verifyLedger(r, doc), ErrLedgerMismatch), ShouldBeTrue)
		})

		Convey("A final bankroll off the chain is reported", func() {
			doc.Bankroll = dec("100")
			So(errors.Is(verifyLedger(r, doc), ErrLedgerMismatch), ShouldBeTrue)
		})
	})
}
