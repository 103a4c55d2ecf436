// Package replay folds the staking policy over an ordered sequence of outcome
// records to produce a bankroll curve and summary statistics.
package replay

import (
	"github.com/okian/bankroll/internal/domain/model"
	"github.com/okian/bankroll/internal/domain/staking"
	"github.com/shopspring/decimal"
)

// Default replay parameters.
const (
	DefaultOdd             = 1.28
	defaultInitialBankroll = 100
)

// Annotation carries the per-step detail shown next to a chart point.
type Annotation struct {
	Stake        decimal.Decimal     `json:"stake"`
	ProfitOrLoss decimal.Decimal     `json:"profitOrLoss"`
	Label        string              `json:"label"`
	Record       model.OutcomeRecord `json:"record"`
}

// BankrollPoint is the bankroll immediately after one replayed step.
type BankrollPoint struct {
	Index         int             `json:"index"` // 1-based step number
	BankrollAfter decimal.Decimal `json:"bankrollAfter"`
	Outcome       model.Outcome   `json:"outcome"`
	Annotation    Annotation      `json:"annotation"`
}

// Result is a full replay.
type Result struct {
	Series []BankrollPoint `json:"series"`
	Stats  SummaryStats    `json:"stats"`
}

// Option applies a configuration option to a replay.
type Option func(*options)

type options struct {
	odd     float64
	initial decimal.Decimal
}

// WithOdd sets the odd used for every step. Historical feeds carry no
// per-match odds, so a configured average stands in.
func WithOdd(odd float64) Option {
	return func(o *options) {
		if staking.ValidOdd(odd) {
			o.odd = odd
		}
	}
}

// WithInitialBankroll sets the starting bankroll.
func WithInitialBankroll(b decimal.Decimal) Option {
	return func(o *options) {
		if b.IsPositive() {
			o.initial = b
		}
	}
}

// Run replays records in order under cfg. Every call starts from the initial
// bankroll; callers filter records before replaying, never mid-series.
func Run(cfg staking.Config, records []model.OutcomeRecord, opts ...Option) Result {
	o := options{odd: DefaultOdd, initial: decimal.NewFromInt(defaultInitialBankroll)}
	for _, opt := range opts {
		opt(&o)
	}

	state := model.InitialState(o.initial)
	series := make([]BankrollPoint, 0, len(records))

	for i, rec := range records {
		d := staking.NextStake(cfg, state, o.odd)
		stake := staking.Clamp(d.Stake, state.Bankroll)

		var pnl decimal.Decimal
		state, pnl = staking.Settle(state, stake, o.odd, rec.Outcome)

		series = append(series, BankrollPoint{
			Index:         i + 1,
			BankrollAfter: state.Bankroll,
			Outcome:       rec.Outcome,
			Annotation: Annotation{
				Stake:        stake,
				ProfitOrLoss: pnl,
				Label:        d.Label,
				Record:       rec,
			},
		})
	}

	return Result{Series: series, Stats: Summarize(records, o.initial, series)}
}
