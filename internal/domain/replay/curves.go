package replay

import (
	"github.com/okian/bankroll/internal/domain/model"
	"github.com/okian/bankroll/internal/domain/staking"
	"github.com/shopspring/decimal"
)

// DefaultFlatStake is the unit stake of the flat-stake curve.
const DefaultFlatStake = 5

// ScorePoint is one step of the cumulative wins-minus-losses curve.
type ScorePoint struct {
	Index   int           `json:"index"`
	Score   int           `json:"score"`
	Outcome model.Outcome `json:"outcome"`
}

// ScoreCurve counts +1 per win and -1 per loss.
func ScoreCurve(records []model.OutcomeRecord) []ScorePoint {
	out := make([]ScorePoint, 0, len(records))
	score := 0
	for i, r := range records {
		if r.Outcome.IsWin() {
			score++
		} else {
			score--
		}
		out = append(out, ScorePoint{Index: i + 1, Score: score, Outcome: r.Outcome})
	}
	return out
}

// FlatStakeCurve simulates a constant stake at odd on every record, without
// progression or clamping, starting from initial.
func FlatStakeCurve(records []model.OutcomeRecord, initial, stake decimal.Decimal, odd float64) []BankrollPoint {
	out := make([]BankrollPoint, 0, len(records))
	bankroll := initial
	for i, r := range records {
		pnl := stake.Neg()
		if r.Outcome.IsWin() {
			pnl = staking.Profit(stake, odd)
		}
		bankroll = bankroll.Add(pnl)
		out = append(out, BankrollPoint{
			Index:         i + 1,
			BankrollAfter: bankroll,
			Outcome:       r.Outcome,
			Annotation: Annotation{
				Stake:        stake,
				ProfitOrLoss: pnl,
				Label:        "flat stake",
				Record:       r,
			},
		})
	}
	return out
}

// RollingWinRate returns, for each record, the win rate over the trailing
// window ending at it. Early steps use the records seen so far.
func RollingWinRate(records []model.OutcomeRecord, window int) []float64 {
	if window <= 0 {
		window = 1
	}
	out := make([]float64, len(records))
	wins := 0
	for i, r := range records {
		if r.Outcome.IsWin() {
			wins++
		}
		if i >= window && records[i-window].Outcome.IsWin() {
			wins--
		}
		n := min(i+1, window)
		out[i] = float64(wins) / float64(n)
	}
	return out
}
