// Package staking maps a bankroll, a progression state and a candidate odd to
// a recommended stake.
//
// Rules, in priority order:
//  1. An active Soros progression stakes the carried amount.
//  2. A non-finite odd, or one not above 1, is refused as invalid.
//  3. An odd below MinimumViableOdd is refused as negative EV.
//  4. An odd up to LowOddThreshold stakes FixedStakeFraction of the bankroll.
//  5. Anything above stakes the Kelly fraction of the bankroll, or is refused
//     when the fraction is not positive.
//
// Soros never compounds past one level: after a Soros win the next decision
// is back on the base policy.
package staking

import (
	"fmt"
	"math"

	"github.com/okian/bankroll/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Decision labels.
const (
	LabelSoros      = "Soros level 1"
	LabelInvalid    = "invalid"
	LabelNegativeEV = "negative EV"
	LabelFixed      = "fixed stake"
	LabelKellyNeg   = "Kelly EV-"
	kellyLabelFmt   = "Kelly %.2f%%"
)

// MinStake is the smallest live stake the engine will recommend.
var MinStake = decimal.New(1, -2) //nolint:gochecknoglobals // immutable constant value

// Refusal classifies why a decision carries no stake.
type Refusal string

// Refusal kinds.
const (
	RefusalNone          Refusal = ""
	RefusalInvalidOdd    Refusal = "invalid_odd"
	RefusalNegativeEV    Refusal = "negative_ev"
	RefusalKellyNegative Refusal = "kelly_negative"
	RefusalNoBankroll    Refusal = "no_bankroll"
)

// Config is the staking policy configuration, shared by every decision in a run.
type Config struct {
	WinRate            float64 `json:"winRate"`
	LowOddThreshold    float64 `json:"lowOddThreshold"`
	FixedStakeFraction float64 `json:"fixedStakeFraction"`
	MinimumViableOdd   float64 `json:"minimumViableOdd"`
}

// DefaultConfig returns the policy the service ships with.
func DefaultConfig() Config {
	return Config{
		WinRate:            0.807,
		LowOddThreshold:    1.27,
		FixedStakeFraction: 0.05,
		MinimumViableOdd:   1.24,
	}
}

// Validate checks the configured ranges.
func (c Config) Validate() error {
	switch {
	case !(c.WinRate > 0 && c.WinRate < 1):
		return fmt.Errorf("%w: win rate %v outside (0,1)", ErrInvalidConfig, c.WinRate)
	case !(c.FixedStakeFraction > 0 && c.FixedStakeFraction < 1):
		return fmt.Errorf("%w: fixed stake fraction %v outside (0,1)", ErrInvalidConfig, c.FixedStakeFraction)
	case !(c.MinimumViableOdd > 1):
		return fmt.Errorf("%w: minimum viable odd %v must exceed 1", ErrInvalidConfig, c.MinimumViableOdd)
	case !(c.LowOddThreshold > 1):
		return fmt.Errorf("%w: low odd threshold %v must exceed 1", ErrInvalidConfig, c.LowOddThreshold)
	}
	return nil
}

// Decision is the engine's recommendation for one wager.
type Decision struct {
	Stake  decimal.Decimal `json:"stake"`
	Label  string          `json:"label"`
	Reason Refusal         `json:"reason,omitempty"`
	Kelly  float64         `json:"kelly,omitempty"` // fraction used for Kelly stakes
}

// Refused reports whether the decision recommends no wager.
func (d Decision) Refused() bool { return !d.Stake.IsPositive() }

// ValidOdd reports whether odd is a finite decimal odd above 1.
func ValidOdd(odd float64) bool {
	return !math.IsNaN(odd) && !math.IsInf(odd, 0) && odd > 1
}

// KellyFraction returns (p(o-1) - (1-p)) / (o-1) for win probability p and
// decimal odd o.
func KellyFraction(winRate, odd float64) float64 {
	b := odd - 1
	return (winRate*b - (1 - winRate)) / b
}

// NextStake decides the stake for a wager at odd. It is pure.
func NextStake(cfg Config, state model.ProgressionState, odd float64) Decision {
	switch {
	case state.SorosActive:
		return Decision{Stake: state.SorosCarryAmount, Label: LabelSoros}
	case !ValidOdd(odd):
		return Decision{Stake: decimal.Zero, Label: LabelInvalid, Reason: RefusalInvalidOdd}
	case odd < cfg.MinimumViableOdd:
		return Decision{Stake: decimal.Zero, Label: LabelNegativeEV, Reason: RefusalNegativeEV}
	case odd <= cfg.LowOddThreshold:
		return Decision{
			Stake: state.Bankroll.Mul(decimal.NewFromFloat(cfg.FixedStakeFraction)),
			Label: LabelFixed,
		}
	}

	f := KellyFraction(cfg.WinRate, odd)
	if f <= 0 {
		return Decision{Stake: decimal.Zero, Label: LabelKellyNeg, Reason: RefusalKellyNegative, Kelly: f}
	}
	return Decision{
		Stake: state.Bankroll.Mul(decimal.NewFromFloat(f)),
		Label: fmt.Sprintf(kellyLabelFmt, f*100),
		Kelly: f,
	}
}

// Clamp bounds a stake to [MinStake, bankroll].
func Clamp(stake, bankroll decimal.Decimal) decimal.Decimal {
	return decimal.Min(decimal.Max(stake, MinStake), bankroll)
}

// Profit is the net return of a winning stake at odd.
func Profit(stake decimal.Decimal, odd float64) decimal.Decimal {
	return stake.Mul(decimal.NewFromFloat(odd).Sub(decimal.NewFromInt(1)))
}

// Settle applies a settled wager to state and returns the new state with the
// signed profit or loss. A win from base policy opens Soros with the stake
// plus its profit as carry; a win on Soros, or any loss, closes it.
func Settle(state model.ProgressionState, stake decimal.Decimal, odd float64, outcome model.Outcome) (model.ProgressionState, decimal.Decimal) {
	next := state
	if !outcome.IsWin() {
		next.Bankroll = state.Bankroll.Sub(stake)
		next.SorosActive = false
		next.SorosCarryAmount = decimal.Zero
		return next, stake.Neg()
	}

	profit := Profit(stake, odd)
	next.Bankroll = state.Bankroll.Add(profit)
	if state.SorosActive {
		next.SorosActive = false
		next.SorosCarryAmount = decimal.Zero
	} else {
		next.SorosActive = true
		next.SorosCarryAmount = stake.Add(profit)
	}
	return next, profit
}
