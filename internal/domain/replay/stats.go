package replay

import (
	"fmt"

	"github.com/okian/bankroll/internal/domain/model"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// SummaryStats aggregates a replayed record set.
type SummaryStats struct {
	Total   int    `json:"total"`
	Wins    int    `json:"wins"`
	Losses  int    `json:"losses"`
	WinRate string `json:"winRate"` // "80.70%"

	InitialBankroll decimal.Decimal `json:"initialBankroll"`
	FinalBankroll   decimal.Decimal `json:"finalBankroll"`
	PeakBankroll    decimal.Decimal `json:"peakBankroll"`
	MaxDrawdown     float64         `json:"maxDrawdown"` // fraction of the running peak
	MeanReturn      float64         `json:"meanReturn"`  // mean per-step return on bankroll
	StdDevReturn    float64         `json:"stdDevReturn"`
}

// Counts returns total, win and loss counts for records.
func Counts(records []model.OutcomeRecord) (total, wins, losses int) {
	for _, r := range records {
		if r.Outcome.IsWin() {
			wins++
		}
	}
	return len(records), wins, len(records) - wins
}

// FormatRate formats wins/total as a two-decimal percentage.
func FormatRate(wins, total int) string {
	if total == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(wins)/float64(total)*100)
}

// Summarize computes the summary for records and the series replayed from them.
func Summarize(records []model.OutcomeRecord, initial decimal.Decimal, series []BankrollPoint) SummaryStats {
	total, wins, losses := Counts(records)
	s := SummaryStats{
		Total:           total,
		Wins:            wins,
		Losses:          losses,
		WinRate:         FormatRate(wins, total),
		InitialBankroll: initial,
		FinalBankroll:   initial,
		PeakBankroll:    initial,
	}

	returns := make([]float64, 0, len(series))
	prev := initial
	for _, p := range series {
		if prev.IsPositive() {
			r, _ := p.Annotation.ProfitOrLoss.Div(prev).Float64()
			returns = append(returns, r)
		}
		if p.BankrollAfter.GreaterThan(s.PeakBankroll) {
			s.PeakBankroll = p.BankrollAfter
		}
		if s.PeakBankroll.IsPositive() {
			dd, _ := s.PeakBankroll.Sub(p.BankrollAfter).Div(s.PeakBankroll).Float64()
			if dd > s.MaxDrawdown {
				s.MaxDrawdown = dd
			}
		}
		prev = p.BankrollAfter
	}
	if n := len(series); n > 0 {
		s.FinalBankroll = series[n-1].BankrollAfter
	}

	switch len(returns) {
	case 0:
	case 1:
		s.MeanReturn = returns[0]
	default:
		s.MeanReturn, s.StdDevReturn = stat.MeanStdDev(returns, nil)
	}
	return s
}
