package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/bankroll/internal/domain/feed"
	"github.com/okian/bankroll/internal/domain/model"
	"github.com/okian/bankroll/internal/domain/replay"
	"github.com/okian/bankroll/pkg/logger"
	"github.com/okian/bankroll/pkg/metrics"
)

// HistoryMode selects the curve a history request returns.
type HistoryMode string

// History modes.
const (
	ModeCompound HistoryMode = "compound" // staking policy with Soros
	ModeFlat     HistoryMode = "flat"     // constant stake
	ModeScore    HistoryMode = "score"    // wins minus losses
)

// rollingWindow is the trailing window of the rolling win rate.
const rollingWindow = 20

// ParseHistoryMode maps a query value to a mode; empty means compound.
func ParseHistoryMode(s string) (HistoryMode, error) {
	switch HistoryMode(s) {
	case "", ModeCompound:
		return ModeCompound, nil
	case ModeFlat, ModeScore:
		return HistoryMode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// HistoryView is a replay of the results feed for one year, or all years.
type HistoryView struct {
	Mode           HistoryMode            `json:"mode"`
	Year           int                    `json:"year,omitempty"`
	Odd            float64                `json:"odd"`
	LatestDate     *time.Time             `json:"latestDate,omitempty"`
	Stats          replay.SummaryStats    `json:"stats"`
	Series         []replay.BankrollPoint `json:"series,omitempty"`
	Score          []replay.ScorePoint    `json:"score,omitempty"`
	RollingWinRate []float64              `json:"rollingWinRate"`
	Records        []model.OutcomeRecord  `json:"records"`
}

// History replays the results of year (replay.AllYears for every year)
// under mode. Every call replays from the initial bankroll.
func (s *Service) History(ctx context.Context, year int, mode HistoryMode) (HistoryView, error) {
	if _, err := ParseHistoryMode(string(mode)); err != nil {
		return HistoryView{}, err
	}
	if mode == "" {
		mode = ModeCompound
	}
	start := time.Now()

	s.mu.RLock()
	records := replay.FilterByYear(s.records, year)
	s.mu.RUnlock()

	v := HistoryView{
		Mode:           mode,
		Year:           year,
		Odd:            s.averageOdd,
		Records:        records,
		RollingWinRate: replay.RollingWinRate(records, rollingWindow),
	}
	if n := len(records); n > 0 {
		latest := records[n-1].OccurredAt
		v.LatestDate = &latest
	}

	switch mode {
	case ModeCompound:
		res := replay.Run(s.staking, records,
			replay.WithOdd(s.averageOdd),
			replay.WithInitialBankroll(s.initial),
		)
		v.Series, v.Stats = res.Series, res.Stats
	case ModeFlat:
		v.Series = replay.FlatStakeCurve(records, s.initial, s.flatStake, s.averageOdd)
		v.Stats = replay.Summarize(records, s.initial, v.Series)
	case ModeScore:
		v.Score = replay.ScoreCurve(records)
		v.Stats = replay.Summarize(records, s.initial, nil)
	}

	elapsed := time.Since(start)
	metrics.RecordReplayLatency(string(mode), float64(elapsed.Microseconds())/1000)
	s.log().Debug(ctx, "history replayed",
		logger.String("mode", string(mode)),
		logger.Int("year", year),
		logger.Int("records", len(records)),
		logger.Duration("took", elapsed),
	)
	return v, nil
}

// Years lists the years present in the results feed, ascending.
func (s *Service) Years(_ context.Context) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return replay.Years(s.records)
}

// Signals returns the signal sheet, optionally only its free signals.
func (s *Service) Signals(_ context.Context, freeOnly bool) model.SignalSheet {
	s.mu.RLock()
	sheet := s.sheet
	s.mu.RUnlock()

	if sheet.Title == "" {
		sheet.Title = feed.DefaultSignalTitle
	}
	out := model.SignalSheet{Title: sheet.Title, Signals: make([]model.Signal, 0, len(sheet.Signals))}
	for _, sig := range sheet.Signals {
		if freeOnly && !sig.IsFree {
			continue
		}
		out.Signals = append(out.Signals, sig)
	}
	return out
}
