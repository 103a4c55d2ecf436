// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/bankroll/internal/adapters/feedsource"
	"github.com/okian/bankroll/internal/adapters/repository"
	"github.com/okian/bankroll/internal/domain/feed"
	"github.com/okian/bankroll/internal/domain/model"
	"github.com/okian/bankroll/internal/domain/replay"
	"github.com/okian/bankroll/internal/domain/staking"
	"github.com/okian/bankroll/pkg/logger"
	"github.com/okian/bankroll/pkg/metrics"
	"github.com/shopspring/decimal"
)

// Feed names used in logs and metrics.
const (
	feedResults = "results"
	feedSignals = "signals"
)

// Service owns the parsed feeds and the per-user ledger sessions.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	store   repository.LedgerStore
	results feedsource.Source
	signals feedsource.Source

	// Configuration
	staking     staking.Config
	initial     decimal.Decimal
	averageOdd  float64
	flatStake   decimal.Decimal
	freeSignals int
	now         func() time.Time

	// Feed state, replaced wholesale on reload
	records       []model.OutcomeRecord
	resultBlocks  int
	resultDropped int
	sheet         model.SignalSheet
	feedsLoadedAt time.Time

	sessionsMu  sync.Mutex
	sessions    map[string]*session
	sessionTTL  time.Duration
	sweepCancel context.CancelFunc
	sweepWG     sync.WaitGroup

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the ledger store.
func WithStore(store repository.LedgerStore) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithFeeds sets the results and signals sources.
func WithFeeds(results, signals feedsource.Source) Option {
	return func(s *Service) {
		if results != nil {
			s.results = results
		}
		if signals != nil {
			s.signals = signals
		}
	}
}

// WithStakingConfig sets the staking policy.
func WithStakingConfig(cfg staking.Config) Option {
	return func(s *Service) {
		s.staking = cfg
	}
}

// WithInitialBankroll sets the bankroll of new ledgers and replays.
func WithInitialBankroll(amount decimal.Decimal) Option {
	return func(s *Service) {
		if amount.IsPositive() {
			s.initial = amount
		}
	}
}

// WithAverageOdd sets the odd used by historical replays.
func WithAverageOdd(odd float64) Option {
	return func(s *Service) {
		if staking.ValidOdd(odd) {
			s.averageOdd = odd
		}
	}
}

// WithFlatStake sets the unit of the flat-stake curve.
func WithFlatStake(stake decimal.Decimal) Option {
	return func(s *Service) {
		if stake.IsPositive() {
			s.flatStake = stake
		}
	}
}

// WithFreeSignals sets how many leading signals are free.
func WithFreeSignals(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.freeSignals = n
		}
	}
}

// WithSessionIdleTTL drops sessions unused for d. Zero keeps them until Stop.
func WithSessionIdleTTL(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.sessionTTL = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		store:       repository.NewMemoryStore(),
		results:     feedsource.EmptySource{},
		signals:     feedsource.EmptySource{},
		staking:     staking.DefaultConfig(),
		initial:     decimal.NewFromInt(100),
		averageOdd:  replay.DefaultOdd,
		flatStake:   decimal.NewFromInt(replay.DefaultFlatStake),
		freeSignals: 2,
		now:         time.Now,
		sessions:    make(map[string]*session),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start loads both feeds. A feed that cannot be fetched is logged and left
// empty; it can be retried with ReloadFeeds.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if err := s.staking.Validate(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("start: %w", err)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.sessionTTL > 0 {
		sweepCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.sweepCancel = cancel
		s.sweepWG.Add(1)
		go s.sweepSessions(sweepCtx, s.sessionTTL)
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Info(ctx, "starting bankroll service...")
	_ = s.ReloadFeeds(ctx)

	stats := s.GetStats()
	s.logger.Info(ctx, "bankroll service started",
		logger.Any("records", stats["records"]),
		logger.Any("signals", stats["signals"]),
		logger.String("initialBankroll", s.initial.String()),
		logger.Float64("averageOdd", s.averageOdd),
	)
	return nil
}

// Stop drops all sessions and closes the store when it supports it.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.sweepCancel
	s.sweepCancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		s.sweepWG.Wait()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping bankroll service...")

	s.sessionsMu.Lock()
	s.sessions = make(map[string]*session)
	s.sessionsMu.Unlock()
	metrics.UpdateActiveSessions(0)

	if closer, ok := s.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(context.Background(), "failed to close ledger store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "bankroll service stopped")
}

// ReloadFeeds fetches and parses both feeds. A failing feed keeps its
// previous contents; the first error is returned.
func (s *Service) ReloadFeeds(ctx context.Context) error {
	var firstErr error

	raw, err := s.results.Fetch(ctx)
	if err != nil {
		firstErr = err
		metrics.RecordFeedFetchError(feedResults)
		s.log().Warn(ctx, "results feed unavailable", logger.Error(err))
	} else {
		rep := feed.ParseResultsReport(raw)
		s.mu.Lock()
		s.records = rep.Records
		s.resultBlocks = rep.Blocks
		s.resultDropped = rep.Dropped
		s.feedsLoadedAt = s.now().UTC()
		s.mu.Unlock()

		metrics.UpdateFeedStats(feedResults, len(rep.Records), rep.Dropped)
		s.log().Info(ctx, "results feed loaded",
			logger.Int("blocks", rep.Blocks),
			logger.Int("records", len(rep.Records)),
			logger.Int("dropped", rep.Dropped),
		)
	}

	raw, err = s.signals.Fetch(ctx)
	if err != nil {
		if firstErr == nil {
			firstErr = err
		}
		metrics.RecordFeedFetchError(feedSignals)
		s.log().Warn(ctx, "signals feed unavailable", logger.Error(err))
	} else {
		sheet := feed.ParseSignals(raw, s.freeSignals)
		s.mu.Lock()
		s.sheet = sheet
		s.mu.Unlock()

		metrics.UpdateFeedStats(feedSignals, len(sheet.Signals), 0)
		s.log().Info(ctx, "signals feed loaded", logger.Int("signals", len(sheet.Signals)))
	}

	return firstErr
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	stats := map[string]interface{}{
		"started":       s.started,
		"records":       len(s.records),
		"resultBlocks":  s.resultBlocks,
		"resultDropped": s.resultDropped,
		"signals":       len(s.sheet.Signals),
		"years":         replay.Years(s.records),
	}
	if !s.feedsLoadedAt.IsZero() {
		stats["feedsLoadedAt"] = s.feedsLoadedAt
	}
	s.mu.RUnlock()

	s.sessionsMu.Lock()
	stats["sessions"] = len(s.sessions)
	s.sessionsMu.Unlock()

	return stats
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	l := s.logger
	s.mu.RUnlock()
	if l == nil {
		return logger.Get()
	}
	return l
}
