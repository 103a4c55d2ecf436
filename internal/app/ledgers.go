package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/bankroll/internal/adapters/repository"
	"github.com/okian/bankroll/internal/domain/ledger"
	"github.com/okian/bankroll/internal/domain/model"
	"github.com/okian/bankroll/internal/domain/staking"
	"github.com/okian/bankroll/pkg/logger"
	"github.com/okian/bankroll/pkg/metrics"
	"github.com/shopspring/decimal"
)

// session is one user's in-memory ledger. mu serializes every transition,
// including the store I/O around it. refs and lastUsed are guarded by
// Service.sessionsMu; a session with refs > 0 is never evicted.
type session struct {
	mu     sync.Mutex
	loaded bool
	dirty  bool // the last committed change was not saved
	ledger model.BankrollLedger

	refs     int
	lastUsed time.Time
}

// LedgerView is a user's ledger as returned to clients.
type LedgerView struct {
	UserID string       `json:"userId"`
	State  ledger.State `json:"state"`
	model.ProgressionState
	History model.BetHistory  `json:"history"`
	Pending *model.PendingBet `json:"pending,omitempty"`
}

// ResolveResult is the settled bet and the ledger after it.
type ResolveResult struct {
	Bet    model.ResolvedBet `json:"bet"`
	Ledger LedgerView        `json:"ledger"`
}

func newView(userID string, l model.BankrollLedger) LedgerView {
	c := l.Clone()
	return LedgerView{
		UserID:           userID,
		State:            ledger.StateOf(c),
		ProgressionState: c.ProgressionState,
		History:          c.History,
		Pending:          c.Pending,
	}
}

// acquire returns the user's session, pinned until release.
func (s *Service) acquire(userID string) *session {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{}
		s.sessions[userID] = sess
		metrics.UpdateActiveSessions(len(s.sessions))
	}
	sess.refs++
	return sess
}

func (s *Service) release(sess *session) {
	s.sessionsMu.Lock()
	sess.refs--
	sess.lastUsed = s.now()
	s.sessionsMu.Unlock()
}

// EvictIdle drops sessions unused for at least idle and returns how many
// went. A session stays while a call holds it, or while it is the only copy
// of its state: a pending bet or a change the store refused.
func (s *Service) EvictIdle(ctx context.Context, idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.sessionsMu.Lock()
	evicted := 0
	for id, sess := range s.sessions {
		if sess.refs > 0 || sess.lastUsed.After(cutoff) || sess.dirty || sess.ledger.Pending != nil {
			continue
		}
		delete(s.sessions, id)
		evicted++
	}
	remaining := len(s.sessions)
	s.sessionsMu.Unlock()

	if evicted > 0 {
		metrics.UpdateActiveSessions(remaining)
		metrics.RecordSessionsEvicted(evicted)
		s.log().Debug(ctx, "idle sessions evicted",
			logger.Int("evicted", evicted),
			logger.Int("remaining", remaining),
		)
	}
	return evicted
}

func (s *Service) sweepSessions(ctx context.Context, idle time.Duration) {
	defer s.sweepWG.Done()

	ticker := time.NewTicker(max(idle/2, time.Second))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictIdle(ctx, idle)
		}
	}
}

// withLedger runs fn under the user's session lock, loading the ledger first
// if this session has not loaded it yet.
func (s *Service) withLedger(ctx context.Context, userID string, fn func(userID string, sess *session) error) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrInvalidUser
	}
	sess := s.acquire(userID)
	defer s.release(sess)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.loaded {
		if err := s.load(ctx, userID, sess); err != nil {
			return err
		}
	}
	return fn(userID, sess)
}

func (s *Service) load(ctx context.Context, userID string, sess *session) error {
	l, err := s.store.Load(ctx, userID)
	switch {
	case err == nil:
		s.log().Debug(ctx, "ledger loaded",
			logger.String("user", userID),
			logger.Int("history", len(l.History)),
		)
	case errors.Is(err, repository.ErrNotFound):
		l = ledger.New(s.initial)
		s.log().Info(ctx, "seeding new ledger",
			logger.String("user", userID),
			logger.String("bankroll", s.initial.String()),
		)
	default:
		metrics.RecordLedgerLoadError()
		s.log().Error(ctx, "ledger load failed", logger.String("user", userID), logger.Error(err))
		return fmt.Errorf("%w: %w", ErrLedgerUnavailable, err)
	}
	sess.ledger = l
	sess.loaded = true
	return nil
}

// persist saves the session ledger after a committed change.
func (s *Service) persist(ctx context.Context, userID, op string, sess *session) error {
	if err := s.store.Save(ctx, userID, sess.ledger); err != nil {
		sess.dirty = true
		metrics.RecordLedgerPersistError()
		metrics.RecordErrorByComponent("store", op)
		s.log().Error(ctx, "ledger persist failed",
			logger.String("user", userID),
			logger.String("op", op),
			logger.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	sess.dirty = false
	return nil
}

// violation records a transition attempted from the wrong state. It always
// points at a caller bug.
func (s *Service) violation(ctx context.Context, userID, op string, err error) error {
	metrics.RecordStateViolation(op)
	s.log().Error(ctx, "ledger state violation",
		logger.String("user", userID),
		logger.String("op", op),
		logger.Error(err),
	)
	return fmt.Errorf("%s: %w", op, err)
}

// Open loads the user's ledger into its session. A missing ledger is seeded
// with the initial bankroll; any other load failure returns
// ErrLedgerUnavailable and is retried on the next call.
func (s *Service) Open(ctx context.Context, userID string) error {
	return s.withLedger(ctx, userID, func(string, *session) error { return nil })
}

// Ledger returns the user's current ledger.
func (s *Service) Ledger(ctx context.Context, userID string) (LedgerView, error) {
	var v LedgerView
	err := s.withLedger(ctx, userID, func(id string, sess *session) error {
		v = newView(id, sess.ledger)
		return nil
	})
	return v, err
}

// Quote previews the decision a proposal at odd would get. It changes nothing.
func (s *Service) Quote(ctx context.Context, userID string, odd float64) (staking.Decision, error) {
	var d staking.Decision
	err := s.withLedger(ctx, userID, func(_ string, sess *session) error {
		d = ledger.Quote(s.staking, sess.ledger, odd)
		return nil
	})
	return d, err
}

// Propose creates the user's pending bet at odd. A refused stake returns a
// *ledger.RefusalError; proposing while a bet is pending returns
// ledger.ErrBetPending.
func (s *Service) Propose(ctx context.Context, userID string, odd float64) (model.PendingBet, error) {
	var bet model.PendingBet
	err := s.withLedger(ctx, userID, func(id string, sess *session) error {
		next, pending, err := ledger.Propose(s.staking, sess.ledger, odd, s.now())
		if err != nil {
			var refusal *ledger.RefusalError
			if errors.As(err, &refusal) {
				metrics.RecordBetRefused(string(refusal.Decision.Reason))
				s.log().Info(ctx, "stake refused",
					logger.String("user", id),
					logger.Float64("odd", odd),
					logger.String("reason", string(refusal.Decision.Reason)),
				)
				return err
			}
			return s.violation(ctx, id, "propose", err)
		}

		sess.ledger = next
		bet = pending
		metrics.RecordBetProposed()
		s.log().Info(ctx, "bet proposed",
			logger.String("user", id),
			logger.String("bet", bet.ID),
			logger.String("stake", bet.StakeAmount.String()),
			logger.Float64("odd", odd),
			logger.String("policy", bet.PolicyLabel),
		)
		return nil
	})
	return bet, err
}

// Resolve settles the pending bet. On a persistence failure the settlement
// still stands and the result comes back with an ErrPersistFailed error.
func (s *Service) Resolve(ctx context.Context, userID string, win bool) (ResolveResult, error) {
	var res ResolveResult
	err := s.withLedger(ctx, userID, func(id string, sess *session) error {
		next, resolved, err := ledger.Resolve(sess.ledger, win, s.now())
		if err != nil {
			return s.violation(ctx, id, "resolve", err)
		}

		sess.ledger = next
		res = ResolveResult{Bet: resolved, Ledger: newView(id, next)}
		metrics.RecordBetResolved(resolved.Outcome.String())
		s.log().Info(ctx, "bet resolved",
			logger.String("user", id),
			logger.String("bet", resolved.ID),
			logger.Bool("win", win),
			logger.String("pnl", resolved.ProfitOrLoss.String()),
			logger.String("bankroll", resolved.BankrollAfter.String()),
		)
		return s.persist(ctx, id, "resolve", sess)
	})
	return res, err
}

// Reset clears history, progression and any pending bet. confirm must be set.
func (s *Service) Reset(ctx context.Context, userID string, confirm bool) (LedgerView, error) {
	var v LedgerView
	err := s.withLedger(ctx, userID, func(id string, sess *session) error {
		next, err := ledger.Reset(s.initial, confirm)
		if err != nil {
			return err
		}

		sess.ledger = next
		v = newView(id, next)
		s.log().Warn(ctx, "ledger reset", logger.String("user", id))
		return s.persist(ctx, id, "reset", sess)
	})
	return v, err
}

// SetBankroll overwrites the bankroll. It is refused while a bet is pending.
func (s *Service) SetBankroll(ctx context.Context, userID string, amount decimal.Decimal) (LedgerView, error) {
	var v LedgerView
	err := s.withLedger(ctx, userID, func(id string, sess *session) error {
		next, err := ledger.SetBankroll(sess.ledger, amount)
		if errors.Is(err, ledger.ErrBetPending) {
			return s.violation(ctx, id, "set_bankroll", err)
		}
		if err != nil {
			return err
		}

		sess.ledger = next
		v = newView(id, next)
		s.log().Info(ctx, "bankroll edited",
			logger.String("user", id),
			logger.String("bankroll", amount.String()),
		)
		return s.persist(ctx, id, "set_bankroll", sess)
	})
	return v, err
}

// Export returns the user's ledger document.
func (s *Service) Export(ctx context.Context, userID string) ([]byte, error) {
	var data []byte
	err := s.withLedger(ctx, userID, func(_ string, sess *session) error {
		var err error
		data, err = ledger.Export(sess.ledger)
		return err
	})
	return data, err
}

// Import replaces the user's ledger with a validated document. Any pending
// bet is discarded. An invalid document returns a *ledger.ImportError and
// leaves the ledger untouched.
func (s *Service) Import(ctx context.Context, userID string, data []byte) (LedgerView, error) {
	var v LedgerView
	err := s.withLedger(ctx, userID, func(id string, sess *session) error {
		next, err := ledger.Import(data)
		if err != nil {
			s.log().Warn(ctx, "ledger import rejected", logger.String("user", id), logger.Error(err))
			return err
		}

		if sess.ledger.Pending != nil {
			s.log().Info(ctx, "pending bet discarded by import",
				logger.String("user", id),
				logger.String("bet", sess.ledger.Pending.ID),
			)
		}
		sess.ledger = next
		v = newView(id, next)
		s.log().Info(ctx, "ledger imported",
			logger.String("user", id),
			logger.Int("history", len(next.History)),
		)
		return s.persist(ctx, id, "import", sess)
	})
	return v, err
}
