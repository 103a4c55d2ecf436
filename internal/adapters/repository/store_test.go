package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/okian/bankroll/internal/domain/ledger"
	"github.com/okian/bankroll/internal/domain/model"
	"github.com/okian/bankroll/internal/domain/staking"
	"github.com/shopspring/decimal"
)

// sampleLedger returns a ledger with one settled win and a pending bet.
func sampleLedger(t *testing.T) model.BankrollLedger {
	t.Helper()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cfg := staking.DefaultConfig()

	l := ledger.New(decimal.NewFromInt(100))
	l, _, err := ledger.Propose(cfg, l, 1.25, now)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	l, _, err = ledger.Resolve(l, true, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	l, _, err = ledger.Propose(cfg, l, 1.25, now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("second propose: %v", err)
	}
	return l
}

func assertSameCommitted(t *testing.T, got, want model.BankrollLedger) {
	t.Helper()
	if !got.Bankroll.Equal(want.Bankroll) {
		t.Errorf("bankroll: got %s, want %s", got.Bankroll, want.Bankroll)
	}
	if got.SorosActive != want.SorosActive {
		t.Errorf("sorosActive: got %v, want %v", got.SorosActive, want.SorosActive)
	}
	if !got.SorosCarryAmount.Equal(want.SorosCarryAmount) {
		t.Errorf("carry: got %s, want %s", got.SorosCarryAmount, want.SorosCarryAmount)
	}
	if len(got.History) != len(want.History) {
		t.Fatalf("history length: got %d, want %d", len(got.History), len(want.History))
	}
	for i := range want.History {
		g, w := got.History[i], want.History[i]
		if g.ID != w.ID || g.Outcome != w.Outcome || !g.StakeAmount.Equal(w.StakeAmount) || !g.BankrollAfter.Equal(w.BankrollAfter) {
			t.Errorf("history[%d]: got %+v, want %+v", i, g, w)
		}
	}
	if got.Pending != nil {
		t.Errorf("pending bet must not be persisted, got %+v", got.Pending)
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	want := sampleLedger(t)

	if err := store.Save(ctx, "alice", want); err != nil {
		t.Fatalf("save: %v", err)
	}
	if store.Count() != 1 {
		t.Errorf("expected 1 stored ledger, got %d", store.Count())
	}

	got, err := store.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertSameCommitted(t, got, want)
}

func TestMemoryStore_NotFoundAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Load(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := store.Save(ctx, "bob", ledger.New(decimal.NewFromInt(50))); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, "bob"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, "bob"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, "bob"); err != nil {
		t.Errorf("deleting a missing ledger should succeed, got %v", err)
	}
}

func TestMemoryStore_InvalidUser(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Save(ctx, "  ", ledger.New(decimal.NewFromInt(1))); !errors.Is(err, ErrInvalidUser) {
		t.Errorf("expected ErrInvalidUser on save, got %v", err)
	}
	if _, err := store.Load(ctx, ""); !errors.Is(err, ErrInvalidUser) {
		t.Errorf("expected ErrInvalidUser on load, got %v", err)
	}
}

func TestMemoryStore_NoAliasing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	l := sampleLedger(t)

	if err := store.Save(ctx, "carol", l); err != nil {
		t.Fatalf("save: %v", err)
	}
	l.History[0].StakeAmount = decimal.NewFromInt(999)
	l.Bankroll = decimal.Zero

	got, err := store.Load(ctx, "carol")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Bankroll.IsZero() || got.History[0].StakeAmount.Equal(decimal.NewFromInt(999)) {
		t.Errorf("stored ledger changed with the caller's copy: %+v", got)
	}
}

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), WithAddr(mr.Addr()), WithPrefix("test"))
	if err != nil {
		t.Fatalf("new redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)
	want := sampleLedger(t)

	if err := store.Save(ctx, "alice", want); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("test:ledger:alice") {
		t.Fatalf("expected key test:ledger:alice, have %v", mr.Keys())
	}

	got, err := store.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assertSameCommitted(t, got, want)
}

func TestRedisStore_NotFoundAndDelete(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	if _, err := store.Load(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := store.Save(ctx, "bob", ledger.New(decimal.NewFromInt(50))); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Delete(ctx, "bob"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("test:ledger:bob") {
		t.Error("expected key to be removed")
	}
	if _, err := store.Load(ctx, "bob"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRedisStore_CorruptDocument(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	if err := mr.Set("test:ledger:eve", `{"bankroll": -5, "history": []}`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, err := store.Load(ctx, "eve")
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("a corrupt ledger must not read as missing")
	}
	if !errors.Is(err, ledger.ErrInvalidSnapshot) {
		t.Errorf("expected the snapshot error to be wrapped, got %v", err)
	}
}

func TestRedisStore_Unavailable(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)
	mr.Close()

	_, err := store.Load(ctx, "alice")
	if err == nil {
		t.Fatal("expected an error from a closed server")
	}
	if errors.Is(err, ErrNotFound) {
		t.Errorf("an unreachable store must not report ErrNotFound, got %v", err)
	}
	if err := store.Save(ctx, "alice", ledger.New(decimal.NewFromInt(1))); err == nil {
		t.Error("expected save to fail against a closed server")
	}
}

func TestNewRedisStore_PingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewRedisStore(ctx, WithAddr(addr)); err == nil {
		t.Error("expected ping failure")
	}
}
