package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/okian/bankroll/internal/domain/model"
	"github.com/okian/bankroll/pkg/metrics"
)

// MemoryStore is an in-process LedgerStore. Documents are kept encoded so
// reads never alias a caller's ledger.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

// Load implements LedgerStore.
func (s *MemoryStore) Load(_ context.Context, userID string) (model.BankrollLedger, error) {
	start := time.Now()
	defer observe("memory", "load", start)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return model.BankrollLedger{}, ErrInvalidUser
	}
	s.mu.RLock()
	data, ok := s.docs[userID]
	s.mu.RUnlock()
	if !ok {
		return model.BankrollLedger{}, ErrNotFound
	}
	return decode(userID, data)
}

// Save implements LedgerStore.
func (s *MemoryStore) Save(_ context.Context, userID string, l model.BankrollLedger) error {
	start := time.Now()
	defer observe("memory", "save", start)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrInvalidUser
	}
	data, err := encode(l)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[userID] = data
	s.mu.Unlock()
	return nil
}

// Delete implements LedgerStore.
func (s *MemoryStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.docs, strings.TrimSpace(userID))
	s.mu.Unlock()
	return nil
}

// Count returns the number of stored ledgers.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func observe(backend, op string, start time.Time) {
	metrics.RecordStoreLatency(backend, op, float64(time.Since(start).Microseconds())/1000)
}
