package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/bankroll/internal/domain/model"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one JSON document per user at <prefix>:ledger:<user>.
type RedisStore struct {
	client    *redis.Client
	prefix    string
	opTimeout time.Duration
}

// NewRedisStore connects to Redis and verifies the connection unless
// WithoutPing is given.
func NewRedisStore(ctx context.Context, opts ...RedisOption) (*RedisStore, error) {
	cfg := defaultRedisConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.addr,
		Password:    cfg.password,
		DB:          cfg.db,
		PoolSize:    cfg.poolSize,
		DialTimeout: cfg.dialTimeout,
	})

	if cfg.pingOnCreate {
		pctx, cancel := context.WithTimeout(ctx, cfg.dialTimeout)
		defer cancel()
		if err := client.Ping(pctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.addr, err)
		}
	}

	return &RedisStore{
		client:    client,
		prefix:    cfg.prefix,
		opTimeout: cfg.opTimeout,
	}, nil
}

// Close closes the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Load implements LedgerStore.
func (s *RedisStore) Load(ctx context.Context, userID string) (model.BankrollLedger, error) {
	start := time.Now()
	defer observe("redis", "load", start)

	key, err := s.key(userID)
	if err != nil {
		return model.BankrollLedger{}, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.BankrollLedger{}, ErrNotFound
		}
		return model.BankrollLedger{}, fmt.Errorf("redis get %s: %w", key, err)
	}
	return decode(userID, data)
}

// Save implements LedgerStore.
func (s *RedisStore) Save(ctx context.Context, userID string, l model.BankrollLedger) error {
	start := time.Now()
	defer observe("redis", "save", start)

	key, err := s.key(userID)
	if err != nil {
		return err
	}
	data, err := encode(l)
	if err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete implements LedgerStore.
func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	key, err := s.key(userID)
	if err != nil {
		return err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.client.Unlink(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis unlink %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) key(userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", ErrInvalidUser
	}
	return s.prefix + ":ledger:" + userID, nil
}

func (s *RedisStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}
