package repository

import "time"

// redisConfig holds RedisStore connection settings.
type redisConfig struct {
	addr         string
	password     string
	db           int
	prefix       string
	poolSize     int
	dialTimeout  time.Duration
	opTimeout    time.Duration
	pingOnCreate bool
}

func defaultRedisConfig() redisConfig {
	return redisConfig{
		addr:         "localhost:6379",
		prefix:       "bankroll",
		poolSize:     10,
		dialTimeout:  5 * time.Second,
		opTimeout:    2 * time.Second,
		pingOnCreate: true,
	}
}

// RedisOption configures a RedisStore.
type RedisOption func(*redisConfig)

// WithAddr sets the Redis address (host:port).
func WithAddr(addr string) RedisOption {
	return func(c *redisConfig) {
		if addr != "" {
			c.addr = addr
		}
	}
}

// WithPassword sets the Redis password.
func WithPassword(password string) RedisOption {
	return func(c *redisConfig) { c.password = password }
}

// WithDB selects the Redis logical database.
func WithDB(db int) RedisOption {
	return func(c *redisConfig) {
		if db >= 0 {
			c.db = db
		}
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(c *redisConfig) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithPoolSize sets the connection pool size.
func WithPoolSize(n int) RedisOption {
	return func(c *redisConfig) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// WithOperationTimeout bounds each store call that arrives without a deadline.
func WithOperationTimeout(d time.Duration) RedisOption {
	return func(c *redisConfig) {
		if d > 0 {
			c.opTimeout = d
		}
	}
}

// WithoutPing skips the connectivity check in NewRedisStore.
func WithoutPing() RedisOption {
	return func(c *redisConfig) { c.pingOnCreate = false }
}
