package loadtest

import "time"

// Defaults applied by withDefaults.
const (
	DefaultUsers   = 100
	DefaultRounds  = 50
	DefaultTimeout = 30 * time.Second
	DefaultWinRate = 0.807
	DefaultMinOdd  = 1.15
	DefaultMaxOdd  = 1.60

	workerChannelMultiplier = 2
	percentageMultiplier    = 100
)

func (c *Config) withDefaults() {
	if c.Users <= 0 {
		c.Users = DefaultUsers
	}
	if c.Rounds <= 0 {
		c.Rounds = DefaultRounds
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.WinRate <= 0 || c.WinRate >= 1 {
		c.WinRate = DefaultWinRate
	}
	if c.MinOdd <= 1 {
		c.MinOdd = DefaultMinOdd
	}
	if c.MaxOdd < c.MinOdd {
		c.MaxOdd = c.MinOdd
	}
}
