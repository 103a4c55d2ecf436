package loadtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/okian/bankroll/pkg/logger"
)

// Run executes the complete load run and returns its statistics. A ledger
// that fails verification makes Run return an error.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	config.withDefaults()
	if config.Prefix == "" {
		config.Prefix = "load-" + uuid.NewString()[:8]
	}
	stats := &Stats{StartTime: time.Now(), Users: config.Users}

	logger.Get().Info(ctx, "starting bankroll load run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("users", config.Users),
		logger.Int("rounds", config.Rounds),
		logger.Int("workers", config.Workers),
		logger.String("prefix", config.Prefix),
		logger.Float64("winRate", config.WinRate),
	)

	client := newHTTPClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := client.health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Drive every user
	users := make([]string, config.Users)
	for i := range users {
		users[i] = fmt.Sprintf("%s-%04d", config.Prefix, i)
	}
	reports := driveUsers(ctx, config, client, users)
	for _, r := range reports {
		stats.Proposed += r.proposed
		stats.Refused += r.refused
		stats.Wins += r.wins
		stats.Losses += r.losses
		stats.PersistErrors += r.persistErrors
		if r.err != nil {
			stats.Failed++
		}
	}

	// Step 3: Verify every ledger
	verified, verr := verifyUsers(ctx, client, reports)
	stats.Verified = verified

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	if verr != nil {
		return stats, fmt.Errorf("result verification failed: %w", verr)
	}
	if stats.Failed > 0 {
		return stats, fmt.Errorf("%d of %d users failed", stats.Failed, stats.Users)
	}
	logger.Get().Info(ctx, "load run completed successfully")
	return stats, nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(stats *Stats) {
	var acceptRate, betsPerSecond float64

	if attempts := stats.Proposed + stats.Refused; attempts > 0 {
		acceptRate = float64(stats.Proposed) / float64(attempts) * percentageMultiplier
	}
	if stats.Duration > 0 {
		betsPerSecond = float64(stats.Proposed) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("users", stats.Users),
		logger.Int("proposed", stats.Proposed),
		logger.Int("refused", stats.Refused),
		logger.Int("wins", stats.Wins),
		logger.Int("losses", stats.Losses),
		logger.Int("persistErrors", stats.PersistErrors),
		logger.Int("failed", stats.Failed),
		logger.Int("verified", stats.Verified),
		logger.Duration("duration", stats.Duration),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("betsPerSecond", betsPerSecond),
	)
}
