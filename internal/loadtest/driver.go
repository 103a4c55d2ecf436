package loadtest

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/okian/bankroll/pkg/logger"
)

// driveUsers runs every user through cfg.Rounds proposals using a worker
// pool and returns one report per user, in user order.
func driveUsers(ctx context.Context, cfg *Config, client *HTTPClient, users []string) []userReport {
	reports := make([]userReport, len(users))
	jobs := make(chan int, cfg.Workers*workerChannelMultiplier)

	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rng := rand.New(rand.NewPCG(cfg.Seed, uint64(i))) //nolint:gosec // reproducible load, not security
				reports[i] = driveUser(ctx, cfg, client, users[i], rng)
				if cfg.Verbose {
					logReport(ctx, reports[i])
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range users {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	wg.Wait()
	return reports
}

// driveUser resets the user's ledger and plays cfg.Rounds proposals.
func driveUser(ctx context.Context, cfg *Config, client *HTTPClient, user string, rng *rand.Rand) userReport {
	rep := userReport{user: user}

	start, err := client.reset(ctx, user)
	if err != nil {
		rep.err = err
		return rep
	}
	rep.initial = start.Bankroll

	for round := 0; round < cfg.Rounds; round++ {
		if ctx.Err() != nil {
			rep.err = ctx.Err()
			return rep
		}

		odd := randomOdd(rng, cfg.MinOdd, cfg.MaxOdd)
		accepted, err := client.propose(ctx, user, odd)
		if err != nil {
			rep.err = err
			return rep
		}
		if !accepted {
			rep.refused++
			continue
		}
		rep.proposed++

		win := rng.Float64() < cfg.WinRate
		res, err := client.resolve(ctx, user, win)
		if err != nil {
			rep.err = fmt.Errorf("round %d: %w", round, err)
			return rep
		}
		if res.PersistError != "" {
			rep.persistErrors++
		}
		if win {
			rep.wins++
		} else {
			rep.losses++
		}
	}
	return rep
}

// randomOdd returns an odd in [lo, hi] rounded to two decimals.
func randomOdd(rng *rand.Rand, lo, hi float64) float64 {
	return math.Round((lo+rng.Float64()*(hi-lo))*100) / 100
}

func logReport(ctx context.Context, r userReport) {
	fields := []logger.Field{
		logger.String("user", r.user),
		logger.Int("proposed", r.proposed),
		logger.Int("refused", r.refused),
		logger.Int("wins", r.wins),
		logger.Int("losses", r.losses),
	}
	if r.err != nil {
		logger.Get().Warn(ctx, "user run failed", append(fields, logger.Error(r.err))...)
		return
	}
	logger.Get().Debug(ctx, "user run finished", fields...)
}
