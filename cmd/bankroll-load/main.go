package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/bankroll/internal/loadtest"
)

// Default configuration constants.
const (
	defaultWorkers = 2 // multiplier for runtime.NumCPU()
	defaultRunTime = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		users   = flag.Int("users", loadtest.DefaultUsers, "Number of simulated users")
		rounds  = flag.Int("rounds", loadtest.DefaultRounds, "Proposals per user")
		workers = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		winRate = flag.Float64("win-rate", loadtest.DefaultWinRate, "Probability of resolving a bet as a win")
		minOdd  = flag.Float64("min-odd", loadtest.DefaultMinOdd, "Lowest proposed odd")
		maxOdd  = flag.Float64("max-odd", loadtest.DefaultMaxOdd, "Highest proposed odd")
		seed    = flag.Uint64("seed", 1, "Seed for odds and outcomes")
		timeout = flag.Duration("timeout", loadtest.DefaultTimeout, "HTTP request timeout")
		logFile = flag.String("log", "", "Log file for run output (default: load_log_TIMESTAMP.log)")
		verbose = flag.Bool("verbose", false, "Log every user")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	closer, err := loadtest.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, defaultRunTime)

	_, err = loadtest.Run(ctx, &loadtest.Config{
		BaseURL: *baseURL,
		Users:   *users,
		Rounds:  *rounds,
		Workers: *workers,
		Timeout: *timeout,
		WinRate: *winRate,
		MinOdd:  *minOdd,
		MaxOdd:  *maxOdd,
		Seed:    *seed,
		LogFile: *logFile,
		Verbose: *verbose,
	})
	cancel()
	stop()
	_ = closer.Close()

	if err != nil {
		os.Stderr.WriteString("Load run failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
