package loadtest

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/bankroll/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends log output to both stdout and a file. If logFile is
// empty, a timestamped filename is generated. The returned closer closes
// the file.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	if logFile == "" {
		logFile = "load_log_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithOutput(io.MultiWriter(os.Stdout, file))); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return file, nil
}

// ShowHelp prints usage information for the load tool.
func ShowHelp() {
	os.Stdout.WriteString(`Bankroll Load Tool
==================

Drives many concurrent ledgers through propose/resolve rounds against a
running bankroll service, then exports every ledger and checks it.

Usage:
  go run ./cmd/bankroll-load [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -users int         Number of simulated users (default 100)
  -rounds int        Proposals per user (default 50)
  -workers int       Concurrent workers (default CPU cores * 2)
  -win-rate float    Probability of resolving a bet as a win (default 0.807)
  -min-odd float     Lowest proposed odd (default 1.15)
  -max-odd float     Highest proposed odd (default 1.60)
  -seed uint         Seed for odds and outcomes (default 1)
  -timeout duration  HTTP request timeout (default 30s)
  -log string        Log file (default: load_log_TIMESTAMP.log)
  -verbose           Log every user
  -help              Show this help message

Examples:
  go run ./cmd/bankroll-load -users 500 -rounds 20 -workers 32
  go run ./cmd/bankroll-load -url http://localhost:8080 -seed 42 -verbose
`)
}
