// Package loadtest drives a running bankroll service through many
// concurrent ledger sessions and verifies every ledger afterwards.
package loadtest

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL string        // Base URL of the service
	Users   int           // Number of simulated users
	Rounds  int           // Proposals attempted per user
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	WinRate float64       // Probability a proposed bet is resolved as a win
	MinOdd  float64       // Lowest odd proposed
	MaxOdd  float64       // Highest odd proposed
	Seed    uint64        // Seed for odds and outcomes
	Prefix  string        // User id prefix; a random one is used when empty
	LogFile string        // Log file for run output
	Verbose bool          // Log every user report
}

// Stats holds run statistics.
type Stats struct {
	Users         int
	Proposed      int
	Refused       int
	Wins          int
	Losses        int
	PersistErrors int
	Failed        int
	Verified      int
	StartTime     time.Time
	EndTime       time.Time
	Duration      time.Duration
}

// userReport is what one simulated user did.
type userReport struct {
	user          string
	initial       decimal.Decimal
	proposed      int
	refused       int
	wins          int
	losses        int
	persistErrors int
	err           error
}

// ledgerDoc is the subset of a ledger response the run checks.
type ledgerDoc struct {
	UserID           string          `json:"userId"`
	State            string          `json:"state"`
	Bankroll         decimal.Decimal `json:"bankroll"`
	SorosActive      bool            `json:"sorosActive"`
	SorosCarryAmount decimal.Decimal `json:"sorosCarryAmount"`
	History          []betDoc        `json:"history"`
	PersistError     string          `json:"persist_error,omitempty"`
}

type betDoc struct {
	ID            string          `json:"id"`
	StakeAmount   decimal.Decimal `json:"stakeAmount"`
	Odd           float64         `json:"odd"`
	Outcome       string          `json:"outcome"`
	ProfitOrLoss  decimal.Decimal `json:"profitOrLoss"`
	BankrollAfter decimal.Decimal `json:"bankrollAfter"`
}

type resolveDoc struct {
	Bet          betDoc    `json:"bet"`
	Ledger       ledgerDoc `json:"ledger"`
	PersistError string    `json:"persist_error,omitempty"`
}
