// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Outcome is the settled result of a single wager.
type Outcome int

// Outcome values.
const (
	OutcomeLoss Outcome = iota
	OutcomeWin
)

// String returns the wire label of the outcome.
func (o Outcome) String() string {
	if o == OutcomeWin {
		return "WIN"
	}
	return "LOSS"
}

// IsWin reports whether the outcome is a win.
func (o Outcome) IsWin() bool { return o == OutcomeWin }

// OutcomeOf maps a boolean win flag to an Outcome.
func OutcomeOf(win bool) Outcome {
	if win {
		return OutcomeWin
	}
	return OutcomeLoss
}

// MarshalJSON encodes the outcome as "WIN" or "LOSS".
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON accepts "WIN" or "LOSS".
func (o *Outcome) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("outcome: %w", err)
	}
	switch s {
	case "WIN":
		*o = OutcomeWin
	case "LOSS":
		*o = OutcomeLoss
	default:
		return fmt.Errorf("outcome: unknown value %q", s)
	}
	return nil
}

// OutcomeRecord is one parsed match result from the results feed.
// Records are immutable once parsed.
type OutcomeRecord struct {
	SequenceIndex int       `json:"sequence_index"` // block position in the feed
	OccurredAt    time.Time `json:"occurred_at"`
	Participants  string    `json:"participants"` // e.g. "Home vs Away"
	ScoreLabel    string    `json:"score"`        // e.g. "2–1"
	Profile       string    `json:"profile"`
	Outcome       Outcome   `json:"outcome"`
}
