package staking

import "errors"

// Sentinel kinds for staking errors.
var (
	ErrInvalidConfig = errors.New("invalid staking config")
)
