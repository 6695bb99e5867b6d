package seed

import "errors"

// Sentinel kinds for seed errors.
var (
	ErrInvalidConfig = errors.New("invalid seed config")
	ErrNoRatings     = errors.New("no ratings to verify")
)
