package cache

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrInvalidURL = errors.New("invalid redis url")
	ErrPublish    = errors.New("publish leaderboard")
)
