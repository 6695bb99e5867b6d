package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrMemberNotFound = errors.New("member not found")
	ErrInvalidLimit   = errors.New("invalid leaderboard limit")
	ErrTooFewMembers  = errors.New("at least two distinct members are required")
)
