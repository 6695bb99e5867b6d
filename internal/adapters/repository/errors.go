package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateGame    = errors.New("game name or type already exists")
	ErrDuplicateSession = errors.New("session already exists for game and date")
	ErrInvalidRecord    = errors.New("invalid record")
	ErrUnknownDriver    = errors.New("unknown store driver")
)
