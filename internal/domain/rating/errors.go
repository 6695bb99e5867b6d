package rating

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidParams = errors.New("invalid rating params")
)
