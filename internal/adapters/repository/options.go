package repository

import "github.com/google/uuid"

// Option applies a configuration option to a store.
type Option func(*settings)

type settings struct {
	newID func() string
}

func defaultSettings(opts []Option) settings {
	s := settings{newID: newSessionID}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithIDGenerator sets the function that assigns IDs to new sessions.
func WithIDGenerator(fn func() string) Option {
	return func(s *settings) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// newSessionID returns a time-ordered UUID so sessions on the same date
// replay in insertion order.
func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
