package seed

import (
	"fmt"
	"time"
)

// Config holds configuration for a synthetic history.
type Config struct {
	Members    int       // number of members
	Games      int       // number of games
	Sessions   int       // number of sessions
	MinPlayers int       // fewest results per session
	MaxPlayers int       // most results per session
	Start      time.Time // date of the first session
	Seed       int64     // random seed; equal seeds give equal histories
	Noise      float64   // performance noise relative to the skill spread
}

// DefaultConfig returns a small league: 12 members over 200 sessions.
func DefaultConfig() Config {
	return Config{
		Members:    12,
		Games:      4,
		Sessions:   200,
		MinPlayers: 2,
		MaxPlayers: 5,
		Start:      time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Seed:       1,
		Noise:      0.5,
	}
}

// Validate reports configurations that cannot produce a history.
func (c Config) Validate() error {
	switch {
	case c.Members < 2:
		return fmt.Errorf("%w: need at least two members", ErrInvalidConfig)
	case c.Games < 1:
		return fmt.Errorf("%w: need at least one game", ErrInvalidConfig)
	case c.Sessions < 0:
		return fmt.Errorf("%w: sessions must not be negative", ErrInvalidConfig)
	case c.MinPlayers < 1 || c.MaxPlayers < c.MinPlayers:
		return fmt.Errorf("%w: player range %d..%d", ErrInvalidConfig, c.MinPlayers, c.MaxPlayers)
	case c.MaxPlayers > c.Members:
		return fmt.Errorf("%w: %d players but %d members", ErrInvalidConfig, c.MaxPlayers, c.Members)
	case c.Noise < 0:
		return fmt.Errorf("%w: noise must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Stats holds generation statistics.
type Stats struct {
	Members  int
	Games    int
	Sessions int
	Results  int
	Duration time.Duration
}
