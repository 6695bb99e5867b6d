// Package model contains domain models passed between layers.
package model

import "time"

// DateLayout is the calendar-date format used on the wire and in storage.
const DateLayout = "2006-01-02"

// Member is a tournament participant, identified by name.
type Member struct {
	Name     string    // unique identity
	JoinDate time.Time // calendar date the member joined
}

// Game is a board game that sessions are played in.
type Game struct {
	Name string // unique identity
	Type string // genre label; unique across games
}

// Session is one played instance of a game on a date.
// (Game, Date) is unique across sessions.
type Session struct {
	ID      string
	Game    string
	Date    time.Time
	Host    string
	Results []Result
}

// Result is a member's outcome in a single session.
type Result struct {
	Member string
	Place  int     // 1 is best; equal places are ties
	Score  float64 // raw points, used only for aggregate statistics
}

// Participants returns the member names that have a result in the session.
func (s Session) Participants() []string {
	names := make([]string, len(s.Results))
	for i, r := range s.Results {
		names[i] = r.Member
	}
	return names
}

// Before reports whether s is replayed before o: by date, then by ID.
func (s Session) Before(o Session) bool {
	if c := s.Date.Compare(o.Date); c != 0 {
		return c < 0
	}
	return s.ID < o.ID
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
