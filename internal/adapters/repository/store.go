// Package repository defines the session store interfaces and their
// memory, SQLite and bbolt implementations.
package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/okian/boared/internal/domain/model"
)

// Reader is the read-only view the rating replay and leaderboard consume.
type Reader interface {
	// ListMembers returns every member ordered by name.
	ListMembers(ctx context.Context) ([]model.Member, error)
	// ListGames returns every game ordered by name.
	ListGames(ctx context.Context) ([]model.Game, error)
	// ListSessionsChronological returns every session with its results,
	// ordered by date then ID. Results are ordered by place then member.
	ListSessionsChronological(ctx context.Context) ([]model.Session, error)
	// GetSession returns one session with its results.
	// Returns ErrNotFound if the session is unknown.
	GetSession(ctx context.Context, id string) (model.Session, error)
}

// Writer mutates the session history.
type Writer interface {
	// UpsertMember inserts a member or updates its join date.
	UpsertMember(ctx context.Context, m model.Member) error
	// AddGame registers a game. Returns ErrDuplicateGame if the name or
	// the type is already taken.
	AddGame(ctx context.Context, g model.Game) error
	// AddSession stores a session and any results it carries and returns it
	// with its ID assigned. A preset ID is kept. Returns ErrNotFound for an
	// unknown game, host or result member and ErrDuplicateSession when the
	// game already has a session on that date.
	AddSession(ctx context.Context, s model.Session) (model.Session, error)
	// UpsertResult inserts or replaces a member's result in a session.
	// Returns ErrNotFound if the session or member is unknown.
	UpsertResult(ctx context.Context, sessionID string, r model.Result) error
}

// Store provides read/write access to the session history.
type Store interface {
	Reader
	Writer
	Close() error
}

func validateMember(m model.Member) error {
	if m.Name == "" {
		return fmt.Errorf("%w: member name is empty", ErrInvalidRecord)
	}
	return nil
}

func validateGame(g model.Game) error {
	if g.Name == "" || g.Type == "" {
		return fmt.Errorf("%w: game needs a name and a type", ErrInvalidRecord)
	}
	return nil
}

func validateResult(r model.Result) error {
	if r.Member == "" {
		return fmt.Errorf("%w: result member is empty", ErrInvalidRecord)
	}
	if r.Place < 1 {
		return fmt.Errorf("%w: place %d for %q must be at least 1", ErrInvalidRecord, r.Place, r.Member)
	}
	return nil
}

func validateSession(s model.Session) error {
	if s.Game == "" {
		return fmt.Errorf("%w: session game is empty", ErrInvalidRecord)
	}
	if s.Date.IsZero() {
		return fmt.Errorf("%w: session date is empty", ErrInvalidRecord)
	}
	seen := make(map[string]struct{}, len(s.Results))
	for _, r := range s.Results {
		if err := validateResult(r); err != nil {
			return err
		}
		if _, dup := seen[r.Member]; dup {
			return fmt.Errorf("%w: member %q appears twice", ErrInvalidRecord, r.Member)
		}
		seen[r.Member] = struct{}{}
	}
	return nil
}

// sessionKey identifies the (game, date) pair that must be unique.
func sessionKey(game string, date string) string {
	return game + "|" + date
}

func sortResults(rs []model.Result) {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].Place != rs[j].Place {
			return rs[i].Place < rs[j].Place
		}
		return rs[i].Member < rs[j].Member
	})
}

func sortSessions(ss []model.Session) {
	sort.SliceStable(ss, func(i, j int) bool { return ss[i].Before(ss[j]) })
}

// upsertResult replaces the result of r.Member in rs or appends it.
func upsertResult(rs []model.Result, r model.Result) []model.Result {
	for i := range rs {
		if rs[i].Member == r.Member {
			rs[i] = r
			return rs
		}
	}
	return append(rs, r)
}

func cloneSession(s model.Session) model.Session {
	s.Results = append([]model.Result(nil), s.Results...)
	return s
}
