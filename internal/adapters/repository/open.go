package repository

import (
	"context"
	"fmt"
	"strings"
)

// Supported store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

// Open returns the Store for driver, creating its file at path when needed.
// The memory driver ignores path.
func Open(driver, path string, opts ...Option) (Store, error) {
	switch strings.ToLower(driver) {
	case DriverMemory, "":
		return NewMemoryStore(opts...), nil
	case DriverSQLite:
		return NewSQLiteStore(path, opts...)
	case DriverBolt:
		return NewBoltStore(path, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// ParseDSN splits a "driver:path" string as used on the command line.
// A bare driver name yields an empty path.
func ParseDSN(dsn string) (driver, path string) {
	driver, path, _ = strings.Cut(dsn, ":")
	return driver, path
}

// Counts reports how many records a Transfer copied.
type Counts struct {
	Members  int `json:"members"`
	Games    int `json:"games"`
	Sessions int `json:"sessions"`
	Results  int `json:"results"`
}

// Transfer copies every member, game and session (with results and IDs)
// from src into dst. It stops at the first write error.
func Transfer(ctx context.Context, src Reader, dst Writer) (Counts, error) {
	var c Counts

	members, err := src.ListMembers(ctx)
	if err != nil {
		return c, fmt.Errorf("list members: %w", err)
	}
	for _, m := range members {
		if err := dst.UpsertMember(ctx, m); err != nil {
			return c, fmt.Errorf("member %s: %w", m.Name, err)
		}
		c.Members++
	}

	games, err := src.ListGames(ctx)
	if err != nil {
		return c, fmt.Errorf("list games: %w", err)
	}
	for _, g := range games {
		if err := dst.AddGame(ctx, g); err != nil {
			return c, fmt.Errorf("game %s: %w", g.Name, err)
		}
		c.Games++
	}

	sessions, err := src.ListSessionsChronological(ctx)
	if err != nil {
		return c, fmt.Errorf("list sessions: %w", err)
	}
	for _, s := range sessions {
		if err := ctx.Err(); err != nil {
			return c, err
		}
		if _, err := dst.AddSession(ctx, s); err != nil {
			return c, fmt.Errorf("session %s: %w", s.ID, err)
		}
		c.Sessions++
		c.Results += len(s.Results)
	}
	return c, nil
}
