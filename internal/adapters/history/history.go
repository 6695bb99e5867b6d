// Package history reads and writes session histories as YAML documents,
// the format used by the import and export commands.
package history

import (
	"context"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/okian/boared/internal/adapters/repository"
	"github.com/okian/boared/internal/domain/model"
)

// Document is a complete history: members, games and sessions.
type Document struct {
	Members  []Member  `yaml:"members"`
	Games    []Game    `yaml:"games"`
	Sessions []Session `yaml:"sessions"`
}

// Member, Game, Session and Result mirror the domain model with calendar
// dates as YYYY-MM-DD strings.
type Member struct {
	Name     string `yaml:"name"`
	JoinDate string `yaml:"join_date"`
}

type Game struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type Session struct {
	ID      string   `yaml:"id,omitempty"`
	Game    string   `yaml:"game"`
	Date    string   `yaml:"date"`
	Host    string   `yaml:"host"`
	Results []Result `yaml:"results"`
}

type Result struct {
	Member string  `yaml:"member"`
	Place  int     `yaml:"place"`
	Score  float64 `yaml:"score"`
}

// Load decodes a document. Unknown fields are rejected.
func Load(r io.Reader) (Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return doc, nil
		}
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc, nil
}

// Write encodes doc as YAML.
func Write(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// Apply writes the document into w in dependency order. It stops at the
// first failing record.
func (d Document) Apply(ctx context.Context, w repository.Writer) (repository.Counts, error) {
	var c repository.Counts
	for _, m := range d.Members {
		joined, err := parseDate(m.JoinDate)
		if err != nil {
			return c, fmt.Errorf("member %s: %w", m.Name, err)
		}
		if err := w.UpsertMember(ctx, model.Member{Name: m.Name, JoinDate: joined}); err != nil {
			return c, fmt.Errorf("member %s: %w", m.Name, err)
		}
		c.Members++
	}
	for _, g := range d.Games {
		if err := w.AddGame(ctx, model.Game{Name: g.Name, Type: g.Type}); err != nil {
			return c, fmt.Errorf("game %s: %w", g.Name, err)
		}
		c.Games++
	}
	for i, s := range d.Sessions {
		date, err := model.ParseDay(s.Date)
		if err != nil {
			return c, fmt.Errorf("session %d: %w: date %q", i, ErrInvalidDocument, s.Date)
		}
		sess := model.Session{ID: s.ID, Game: s.Game, Date: date, Host: s.Host}
		for _, r := range s.Results {
			sess.Results = append(sess.Results, model.Result{Member: r.Member, Place: r.Place, Score: r.Score})
		}
		if _, err := w.AddSession(ctx, sess); err != nil {
			return c, fmt.Errorf("session %d (%s on %s): %w", i, s.Game, s.Date, err)
		}
		c.Sessions++
		c.Results += len(sess.Results)
	}
	return c, nil
}

// Export reads everything from r into a document.
func Export(ctx context.Context, r repository.Reader) (Document, error) {
	var doc Document
	members, err := r.ListMembers(ctx)
	if err != nil {
		return doc, err
	}
	for _, m := range members {
		doc.Members = append(doc.Members, Member{Name: m.Name, JoinDate: m.JoinDate.Format(model.DateLayout)})
	}
	games, err := r.ListGames(ctx)
	if err != nil {
		return doc, err
	}
	for _, g := range games {
		doc.Games = append(doc.Games, Game{Name: g.Name, Type: g.Type})
	}
	sessions, err := r.ListSessionsChronological(ctx)
	if err != nil {
		return doc, err
	}
	for _, s := range sessions {
		out := Session{ID: s.ID, Game: s.Game, Date: s.Date.Format(model.DateLayout), Host: s.Host}
		for _, res := range s.Results {
			out.Results = append(out.Results, Result{Member: res.Member, Place: res.Place, Score: res.Score})
		}
		doc.Sessions = append(doc.Sessions, out)
	}
	return doc, nil
}

// parseDate accepts an empty join date as "unknown".
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := model.ParseDay(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidDocument, s)
	}
	return d, nil
}
