package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/boared/internal/domain/model"
)

// Wire shapes for the write routes. Dates are YYYY-MM-DD.

type memberRequest struct {
	Name     string `json:"name"`
	JoinDate string `json:"join_date"`
}

func (m memberRequest) toModel(now time.Time) (model.Member, error) {
	if strings.TrimSpace(m.Name) == "" {
		return model.Member{}, fmt.Errorf("%w: missing name", ErrBadRequest)
	}
	joined := model.Day(now)
	if m.JoinDate != "" {
		d, err := parseDate("join_date", m.JoinDate)
		if err != nil {
			return model.Member{}, err
		}
		joined = d
	}
	return model.Member{Name: m.Name, JoinDate: joined}, nil
}

type gameRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

func (g gameRequest) toModel() (model.Game, error) {
	switch {
	case strings.TrimSpace(g.Name) == "":
		return model.Game{}, fmt.Errorf("%w: missing name", ErrBadRequest)
	case strings.TrimSpace(g.Type) == "":
		return model.Game{}, fmt.Errorf("%w: missing type", ErrBadRequest)
	}
	return model.Game{Name: g.Name, Type: g.Type}, nil
}

type resultRequest struct {
	Member string  `json:"member"`
	Place  int     `json:"place"`
	Score  float64 `json:"score"`
}

func (r resultRequest) toModel() (model.Result, error) {
	switch {
	case strings.TrimSpace(r.Member) == "":
		return model.Result{}, fmt.Errorf("%w: missing member", ErrBadRequest)
	case r.Place < 1:
		return model.Result{}, fmt.Errorf("%w: place must be at least 1", ErrBadRequest)
	}
	return model.Result{Member: r.Member, Place: r.Place, Score: r.Score}, nil
}

type sessionRequest struct {
	ID      string          `json:"id,omitempty"`
	Game    string          `json:"game"`
	Date    string          `json:"date"`
	Host    string          `json:"host"`
	Results []resultRequest `json:"results"`
}

func (s sessionRequest) toModel() (model.Session, error) {
	switch {
	case strings.TrimSpace(s.Game) == "":
		return model.Session{}, fmt.Errorf("%w: missing game", ErrBadRequest)
	case strings.TrimSpace(s.Host) == "":
		return model.Session{}, fmt.Errorf("%w: missing host", ErrBadRequest)
	}
	d, err := parseDate("date", s.Date)
	if err != nil {
		return model.Session{}, err
	}
	out := model.Session{ID: s.ID, Game: s.Game, Date: d, Host: s.Host}
	for _, r := range s.Results {
		res, err := r.toModel()
		if err != nil {
			return model.Session{}, err
		}
		out.Results = append(out.Results, res)
	}
	return out, nil
}

type sessionResponse sessionRequest

func newSessionResponse(s model.Session) sessionResponse {
	out := sessionResponse{
		ID:      s.ID,
		Game:    s.Game,
		Date:    s.Date.Format(model.DateLayout),
		Host:    s.Host,
		Results: make([]resultRequest, len(s.Results)),
	}
	for i, r := range s.Results {
		out.Results[i] = resultRequest{Member: r.Member, Place: r.Place, Score: r.Score}
	}
	return out
}

func parseDate(field, s string) (time.Time, error) {
	d, err := model.ParseDay(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrBadRequest, field)
	}
	return d, nil
}
