package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/boared/internal/domain/model"
)

// MemoryStore is an in-process Store guarded by a RWMutex.
// Returned sessions are copies; callers may modify them freely.
type MemoryStore struct {
	mu       sync.RWMutex
	cfg      settings
	members  map[string]model.Member
	games    map[string]model.Game
	sessions map[string]model.Session
	byKey    map[string]string // game|date -> session ID
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		cfg:      defaultSettings(opts),
		members:  make(map[string]model.Member),
		games:    make(map[string]model.Game),
		sessions: make(map[string]model.Session),
		byKey:    make(map[string]string),
	}
}

func (s *MemoryStore) ListMembers(_ context.Context) ([]model.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Member, 0, len(s.members))
	for _, m := range s.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) ListGames(_ context.Context) ([]model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Game, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) ListSessionsChronological(_ context.Context) ([]model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		c := cloneSession(sess)
		sortResults(c.Results)
		out = append(out, c)
	}
	sortSessions(out)
	return out, nil
}

func (s *MemoryStore) GetSession(_ context.Context, id string) (model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return model.Session{}, fmt.Errorf("%w: session %q", ErrNotFound, id)
	}
	c := cloneSession(sess)
	sortResults(c.Results)
	return c, nil
}

func (s *MemoryStore) UpsertMember(_ context.Context, m model.Member) error {
	if err := validateMember(m); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	m.JoinDate = model.Day(m.JoinDate)
	s.members[m.Name] = m
	return nil
}

func (s *MemoryStore) AddGame(_ context.Context, g model.Game) error {
	if err := validateGame(g); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[g.Name]; ok {
		return fmt.Errorf("%w: name %q", ErrDuplicateGame, g.Name)
	}
	for _, existing := range s.games {
		if existing.Type == g.Type {
			return fmt.Errorf("%w: type %q", ErrDuplicateGame, g.Type)
		}
	}
	s.games[g.Name] = g
	return nil
}

func (s *MemoryStore) AddSession(_ context.Context, sess model.Session) (model.Session, error) {
	if err := validateSession(sess); err != nil {
		return model.Session{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[sess.Game]; !ok {
		return model.Session{}, fmt.Errorf("%w: game %q", ErrNotFound, sess.Game)
	}
	if _, ok := s.members[sess.Host]; !ok {
		return model.Session{}, fmt.Errorf("%w: host %q", ErrNotFound, sess.Host)
	}
	for _, r := range sess.Results {
		if _, ok := s.members[r.Member]; !ok {
			return model.Session{}, fmt.Errorf("%w: member %q", ErrNotFound, r.Member)
		}
	}

	sess.Date = model.Day(sess.Date)
	key := sessionKey(sess.Game, sess.Date.Format(model.DateLayout))
	if _, ok := s.byKey[key]; ok {
		return model.Session{}, fmt.Errorf("%w: %s on %s", ErrDuplicateSession, sess.Game, sess.Date.Format(model.DateLayout))
	}
	if sess.ID == "" {
		sess.ID = s.cfg.newID()
	}
	if _, ok := s.sessions[sess.ID]; ok {
		return model.Session{}, fmt.Errorf("%w: id %q", ErrDuplicateSession, sess.ID)
	}

	stored := cloneSession(sess)
	s.sessions[stored.ID] = stored
	s.byKey[key] = stored.ID
	return cloneSession(stored), nil
}

func (s *MemoryStore) UpsertResult(_ context.Context, sessionID string, r model.Result) error {
	if err := validateResult(r); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("%w: session %q", ErrNotFound, sessionID)
	}
	if _, ok := s.members[r.Member]; !ok {
		return fmt.Errorf("%w: member %q", ErrNotFound, r.Member)
	}
	sess.Results = upsertResult(append([]model.Result(nil), sess.Results...), r)
	s.sessions[sessionID] = sess
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
