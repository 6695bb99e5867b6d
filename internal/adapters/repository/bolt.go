package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/okian/boared/internal/domain/model"
)

var (
	membersBucket     = []byte("members")
	gamesBucket       = []byte("games")
	sessionsBucket    = []byte("sessions")
	sessionKeysBucket = []byte("session_keys")
)

// boltSession is the stored form of a session; dates are kept as calendar
// strings so the file does not depend on time zone encoding.
type boltSession struct {
	ID      string         `json:"id"`
	Game    string         `json:"game"`
	Date    string         `json:"date"`
	Host    string         `json:"host"`
	Results []model.Result `json:"results"`
}

type boltMember struct {
	Name     string `json:"name"`
	JoinDate string `json:"join_date"`
}

// BoltStore persists the history in a bbolt file, one JSON document per key.
type BoltStore struct {
	db  *bolt.DB
	cfg settings
}

// NewBoltStore opens (or creates) the bbolt file at path.
func NewBoltStore(path string, opts ...Option) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{membersBucket, gamesBucket, sessionsBucket, sessionKeysBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return errors.Wrapf(err, "unable to create bucket %s", name)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &BoltStore{db: db, cfg: defaultSettings(opts)}, nil
}

func (b *BoltStore) Close() error {
	return errors.Wrap(b.db.Close(), "unable to close database")
}

func (b *BoltStore) ListMembers(_ context.Context) ([]model.Member, error) {
	out := make([]model.Member, 0)
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(membersBucket).ForEach(func(_, v []byte) error {
			var m boltMember
			if err := json.Unmarshal(v, &m); err != nil {
				return errors.Wrap(err, "unable to unmarshal member")
			}
			d, err := model.ParseDay(m.JoinDate)
			if err != nil {
				return errors.Wrapf(err, "member %s has a bad join date", m.Name)
			}
			out = append(out, model.Member{Name: m.Name, JoinDate: d})
			return nil
		})
	})
	// bbolt iterates keys in byte order, which is name order.
	return out, err
}

func (b *BoltStore) ListGames(_ context.Context) ([]model.Game, error) {
	out := make([]model.Game, 0)
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(gamesBucket).ForEach(func(_, v []byte) error {
			var g model.Game
			if err := json.Unmarshal(v, &g); err != nil {
				return errors.Wrap(err, "unable to unmarshal game")
			}
			out = append(out, g)
			return nil
		})
	})
	return out, err
}

func (b *BoltStore) ListSessionsChronological(_ context.Context) ([]model.Session, error) {
	out := make([]model.Session, 0)
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).ForEach(func(_, v []byte) error {
			sess, err := decodeSession(v)
			if err != nil {
				return err
			}
			out = append(out, sess)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortSessions(out)
	return out, nil
}

func (b *BoltStore) GetSession(_ context.Context, id string) (model.Session, error) {
	var sess model.Session
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(sessionsBucket).Get([]byte(id))
		if v == nil {
			return errors.Wrapf(ErrNotFound, "session %q", id)
		}
		var err error
		sess, err = decodeSession(v)
		return err
	})
	return sess, err
}

func (b *BoltStore) UpsertMember(_ context.Context, m model.Member) error {
	if err := validateMember(m); err != nil {
		return err
	}
	err := b.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(membersBucket), m.Name, boltMember{
			Name:     m.Name,
			JoinDate: model.Day(m.JoinDate).Format(model.DateLayout),
		})
	})
	return errors.Wrap(err, "unable to upsert member")
}

func (b *BoltStore) AddGame(_ context.Context, g model.Game) error {
	if err := validateGame(g); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(gamesBucket)
		if bucket.Get([]byte(g.Name)) != nil {
			return errors.Wrapf(ErrDuplicateGame, "name %q", g.Name)
		}
		err := bucket.ForEach(func(_, v []byte) error {
			var existing model.Game
			if err := json.Unmarshal(v, &existing); err != nil {
				return errors.Wrap(err, "unable to unmarshal game")
			}
			if existing.Type == g.Type {
				return errors.Wrapf(ErrDuplicateGame, "type %q", g.Type)
			}
			return nil
		})
		if err != nil {
			return err
		}
		return putJSON(bucket, g.Name, g)
	})
}

func (b *BoltStore) AddSession(_ context.Context, sess model.Session) (model.Session, error) {
	if err := validateSession(sess); err != nil {
		return model.Session{}, err
	}
	sess.Date = model.Day(sess.Date)
	if sess.ID == "" {
		sess.ID = b.cfg.newID()
	}
	date := sess.Date.Format(model.DateLayout)

	err := b.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(gamesBucket).Get([]byte(sess.Game)) == nil {
			return errors.Wrapf(ErrNotFound, "game %q", sess.Game)
		}
		members := tx.Bucket(membersBucket)
		if members.Get([]byte(sess.Host)) == nil {
			return errors.Wrapf(ErrNotFound, "host %q", sess.Host)
		}
		for _, r := range sess.Results {
			if members.Get([]byte(r.Member)) == nil {
				return errors.Wrapf(ErrNotFound, "member %q", r.Member)
			}
		}

		keys := tx.Bucket(sessionKeysBucket)
		key := []byte(sessionKey(sess.Game, date))
		if keys.Get(key) != nil {
			return errors.Wrapf(ErrDuplicateSession, "%s on %s", sess.Game, date)
		}
		sessions := tx.Bucket(sessionsBucket)
		if sessions.Get([]byte(sess.ID)) != nil {
			return errors.Wrapf(ErrDuplicateSession, "id %q", sess.ID)
		}
		if err := keys.Put(key, []byte(sess.ID)); err != nil {
			return errors.Wrap(err, "unable to index session")
		}
		return putJSON(sessions, sess.ID, encodeSession(sess))
	})
	if err != nil {
		return model.Session{}, err
	}
	return cloneSession(sess), nil
}

func (b *BoltStore) UpsertResult(_ context.Context, sessionID string, r model.Result) error {
	if err := validateResult(r); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		sessions := tx.Bucket(sessionsBucket)
		v := sessions.Get([]byte(sessionID))
		if v == nil {
			return errors.Wrapf(ErrNotFound, "session %q", sessionID)
		}
		if tx.Bucket(membersBucket).Get([]byte(r.Member)) == nil {
			return errors.Wrapf(ErrNotFound, "member %q", r.Member)
		}
		var stored boltSession
		if err := json.Unmarshal(v, &stored); err != nil {
			return errors.Wrap(err, "unable to unmarshal session")
		}
		stored.Results = upsertResult(stored.Results, r)
		return putJSON(sessions, sessionID, stored)
	})
}

func encodeSession(s model.Session) boltSession {
	return boltSession{
		ID:      s.ID,
		Game:    s.Game,
		Date:    s.Date.Format(model.DateLayout),
		Host:    s.Host,
		Results: s.Results,
	}
}

func decodeSession(v []byte) (model.Session, error) {
	var stored boltSession
	if err := json.Unmarshal(v, &stored); err != nil {
		return model.Session{}, errors.Wrap(err, "unable to unmarshal session")
	}
	d, err := model.ParseDay(stored.Date)
	if err != nil {
		return model.Session{}, errors.Wrapf(err, "session %s has a bad date", stored.ID)
	}
	sess := model.Session{ID: stored.ID, Game: stored.Game, Date: d, Host: stored.Host, Results: stored.Results}
	sortResults(sess.Results)
	return sess, nil
}

func putJSON(bucket *bolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "unable to marshal record")
	}
	return errors.Wrap(bucket.Put([]byte(key), data), "unable to put record")
}
