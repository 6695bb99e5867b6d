package repository

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/okian/boared/internal/domain/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS member (
	name      TEXT NOT NULL PRIMARY KEY,
	join_date TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS game (
	name TEXT NOT NULL PRIMARY KEY,
	type TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS session (
	id   TEXT NOT NULL PRIMARY KEY,
	game TEXT NOT NULL REFERENCES game(name),
	date TEXT NOT NULL,
	host TEXT NOT NULL REFERENCES member(name),
	UNIQUE (game, date)
);
CREATE TABLE IF NOT EXISTS session_result (
	id      INTEGER NOT NULL PRIMARY KEY,
	session TEXT NOT NULL REFERENCES session(id),
	member  TEXT NOT NULL REFERENCES member(name),
	place   INTEGER NOT NULL,
	score   REAL NOT NULL,
	UNIQUE (session, member)
)`

type memberRow struct {
	Name     string `db:"name"`
	JoinDate string `db:"join_date"`
}

type gameRow struct {
	Name string `db:"name"`
	Type string `db:"type"`
}

type sessionRow struct {
	ID   string `db:"id"`
	Game string `db:"game"`
	Date string `db:"date"`
	Host string `db:"host"`
}

type resultRow struct {
	Session string  `db:"session"`
	Member  string  `db:"member"`
	Place   int     `db:"place"`
	Score   float64 `db:"score"`
}

// SQLiteStore persists the history in a SQLite database through sqlx.
type SQLiteStore struct {
	db  *sqlx.DB
	cfg settings
}

// NewSQLiteStore opens (or creates) the database at filename and ensures
// the schema exists.
func NewSQLiteStore(filename string, opts ...Option) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite3", filename)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", filename)
	}
	// A single connection keeps :memory: databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "unable to create schema")
	}
	return &SQLiteStore{db: db, cfg: defaultSettings(opts)}, nil
}

func (s *SQLiteStore) Close() error {
	return errors.Wrap(s.db.Close(), "unable to close database")
}

func (s *SQLiteStore) ListMembers(ctx context.Context) ([]model.Member, error) {
	rows := []memberRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT name, join_date FROM member ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "unable to select members")
	}
	out := make([]model.Member, 0, len(rows))
	for _, r := range rows {
		d, err := model.ParseDay(r.JoinDate)
		if err != nil {
			return nil, errors.Wrapf(err, "member %s has a bad join date", r.Name)
		}
		out = append(out, model.Member{Name: r.Name, JoinDate: d})
	}
	return out, nil
}

func (s *SQLiteStore) ListGames(ctx context.Context) ([]model.Game, error) {
	rows := []gameRow{}
	if err := s.db.SelectContext(ctx, &rows, `SELECT name, type FROM game ORDER BY name`); err != nil {
		return nil, errors.Wrap(err, "unable to select games")
	}
	out := make([]model.Game, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.Game{Name: r.Name, Type: r.Type})
	}
	return out, nil
}

func (s *SQLiteStore) ListSessionsChronological(ctx context.Context) ([]model.Session, error) {
	sessions := []sessionRow{}
	if err := s.db.SelectContext(ctx, &sessions, `SELECT id, game, date, host FROM session ORDER BY date, id`); err != nil {
		return nil, errors.Wrap(err, "unable to select sessions")
	}
	results := []resultRow{}
	if err := s.db.SelectContext(ctx, &results,
		`SELECT session, member, place, score FROM session_result ORDER BY session, place, member`); err != nil {
		return nil, errors.Wrap(err, "unable to select results")
	}

	bySession := make(map[string][]model.Result, len(sessions))
	for _, r := range results {
		bySession[r.Session] = append(bySession[r.Session], model.Result{Member: r.Member, Place: r.Place, Score: r.Score})
	}

	out := make([]model.Session, 0, len(sessions))
	for _, row := range sessions {
		sess, err := row.toModel(bySession[row.ID])
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	sortSessions(out)
	return out, nil
}

func (s *SQLiteStore) GetSession(ctx context.Context, id string) (model.Session, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, `SELECT id, game, date, host FROM session WHERE id=?`, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return model.Session{}, errors.Wrapf(ErrNotFound, "session %q", id)
	}
	if err != nil {
		return model.Session{}, errors.Wrap(err, "unable to select session")
	}

	results := []resultRow{}
	if err := s.db.SelectContext(ctx, &results,
		`SELECT session, member, place, score FROM session_result WHERE session=? ORDER BY place, member`, id); err != nil {
		return model.Session{}, errors.Wrap(err, "unable to select results")
	}
	rs := make([]model.Result, 0, len(results))
	for _, r := range results {
		rs = append(rs, model.Result{Member: r.Member, Place: r.Place, Score: r.Score})
	}
	return row.toModel(rs)
}

func (r sessionRow) toModel(results []model.Result) (model.Session, error) {
	d, err := model.ParseDay(r.Date)
	if err != nil {
		return model.Session{}, errors.Wrapf(err, "session %s has a bad date", r.ID)
	}
	return model.Session{ID: r.ID, Game: r.Game, Date: d, Host: r.Host, Results: results}, nil
}

func (s *SQLiteStore) UpsertMember(ctx context.Context, m model.Member) error {
	if err := validateMember(m); err != nil {
		return err
	}
	row := memberRow{Name: m.Name, JoinDate: model.Day(m.JoinDate).Format(model.DateLayout)}
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO member (name, join_date) VALUES (:name, :join_date)
		ON CONFLICT(name) DO UPDATE SET join_date=excluded.join_date`, &row)
	return errors.Wrap(err, "unable to upsert member")
}

func (s *SQLiteStore) AddGame(ctx context.Context, g model.Game) error {
	if err := validateGame(g); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "unable to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM game WHERE name=? OR type=?`, g.Name, g.Type); err != nil {
		return errors.Wrap(err, "unable to check game")
	}
	if n > 0 {
		return errors.Wrapf(ErrDuplicateGame, "game %q (%s)", g.Name, g.Type)
	}
	if _, err := tx.NamedExecContext(ctx, `INSERT INTO game (name, type) VALUES (:name, :type)`, &gameRow{Name: g.Name, Type: g.Type}); err != nil {
		return errors.Wrap(err, "unable to insert game")
	}
	return errors.Wrap(tx.Commit(), "unable to commit game")
}

func (s *SQLiteStore) AddSession(ctx context.Context, sess model.Session) (model.Session, error) {
	if err := validateSession(sess); err != nil {
		return model.Session{}, err
	}
	sess.Date = model.Day(sess.Date)
	if sess.ID == "" {
		sess.ID = s.cfg.newID()
	}
	date := sess.Date.Format(model.DateLayout)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return model.Session{}, errors.Wrap(err, "unable to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := requireRow(ctx, tx, `SELECT COUNT(*) FROM game WHERE name=?`, sess.Game, "game"); err != nil {
		return model.Session{}, err
	}
	if err := requireRow(ctx, tx, `SELECT COUNT(*) FROM member WHERE name=?`, sess.Host, "host"); err != nil {
		return model.Session{}, err
	}
	for _, r := range sess.Results {
		if err := requireRow(ctx, tx, `SELECT COUNT(*) FROM member WHERE name=?`, r.Member, "member"); err != nil {
			return model.Session{}, err
		}
	}

	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM session WHERE (game=? AND date=?) OR id=?`, sess.Game, date, sess.ID); err != nil {
		return model.Session{}, errors.Wrap(err, "unable to check session")
	}
	if n > 0 {
		return model.Session{}, errors.Wrapf(ErrDuplicateSession, "%s on %s", sess.Game, date)
	}

	row := sessionRow{ID: sess.ID, Game: sess.Game, Date: date, Host: sess.Host}
	if _, err := tx.NamedExecContext(ctx, `INSERT INTO session (id, game, date, host) VALUES (:id, :game, :date, :host)`, &row); err != nil {
		return model.Session{}, errors.Wrap(err, "unable to insert session")
	}
	for _, r := range sess.Results {
		if err := insertResult(ctx, tx, sess.ID, r); err != nil {
			return model.Session{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return model.Session{}, errors.Wrap(err, "unable to commit session")
	}
	return cloneSession(sess), nil
}

func (s *SQLiteStore) UpsertResult(ctx context.Context, sessionID string, r model.Result) error {
	if err := validateResult(r); err != nil {
		return err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "unable to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := requireRow(ctx, tx, `SELECT COUNT(*) FROM session WHERE id=?`, sessionID, "session"); err != nil {
		return err
	}
	if err := requireRow(ctx, tx, `SELECT COUNT(*) FROM member WHERE name=?`, r.Member, "member"); err != nil {
		return err
	}
	if err := insertResult(ctx, tx, sessionID, r); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "unable to commit result")
}

func insertResult(ctx context.Context, tx *sqlx.Tx, sessionID string, r model.Result) error {
	row := resultRow{Session: sessionID, Member: r.Member, Place: r.Place, Score: r.Score}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO session_result (session, member, place, score)
		VALUES (:session, :member, :place, :score)
		ON CONFLICT(session, member) DO UPDATE SET place=excluded.place, score=excluded.score`, &row)
	return errors.Wrap(err, "unable to upsert result")
}

func requireRow(ctx context.Context, tx *sqlx.Tx, query, arg, what string) error {
	var n int
	if err := tx.GetContext(ctx, &n, query, arg); err != nil {
		return errors.Wrapf(err, "unable to look up %s", what)
	}
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "%s %q", what, arg)
	}
	return nil
}
