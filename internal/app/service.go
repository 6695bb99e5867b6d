// Package service provides the core business service behind the HTTP API
// and the command line: it replays the session history into ratings and
// ranked leaderboard rows and forwards writes to the store.
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/boared/internal/adapters/mq/queue"
	"github.com/okian/boared/internal/adapters/mq/worker"
	repository "github.com/okian/boared/internal/adapters/repository"
	"github.com/okian/boared/internal/domain/leaderboard"
	"github.com/okian/boared/internal/domain/model"
	"github.com/okian/boared/internal/domain/rating"
	"github.com/okian/boared/internal/domain/types"
	"github.com/okian/boared/pkg/logger"
	"github.com/okian/boared/pkg/metrics"
)

const workerShutdownTimeout = 10 * time.Second

// Publisher receives the full leaderboard after every change.
type Publisher interface {
	Publish(ctx context.Context, rows []types.Row) error
}

// snapshot is the outcome of one replay.
type snapshot struct {
	fingerprint uint64
	ratings     map[string]rating.Rating
	rows        []types.Row
	members     int
	sessions    int
	rated       int
	skipped     int
	computedAt  time.Time
}

// Service implements the API dependencies for the leaderboard system.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	store     repository.Store
	publisher Publisher

	// Asynchronous publishing, enabled by WithAsyncPublish
	asyncCapacity int
	jobs          *queue.InMemoryQueue
	worker        *worker.Worker
	stopWorker    context.CancelFunc

	// Configuration
	params    rating.Params
	exposureK float64
	maxLimit  int

	// State
	started   bool
	memo      *snapshot
	replays   atomic.Int64
	cacheHits atomic.Int64

	logger logger.Logger
}

// New constructs a Service. Without WithStore it keeps history in memory.
func New(opts ...Option) *Service {
	s := &Service{
		params:    rating.DefaultParams(),
		exposureK: rating.DefaultExposureK,
		maxLimit:  100,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start validates the configuration and publishes the current leaderboard
// when a publisher is configured.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	if err := s.params.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.started = true
	s.mu.Unlock()

	s.logger.Info(ctx, "leaderboard service started",
		logger.Float64("mu", s.params.Mu),
		logger.Float64("sigma", s.params.Sigma),
		logger.Float64("drawProbability", s.params.DrawProbability),
		logger.Bool("publishing", s.publisher != nil),
		logger.Bool("asyncPublish", s.publisher != nil && s.asyncCapacity > 0),
	)
	if s.publisher == nil {
		return nil
	}
	if err := s.Publish(ctx); err != nil {
		return err
	}
	if s.asyncCapacity > 0 {
		s.startWorker(ctx)
	}
	return nil
}

// startWorker moves republishing off the write path. The worker outlives
// ctx and is stopped by Stop.
func (s *Service) startWorker(ctx context.Context) {
	wctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.asyncCapacity))
	s.worker = worker.NewWorker(s.jobs, func(ctx context.Context, _ []queue.Job) error {
		return s.Publish(ctx)
	}, worker.WithName("publisher"), worker.WithLogger(s.logger.Named("publisher")))
	s.stopWorker = cancel
	go s.worker.Run(wctx)
}

// Stop flushes pending publishes, then closes the store and the publisher
// if it can be closed.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping leaderboard service...")

	if s.worker != nil {
		_ = s.jobs.Close()
		shutdownCtx, cancel := context.WithTimeout(ctx, workerShutdownTimeout)
		if err := s.worker.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "publisher shutdown", logger.Error(err))
		}
		cancel()
		s.stopWorker()
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn(ctx, "closing store", logger.Error(err))
	}
	if closer, ok := s.publisher.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	s.logger.Info(ctx, "leaderboard service stopped")
}

// Store exposes the underlying store, e.g. for exports.
func (s *Service) Store() repository.Store {
	return s.store
}

// snapshot returns the replay of the current history, reusing the previous
// one when nothing changed.
func (s *Service) snapshot(ctx context.Context) (*snapshot, error) {
	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	sessions, err := s.store.ListSessionsChronological(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}

	fp := fingerprint(names, sessions)
	s.mu.RLock()
	memo := s.memo
	s.mu.RUnlock()
	if memo != nil && memo.fingerprint == fp {
		s.cacheHits.Add(1)
		metrics.RecordReplayCacheHit()
		return memo, nil
	}

	snap, err := s.replay(ctx, names, sessions)
	if err != nil {
		return nil, err
	}
	snap.fingerprint = fp

	s.mu.Lock()
	s.memo = snap
	s.mu.Unlock()
	return snap, nil
}

func (s *Service) replay(ctx context.Context, members []string, sessions []model.Session) (*snapshot, error) {
	start := time.Now()
	snap := &snapshot{members: len(members), sessions: len(sessions)}

	observe := func(st rating.Step) {
		if st.Skipped {
			snap.skipped++
			s.logger.Debug(ctx, "skipping session with fewer than two results",
				logger.String("session", st.Session.ID),
				logger.Int("results", len(st.Session.Results)),
			)
			return
		}
		snap.rated++
	}

	ratings, err := rating.ComputeRatings(members, sessions,
		rating.WithParams(s.params),
		rating.WithObserver(observe),
	)
	if err != nil {
		return nil, err
	}
	snap.ratings = ratings
	snap.rows = leaderboard.Rank(members, leaderboard.Aggregate(sessions), ratings, s.exposureK)
	snap.computedAt = time.Now()

	took := time.Since(start)
	s.replays.Add(1)
	metrics.RecordReplay(float64(took.Microseconds())/1000, snap.rated, snap.skipped)
	metrics.UpdateHistorySize(snap.members, snap.sessions)
	s.logger.Debug(ctx, "replayed history",
		logger.Int("members", snap.members),
		logger.Int("sessions", snap.sessions),
		logger.Int("skipped", snap.skipped),
		logger.Duration("took", took),
	)
	return snap, nil
}

// Ratings returns every member's rating ordered by member name.
func (s *Service) Ratings(ctx context.Context) ([]types.MemberRating, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.MemberRating, 0, len(snap.ratings))
	for m, r := range snap.ratings {
		out = append(out, types.MemberRating{Member: m, Mu: r.Mu, Sigma: r.Sigma, Exposed: r.Exposed(s.exposureK)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Member < out[j].Member })
	return out, nil
}

// Leaderboard returns the first limit rows; limit <= 0 returns every row.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]types.Row, error) {
	if limit > s.maxLimit {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrInvalidLimit, limit, s.maxLimit)
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	rows := snap.rows
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	out := make([]types.Row, len(rows))
	copy(out, rows)
	return out, nil
}

// MaxLeaderboardLimit reports the largest accepted limit.
func (s *Service) MaxLeaderboardLimit() int {
	return s.maxLimit
}

// Rank returns the leaderboard row of one member.
func (s *Service) Rank(ctx context.Context, member string) (types.Row, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return types.Row{}, err
	}
	row, ok := leaderboard.Find(snap.rows, member)
	if !ok {
		return types.Row{}, fmt.Errorf("%w: %q", ErrMemberNotFound, member)
	}
	return row, nil
}

// Quality returns the draw probability of a session between members under
// their current ratings. Higher means a more even match.
func (s *Service) Quality(ctx context.Context, members []string) (float64, error) {
	seen := make(map[string]struct{}, len(members))
	var distinct []string
	for _, m := range members {
		if _, ok := seen[m]; !ok {
			seen[m] = struct{}{}
			distinct = append(distinct, m)
		}
	}
	if len(distinct) < 2 {
		return 0, ErrTooFewMembers
	}

	snap, err := s.snapshot(ctx)
	if err != nil {
		return 0, err
	}
	ratings := make([]rating.Rating, len(distinct))
	for i, m := range distinct {
		r, ok := snap.ratings[m]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrMemberNotFound, m)
		}
		ratings[i] = r
	}
	return rating.Quality(s.params, ratings), nil
}

// AddMember inserts or updates a member.
func (s *Service) AddMember(ctx context.Context, m model.Member) error {
	err := s.store.UpsertMember(ctx, m)
	return s.afterWrite(ctx, "upsert_member", err)
}

// AddGame registers a game.
func (s *Service) AddGame(ctx context.Context, g model.Game) error {
	err := s.store.AddGame(ctx, g)
	return s.afterWrite(ctx, "add_game", err)
}

// AddSession stores a session, with any results it carries.
func (s *Service) AddSession(ctx context.Context, sess model.Session) (model.Session, error) {
	created, err := s.store.AddSession(ctx, sess)
	if err := s.afterWrite(ctx, "add_session", err); err != nil {
		return model.Session{}, err
	}
	return created, nil
}

// RecordResult inserts or replaces a member's result in a session.
func (s *Service) RecordResult(ctx context.Context, sessionID string, r model.Result) error {
	err := s.store.UpsertResult(ctx, sessionID, r)
	return s.afterWrite(ctx, "upsert_result", err)
}

// Session returns one stored session.
func (s *Service) Session(ctx context.Context, id string) (model.Session, error) {
	return s.store.GetSession(ctx, id)
}

func (s *Service) afterWrite(ctx context.Context, op string, err error) error {
	metrics.RecordStoreWrite(op, err)
	if err != nil {
		return err
	}
	if s.jobs != nil {
		// A full queue already holds a publish that will see this write.
		if !s.jobs.Enqueue(ctx, queue.Job{Op: op, At: time.Now()}) {
			s.logger.Debug(ctx, "publish already pending", logger.String("op", op))
		}
		return nil
	}
	if s.publisher != nil {
		// The write already succeeded; a cache failure is logged only.
		if perr := s.Publish(ctx); perr != nil {
			s.logger.Warn(ctx, "leaderboard publish failed", logger.String("op", op), logger.Error(perr))
		}
	}
	return nil
}

// Publish pushes the full current leaderboard to the publisher.
func (s *Service) Publish(ctx context.Context) error {
	if s.publisher == nil {
		return nil
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	err = s.publisher.Publish(ctx, snap.rows)
	metrics.RecordPublish(err)
	return err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":        s.started,
		"replays":        s.replays.Load(),
		"replayCacheHit": s.cacheHits.Load(),
		"publishing":     s.publisher != nil,
		"maxLimit":       s.maxLimit,
	}
	if s.jobs != nil {
		stats["publishPending"] = s.jobs.Len(context.Background())
	}
	if s.memo != nil {
		stats["members"] = s.memo.members
		stats["sessions"] = s.memo.sessions
		stats["sessionsRated"] = s.memo.rated
		stats["sessionsSkipped"] = s.memo.skipped
		stats["lastReplay"] = s.memo.computedAt.UTC().Format(time.RFC3339)
	}
	return stats
}
