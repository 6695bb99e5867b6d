package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	repository "github.com/okian/boared/internal/adapters/repository"
	service "github.com/okian/boared/internal/app"
	"github.com/okian/boared/internal/domain/model"
	"github.com/okian/boared/internal/domain/rating"
	"github.com/okian/boared/internal/domain/types"
	"github.com/okian/boared/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func day(n int) time.Time {
	return time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// recorder is a Publisher that keeps every published leaderboard.
type recorder struct {
	mu    sync.Mutex
	calls [][]types.Row
	err   error
}

func (r *recorder) Publish(_ context.Context, rows []types.Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, rows)
	return r.err
}

func (r *recorder) last() []types.Row {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

// seeded returns a service over a store holding A, B, C and D where
// A beat B beat C on day 0 and C beat A on day 1.
func seeded(ctx context.Context, opts ...service.Option) *service.Service {
	svc := service.New(opts...)
	for _, m := range []string{"A", "B", "C", "D"} {
		So(svc.AddMember(ctx, model.Member{Name: m, JoinDate: day(-10)}), ShouldBeNil)
	}
	So(svc.AddGame(ctx, model.Game{Name: "Catan", Type: "catan"}), ShouldBeNil)
	So(svc.AddGame(ctx, model.Game{Name: "Azul", Type: "azul"}), ShouldBeNil)

	_, err := svc.AddSession(ctx, model.Session{Game: "Catan", Date: day(0), Host: "A", Results: []model.Result{
		{Member: "A", Place: 1, Score: 10},
		{Member: "B", Place: 2, Score: 20},
		{Member: "C", Place: 3, Score: 10},
	}})
	So(err, ShouldBeNil)
	_, err = svc.AddSession(ctx, model.Session{Game: "Azul", Date: day(1), Host: "B", Results: []model.Result{
		{Member: "C", Place: 1, Score: 0},
		{Member: "A", Place: 2, Score: 20},
	}})
	So(err, ShouldBeNil)
	return svc
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.MaxLeaderboardLimit(), ShouldEqual, 100)
			So(svc.Store(), ShouldNotBeNil)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		store := repository.NewMemoryStore()
		svc := service.New(
			service.WithStore(store),
			service.WithLogger(logger.Nop()),
			service.WithParams(rating.DefaultParams()),
			service.WithExposureK(2),
			service.WithMaxLeaderboardLimit(10),
		)

		Convey("Then it should use them", func() {
			So(svc.Store(), ShouldEqual, store)
			So(svc.MaxLeaderboardLimit(), ShouldEqual, 10)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When starting the service", func() {
			err := svc.Start(ctx)

			Convey("Then it should be marked as started", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, true)
			})

			Convey("And stopping it marks it stopped", func() {
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})

	Convey("Given unusable rating params", t, func() {
		p := rating.DefaultParams()
		p.Beta = 0
		svc := service.New(service.WithParams(p))

		Convey("Then Start refuses to run", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, rating.ErrInvalidParams), ShouldBeTrue)
		})
	})
}

func TestService_Leaderboard(t *testing.T) {
	Convey("Given a service with two sessions", t, func() {
		ctx := context.Background()
		svc := seeded(ctx)

		Convey("When the full leaderboard is requested", func() {
			rows, err := svc.Leaderboard(ctx, 0)

			Convey("Then every member has a dense-ranked row", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 4)
				So(rows[0].Member, ShouldEqual, "A")
				So(rows[0].Score, ShouldEqual, 30)
				So(rows[0].Sessions, ShouldEqual, 2)
				So(rows[1].Member, ShouldEqual, "B")
				So(rows[1].Rank, ShouldEqual, 2)
				So(rows[2].Member, ShouldEqual, "C")
				So(rows[2].Rank, ShouldEqual, 3)
				So(rows[3].Member, ShouldEqual, "D")
				So(rows[3].Sessions, ShouldEqual, 0)
				So(rows[3].Rating, ShouldAlmostEqual, 0, 1e-9)
			})
		})

		Convey("When a limit is given", func() {
			rows, err := svc.Leaderboard(ctx, 2)

			Convey("Then only the top rows come back", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 2)
			})
		})

		Convey("When the limit exceeds the maximum", func() {
			_, err := svc.Leaderboard(ctx, 1000)

			Convey("Then it is rejected", func() {
				So(errors.Is(err, service.ErrInvalidLimit), ShouldBeTrue)
			})
		})
	})
}

func TestService_Ratings(t *testing.T) {
	Convey("Given a service with two sessions", t, func() {
		ctx := context.Background()
		svc := seeded(ctx)

		Convey("When ratings are listed", func() {
			rs, err := svc.Ratings(ctx)

			Convey("Then they are ordered by member and reflect the results", func() {
				So(err, ShouldBeNil)
				So(rs, ShouldHaveLength, 4)
				So(rs[0].Member, ShouldEqual, "A")
				So(rs[3].Member, ShouldEqual, "D")
				So(rs[3].Mu, ShouldEqual, rating.DefaultMu)
				So(rs[2].Mu, ShouldBeGreaterThan, rs[1].Mu) // C won the later session
				for _, r := range rs {
					So(r.Exposed, ShouldAlmostEqual, r.Mu-3*r.Sigma, 1e-9)
				}
			})
		})

		Convey("When ratings are read twice without writes", func() {
			_, err := svc.Ratings(ctx)
			So(err, ShouldBeNil)
			before := svc.GetStats()["replays"]
			_, err = svc.Ratings(ctx)
			So(err, ShouldBeNil)

			Convey("Then the second read reuses the replay", func() {
				So(svc.GetStats()["replays"], ShouldEqual, before)
				So(svc.GetStats()["replayCacheHit"], ShouldBeGreaterThan, int64(0))
			})
		})

		Convey("When a result is recorded after a read", func() {
			first, err := svc.Rank(ctx, "D")
			So(err, ShouldBeNil)
			sessions, err := svc.Store().ListSessionsChronological(ctx)
			So(err, ShouldBeNil)
			So(svc.RecordResult(ctx, sessions[0].ID, model.Result{Member: "D", Place: 1, Score: 5}), ShouldBeNil)
			second, err := svc.Rank(ctx, "D")
			So(err, ShouldBeNil)

			Convey("Then the next read sees it", func() {
				So(first.Sessions, ShouldEqual, 0)
				So(second.Sessions, ShouldEqual, 1)
				So(second.Mu, ShouldBeGreaterThan, first.Mu)
			})
		})
	})
}

func TestService_Rank(t *testing.T) {
	Convey("Given a service with two sessions", t, func() {
		ctx := context.Background()
		svc := seeded(ctx)

		Convey("When a known member is ranked", func() {
			row, err := svc.Rank(ctx, "B")

			Convey("Then their row is returned", func() {
				So(err, ShouldBeNil)
				So(row.Member, ShouldEqual, "B")
				So(row.Rank, ShouldEqual, 2)
				So(row.Score, ShouldEqual, 20)
			})
		})

		Convey("When an unknown member is ranked", func() {
			_, err := svc.Rank(ctx, "nobody")

			Convey("Then it is not found", func() {
				So(errors.Is(err, service.ErrMemberNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_Quality(t *testing.T) {
	Convey("Given a service with two sessions", t, func() {
		ctx := context.Background()
		svc := seeded(ctx)

		Convey("When two fresh members are compared", func() {
			q, err := svc.Quality(ctx, []string{"D", "D", "B"})

			Convey("Then a quality in (0, 1] comes back", func() {
				So(err, ShouldBeNil)
				So(q, ShouldBeGreaterThan, 0)
				So(q, ShouldBeLessThanOrEqualTo, 1)
			})
		})

		Convey("When fewer than two distinct members are given", func() {
			_, err := svc.Quality(ctx, []string{"A", "A"})
			So(errors.Is(err, service.ErrTooFewMembers), ShouldBeTrue)
		})

		Convey("When a member is unknown", func() {
			_, err := svc.Quality(ctx, []string{"A", "Z"})
			So(errors.Is(err, service.ErrMemberNotFound), ShouldBeTrue)
		})
	})
}

func TestService_Writes(t *testing.T) {
	Convey("Given a service with a publisher", t, func() {
		ctx := context.Background()
		pub := &recorder{}
		svc := seeded(ctx, service.WithPublisher(pub))

		Convey("Then every successful write republished the board", func() {
			// 4 members, 2 games, 2 sessions
			So(pub.calls, ShouldHaveLength, 8)
			last := pub.calls[len(pub.calls)-1]
			So(last, ShouldHaveLength, 4)
			So(last[0].Member, ShouldEqual, "A")
		})

		Convey("When a write fails", func() {
			err := svc.AddGame(ctx, model.Game{Name: "Catan", Type: "catan"})

			Convey("Then the error surfaces and nothing is published", func() {
				So(errors.Is(err, repository.ErrDuplicateGame), ShouldBeTrue)
				So(pub.calls, ShouldHaveLength, 8)
			})
		})

		Convey("When the publisher fails", func() {
			pub.err = errors.New("cache down")
			err := svc.AddMember(ctx, model.Member{Name: "E", JoinDate: day(0)})

			Convey("Then the write still succeeds", func() {
				So(err, ShouldBeNil)
				_, err := svc.Rank(ctx, "E")
				So(err, ShouldBeNil)
			})
		})

		Convey("When a session names an unknown member", func() {
			_, err := svc.AddSession(ctx, model.Session{Game: "Catan", Date: day(5), Host: "A", Results: []model.Result{
				{Member: "A", Place: 1},
				{Member: "ghost", Place: 2},
			}})

			Convey("Then the store rejects it", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When a stored session is fetched", func() {
			sessions, err := svc.Store().ListSessionsChronological(ctx)
			So(err, ShouldBeNil)
			got, err := svc.Session(ctx, sessions[1].ID)

			Convey("Then it round-trips", func() {
				So(err, ShouldBeNil)
				So(got.Game, ShouldEqual, "Azul")
				So(got.Results, ShouldHaveLength, 2)
			})
		})
	})
}

func TestService_AsyncPublish(t *testing.T) {
	Convey("Given a service publishing from a background worker", t, func() {
		ctx := context.Background()
		pub := &recorder{}
		svc := service.New(service.WithPublisher(pub), service.WithAsyncPublish(4))
		So(svc.Start(ctx), ShouldBeNil)
		So(pub.last(), ShouldBeEmpty)

		Convey("When writes land and the service stops", func() {
			for _, m := range []string{"A", "B", "C"} {
				So(svc.AddMember(ctx, model.Member{Name: m, JoinDate: day(0)}), ShouldBeNil)
			}
			So(svc.GetStats(), ShouldContainKey, "publishPending")
			svc.Stop()

			Convey("Then the final publish holds every member", func() {
				So(pub.last(), ShouldHaveLength, 3)
				pub.mu.Lock()
				defer pub.mu.Unlock()
				// initial publish plus at most one per write
				So(len(pub.calls), ShouldBeBetweenOrEqual, 2, 4)
			})
		})
	})
}
