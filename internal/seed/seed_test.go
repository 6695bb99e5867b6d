package seed_test

import (
	"context"
	"errors"
	"testing"

	repository "github.com/okian/boared/internal/adapters/repository"
	service "github.com/okian/boared/internal/app"
	"github.com/okian/boared/internal/domain/types"
	"github.com/okian/boared/internal/seed"
	"github.com/okian/boared/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func TestGenerate(t *testing.T) {
	Convey("Given the default config", t, func() {
		ctx := context.Background()
		cfg := seed.DefaultConfig()

		Convey("When a history is generated", func() {
			res, err := seed.Generate(ctx, cfg)

			Convey("Then it has the requested shape", func() {
				So(err, ShouldBeNil)
				So(res.Document.Members, ShouldHaveLength, cfg.Members)
				So(res.Document.Games, ShouldHaveLength, cfg.Games)
				So(res.Document.Sessions, ShouldHaveLength, cfg.Sessions)
				So(res.Skills, ShouldHaveLength, cfg.Members)
				for _, s := range res.Document.Sessions {
					So(len(s.Results), ShouldBeBetweenOrEqual, cfg.MinPlayers, cfg.MaxPlayers)
					So(s.Results[0].Place, ShouldEqual, 1)
				}
			})

			Convey("And the same seed reproduces it", func() {
				again, err := seed.Generate(ctx, cfg)
				So(err, ShouldBeNil)
				So(again.Document, ShouldResemble, res.Document)
			})
		})

		Convey("When the config is unusable", func() {
			cfg.MaxPlayers = cfg.Members + 1
			_, err := seed.Generate(ctx, cfg)
			So(errors.Is(err, seed.ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := seed.Generate(cctx, cfg)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestRecovery(t *testing.T) {
	Convey("Given a generated league loaded into a service", t, func() {
		ctx := context.Background()
		res, err := seed.Generate(ctx, seed.DefaultConfig())
		So(err, ShouldBeNil)

		store := repository.NewMemoryStore()
		counts, err := res.Document.Apply(ctx, store)
		So(err, ShouldBeNil)
		So(counts.Sessions, ShouldEqual, len(res.Document.Sessions))

		svc := service.New(service.WithStore(store))

		Convey("When the ratings are computed", func() {
			ratings, err := svc.Ratings(ctx)
			So(err, ShouldBeNil)
			c, err := seed.Concordance(ratings, res.Skills)

			Convey("Then they order members much like the hidden skills", func() {
				So(err, ShouldBeNil)
				So(c, ShouldBeGreaterThan, 0.75)
			})
		})
	})
}

func TestConcordance(t *testing.T) {
	Convey("Given hidden skills", t, func() {
		skills := map[string]float64{"a": 3, "b": 2, "c": 1}

		Convey("Then a matching order scores one and a reversed one zero", func() {
			same := []types.MemberRating{{Member: "a", Mu: 30}, {Member: "b", Mu: 20}, {Member: "c", Mu: 10}}
			reversed := []types.MemberRating{{Member: "a", Mu: 10}, {Member: "b", Mu: 20}, {Member: "c", Mu: 30}}

			c, err := seed.Concordance(same, skills)
			So(err, ShouldBeNil)
			So(c, ShouldEqual, 1)
			c, err = seed.Concordance(reversed, skills)
			So(err, ShouldBeNil)
			So(c, ShouldEqual, 0)
		})

		Convey("Then too few known members is an error", func() {
			_, err := seed.Concordance([]types.MemberRating{{Member: "a"}}, skills)
			So(errors.Is(err, seed.ErrNoRatings), ShouldBeTrue)
		})
	})
}
