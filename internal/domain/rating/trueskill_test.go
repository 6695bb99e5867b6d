package rating_test

import (
	"errors"
	"testing"

	"github.com/okian/boared/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRate_TwoPlayers(t *testing.T) {
	Convey("Given two members at the prior", t, func() {
		p := rating.DefaultParams()
		prior := p.Prior()

		Convey("When the first beats the second", func() {
			out, err := rating.Rate(p, []rating.Rating{prior, prior}, []int{1, 2})

			Convey("Then the winner gains and the loser drops symmetrically", func() {
				So(err, ShouldBeNil)
				So(out, ShouldHaveLength, 2)
				So(out[0].Mu, ShouldAlmostEqual, 29.396, 0.01)
				So(out[1].Mu, ShouldAlmostEqual, 20.604, 0.01)
				So(out[0].Sigma, ShouldAlmostEqual, 7.171, 0.01)
				So(out[1].Sigma, ShouldAlmostEqual, 7.171, 0.01)
			})
		})

		Convey("When the places are given in reverse input order", func() {
			out, err := rating.Rate(p, []rating.Rating{prior, prior}, []int{2, 1})

			Convey("Then the result stays aligned with the input", func() {
				So(err, ShouldBeNil)
				So(out[0].Mu, ShouldBeLessThan, out[1].Mu)
				So(out[1].Mu, ShouldAlmostEqual, 29.396, 0.01)
			})
		})

		Convey("When they share a place", func() {
			out, err := rating.Rate(p, []rating.Rating{prior, prior}, []int{1, 1})

			Convey("Then it is a draw: means hold and uncertainty shrinks", func() {
				So(err, ShouldBeNil)
				So(out[0].Mu, ShouldAlmostEqual, 25.0, 0.01)
				So(out[1].Mu, ShouldAlmostEqual, 25.0, 0.01)
				So(out[0].Sigma, ShouldAlmostEqual, 6.458, 0.01)
			})
		})

		Convey("When an underdog beats a favourite", func() {
			favourite := rating.Rating{Mu: 35, Sigma: 4}
			underdog := rating.Rating{Mu: 20, Sigma: 4}
			upset, err := rating.Rate(p, []rating.Rating{underdog, favourite}, []int{1, 2})
			So(err, ShouldBeNil)
			expected, err := rating.Rate(p, []rating.Rating{favourite, underdog}, []int{1, 2})
			So(err, ShouldBeNil)

			Convey("Then the surprise moves both further than the expected outcome", func() {
				upsetGain := upset[0].Mu - underdog.Mu
				expectedGain := expected[0].Mu - favourite.Mu
				So(upsetGain, ShouldBeGreaterThan, expectedGain)
				So(favourite.Mu-upset[1].Mu, ShouldBeGreaterThan, underdog.Mu-expected[1].Mu)
			})
		})
	})
}

func TestRate_Multiplayer(t *testing.T) {
	Convey("Given three members at the prior", t, func() {
		p := rating.DefaultParams()
		prior := p.Prior()

		Convey("When they finish first, second and third", func() {
			out, err := rating.Rate(p, []rating.Rating{prior, prior, prior}, []int{1, 2, 3})

			Convey("Then the means are ordered and symmetric around the prior", func() {
				So(err, ShouldBeNil)
				So(out[0].Mu, ShouldBeGreaterThan, out[1].Mu)
				So(out[1].Mu, ShouldBeGreaterThan, out[2].Mu)
				So(out[1].Mu, ShouldAlmostEqual, 25.0, 0.01)
				So(out[0].Mu-25.0, ShouldAlmostEqual, 25.0-out[2].Mu, 0.01)
			})

			Convey("And every uncertainty shrinks", func() {
				for _, r := range out {
					So(r.Sigma, ShouldBeLessThan, prior.Sigma)
					So(r.Sigma, ShouldBeGreaterThan, 0)
				}
			})
		})

		Convey("When two of them tie for first", func() {
			out, err := rating.Rate(p, []rating.Rating{prior, prior, prior}, []int{1, 1, 2})

			Convey("Then the tied members end level above the last", func() {
				So(err, ShouldBeNil)
				So(out[0].Mu, ShouldAlmostEqual, out[1].Mu, 0.01)
				So(out[0].Mu, ShouldBeGreaterThan, out[2].Mu)
			})
		})
	})
}

func TestRate_Degenerate(t *testing.T) {
	Convey("Given the default params", t, func() {
		p := rating.DefaultParams()

		Convey("When a single member is rated", func() {
			out, err := rating.Rate(p, []rating.Rating{p.Prior()}, []int{1})

			Convey("Then nothing changes", func() {
				So(err, ShouldBeNil)
				So(out, ShouldResemble, []rating.Rating{p.Prior()})
			})
		})

		Convey("When places and ratings disagree in length", func() {
			_, err := rating.Rate(p, []rating.Rating{p.Prior(), p.Prior()}, []int{1})

			Convey("Then it is invalid input", func() {
				So(errors.Is(err, rating.ErrInvalidInput), ShouldBeTrue)
			})
		})
	})
}

func TestQuality(t *testing.T) {
	Convey("Given rating pairs", t, func() {
		p := rating.DefaultParams()

		Convey("When both are at the prior", func() {
			q := rating.Quality(p, []rating.Rating{p.Prior(), p.Prior()})

			Convey("Then the draw chance matches the closed form", func() {
				So(q, ShouldAlmostEqual, 0.447, 0.001)
			})
		})

		Convey("When one is far stronger", func() {
			even := rating.Quality(p, []rating.Rating{p.Prior(), p.Prior()})
			uneven := rating.Quality(p, []rating.Rating{{Mu: 40, Sigma: 2}, {Mu: 15, Sigma: 2}})

			Convey("Then the match is of lower quality", func() {
				So(uneven, ShouldBeLessThan, even)
				So(uneven, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When fewer than two are given", func() {
			So(rating.Quality(p, []rating.Rating{p.Prior()}), ShouldEqual, 0)
		})
	})
}

func TestParams_Validate(t *testing.T) {
	Convey("Given params", t, func() {
		So(rating.DefaultParams().Validate(), ShouldBeNil)

		bad := rating.DefaultParams()
		bad.DrawProbability = 1
		So(errors.Is(bad.Validate(), rating.ErrInvalidParams), ShouldBeTrue)

		bad = rating.DefaultParams()
		bad.Beta = 0
		So(errors.Is(bad.Validate(), rating.ErrInvalidParams), ShouldBeTrue)
	})
}

func TestExposed(t *testing.T) {
	Convey("Given the prior", t, func() {
		prior := rating.DefaultParams().Prior()

		Convey("Then its conservative value is mu minus three sigma", func() {
			So(prior.Exposed(rating.DefaultExposureK), ShouldAlmostEqual, 0, 1e-9)
			So(rating.Rating{Mu: 30, Sigma: 2}.Exposed(3), ShouldAlmostEqual, 24, 1e-9)
		})
	})
}
