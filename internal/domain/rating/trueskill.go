// Package rating implements a TrueSkill-style Bayesian skill rating for
// multi-player sessions and the chronological replay that turns a session
// history into one rating per member.
//
// A rating is a Gaussian belief (Mu, Sigma) over a member's latent skill.
// Rate updates the beliefs of everyone in one session from their finishing
// places by message passing on the TrueSkill factor graph: prior (plus the
// dynamics factor Tau) -> performance (Beta) -> team performance ->
// differences between adjacent places -> truncation at the draw margin.
// Equal places are treated as a draw between the tied participants.
package rating

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Default model constants.
const (
	DefaultMu              = 25.0
	DefaultSigma           = DefaultMu / 3
	DefaultBeta            = DefaultSigma / 2
	DefaultTau             = DefaultSigma / 100
	DefaultDrawProbability = 0.10
	DefaultExposureK       = 3.0

	convergenceDelta = 0.0001
	maxIterations    = 10
)

// Rating is a Gaussian belief over a member's skill.
type Rating struct {
	Mu    float64
	Sigma float64
}

// Exposed returns the conservative display value Mu - k*Sigma.
func (r Rating) Exposed(k float64) float64 {
	return r.Mu - k*r.Sigma
}

func (r Rating) String() string {
	return fmt.Sprintf("N(mu=%.3f, sigma=%.3f)", r.Mu, r.Sigma)
}

// Params holds the model constants.
type Params struct {
	Mu              float64 // prior mean
	Sigma           float64 // prior standard deviation
	Beta            float64 // performance noise
	Tau             float64 // per-session skill drift
	DrawProbability float64 // probability that two adjacent places tie
}

// DefaultParams returns the canonical TrueSkill constants.
func DefaultParams() Params {
	return Params{
		Mu:              DefaultMu,
		Sigma:           DefaultSigma,
		Beta:            DefaultBeta,
		Tau:             DefaultTau,
		DrawProbability: DefaultDrawProbability,
	}
}

// Prior returns the rating every member starts from.
func (p Params) Prior() Rating {
	return Rating{Mu: p.Mu, Sigma: p.Sigma}
}

// Validate reports parameters the model cannot work with.
func (p Params) Validate() error {
	switch {
	case p.Sigma <= 0:
		return fmt.Errorf("%w: sigma must be positive", ErrInvalidParams)
	case p.Beta <= 0:
		return fmt.Errorf("%w: beta must be positive", ErrInvalidParams)
	case p.Tau < 0:
		return fmt.Errorf("%w: tau must not be negative", ErrInvalidParams)
	case p.DrawProbability < 0 || p.DrawProbability >= 1:
		return fmt.Errorf("%w: draw probability must be in [0, 1)", ErrInvalidParams)
	}
	return nil
}

// Rate updates the ratings of the participants of one session.
// ratings[i] finished at places[i]; lower places are better and equal places
// are draws. The returned slice is aligned with the input. Fewer than two
// participants leave the ratings unchanged.
func Rate(p Params, ratings []Rating, places []int) ([]Rating, error) {
	teams := make([][]Rating, len(ratings))
	for i, r := range ratings {
		teams[i] = []Rating{r}
	}
	rated, err := RateTeams(p, teams, places)
	if err != nil {
		return nil, err
	}
	out := make([]Rating, len(rated))
	for i, t := range rated {
		out[i] = t[0]
	}
	return out, nil
}

// RateTeams is the team generalization of Rate: every team's performance is
// the sum of its members' performances and places apply to teams.
func RateTeams(p Params, teams [][]Rating, places []int) ([][]Rating, error) {
	if len(teams) != len(places) {
		return nil, fmt.Errorf("%w: %d teams but %d places", ErrInvalidInput, len(teams), len(places))
	}
	for i, t := range teams {
		if len(t) == 0 {
			return nil, fmt.Errorf("%w: team %d is empty", ErrInvalidInput, i)
		}
	}
	out := make([][]Rating, len(teams))
	for i, t := range teams {
		out[i] = append([]Rating(nil), t...)
	}
	if len(teams) < 2 {
		return out, nil
	}

	// Sort by place; the graph is built in finishing order.
	order := make([]int, len(teams))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return places[order[a]] < places[order[b]] })
	sorted := make([][]Rating, len(teams))
	ranks := make([]int, len(teams))
	for i, idx := range order {
		sorted[i] = teams[idx]
		ranks[i] = places[idx]
	}

	g := buildGraph(p, sorted, ranks)
	g.run()

	for i, idx := range order {
		for j, skill := range g.skills[i] {
			before := teams[idx][j]
			sigma := math.Min(skill.sigma(), before.Sigma)
			out[idx][j] = Rating{Mu: skill.mu(), Sigma: sigma}
		}
	}
	return out, nil
}

// graph is the factor graph for one session, with teams in finishing order.
type graph struct {
	skills    [][]*variable
	priors    []*priorFactor
	perfs     []*likelihoodFactor
	teamPerfs []*sumFactor
	diffs     []*sumFactor
	truncs    []*truncateFactor
}

func buildGraph(p Params, teams [][]Rating, ranks []int) *graph {
	g := &graph{}
	next := 0
	newID := func() int {
		next++
		return next
	}

	teamPerfVars := make([]*variable, len(teams))
	for i, team := range teams {
		skills := make([]*variable, len(team))
		perfs := make([]*variable, len(team))
		coeffs := make([]float64, len(team))
		for j, r := range team {
			skills[j] = newVariable()
			perfs[j] = newVariable()
			coeffs[j] = 1
			g.priors = append(g.priors, &priorFactor{id: newID(), skill: skills[j], prior: r, dynamic: p.Tau})
			g.perfs = append(g.perfs, &likelihoodFactor{id: newID(), mean: skills[j], value: perfs[j], variance: p.Beta * p.Beta})
		}
		g.skills = append(g.skills, skills)
		teamPerfVars[i] = newVariable()
		g.teamPerfs = append(g.teamPerfs, &sumFactor{id: newID(), sum: teamPerfVars[i], terms: perfs, coeffs: coeffs})
	}

	for i := 0; i < len(teams)-1; i++ {
		diff := newVariable()
		g.diffs = append(g.diffs, &sumFactor{
			id:     newID(),
			sum:    diff,
			terms:  []*variable{teamPerfVars[i], teamPerfVars[i+1]},
			coeffs: []float64{1, -1},
		})
		size := len(teams[i]) + len(teams[i+1])
		t := &truncateFactor{id: newID(), diff: diff, v: vWin, w: wWin, margin: drawMargin(p.DrawProbability, size, p.Beta)}
		if ranks[i] == ranks[i+1] {
			t.v, t.w = vDraw, wDraw
		}
		g.truncs = append(g.truncs, t)
	}
	return g
}

func (g *graph) run() {
	for _, f := range g.priors {
		f.down()
	}
	for _, f := range g.perfs {
		f.down()
	}
	for _, f := range g.teamPerfs {
		f.down()
	}

	n := len(g.diffs)
	for iter := 0; iter < maxIterations; iter++ {
		var delta float64
		if n == 1 {
			g.diffs[0].down()
			delta = g.truncs[0].up()
		} else {
			for i := 0; i < n-1; i++ {
				g.diffs[i].down()
				delta = math.Max(delta, g.truncs[i].up())
				g.diffs[i].up(1)
			}
			for i := n - 1; i > 0; i-- {
				g.diffs[i].down()
				delta = math.Max(delta, g.truncs[i].up())
				g.diffs[i].up(0)
			}
		}
		if delta <= convergenceDelta {
			break
		}
	}

	g.diffs[0].up(0)
	g.diffs[n-1].up(1)
	for _, f := range g.teamPerfs {
		for i := range f.terms {
			f.up(i)
		}
	}
	for _, f := range g.perfs {
		f.up()
	}
}

// Quality is the probability-like measure, in (0, 1], that a session between
// the given participants ends in a draw. Higher means a more even match.
func Quality(p Params, ratings []Rating) float64 {
	n := len(ratings)
	if n < 2 {
		return 0
	}

	mean := mat.NewDense(n, 1, nil)
	variance := mat.NewDense(n, n, nil)
	for i, r := range ratings {
		mean.Set(i, 0, r.Mu)
		variance.Set(i, i, r.Sigma*r.Sigma)
	}
	// Row i compares participant i with participant i+1.
	rotA := mat.NewDense(n-1, n, nil)
	for i := 0; i < n-1; i++ {
		rotA.Set(i, i, 1)
		rotA.Set(i, i+1, -1)
	}
	a := rotA.T()

	var ata mat.Dense
	ata.Mul(rotA, a)
	ata.Scale(p.Beta*p.Beta, &ata)

	var sa, atsa mat.Dense
	sa.Mul(variance, a)
	atsa.Mul(rotA, &sa)

	var middle mat.Dense
	middle.Add(&ata, &atsa)

	var inv mat.Dense
	if err := inv.Inverse(&middle); err != nil {
		return 0
	}

	var start, end, left, e mat.Dense
	start.Mul(mean.T(), a)
	end.Mul(rotA, mean)
	left.Mul(&start, &inv)
	e.Mul(&left, &end)

	eArg := -0.5 * e.At(0, 0)
	sArg := mat.Det(&ata) / mat.Det(&middle)
	return math.Exp(eArg) * math.Sqrt(sArg)
}
