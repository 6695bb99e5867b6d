// Package leaderboard turns session aggregates and ratings into ranked rows.
package leaderboard

import (
	"sort"

	"github.com/okian/boared/internal/domain/model"
	"github.com/okian/boared/internal/domain/rating"
	"github.com/okian/boared/internal/domain/types"
)

// Totals is a member's aggregate over every session they have a result in.
type Totals struct {
	TotalScore float64
	Sessions   int
}

// Aggregate sums scores and counts sessions per member. Sessions of any size
// count here, including those the rating replay skips.
func Aggregate(sessions []model.Session) map[string]Totals {
	out := make(map[string]Totals)
	for _, s := range sessions {
		for _, r := range s.Results {
			t := out[r.Member]
			t.TotalScore += r.Score
			t.Sessions++
			out[r.Member] = t
		}
	}
	return out
}

// Rank builds one row per member ordered by total score descending, then by
// name. Ranks are dense: equal scores share a rank and the next lower score
// takes the following integer. Members missing from ratings are shown at the
// default prior.
func Rank(members []string, aggregates map[string]Totals, ratings map[string]rating.Rating, k float64) []types.Row {
	rows := make([]types.Row, 0, len(members))
	prior := rating.DefaultParams().Prior()
	for _, m := range members {
		t := aggregates[m]
		r, ok := ratings[m]
		if !ok {
			r = prior
		}
		rows = append(rows, types.Row{
			Member:   m,
			Score:    t.TotalScore,
			Sessions: t.Sessions,
			Rating:   r.Exposed(k),
			Mu:       r.Mu,
			Sigma:    r.Sigma,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].Member < rows[j].Member
	})

	rank := 0
	for i := range rows {
		if i == 0 || rows[i].Score < rows[i-1].Score {
			rank++
		}
		rows[i].Rank = rank
	}
	return rows
}

// Find returns the row of member, if present.
func Find(rows []types.Row, member string) (types.Row, bool) {
	for _, r := range rows {
		if r.Member == member {
			return r, true
		}
	}
	return types.Row{}, false
}
