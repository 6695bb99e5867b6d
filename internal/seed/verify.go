package seed

import (
	"github.com/okian/boared/internal/domain/types"
)

// Concordance returns the fraction of member pairs that the ratings order
// the same way as their hidden skills: 1 is a perfect recovery, 0.5 is
// chance. Members missing from either side are ignored.
func Concordance(ratings []types.MemberRating, skills map[string]float64) (float64, error) {
	type pair struct{ rating, skill float64 }
	var known []pair
	for _, r := range ratings {
		if s, ok := skills[r.Member]; ok {
			known = append(known, pair{rating: r.Mu, skill: s})
		}
	}
	if len(known) < 2 {
		return 0, ErrNoRatings
	}

	var agree, total int
	for i := 0; i < len(known); i++ {
		for j := i + 1; j < len(known); j++ {
			ds := known[i].skill - known[j].skill
			dr := known[i].rating - known[j].rating
			if ds == 0 {
				continue
			}
			total++
			if ds*dr > 0 {
				agree++
			}
		}
	}
	if total == 0 {
		return 0, ErrNoRatings
	}
	return float64(agree) / float64(total), nil
}
