package rating

import (
	"fmt"
	"sort"

	"github.com/okian/boared/internal/domain/model"
)

// Step describes what one session did during a replay.
type Step struct {
	Session model.Session
	// Skipped is true when the session had fewer than two participants.
	Skipped bool
	// Before and After hold the participants' ratings around the update.
	Before map[string]Rating
	After  map[string]Rating
}

type replayer struct {
	params  Params
	observe func(Step)
}

// ComputeRatings replays sessions in chronological order (date, then ID)
// from the prior and returns the final rating of every member. Members
// without a rated session keep the prior. Sessions with fewer than two
// results are inert.
//
// It fails with ErrInvalidInput when a result names a member outside members
// or a session holds two results for the same member.
func ComputeRatings(members []string, sessions []model.Session, opts ...Option) (map[string]Rating, error) {
	r := &replayer{params: DefaultParams()}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.params.Validate(); err != nil {
		return nil, err
	}

	ratings := make(map[string]Rating, len(members))
	prior := r.params.Prior()
	for _, m := range members {
		ratings[m] = prior
	}

	if err := validate(ratings, sessions); err != nil {
		return nil, err
	}

	ordered := make([]model.Session, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

	for _, s := range ordered {
		if err := r.apply(ratings, s); err != nil {
			return nil, fmt.Errorf("session %s: %w", s.ID, err)
		}
	}
	return ratings, nil
}

func validate(known map[string]Rating, sessions []model.Session) error {
	for _, s := range sessions {
		seen := make(map[string]struct{}, len(s.Results))
		for _, res := range s.Results {
			if _, ok := known[res.Member]; !ok {
				return fmt.Errorf("%w: session %s references unknown member %q", ErrInvalidInput, s.ID, res.Member)
			}
			if _, dup := seen[res.Member]; dup {
				return fmt.Errorf("%w: session %s has two results for member %q", ErrInvalidInput, s.ID, res.Member)
			}
			seen[res.Member] = struct{}{}
		}
	}
	return nil
}

func (r *replayer) apply(ratings map[string]Rating, s model.Session) error {
	if len(s.Results) < 2 {
		r.emit(Step{Session: s, Skipped: true})
		return nil
	}

	// Tied places keep a stable order regardless of how the store listed them.
	results := make([]model.Result, len(s.Results))
	copy(results, s.Results)
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Place != results[j].Place {
			return results[i].Place < results[j].Place
		}
		return results[i].Member < results[j].Member
	})

	current := make([]Rating, len(results))
	places := make([]int, len(results))
	before := make(map[string]Rating, len(results))
	for i, res := range results {
		current[i] = ratings[res.Member]
		places[i] = res.Place
		before[res.Member] = current[i]
	}

	updated, err := Rate(r.params, current, places)
	if err != nil {
		return err
	}

	after := make(map[string]Rating, len(results))
	for i, res := range results {
		ratings[res.Member] = updated[i]
		after[res.Member] = updated[i]
	}
	r.emit(Step{Session: s, Before: before, After: after})
	return nil
}

func (r *replayer) emit(st Step) {
	if r.observe != nil {
		r.observe(st)
	}
}
