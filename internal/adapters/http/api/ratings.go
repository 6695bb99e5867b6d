package api

import (
	"context"
	"net/http"

	"github.com/okian/boared/internal/domain/types"
)

// RatingsDependencies defines the interface for rating reads.
type RatingsDependencies interface {
	Ratings(ctx context.Context) ([]types.MemberRating, error)
}

// RatingsHandler handles rating requests.
type RatingsHandler struct {
	deps RatingsDependencies
}

// NewRatingsHandler creates a new ratings handler.
func NewRatingsHandler(deps RatingsDependencies) *RatingsHandler {
	return &RatingsHandler{deps: deps}
}

// HandleGetRatings handles GET /ratings requests.
func (h *RatingsHandler) HandleGetRatings(w http.ResponseWriter, r *http.Request) {
	ratings, err := h.deps.Ratings(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ratings)
}
