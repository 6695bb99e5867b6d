package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/boared/internal/domain/types"
)

// LeaderboardDependencies defines the interface for leaderboard operations
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, limit int) ([]types.Row, error)
	MaxLeaderboardLimit() int
}

// LeaderboardHandler handles leaderboard requests
type LeaderboardHandler struct {
	deps LeaderboardDependencies
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(deps LeaderboardDependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// HandleGetLeaderboard handles GET /leaderboard?limit=N requests.
// Without limit every row is returned.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	var n int
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		n, err = strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest))
			return
		}
		if maxLimit := h.deps.MaxLeaderboardLimit(); n > maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", fmt.Errorf("%w: limit must not exceed %d", ErrBadRequest, maxLimit))
			return
		}
	}
	rows, err := h.deps.Leaderboard(r.Context(), n)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
