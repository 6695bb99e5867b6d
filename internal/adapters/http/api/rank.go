package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/boared/internal/domain/types"
)

// RankDependencies defines the interface for rank operations.
type RankDependencies interface {
	Rank(ctx context.Context, member string) (types.Row, error)
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps RankDependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

// HandleGetRank handles GET /rank/{member} requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	member := mux.Vars(r)["member"]
	if member == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	row, err := h.deps.Rank(r.Context(), member)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}
