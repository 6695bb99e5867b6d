package api

import (
	"context"
	"net/http"
)

// QualityDependencies defines the interface for match quality estimates.
type QualityDependencies interface {
	Quality(ctx context.Context, members []string) (float64, error)
}

// QualityHandler handles match quality requests.
type QualityHandler struct {
	deps QualityDependencies
}

// NewQualityHandler creates a new quality handler.
func NewQualityHandler(deps QualityDependencies) *QualityHandler {
	return &QualityHandler{deps: deps}
}

type qualityResponse struct {
	Members []string `json:"members"`
	Quality float64  `json:"quality"`
}

// HandleGetQuality handles GET /quality?member=a&member=b requests.
func (h *QualityHandler) HandleGetQuality(w http.ResponseWriter, r *http.Request) {
	members := r.URL.Query()["member"]
	q, err := h.deps.Quality(r.Context(), members)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, qualityResponse{Members: members, Quality: q})
}
