package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/okian/boared/internal/domain/model"
)

// WriteDependencies defines the interface for history writes.
type WriteDependencies interface {
	AddMember(ctx context.Context, m model.Member) error
	AddGame(ctx context.Context, g model.Game) error
	AddSession(ctx context.Context, s model.Session) (model.Session, error)
	RecordResult(ctx context.Context, sessionID string, r model.Result) error
	Session(ctx context.Context, id string) (model.Session, error)
}

// WriteHandler handles member, game, session and result writes.
type WriteHandler struct {
	deps WriteDependencies
	now  func() time.Time
}

// NewWriteHandler creates a new write handler.
func NewWriteHandler(deps WriteDependencies) *WriteHandler {
	return &WriteHandler{deps: deps, now: time.Now}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

// HandlePostMember handles POST /members requests.
func (h *WriteHandler) HandlePostMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	m, err := req.toModel(h.now())
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := h.deps.AddMember(r.Context(), m); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, memberRequest{Name: m.Name, JoinDate: m.JoinDate.Format(model.DateLayout)})
}

// HandlePostGame handles POST /games requests.
func (h *WriteHandler) HandlePostGame(w http.ResponseWriter, r *http.Request) {
	var req gameRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	g, err := req.toModel()
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := h.deps.AddGame(r.Context(), g); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// HandlePostSession handles POST /sessions requests.
func (h *WriteHandler) HandlePostSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	s, err := req.toModel()
	if err != nil {
		writeFailure(w, err)
		return
	}
	created, err := h.deps.AddSession(r.Context(), s)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse(created))
}

// HandleGetSession handles GET /sessions/{id} requests.
func (h *WriteHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.deps.Session(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(s))
}

// HandlePutResult handles PUT /sessions/{id}/results requests and returns
// the updated session.
func (h *WriteHandler) HandlePutResult(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req resultRequest
	if err := decode(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	res, err := req.toModel()
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := h.deps.RecordResult(r.Context(), id, res); err != nil {
		writeFailure(w, err)
		return
	}
	s, err := h.deps.Session(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(s))
}
