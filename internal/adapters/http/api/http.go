// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/okian/boared/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider
	LeaderboardDependencies
	RatingsDependencies
	RankDependencies
	QualityDependencies
	WriteDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	ratingsHandler     *RatingsHandler
	rankHandler        *RankHandler
	qualityHandler     *QualityHandler
	writeHandler       *WriteHandler
	log                logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
		ratingsHandler:     NewRatingsHandler(deps),
		rankHandler:        NewRankHandler(deps),
		qualityHandler:     NewQualityHandler(deps),
		writeHandler:       NewWriteHandler(deps),
		log:                log,
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r *mux.Router) {
	r.Use(LoggingMiddleware(s.log))

	r.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz")).Methods(http.MethodGet)
	r.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats")).Methods(http.MethodGet)
	r.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard")).Methods(http.MethodGet)
	r.HandleFunc("/ratings", MetricsMiddleware(s.ratingsHandler.HandleGetRatings, "ratings")).Methods(http.MethodGet)
	r.HandleFunc("/rank/{member}", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank")).Methods(http.MethodGet)
	r.HandleFunc("/quality", MetricsMiddleware(s.qualityHandler.HandleGetQuality, "quality")).Methods(http.MethodGet)

	r.HandleFunc("/members", MetricsMiddleware(s.writeHandler.HandlePostMember, "members")).Methods(http.MethodPost)
	r.HandleFunc("/games", MetricsMiddleware(s.writeHandler.HandlePostGame, "games")).Methods(http.MethodPost)
	r.HandleFunc("/sessions", MetricsMiddleware(s.writeHandler.HandlePostSession, "sessions")).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}", MetricsMiddleware(s.writeHandler.HandleGetSession, "session")).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}/results", MetricsMiddleware(s.writeHandler.HandlePutResult, "results")).Methods(http.MethodPut)
}

// Handler returns a router with every route registered.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := mux.NewRouter()
	s.Register(ctx, r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure translates an upstream error into its HTTP form.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}
